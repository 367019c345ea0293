package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcludeSites(t *testing.T) {
	tests := []struct {
		name  string
		q     string
		sites []string
		want  string
	}{
		{"none", "tomato soup", nil, "tomato soup"},
		{"appended in order", "tomato soup", []string{"pinterest.com", " Quora.com "}, "tomato soup -site:pinterest.com -site:quora.com"},
		{"wildcards skipped", "tomato soup", []string{"pinterest.*", "", "quora.com"}, "tomato soup -site:quora.com"},
		{"already excluded", "soup -site:Pinterest.com", []string{"pinterest.com"}, "soup -site:Pinterest.com"},
		{"duplicates collapsed", "soup", []string{"a.example", "A.example"}, "soup -site:a.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExcludeSites(tt.q, tt.sites)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ExcludeSites(got, tt.sites), "applying twice changes nothing")
		})
	}
}
