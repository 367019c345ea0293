package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"", TimeRangeNone, false},
		{"hour", TimeRangeHour, false},
		{" Day ", TimeRangeDay, false},
		{"MONTH", TimeRangeMonth, false},
		{"year", TimeRangeYear, false},
		{"week", TimeRangeNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := FilterSet{TimeRange: TimeRangeYear, Region: "DE", Language: "de"}
	day := TimeRangeDay
	region := "US"
	noJS := true

	t.Run("defaults only", func(t *testing.T) {
		assert.Equal(t, defaults, Merge(defaults, FilterSelection{}, FilterOverlay{}))
	})

	t.Run("selection over defaults", func(t *testing.T) {
		got := Merge(defaults, FilterSelection{TimeRange: &day, Region: &region, NoJS: &noJS}, FilterOverlay{})
		assert.Equal(t, FilterSet{TimeRange: TimeRangeDay, Region: "US", Language: "de", NoJS: true}, got)
	})

	t.Run("overlay over selection", func(t *testing.T) {
		got := Merge(defaults, FilterSelection{TimeRange: &day}, FilterOverlay{TimeRange: TimeRangeHour})
		assert.Equal(t, TimeRangeHour, got.TimeRange)
		assert.Equal(t, "DE", got.Region)
	})

	t.Run("safe search and alternatives", func(t *testing.T) {
		on, off := true, false
		base := defaults
		base.SiteAlternatives = true
		got := Merge(base, FilterSelection{SafeSearch: &on, SiteAlternatives: &off}, FilterOverlay{})
		assert.True(t, got.SafeSearch)
		assert.False(t, got.SiteAlternatives)
	})

	t.Run("empty overlay keeps selection", func(t *testing.T) {
		assert.True(t, FilterOverlay{}.IsEmpty())
		got := Merge(defaults, FilterSelection{TimeRange: &day}, FilterOverlay{})
		assert.Equal(t, TimeRangeDay, got.TimeRange)
	})
}
