package upstream

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	mobileUA  = "%s/5.0 (Android 0; Mobile; rv:54.0) Gecko/54.0 %s/59.0"
	desktopUA = "%s/5.0 (X11; %s x86_64; rv:75.0) Gecko/20100101 %s/75.0"
)

// RandomUserAgent returns a plausible but non-identifying user agent.
// The mobile form is used when like looks like a phone browser.
func RandomUserAgent(like string) string {
	mozilla := pick("Moo", "Woah", "Bro", "Slow") + "zilla"
	firefox := pick("Choir", "Squier", "Higher", "Wire") + "fox"
	linux := pick("Win", "Sin", "Gin", "Fin", "Kin") + "ux"

	if strings.Contains(like, "Android") || strings.Contains(like, "iPhone") {
		return fmt.Sprintf(mobileUA, mozilla, firefox)
	}
	return fmt.Sprintf(desktopUA, mozilla, linux, firefox)
}

func pick(options ...string) string {
	return options[rand.IntN(len(options))]
}
