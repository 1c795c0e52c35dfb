package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// durationFragRe matches one duration fragment. Fragments may repeat back to
// back or with filler between them ("1h30m", "1 hour 30 minutes", "1 hour and
// 30 minutes"); the total is their sum.
var durationFragRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(hour|hr|h|minute|min|m)s?`)

// ParseDurationText extracts a positive duration from free text. The second
// return is false when nothing usable was found.
func ParseDurationText(text string) (time.Duration, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	var total time.Duration
	for _, m := range durationFragRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil || n <= 0 {
			continue
		}
		if strings.HasPrefix(strings.ToLower(m[2]), "h") {
			total += time.Duration(n * float64(time.Hour))
		} else {
			total += time.Duration(n * float64(time.Minute))
		}
	}
	if total > 0 {
		return total, true
	}

	// Last resort for compact inputs the fragment pattern missed.
	if d, err := time.ParseDuration(strings.ReplaceAll(strings.ToLower(text), " ", "")); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
