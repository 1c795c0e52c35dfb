// Package timeparse resolves the free-text date, time and duration fragments
// produced by event extraction into concrete instants.
package timeparse

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnresolved reports that no instant could be derived from the text.
var ErrUnresolved = errors.New("could not resolve a time from text")

var (
	yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	pastRe = regexp.MustCompile(`(?i)\b(yesterday|last|ago)\b`)
	// numericDateRe spots explicit slash/dot/dash dates such as "25/12",
	// "04.05.26" or "2025-06-12".
	numericDateRe = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}([./-]\d{1,4})?`)
)

// Resolver turns natural-language time expressions into instants. It first
// tries rule-based relative parsing ("tomorrow at 7pm", "next Tuesday"), then
// falls back to absolute formats ("12/06/2025 18:30", "June 5 10:00") with a
// day-first date order.
type Resolver struct {
	w *when.Parser
}

func NewResolver() *Resolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{w: w}
}

// ResolveInstant parses text relative to base, interpreting bare dates and
// clock times in loc. Results in the past are pushed forward (next day for
// clock-only inputs, next year for yearless dates) unless the text asks for
// the past explicitly.
func (r *Resolver) ResolveInstant(text string, base time.Time, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrUnresolved
	}
	base = base.In(loc)

	// Explicit numeric dates go straight to the absolute parser. The rule
	// engine would otherwise latch onto the clock fragment of "12/06/2025
	// 18:30" and discard the date.
	if numericDateRe.MatchString(text) {
		if t, err := parseAbsolute(text, loc); err == nil {
			return preferFuture(t, base, text), nil
		}
	}

	if res, err := r.w.Parse(text, base); err == nil && res != nil {
		return preferFuture(res.Time, base, res.Text), nil
	}

	t, err := parseAbsolute(text, loc)
	if err != nil {
		return time.Time{}, ErrUnresolved
	}
	return preferFuture(t, base, text), nil
}

func parseAbsolute(text string, loc *time.Location) (time.Time, error) {
	return dateparse.ParseIn(text, loc,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
}

// preferFuture nudges a resolved instant forward when it landed in the past:
// by a day when the miss is under 24h (a bare clock time earlier today), by a
// year when the input carried no explicit year. Texts that name the past
// ("yesterday", "2 days ago") are left alone.
func preferFuture(t, base time.Time, matched string) time.Time {
	if !t.Before(base) || pastRe.MatchString(matched) {
		return t
	}
	if next := t.AddDate(0, 0, 1); !next.Before(base) {
		return next
	}
	if !yearRe.MatchString(matched) {
		if next := t.AddDate(1, 0, 0); !next.Before(base) {
			return next
		}
	}
	return t
}

// AlignEnd repairs an end instant that resolved before its start, which
// happens when the end fragment carried only a clock time ("from 6pm to
// 7pm"): the end is moved onto the start's day, or the day after for spans
// that cross midnight.
func AlignEnd(start, end time.Time) time.Time {
	if end.After(start) {
		return end
	}
	sameDay := time.Date(start.Year(), start.Month(), start.Day(),
		end.Hour(), end.Minute(), end.Second(), 0, start.Location())
	if sameDay.After(start) {
		return sameDay
	}
	return sameDay.AddDate(0, 0, 1)
}
