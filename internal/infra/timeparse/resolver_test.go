//go:build !integration

package timeparse

import (
	"errors"
	"testing"
	"time"
)

func testBase(t *testing.T) (time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// A fixed Tuesday noon keeps relative phrases deterministic.
	return time.Date(2025, 6, 10, 12, 0, 0, 0, loc), loc
}

func TestResolveInstant(t *testing.T) {
	r := NewResolver()
	base, loc := testBase(t)

	t.Run("relative phrase resolves to the next day", func(t *testing.T) {
		got, err := r.ResolveInstant("tomorrow at 7pm", base, loc)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		want := time.Date(2025, 6, 11, 19, 0, 0, 0, loc)
		if !got.Equal(want) {
			t.Errorf("expected %s, but got %s", want, got)
		}
	})

	t.Run("absolute day-first date", func(t *testing.T) {
		got, err := r.ResolveInstant("12/06/2025 18:30", base, loc)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if got.Day() != 12 || got.Month() != time.June || got.Year() != 2025 {
			t.Errorf("expected June 12 2025, but got %s", got)
		}
		if got.Hour() != 18 || got.Minute() != 30 {
			t.Errorf("expected 18:30, but got %02d:%02d", got.Hour(), got.Minute())
		}
	})

	t.Run("clock time earlier today moves to tomorrow", func(t *testing.T) {
		got, err := r.ResolveInstant("9am", base, loc)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		want := time.Date(2025, 6, 11, 9, 0, 0, 0, loc)
		if !got.Equal(want) {
			t.Errorf("expected %s, but got %s", want, got)
		}
	})

	t.Run("explicit past stays in the past", func(t *testing.T) {
		got, err := r.ResolveInstant("yesterday at 5pm", base, loc)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !got.Before(base) {
			t.Errorf("expected a past instant, but got %s", got)
		}
	})

	t.Run("unparseable text fails", func(t *testing.T) {
		_, err := r.ResolveInstant("completely unrelated words", base, loc)
		if !errors.Is(err, ErrUnresolved) {
			t.Errorf("expected ErrUnresolved, but got %v", err)
		}
	})

	t.Run("empty text fails", func(t *testing.T) {
		_, err := r.ResolveInstant("   ", base, loc)
		if !errors.Is(err, ErrUnresolved) {
			t.Errorf("expected ErrUnresolved, but got %v", err)
		}
	})
}

func TestPreferFuture(t *testing.T) {
	base, loc := testBase(t)

	t.Run("future instants pass through", func(t *testing.T) {
		in := base.Add(2 * time.Hour)
		if got := preferFuture(in, base, "2pm"); !got.Equal(in) {
			t.Errorf("expected %s, but got %s", in, got)
		}
	})

	t.Run("yearless date in the past moves a year ahead", func(t *testing.T) {
		in := time.Date(2025, 1, 5, 10, 0, 0, 0, loc) // months before base
		got := preferFuture(in, base, "January 5 10:00")
		want := in.AddDate(1, 0, 0)
		if !got.Equal(want) {
			t.Errorf("expected %s, but got %s", want, got)
		}
	})

	t.Run("explicit year in the past is respected", func(t *testing.T) {
		in := time.Date(2024, 1, 5, 10, 0, 0, 0, loc)
		got := preferFuture(in, base, "05/01/2024 10:00")
		if !got.Equal(in) {
			t.Errorf("expected %s, but got %s", in, got)
		}
	})
}

func TestAlignEnd(t *testing.T) {
	_, loc := testBase(t)
	start := time.Date(2025, 6, 11, 18, 0, 0, 0, loc)

	t.Run("end after start is untouched", func(t *testing.T) {
		end := start.Add(time.Hour)
		if got := AlignEnd(start, end); !got.Equal(end) {
			t.Errorf("expected %s, but got %s", end, got)
		}
	})

	t.Run("end clock on an earlier day moves to the start's day", func(t *testing.T) {
		end := time.Date(2025, 6, 10, 19, 0, 0, 0, loc) // "to 7pm" resolved a day early
		got := AlignEnd(start, end)
		want := time.Date(2025, 6, 11, 19, 0, 0, 0, loc)
		if !got.Equal(want) {
			t.Errorf("expected %s, but got %s", want, got)
		}
	})

	t.Run("span crossing midnight lands on the next day", func(t *testing.T) {
		end := time.Date(2025, 6, 11, 9, 0, 0, 0, loc) // 6pm to 9am
		got := AlignEnd(start, end)
		want := time.Date(2025, 6, 12, 9, 0, 0, 0, loc)
		if !got.Equal(want) {
			t.Errorf("expected %s, but got %s", want, got)
		}
	})
}
