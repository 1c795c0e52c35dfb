// Package calendar renders stored events as Google Calendar links and
// downloadable .ics files.
package calendar

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-event-bot/internal/domain/model"

	ics "github.com/arran4/golang-ical"
)

const (
	googleBase = "https://calendar.google.com/calendar/render?action=TEMPLATE"
	// Google's template endpoint takes local wall-clock stamps without a
	// zone designator and applies the user's calendar zone.
	gcalTimeLayout = "20060102T150405"
	uidSuffix      = "@telegram-event-bot"
)

// GoogleLink builds the prefilled "add to calendar" URL for an event. Times
// render as local wall-clock in loc.
func GoogleLink(e *model.CalendarEvent, loc *time.Location) string {
	start := e.StartAt.In(loc).Format(gcalTimeLayout)
	end := e.EndAt.In(loc).Format(gcalTimeLayout)

	var b strings.Builder
	b.WriteString(googleBase)
	b.WriteString("&text=")
	b.WriteString(url.QueryEscape(e.Title))
	b.WriteString("&dates=")
	b.WriteString(start)
	b.WriteString("/")
	b.WriteString(end)
	if e.Location != "" {
		b.WriteString("&location=")
		b.WriteString(url.QueryEscape(e.Location))
	}
	if e.ReminderMinutes > 0 {
		b.WriteString("&reminders=popup%3A")
		b.WriteString(strconv.Itoa(e.ReminderMinutes))
	}
	return b.String()
}

// ICS serializes the event as an iCalendar file, including a display alarm
// when a reminder is set. Timestamps are written in UTC.
func ICS(e *model.CalendarEvent) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId("-//telegram-event-bot//EN")

	ev := cal.AddEvent(e.ID + uidSuffix)
	ev.SetCreatedTime(e.CreatedAt)
	ev.SetDtStampTime(e.UpdatedAt)
	ev.SetStartAt(e.StartAt)
	ev.SetEndAt(e.EndAt)
	ev.SetSummary(e.Title)
	if e.Location != "" {
		ev.SetLocation(e.Location)
	}
	if e.SourceText != "" {
		ev.SetDescription(e.SourceText)
	}

	if e.ReminderMinutes > 0 {
		alarm := ev.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", e.ReminderMinutes))
		alarm.SetProperty(ics.ComponentPropertyDescription, e.Title)
	}

	return []byte(cal.Serialize())
}

// Filename returns a filesystem-safe name for the event's .ics download.
func Filename(e *model.CalendarEvent) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, e.Title)
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}
