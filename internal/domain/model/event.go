package model

import (
	"strings"
	"time"

	"telegram-event-bot/internal/domain"

	"github.com/oklog/ulid/v2"
)

// DefaultEventTitle is used when extraction yields no usable title.
const DefaultEventTitle = "Event"

// DefaultEventDuration applies when neither an end time nor a duration was
// given in the source message.
const DefaultEventDuration = time.Hour

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCanceled  EventStatus = "canceled"
)

// CalendarEvent is the scheduled event extracted from a user's message.
// StartAt and EndAt are absolute instants; Timezone records the IANA zone the
// source text was interpreted in so replies can render local wall-clock times.
type CalendarEvent struct {
	ID              string // ULID, time-sortable
	UserID          string
	Title           string
	Location        string
	SourceText      string // original message, empty when the user disallows storage
	StartAt         time.Time
	EndAt           time.Time
	Timezone        string
	ReminderMinutes int        // 0 means no reminder
	ReminderAt      *time.Time // nil when no reminder is scheduled
	RemindedAt      *time.Time // nil until the reminder was delivered
	Status          EventStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewCalendarEvent validates and builds an event. A zero endAt, or one not
// after startAt, falls back to startAt plus the default duration.
func NewCalendarEvent(id, userID, title string, startAt, endAt time.Time, tz string) (*CalendarEvent, error) {
	if id == "" {
		id = ulid.Make().String()
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if startAt.IsZero() {
		return nil, domain.ErrNoEventTime
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultEventTitle
	}
	if endAt.IsZero() || !endAt.After(startAt) {
		endAt = startAt.Add(DefaultEventDuration)
	}
	now := time.Now()
	return &CalendarEvent{
		ID:        id,
		UserID:    userID,
		Title:     title,
		StartAt:   startAt,
		EndAt:     endAt,
		Timezone:  tz,
		Status:    EventStatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (e *CalendarEvent) IsZero() bool { return e == nil || e.ID == "" }

func (e *CalendarEvent) Duration() time.Duration { return e.EndAt.Sub(e.StartAt) }

// SetReminder schedules a popup reminder minutes before the start. Zero or
// negative minutes clears any reminder.
func (e *CalendarEvent) SetReminder(minutes int) {
	if minutes <= 0 {
		e.ReminderMinutes = 0
		e.ReminderAt = nil
		e.UpdatedAt = time.Now()
		return
	}
	at := e.StartAt.Add(-time.Duration(minutes) * time.Minute)
	e.ReminderMinutes = minutes
	e.ReminderAt = &at
	e.UpdatedAt = time.Now()
}

// MarkReminded records delivery; the reminder will not fire again.
func (e *CalendarEvent) MarkReminded(at time.Time) {
	e.RemindedAt = &at
	e.UpdatedAt = at
}

func (e *CalendarEvent) Cancel() error {
	if e.Status == EventStatusCanceled {
		return domain.ErrEventNotEditable
	}
	e.Status = EventStatusCanceled
	e.UpdatedAt = time.Now()
	return nil
}

func (e *CalendarEvent) IsPast(now time.Time) bool { return e.EndAt.Before(now) }

// Local resolves the zone the event's times should be displayed in.
func (e *CalendarEvent) Local(def *time.Location) *time.Location {
	if e.Timezone != "" {
		if loc, err := time.LoadLocation(e.Timezone); err == nil {
			return loc
		}
	}
	return def
}
