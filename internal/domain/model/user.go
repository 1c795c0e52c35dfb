package model

import (
	"time"

	"telegram-event-bot/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user in our system.
// Privacy settings are embedded to ensure a single source of truth in-memory.
type User struct {
	ID           string
	TelegramID   int64
	Username     string
	Timezone     string // IANA zone name; empty means the service default applies
	RegisteredAt time.Time
	LastActiveAt time.Time
	IsAdmin      bool
	Privacy      PrivacySettings
}

// NewUser validates and builds a User. Telegram accounts without a public
// @username are legal, so username may be empty.
func NewUser(id string, tgID int64, username string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		RegisteredAt: time.Now(),
		LastActiveAt: time.Now(),
		IsAdmin:      false,
		Privacy:      *NewPrivacySettings(id),
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

// Location resolves the user's timezone, falling back to def when unset or
// invalid. Never returns nil as long as def is non-nil.
func (u *User) Location(def *time.Location) *time.Location {
	if u == nil || u.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return def
	}
	return loc
}
