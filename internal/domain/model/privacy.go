package model

import "time"

// PrivacySettings captures per-user storage and encryption preferences.
// Mirrors columns on the users table for simple persistence.
type PrivacySettings struct {
	UserID             string
	AllowSourceStorage bool // keep the original message text on saved events
	AutoDeletePast     bool // purge events after they are long over
	EventRetentionDays int
	DataEncrypted      bool
	EncryptionKeyID    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewPrivacySettings(userID string) *PrivacySettings {
	now := time.Now()
	return &PrivacySettings{
		UserID:             userID,
		AllowSourceStorage: true,
		AutoDeletePast:     false,
		EventRetentionDays: 90,
		DataEncrypted:      false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (p *PrivacySettings) ShouldStoreSource() bool {
	return p.AllowSourceStorage
}

func (p *PrivacySettings) ShouldEncryptData() bool {
	return p.DataEncrypted
}

func (p *PrivacySettings) RetentionPeriod() time.Duration {
	return time.Duration(p.EventRetentionDays) * 24 * time.Hour
}
