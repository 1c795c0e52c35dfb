package model

import "strings"

// EventDraft is the raw extraction result returned by the language model,
// before any date or duration text has been resolved to instants. Field names
// follow the JSON contract the extraction prompt demands; missing details
// arrive as JSON null and decode to zero values.
type EventDraft struct {
	Title           string `json:"title"`
	StartTimeText   string `json:"start_time_str"`
	EndTimeText     string `json:"end_time_str"`
	DurationText    string `json:"duration_str"`
	Location        string `json:"location"`
	ReminderMinutes int    `json:"reminder"`
	Timezone        string `json:"timezone"`
}

func (d *EventDraft) HasStart() bool {
	return d != nil && strings.TrimSpace(d.StartTimeText) != ""
}

func (d *EventDraft) HasEnd() bool {
	return d != nil && strings.TrimSpace(d.EndTimeText) != ""
}

func (d *EventDraft) HasDuration() bool {
	return d != nil && strings.TrimSpace(d.DurationText) != ""
}
