package entities

import (
	"time"

	"github.com/google/uuid"
)

// RefundRule grants Percent when the cancellation happens at least
// DaysBefore calendar days ahead of the meeting.
type RefundRule struct {
	DaysBefore int `json:"days_before"`
	Percent    int `json:"percent"`
}

type RefundPolicy struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	MeetingType MeetingType  `json:"meeting_type"`
	Rules       []RefundRule `json:"rules"`
	IsDefault   bool         `json:"is_default"`
	CreatedAt   time.Time    `json:"created_at"`
}
