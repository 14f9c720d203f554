package entities

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingOpen      MeetingStatus = "open"
	MeetingCancelled MeetingStatus = "cancelled"
	MeetingCompleted MeetingStatus = "completed"
)

type MeetingType string

const (
	MeetingRegular    MeetingType = "regular"
	MeetingDiscussion MeetingType = "discussion"
	MeetingSpecial    MeetingType = "special"
)

func (t MeetingType) Valid() bool {
	switch t {
	case MeetingRegular, MeetingDiscussion, MeetingSpecial:
		return true
	}
	return false
}

type Meeting struct {
	ID                  uuid.UUID     `json:"id"`
	Title               string        `json:"title"`
	BookTitle           string        `json:"book_title"`
	Description         string        `json:"description"`
	Location            string        `json:"location"`
	StartsAt            time.Time     `json:"starts_at"`
	EndsAt              time.Time     `json:"ends_at"`
	Capacity            int           `json:"capacity"`
	CurrentParticipants int           `json:"current_participants"`
	Fee                 int64         `json:"fee"`
	Status              MeetingStatus `json:"status"`
	Type                MeetingType   `json:"meeting_type"`
	RefundPolicyID      uuid.UUID     `json:"refund_policy_id,omitzero"` // uuid.Nil = default policy for Type
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// RemainingSeats never goes below zero.
func (m *Meeting) RemainingSeats() int {
	if r := m.Capacity - m.CurrentParticipants; r > 0 {
		return r
	}
	return 0
}

func (m *Meeting) HasStarted(now time.Time) bool {
	return !now.Before(m.StartsAt)
}

func (m *Meeting) HasEnded(now time.Time) bool {
	return !m.EndsAt.IsZero() && !now.Before(m.EndsAt)
}

// AcceptsRegistrations is true while the meeting is open and has not started.
func (m *Meeting) AcceptsRegistrations(now time.Time) bool {
	return m.Status == MeetingOpen && !m.HasStarted(now)
}

func (m *Meeting) IsFree() bool {
	return m.Fee <= 0
}
