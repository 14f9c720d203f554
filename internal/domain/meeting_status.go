package domain

import (
	"time"

	"jidokhae/internal/domain/entities"
)

// DisplayStatus is what the meeting list shows; it is derived, never stored.
type DisplayStatus string

const (
	DisplayOpen        DisplayStatus = "open"
	DisplayClosingSoon DisplayStatus = "closing_soon"
	DisplayFull        DisplayStatus = "full"
	DisplayClosed      DisplayStatus = "closed"
	DisplayCancelled   DisplayStatus = "cancelled"
)

func (s DisplayStatus) Valid() bool {
	switch s {
	case DisplayOpen, DisplayClosingSoon, DisplayFull, DisplayClosed, DisplayCancelled:
		return true
	}
	return false
}

const closingSoonMinSeats = 3

// DeriveMeetingStatus maps stored status, start time and remaining seats to
// the status badge shown to members.
func DeriveMeetingStatus(m *entities.Meeting, now time.Time) DisplayStatus {
	switch {
	case m.Status == entities.MeetingCancelled:
		return DisplayCancelled
	case m.Status == entities.MeetingCompleted, m.HasStarted(now):
		return DisplayClosed
	}
	remaining := m.RemainingSeats()
	if remaining <= 0 {
		return DisplayFull
	}
	if remaining <= closingSoonThreshold(m.Capacity) {
		return DisplayClosingSoon
	}
	return DisplayOpen
}

// closingSoonThreshold is 20% of capacity, but never fewer than 3 seats.
func closingSoonThreshold(capacity int) int {
	return max(capacity/5, closingSoonMinSeats)
}
