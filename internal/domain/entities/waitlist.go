package entities

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistOffered   WaitlistStatus = "offered"
	WaitlistConverted WaitlistStatus = "converted"
	WaitlistExpired   WaitlistStatus = "expired"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// WaitlistEntry is one user's place in a meeting's queue. An offered entry
// holds the seat that was released to it until OfferExpiresAt.
type WaitlistEntry struct {
	ID             uuid.UUID      `json:"id"`
	MeetingID      uuid.UUID      `json:"meeting_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Position       int            `json:"position"`
	Status         WaitlistStatus `json:"status"`
	OfferedAt      time.Time      `json:"offered_at,omitzero"`
	OfferExpiresAt time.Time      `json:"offer_expires_at,omitzero"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (w *WaitlistEntry) IsActive() bool {
	return w.Status == WaitlistWaiting || w.Status == WaitlistOffered
}

func (w *WaitlistEntry) HasLiveOffer(now time.Time) bool {
	return w.Status == WaitlistOffered && now.Before(w.OfferExpiresAt)
}
