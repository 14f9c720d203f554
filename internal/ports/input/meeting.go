package input

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

// MeetingView is a meeting as shown to one viewer.
type MeetingView struct {
	entities.Meeting
	DisplayStatus  domain.DisplayStatus    `json:"display_status"`
	RemainingSeats int                     `json:"remaining_seats"`
	MyRegistration *entities.Registration  `json:"my_registration,omitempty"`
	MyWaitlist     *entities.WaitlistEntry `json:"my_waitlist,omitempty"`
}

// MeetingInput is the admin form for creating or editing a meeting.
type MeetingInput struct {
	Title          string               `json:"title"`
	BookTitle      string               `json:"book_title"`
	Description    string               `json:"description"`
	Location       string               `json:"location"`
	StartsAt       time.Time            `json:"starts_at"`
	EndsAt         time.Time            `json:"ends_at"`
	Capacity       int                  `json:"capacity"`
	Fee            int64                `json:"fee"`
	Type           entities.MeetingType `json:"meeting_type"`
	RefundPolicyID uuid.UUID            `json:"refund_policy_id"`
}

type MeetingUseCase interface {
	// viewer is uuid.Nil for anonymous callers.
	List(ctx context.Context, filter output.MeetingFilter, viewer uuid.UUID) ([]MeetingView, error)
	Get(ctx context.Context, id, viewer uuid.UUID) (*MeetingView, error)
	Create(ctx context.Context, in MeetingInput) (*entities.Meeting, error)
	Update(ctx context.Context, id uuid.UUID, in MeetingInput) (*entities.Meeting, error)
	// Cancel returns the number of registrations that were cancelled.
	Cancel(ctx context.Context, id uuid.UUID) (int, error)
	ExportRoster(ctx context.Context, id uuid.UUID) (filename string, data []byte, err error)
}
