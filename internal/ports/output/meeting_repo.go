package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
)

// MeetingFilter narrows the meeting list. Zero values mean "any".
type MeetingFilter struct {
	Statuses []domain.DisplayStatus
	Types    []entities.MeetingType
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.Meeting) error
	// Update rewrites the editable columns. It fails with ErrCapacityTooLow
	// when the new capacity is below current_participants.
	Update(ctx context.Context, meeting *entities.Meeting) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	List(ctx context.Context, filter MeetingFilter, now time.Time) ([]entities.Meeting, error)
	// ReserveSlot increments current_participants if a seat is left.
	ReserveSlot(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseSlot(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) error
	// FindStartingBetween returns open meetings with starts_at in [from, to).
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]entities.Meeting, error)
	// FindEndedBetween returns non-cancelled meetings with ends_at in [from, to).
	FindEndedBetween(ctx context.Context, from, to time.Time) ([]entities.Meeting, error)
}
