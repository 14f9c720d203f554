package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type WaitlistRepository interface {
	// Enqueue appends the user at max(position)+1. It fails with
	// ErrAlreadyWaiting when an active entry exists.
	Enqueue(ctx context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error)
	FindActive(ctx context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error)
	FindNextWaiting(ctx context.Context, meetingID uuid.UUID) (*entities.WaitlistEntry, error)
	// UpdateStatus persists status and offer columns while the stored status
	// equals from, else ErrInvalidStatus.
	UpdateStatus(ctx context.Context, entry *entities.WaitlistEntry, from entities.WaitlistStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.WaitlistEntry, error)
	FindExpiredOffers(ctx context.Context, now time.Time) ([]entities.WaitlistEntry, error)
	CancelAllForMeeting(ctx context.Context, meetingID uuid.UUID) (int64, error)
}
