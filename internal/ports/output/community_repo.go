package output

import (
	"context"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type ReviewRepository interface {
	// Create fails with ErrReviewExists for a second review of the same meeting.
	Create(ctx context.Context, review *entities.Review) error
	// ListByMeeting returns public reviews plus the viewer's own.
	ListByMeeting(ctx context.Context, meetingID, viewerID uuid.UUID) ([]entities.Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Review, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type PraiseRepository interface {
	// Create fails with ErrPraiseExists when the sender already praised
	// someone at this meeting.
	Create(ctx context.Context, praise *entities.Praise) error
	ListReceived(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error)
	ListGiven(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error)
	CountReceived(ctx context.Context, userID uuid.UUID) (int, error)
	CountGiven(ctx context.Context, userID uuid.UUID) (int, error)
}

type BadgeRepository interface {
	// Award inserts the badge unless the user holds it already; the bool
	// reports whether a row was written.
	Award(ctx context.Context, badge *entities.Badge) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Badge, error)
}
