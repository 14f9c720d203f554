package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type RegistrationRepository interface {
	// Create fails with ErrAlreadyRegistered when the user already holds an
	// active registration for the meeting.
	Create(ctx context.Context, reg *entities.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Registration, error)
	FindByMerchantUID(ctx context.Context, merchantUID string) (*entities.Registration, error)
	FindActiveByMeetingAndUser(ctx context.Context, meetingID, userID uuid.UUID) (*entities.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Registration, error)
	ListByMeeting(ctx context.Context, meetingID uuid.UUID, statuses ...entities.RegistrationStatus) ([]entities.Registration, error)
	// ListRoster joins member details. An empty status lists every registration.
	ListRoster(ctx context.Context, meetingID uuid.UUID, status entities.RegistrationStatus) ([]entities.RosterEntry, error)
	// UpdateStatus persists the status, payment and refund columns of reg,
	// but only while the stored status still equals from. Otherwise it
	// returns ErrInvalidStatus.
	UpdateStatus(ctx context.Context, reg *entities.Registration, from entities.RegistrationStatus) error
	SetRefundStatus(ctx context.Context, id uuid.UUID, status entities.RefundStatus) error
	FindOverdueTransfers(ctx context.Context, now time.Time) ([]entities.Registration, error)
	// FindStalePending returns card registrations still pending that were
	// created before the given instant.
	FindStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Registration, error)
	// MarkAttended flags the confirmed registrations among ids and returns them.
	MarkAttended(ctx context.Context, meetingID uuid.UUID, ids []uuid.UUID) ([]entities.Registration, error)
	CountAttended(ctx context.Context, userID uuid.UUID) (int, error)
}
