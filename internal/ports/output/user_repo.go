package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) error
	// FindOnboardingCandidates returns users created in [from, to) whose
	// reminder counter equals count and who never registered for a meeting.
	FindOnboardingCandidates(ctx context.Context, from, to time.Time, count int) ([]entities.User, error)
	SetOnboardingReminderCount(ctx context.Context, id uuid.UUID, count int) error
}
