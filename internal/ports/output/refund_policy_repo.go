package output

import (
	"context"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type RefundPolicyRepository interface {
	// Create stores the policy. A default policy replaces the previous
	// default of its meeting type.
	Create(ctx context.Context, policy *entities.RefundPolicy) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.RefundPolicy, error)
	FindDefaultForType(ctx context.Context, meetingType entities.MeetingType) (*entities.RefundPolicy, error)
	List(ctx context.Context) ([]entities.RefundPolicy, error)
}
