package output

import (
	"context"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type NotificationLogRepository interface {
	Create(ctx context.Context, log *entities.NotificationLog) error
	// Exists reports whether any attempt was logged for the key.
	Exists(ctx context.Context, userID uuid.UUID, template entities.Template, referenceID string) (bool, error)
}
