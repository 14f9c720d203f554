package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

var _ output.NotificationLogRepository = (*NotificationLogRepository)(nil)

type NotificationLogRepository struct {
	db DBTX
}

func NewNotificationLogRepository(db DBTX) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) Create(ctx context.Context, l *entities.NotificationLog) error {
	q := psql.Insert("notification_logs").
		Columns("user_id", "template", "reference_id", "channel", "status", "provider_message_id", "error").
		Values(l.UserID, l.Template, l.ReferenceID, l.Channel, l.Status, l.ProviderMessageID, l.Error).
		Suffix("RETURNING id, created_at")
	if err := qRow(ctx, r.db, q).Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("create notification log: %w", err)
	}
	return nil
}

func (r *NotificationLogRepository) Exists(ctx context.Context, userID uuid.UUID, template entities.Template, referenceID string) (bool, error) {
	inner := psql.Select("1").From("notification_logs").
		Where(sq.Eq{"user_id": userID, "template": template, "reference_id": referenceID})
	var exists bool
	if err := qRow(ctx, r.db, inner.Prefix("SELECT EXISTS (").Suffix(")")).Scan(&exists); err != nil {
		return false, fmt.Errorf("check notification log: %w", err)
	}
	return exists, nil
}
