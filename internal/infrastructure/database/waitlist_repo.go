package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

var _ output.WaitlistRepository = (*WaitlistRepository)(nil)

var waitlistColumns = []string{
	"id", "meeting_id", "user_id", "position", "status",
	"offered_at", "offer_expires_at", "created_at", "updated_at",
}

var activeWaitlist = sq.Eq{"status": []entities.WaitlistStatus{entities.WaitlistWaiting, entities.WaitlistOffered}}

type WaitlistRepository struct {
	db DBTX
}

func NewWaitlistRepository(db DBTX) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func scanWaitlistEntry(row pgx.Row) (entities.WaitlistEntry, error) {
	var (
		e                entities.WaitlistEntry
		offered, expires pgtype.Timestamptz
	)
	err := row.Scan(&e.ID, &e.MeetingID, &e.UserID, &e.Position, &e.Status,
		&offered, &expires, &e.CreatedAt, &e.UpdatedAt)
	e.OfferedAt = pgtypeTimestamptzToTime(offered)
	e.OfferExpiresAt = pgtypeTimestamptzToTime(expires)
	return e, err
}

func (r *WaitlistRepository) Enqueue(ctx context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error) {
	sql := "SELECT " + joinColumns(waitlistColumns) + " FROM enqueue_waitlist($1, $2)"
	e, err := scanWaitlistEntry(r.db.QueryRow(ctx, sql, meetingID, userID))
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return &e, nil
	case isUniqueViolation(err, "uq_waitlists_active"):
		return nil, domain.ErrAlreadyWaiting
	case errors.As(err, &pgErr) && pgErr.Code == noDataFound:
		return nil, domain.ErrMeetingNotFound
	default:
		return nil, fmt.Errorf("enqueue waitlist: %w", err)
	}
}

func (r *WaitlistRepository) findOne(ctx context.Context, q sq.SelectBuilder) (*entities.WaitlistEntry, error) {
	e, err := scanWaitlistEntry(qRow(ctx, r.db, q.Limit(1)))
	if err != nil {
		return nil, orNotFound(err, domain.ErrWaitlistNotFound)
	}
	return &e, nil
}

func (r *WaitlistRepository) FindActive(ctx context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error) {
	return r.findOne(ctx, psql.Select(waitlistColumns...).From("waitlists").
		Where(sq.Eq{"meeting_id": meetingID, "user_id": userID}).
		Where(activeWaitlist))
}

func (r *WaitlistRepository) FindNextWaiting(ctx context.Context, meetingID uuid.UUID) (*entities.WaitlistEntry, error) {
	return r.findOne(ctx, psql.Select(waitlistColumns...).From("waitlists").
		Where(sq.Eq{"meeting_id": meetingID, "status": entities.WaitlistWaiting}).
		OrderBy("position"))
}

func (r *WaitlistRepository) UpdateStatus(ctx context.Context, e *entities.WaitlistEntry, from entities.WaitlistStatus) error {
	q := psql.Update("waitlists").
		Set("status", e.Status).
		Set("offered_at", timestamptz(e.OfferedAt)).
		Set("offer_expires_at", timestamptz(e.OfferExpiresAt)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": e.ID, "status": from}).
		Suffix("RETURNING updated_at")
	if err := qRow(ctx, r.db, q).Scan(&e.UpdatedAt); err != nil {
		return fmt.Errorf("update waitlist status: %w", orNotFound(err, domain.ErrInvalidStatus))
	}
	return nil
}

func (r *WaitlistRepository) list(ctx context.Context, q sq.SelectBuilder) ([]entities.WaitlistEntry, error) {
	rows, err := qQuery(ctx, r.db, q)
	return collect(rows, err, scanWaitlistEntry)
}

func (r *WaitlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.WaitlistEntry, error) {
	out, err := r.list(ctx, psql.Select(waitlistColumns...).From("waitlists").
		Where(sq.Eq{"user_id": userID}).
		Where(activeWaitlist).
		OrderBy("created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("list waitlist by user: %w", err)
	}
	return out, nil
}

func (r *WaitlistRepository) FindExpiredOffers(ctx context.Context, now time.Time) ([]entities.WaitlistEntry, error) {
	out, err := r.list(ctx, psql.Select(waitlistColumns...).From("waitlists").
		Where(sq.Eq{"status": entities.WaitlistOffered}).
		Where(sq.LtOrEq{"offer_expires_at": now}).
		OrderBy("offer_expires_at"))
	if err != nil {
		return nil, fmt.Errorf("find expired offers: %w", err)
	}
	return out, nil
}

func (r *WaitlistRepository) CancelAllForMeeting(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	tag, err := qExec(ctx, r.db, psql.Update("waitlists").
		Set("status", entities.WaitlistCancelled).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"meeting_id": meetingID}).
		Where(activeWaitlist))
	if err != nil {
		return 0, fmt.Errorf("cancel waitlist: %w", err)
	}
	return tag.RowsAffected(), nil
}
