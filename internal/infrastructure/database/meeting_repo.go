package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

var _ output.MeetingRepository = (*MeetingRepository)(nil)

var meetingColumns = []string{
	"id", "title", "book_title", "description", "location", "starts_at", "ends_at",
	"capacity", "current_participants", "fee", "status", "meeting_type", "refund_policy_id",
	"created_at", "updated_at",
}

type MeetingRepository struct {
	db DBTX
}

func NewMeetingRepository(db DBTX) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func scanMeeting(row pgx.Row) (entities.Meeting, error) {
	var (
		m      entities.Meeting
		policy pgtype.UUID
	)
	err := row.Scan(&m.ID, &m.Title, &m.BookTitle, &m.Description, &m.Location, &m.StartsAt, &m.EndsAt,
		&m.Capacity, &m.CurrentParticipants, &m.Fee, &m.Status, &m.Type, &policy,
		&m.CreatedAt, &m.UpdatedAt)
	m.RefundPolicyID = pgtypeUUIDToUUID(policy)
	return m, err
}

func (r *MeetingRepository) Create(ctx context.Context, m *entities.Meeting) error {
	q := psql.Insert("meetings").
		Columns("title", "book_title", "description", "location", "starts_at", "ends_at",
			"capacity", "fee", "status", "meeting_type", "refund_policy_id").
		Values(m.Title, m.BookTitle, m.Description, m.Location, m.StartsAt, m.EndsAt,
			m.Capacity, m.Fee, m.Status, m.Type, nullableUUID(m.RefundPolicyID)).
		Suffix("RETURNING id, current_participants, created_at, updated_at")
	if err := qRow(ctx, r.db, q).Scan(&m.ID, &m.CurrentParticipants, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) Update(ctx context.Context, m *entities.Meeting) error {
	q := psql.Update("meetings").
		Set("title", m.Title).
		Set("book_title", m.BookTitle).
		Set("description", m.Description).
		Set("location", m.Location).
		Set("starts_at", m.StartsAt).
		Set("ends_at", m.EndsAt).
		Set("capacity", m.Capacity).
		Set("fee", m.Fee).
		Set("meeting_type", m.Type).
		Set("refund_policy_id", nullableUUID(m.RefundPolicyID)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": m.ID}).
		Where("current_participants <= ?", m.Capacity).
		Suffix("RETURNING current_participants, updated_at")
	err := qRow(ctx, r.db, q).Scan(&m.CurrentParticipants, &m.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update meeting: %w", err)
	}
	current, err := r.FindByID(ctx, m.ID)
	if err != nil {
		return err
	}
	return domain.ErrCapacityTooLow.With("current", current.CurrentParticipants)
}

func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, err := scanMeeting(qRow(ctx, r.db, psql.Select(meetingColumns...).From("meetings").Where(sq.Eq{"id": id})))
	if err != nil {
		return nil, orNotFound(err, domain.ErrMeetingNotFound)
	}
	return &m, nil
}

// displayStatusCond mirrors domain.DeriveMeetingStatus in SQL.
func displayStatusCond(st domain.DisplayStatus, now time.Time) sq.Sqlizer {
	upcoming := sq.And{sq.Eq{"status": entities.MeetingOpen}, sq.Gt{"starts_at": now}}
	threshold := sq.Expr("capacity - current_participants <= GREATEST(capacity / 5, 3)")
	switch st {
	case domain.DisplayCancelled:
		return sq.Eq{"status": entities.MeetingCancelled}
	case domain.DisplayClosed:
		return sq.Or{
			sq.Eq{"status": entities.MeetingCompleted},
			sq.And{sq.Eq{"status": entities.MeetingOpen}, sq.LtOrEq{"starts_at": now}},
		}
	case domain.DisplayFull:
		return append(upcoming, sq.Expr("current_participants >= capacity"))
	case domain.DisplayClosingSoon:
		return append(upcoming, sq.Expr("current_participants < capacity"), threshold)
	default:
		return append(upcoming, sq.Expr("NOT (capacity - current_participants <= GREATEST(capacity / 5, 3))"))
	}
}

func (r *MeetingRepository) List(ctx context.Context, f output.MeetingFilter, now time.Time) ([]entities.Meeting, error) {
	q := psql.Select(meetingColumns...).From("meetings").OrderBy("starts_at", "id")
	if len(f.Statuses) > 0 {
		or := sq.Or{}
		for _, st := range f.Statuses {
			or = append(or, displayStatusCond(st, now))
		}
		q = q.Where(or)
	}
	if len(f.Types) > 0 {
		q = q.Where(sq.Eq{"meeting_type": f.Types})
	}
	if !f.From.IsZero() {
		q = q.Where(sq.GtOrEq{"starts_at": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(sq.Lt{"starts_at": f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	rows, err := qQuery(ctx, r.db, q)
	meetings, err := collect(rows, err, scanMeeting)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

func (r *MeetingRepository) ReserveSlot(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, "SELECT reserve_meeting_slot($1)", id).Scan(&ok); err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return ok, nil
}

func (r *MeetingRepository) ReleaseSlot(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, "SELECT release_meeting_slot($1)", id); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (r *MeetingRepository) SetStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) error {
	tag, err := qExec(ctx, r.db, psql.Update("meetings").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set meeting status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (r *MeetingRepository) between(ctx context.Context, column string, from, to time.Time, where sq.Sqlizer) ([]entities.Meeting, error) {
	q := psql.Select(meetingColumns...).From("meetings").
		Where(sq.GtOrEq{column: from}).
		Where(sq.Lt{column: to}).
		Where(where).
		OrderBy(column)
	rows, err := qQuery(ctx, r.db, q)
	return collect(rows, err, scanMeeting)
}

func (r *MeetingRepository) FindStartingBetween(ctx context.Context, from, to time.Time) ([]entities.Meeting, error) {
	out, err := r.between(ctx, "starts_at", from, to, sq.Eq{"status": entities.MeetingOpen})
	if err != nil {
		return nil, fmt.Errorf("find meetings starting between: %w", err)
	}
	return out, nil
}

func (r *MeetingRepository) FindEndedBetween(ctx context.Context, from, to time.Time) ([]entities.Meeting, error) {
	out, err := r.between(ctx, "ends_at", from, to, sq.NotEq{"status": entities.MeetingCancelled})
	if err != nil {
		return nil, fmt.Errorf("find meetings ended between: %w", err)
	}
	return out, nil
}
