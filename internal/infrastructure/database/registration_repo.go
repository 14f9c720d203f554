package database

import (
	"context"
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

var _ output.RegistrationRepository = (*RegistrationRepository)(nil)

// registrationColumns selects every column of alias r, with nullable text
// collapsed to "".
var registrationColumns = []string{
	"r.id", "r.meeting_id", "r.user_id", "r.status", "r.payment_method",
	"COALESCE(r.merchant_uid, '')", "COALESCE(r.payment_id, '')", "r.amount",
	"COALESCE(r.depositor_name, '')", "r.transfer_deadline", "r.refund_amount", "r.refund_status",
	"r.attended", "r.cancelled_at", "COALESCE(r.cancel_reason, '')", "r.created_at", "r.updated_at",
}

type RegistrationRepository struct {
	db DBTX
}

func NewRegistrationRepository(db DBTX) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func registrationDest(reg *entities.Registration, deadline, cancelled *pgtype.Timestamptz) []any {
	return []any{
		&reg.ID, &reg.MeetingID, &reg.UserID, &reg.Status, &reg.PaymentMethod,
		&reg.MerchantUID, &reg.PaymentID, &reg.Amount,
		&reg.DepositorName, deadline, &reg.RefundAmount, &reg.RefundStatus,
		&reg.Attended, cancelled, &reg.CancelReason, &reg.CreatedAt, &reg.UpdatedAt,
	}
}

func scanRegistration(row pgx.Row) (entities.Registration, error) {
	var (
		reg                 entities.Registration
		deadline, cancelled pgtype.Timestamptz
	)
	err := row.Scan(registrationDest(&reg, &deadline, &cancelled)...)
	reg.TransferDeadline = pgtypeTimestamptzToTime(deadline)
	reg.CancelledAt = pgtypeTimestamptzToTime(cancelled)
	return reg, err
}

func scanRosterEntry(row pgx.Row) (entities.RosterEntry, error) {
	var (
		e                   entities.RosterEntry
		deadline, cancelled pgtype.Timestamptz
	)
	dest := append(registrationDest(&e.Registration, &deadline, &cancelled), &e.UserName, &e.UserEmail, &e.UserPhone)
	err := row.Scan(dest...)
	e.TransferDeadline = pgtypeTimestamptzToTime(deadline)
	e.CancelledAt = pgtypeTimestamptzToTime(cancelled)
	return e, err
}

func selectRegistrations() sq.SelectBuilder {
	return psql.Select(registrationColumns...).From("registrations r")
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *entities.Registration) error {
	q := psql.Insert("registrations").
		Columns("meeting_id", "user_id", "status", "payment_method", "merchant_uid",
			"amount", "depositor_name", "transfer_deadline", "refund_status").
		Values(reg.MeetingID, reg.UserID, reg.Status, reg.PaymentMethod, text(reg.MerchantUID),
			reg.Amount, text(reg.DepositorName), timestamptz(reg.TransferDeadline), entities.RefundNone).
		Suffix("RETURNING id, refund_status, created_at, updated_at")
	err := qRow(ctx, r.db, q).Scan(&reg.ID, &reg.RefundStatus, &reg.CreatedAt, &reg.UpdatedAt)
	if isUniqueViolation(err, "uq_registrations_active") {
		return domain.ErrAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) findOne(ctx context.Context, where sq.Sqlizer) (*entities.Registration, error) {
	reg, err := scanRegistration(qRow(ctx, r.db, selectRegistrations().Where(where).Limit(1)))
	if err != nil {
		return nil, orNotFound(err, domain.ErrRegistrationNotFound)
	}
	return &reg, nil
}

func (r *RegistrationRepository) list(ctx context.Context, q sq.SelectBuilder) ([]entities.Registration, error) {
	rows, err := qQuery(ctx, r.db, q)
	return collect(rows, err, scanRegistration)
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Registration, error) {
	return r.findOne(ctx, sq.Eq{"r.id": id})
}

func (r *RegistrationRepository) FindByMerchantUID(ctx context.Context, merchantUID string) (*entities.Registration, error) {
	return r.findOne(ctx, sq.Eq{"r.merchant_uid": merchantUID})
}

func (r *RegistrationRepository) FindActiveByMeetingAndUser(ctx context.Context, meetingID, userID uuid.UUID) (*entities.Registration, error) {
	return r.findOne(ctx, sq.And{
		sq.Eq{"r.meeting_id": meetingID, "r.user_id": userID},
		sq.NotEq{"r.status": entities.RegistrationCancelled},
	})
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Registration, error) {
	out, err := r.list(ctx, selectRegistrations().Where(sq.Eq{"r.user_id": userID}).OrderBy("r.created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("list registrations by user: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID, statuses ...entities.RegistrationStatus) ([]entities.Registration, error) {
	q := selectRegistrations().Where(sq.Eq{"r.meeting_id": meetingID}).OrderBy("r.created_at")
	if len(statuses) > 0 {
		q = q.Where(sq.Eq{"r.status": statuses})
	}
	out, err := r.list(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list registrations by meeting: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) ListRoster(ctx context.Context, meetingID uuid.UUID, status entities.RegistrationStatus) ([]entities.RosterEntry, error) {
	q := psql.Select(append(registrationColumns, "u.name", "u.email", "u.phone")...).
		From("registrations r").
		Join("users u ON u.id = r.user_id").
		Where(sq.Eq{"r.meeting_id": meetingID}).
		OrderBy("r.created_at")
	if status != "" {
		q = q.Where(sq.Eq{"r.status": status})
	}
	rows, err := qQuery(ctx, r.db, q)
	out, err := collect(rows, err, scanRosterEntry)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) UpdateStatus(ctx context.Context, reg *entities.Registration, from entities.RegistrationStatus) error {
	q := psql.Update("registrations").
		Set("status", reg.Status).
		Set("payment_id", text(reg.PaymentID)).
		Set("refund_amount", reg.RefundAmount).
		Set("refund_status", reg.RefundStatus).
		Set("cancelled_at", timestamptz(reg.CancelledAt)).
		Set("cancel_reason", text(reg.CancelReason)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": reg.ID, "status": from}).
		Suffix("RETURNING updated_at")
	err := qRow(ctx, r.db, q).Scan(&reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update registration status: %w", orNotFound(err, domain.ErrInvalidStatus))
	}
	return nil
}

func (r *RegistrationRepository) SetRefundStatus(ctx context.Context, id uuid.UUID, status entities.RefundStatus) error {
	_, err := qExec(ctx, r.db, psql.Update("registrations").
		Set("refund_status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set refund status: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) FindOverdueTransfers(ctx context.Context, now time.Time) ([]entities.Registration, error) {
	out, err := r.list(ctx, selectRegistrations().
		Where(sq.Eq{"r.status": entities.RegistrationPendingTransfer}).
		Where(sq.Lt{"r.transfer_deadline": now}).
		OrderBy("r.transfer_deadline"))
	if err != nil {
		return nil, fmt.Errorf("find overdue transfers: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) FindStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Registration, error) {
	out, err := r.list(ctx, selectRegistrations().
		Where(sq.Eq{"r.status": entities.RegistrationPending, "r.payment_method": entities.PaymentCard}).
		Where(sq.Lt{"r.created_at": createdBefore}).
		OrderBy("r.created_at"))
	if err != nil {
		return nil, fmt.Errorf("find stale pending: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) MarkAttended(ctx context.Context, meetingID uuid.UUID, ids []uuid.UUID) ([]entities.Registration, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := psql.Update("registrations r").
		Set("attended", true).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"r.meeting_id": meetingID, "r.id": ids, "r.status": entities.RegistrationConfirmed}).
		Suffix("RETURNING " + joinColumns(registrationColumns))
	rows, err := qQuery(ctx, r.db, q)
	out, err := collect(rows, err, scanRegistration)
	if err != nil {
		return nil, fmt.Errorf("mark attended: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) CountAttended(ctx context.Context, userID uuid.UUID) (int, error) {
	return count(ctx, r.db, psql.Select("COUNT(*)").From("registrations").
		Where(sq.Eq{"user_id": userID, "attended": true, "status": entities.RegistrationConfirmed}))
}
