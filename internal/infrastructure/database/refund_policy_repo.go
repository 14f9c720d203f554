package database

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

var _ output.RefundPolicyRepository = (*RefundPolicyRepository)(nil)

// TxBeginner is a DBTX that can open transactions, such as *pgxpool.Pool.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type RefundPolicyRepository struct {
	db TxBeginner
}

func NewRefundPolicyRepository(db TxBeginner) *RefundPolicyRepository {
	return &RefundPolicyRepository{db: db}
}

func scanRefundPolicy(row pgx.Row) (entities.RefundPolicy, error) {
	var (
		p     entities.RefundPolicy
		rules []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.MeetingType, &rules, &p.IsDefault, &p.CreatedAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal(rules, &p.Rules); err != nil {
		return p, fmt.Errorf("decode refund rules: %w", err)
	}
	return p, nil
}

func selectRefundPolicies() sq.SelectBuilder {
	return psql.Select("id", "name", "meeting_type", "rules", "is_default", "created_at").From("refund_policies")
}

func (r *RefundPolicyRepository) Create(ctx context.Context, p *entities.RefundPolicy) error {
	rules, err := json.Marshal(p.Rules)
	if err != nil {
		return fmt.Errorf("encode refund rules: %w", err)
	}
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if p.IsDefault {
			_, err := qExec(ctx, tx, psql.Update("refund_policies").
				Set("is_default", false).
				Where(sq.Eq{"meeting_type": p.MeetingType, "is_default": true}))
			if err != nil {
				return err
			}
		}
		q := psql.Insert("refund_policies").
			Columns("name", "meeting_type", "rules", "is_default").
			Values(p.Name, p.MeetingType, rules, p.IsDefault).
			Suffix("RETURNING id, created_at")
		return qRow(ctx, tx, q).Scan(&p.ID, &p.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("create refund policy: %w", err)
	}
	return nil
}

func (r *RefundPolicyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.RefundPolicy, error) {
	p, err := scanRefundPolicy(qRow(ctx, r.db, selectRefundPolicies().Where(sq.Eq{"id": id})))
	if err != nil {
		return nil, orNotFound(err, domain.ErrRefundPolicyAbsent)
	}
	return &p, nil
}

func (r *RefundPolicyRepository) FindDefaultForType(ctx context.Context, meetingType entities.MeetingType) (*entities.RefundPolicy, error) {
	p, err := scanRefundPolicy(qRow(ctx, r.db, selectRefundPolicies().
		Where(sq.Eq{"meeting_type": meetingType, "is_default": true})))
	if err != nil {
		return nil, orNotFound(err, domain.ErrRefundPolicyAbsent)
	}
	return &p, nil
}

func (r *RefundPolicyRepository) List(ctx context.Context) ([]entities.RefundPolicy, error) {
	rows, err := qQuery(ctx, r.db, selectRefundPolicies().OrderBy("meeting_type", "is_default DESC", "created_at"))
	out, err := collect(rows, err, scanRefundPolicy)
	if err != nil {
		return nil, fmt.Errorf("list refund policies: %w", err)
	}
	return out, nil
}
