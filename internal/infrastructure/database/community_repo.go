package database

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

var (
	_ output.ReviewRepository = (*ReviewRepository)(nil)
	_ output.PraiseRepository = (*PraiseRepository)(nil)
	_ output.BadgeRepository  = (*BadgeRepository)(nil)
)

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row pgx.Row) (entities.Review, error) {
	var rv entities.Review
	err := row.Scan(&rv.ID, &rv.MeetingID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Content, &rv.IsPublic, &rv.CreatedAt)
	return rv, err
}

func selectReviews() sq.SelectBuilder {
	return psql.Select("rv.id", "rv.meeting_id", "rv.user_id", "u.name", "rv.rating", "rv.content", "rv.is_public", "rv.created_at").
		From("reviews rv").
		Join("users u ON u.id = rv.user_id").
		OrderBy("rv.created_at DESC")
}

func (r *ReviewRepository) Create(ctx context.Context, rv *entities.Review) error {
	q := psql.Insert("reviews").
		Columns("meeting_id", "user_id", "rating", "content", "is_public").
		Values(rv.MeetingID, rv.UserID, rv.Rating, rv.Content, rv.IsPublic).
		Suffix("RETURNING id, created_at")
	err := qRow(ctx, r.db, q).Scan(&rv.ID, &rv.CreatedAt)
	if isUniqueViolation(err, "uq_reviews_meeting_user") {
		return domain.ErrReviewExists
	}
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ListByMeeting(ctx context.Context, meetingID, viewerID uuid.UUID) ([]entities.Review, error) {
	q := selectReviews().
		Where(sq.Eq{"rv.meeting_id": meetingID}).
		Where(sq.Or{sq.Eq{"rv.is_public": true}, sq.Eq{"rv.user_id": viewerID}})
	rows, err := qQuery(ctx, r.db, q)
	out, err := collect(rows, err, scanReview)
	if err != nil {
		return nil, fmt.Errorf("list reviews by meeting: %w", err)
	}
	return out, nil
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Review, error) {
	rows, err := qQuery(ctx, r.db, selectReviews().Where(sq.Eq{"rv.user_id": userID}))
	out, err := collect(rows, err, scanReview)
	if err != nil {
		return nil, fmt.Errorf("list reviews by user: %w", err)
	}
	return out, nil
}

func (r *ReviewRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return count(ctx, r.db, psql.Select("COUNT(*)").From("reviews").Where(sq.Eq{"user_id": userID}))
}

type PraiseRepository struct {
	db DBTX
}

func NewPraiseRepository(db DBTX) *PraiseRepository {
	return &PraiseRepository{db: db}
}

func scanPraise(row pgx.Row) (entities.Praise, error) {
	var p entities.Praise
	err := row.Scan(&p.ID, &p.MeetingID, &p.FromUserID, &p.ToUserID, &p.PhraseID, &p.Message, &p.CreatedAt)
	return p, err
}

func (r *PraiseRepository) Create(ctx context.Context, p *entities.Praise) error {
	q := psql.Insert("praises").
		Columns("meeting_id", "from_user_id", "to_user_id", "phrase_id", "message").
		Values(p.MeetingID, p.FromUserID, p.ToUserID, p.PhraseID, p.Message).
		Suffix("RETURNING id, created_at")
	err := qRow(ctx, r.db, q).Scan(&p.ID, &p.CreatedAt)
	if isUniqueViolation(err, "uq_praises_meeting_sender") {
		return domain.ErrPraiseExists
	}
	if err != nil {
		return fmt.Errorf("create praise: %w", err)
	}
	return nil
}

func (r *PraiseRepository) listWhere(ctx context.Context, where sq.Eq) ([]entities.Praise, error) {
	q := psql.Select("id", "meeting_id", "from_user_id", "to_user_id", "phrase_id", "message", "created_at").
		From("praises").
		Where(where).
		OrderBy("created_at DESC")
	rows, err := qQuery(ctx, r.db, q)
	out, err := collect(rows, err, scanPraise)
	if err != nil {
		return nil, fmt.Errorf("list praises: %w", err)
	}
	return out, nil
}

func (r *PraiseRepository) ListReceived(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error) {
	return r.listWhere(ctx, sq.Eq{"to_user_id": userID})
}

func (r *PraiseRepository) ListGiven(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error) {
	return r.listWhere(ctx, sq.Eq{"from_user_id": userID})
}

func (r *PraiseRepository) CountReceived(ctx context.Context, userID uuid.UUID) (int, error) {
	return count(ctx, r.db, psql.Select("COUNT(*)").From("praises").Where(sq.Eq{"to_user_id": userID}))
}

func (r *PraiseRepository) CountGiven(ctx context.Context, userID uuid.UUID) (int, error) {
	return count(ctx, r.db, psql.Select("COUNT(*)").From("praises").Where(sq.Eq{"from_user_id": userID}))
}

type BadgeRepository struct {
	db DBTX
}

func NewBadgeRepository(db DBTX) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) Award(ctx context.Context, b *entities.Badge) (bool, error) {
	q := psql.Insert("badges").
		Columns("user_id", "badge_type").
		Values(b.UserID, b.Type).
		Suffix("ON CONFLICT (user_id, badge_type) DO NOTHING RETURNING id, awarded_at")
	err := qRow(ctx, r.db, q).Scan(&b.ID, &b.AwardedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	return true, nil
}

func (r *BadgeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Badge, error) {
	q := psql.Select("id", "user_id", "badge_type", "awarded_at").
		From("badges").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("awarded_at")
	rows, err := qQuery(ctx, r.db, q)
	out, err := collect(rows, err, func(row pgx.Row) (entities.Badge, error) {
		var b entities.Badge
		err := row.Scan(&b.ID, &b.UserID, &b.Type, &b.AwardedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return out, nil
}
