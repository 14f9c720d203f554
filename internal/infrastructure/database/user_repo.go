package database

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

var _ output.UserRepository = (*UserRepository)(nil)

var userColumns = []string{
	"id", "email", "name", "phone", "role", "password_hash",
	"onboarding_reminder_count", "created_at", "updated_at",
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.PasswordHash,
		&u.OnboardingReminderCount, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	q := psql.Insert("users").
		Columns("email", "name", "phone", "role", "password_hash").
		Values(user.Email, user.Name, user.Phone, user.Role, user.PasswordHash).
		Suffix("RETURNING id, created_at, updated_at")
	err := qRow(ctx, r.db, q).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err, "users_email_key") {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) find(ctx context.Context, where sq.Sqlizer) (*entities.User, error) {
	u, err := scanUser(qRow(ctx, r.db, psql.Select(userColumns...).From("users").Where(where)))
	if err != nil {
		return nil, orNotFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.find(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.find(ctx, sq.Eq{"email": email})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) error {
	tag, err := qExec(ctx, r.db, psql.Update("users").
		Set("name", name).
		Set("phone", phone).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindOnboardingCandidates(ctx context.Context, from, to time.Time, count int) ([]entities.User, error) {
	q := psql.Select(userColumns...).From("users u").
		Where(sq.GtOrEq{"u.created_at": from}).
		Where(sq.Lt{"u.created_at": to}).
		Where(sq.Eq{"u.onboarding_reminder_count": count}).
		Where("NOT EXISTS (SELECT 1 FROM registrations r WHERE r.user_id = u.id)").
		OrderBy("u.created_at")
	rows, err := qQuery(ctx, r.db, q)
	users, err := collect(rows, err, scanUser)
	if err != nil {
		return nil, fmt.Errorf("find onboarding candidates: %w", err)
	}
	return users, nil
}

func (r *UserRepository) SetOnboardingReminderCount(ctx context.Context, id uuid.UUID, count int) error {
	_, err := qExec(ctx, r.db, psql.Update("users").
		Set("onboarding_reminder_count", count).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set onboarding reminder count: %w", err)
	}
	return nil
}
