package input

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type ProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

type ProfileView struct {
	entities.User
	BadgeCount int `json:"badge_count"`
}

type AuthUseCase interface {
	Signup(ctx context.Context, in SignupInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*entities.User, error)
}
