package application

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/phone"
)

var _ input.AuthUseCase = (*AuthService)(nil)

const minPasswordLen = 8

type AuthService struct {
	users    output.UserRepository
	badges   output.BadgeRepository
	hasher   output.PasswordHasher
	tokens   output.TokenIssuer
	notifier *NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	users output.UserRepository,
	badges output.BadgeRepository,
	hasher output.PasswordHasher,
	tokens output.TokenIssuer,
	notifier *NotificationService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		badges:   badges,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, in input.SignupInput) (*input.Session, error) {
	email := normalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, domain.Invalid("invalid email")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, domain.ErrWeakPassword
	}
	name, tel, err := profileFields(in.Name, in.Phone)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &entities.User{
		Email:        email,
		Name:         name,
		Phone:        tel,
		Role:         entities.RoleMember,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	s.notifier.tell(ctx, user.ID, entities.TemplateWelcome, user.ID.String(), nil)
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*input.Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if domain.CodeOf(err) == domain.CodeUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *AuthService) session(user *entities.User) (*input.Session, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &input.Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*input.ProfileView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.badges.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &input.ProfileView{User: *user, BadgeCount: len(badges)}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in input.ProfileInput) (*entities.User, error) {
	name, tel, err := profileFields(in.Name, in.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, userID, name, tel); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

func profileFields(name, tel string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return "", "", domain.Invalid("name must be 1..50 characters")
	}
	tel = phone.Normalize(tel)
	if !phone.Valid(tel) {
		return "", "", domain.Invalid("invalid phone number")
	}
	return name, tel, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
