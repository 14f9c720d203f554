package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

var _ input.BadgeUseCase = (*BadgeService)(nil)

type BadgeService struct {
	badges        output.BadgeRepository
	registrations output.RegistrationRepository
	reviews       output.ReviewRepository
	praises       output.PraiseRepository
	logger        *zap.Logger
	now           func() time.Time
}

func NewBadgeService(
	badges output.BadgeRepository,
	registrations output.RegistrationRepository,
	reviews output.ReviewRepository,
	praises output.PraiseRepository,
	logger *zap.Logger,
) *BadgeService {
	return &BadgeService{
		badges:        badges,
		registrations: registrations,
		reviews:       reviews,
		praises:       praises,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *BadgeService) Evaluate(ctx context.Context, userID uuid.UUID) ([]entities.Badge, error) {
	stats, err := s.stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	var awarded []entities.Badge
	for _, t := range domain.EligibleBadges(stats) {
		b := entities.Badge{UserID: userID, Type: t, AwardedAt: s.now()}
		ok, err := s.badges.Award(ctx, &b)
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", t, err)
		}
		if ok {
			awarded = append(awarded, b)
		}
	}
	if len(awarded) > 0 {
		s.logger.Info("badges awarded", zap.String("user_id", userID.String()), zap.Int("count", len(awarded)))
	}
	return awarded, nil
}

func (s *BadgeService) List(ctx context.Context, userID uuid.UUID) ([]entities.Badge, error) {
	return s.badges.ListByUser(ctx, userID)
}

func (s *BadgeService) stats(ctx context.Context, userID uuid.UUID) (domain.ActivityStats, error) {
	var st domain.ActivityStats
	var err error
	if st.Attended, err = s.registrations.CountAttended(ctx, userID); err != nil {
		return st, fmt.Errorf("count attended: %w", err)
	}
	if st.Reviews, err = s.reviews.CountByUser(ctx, userID); err != nil {
		return st, fmt.Errorf("count reviews: %w", err)
	}
	if st.PraisesReceived, err = s.praises.CountReceived(ctx, userID); err != nil {
		return st, fmt.Errorf("count praises received: %w", err)
	}
	if st.PraisesGiven, err = s.praises.CountGiven(ctx, userID); err != nil {
		return st, fmt.Errorf("count praises given: %w", err)
	}
	return st, nil
}

// evaluateQuietly runs Evaluate after a write whose success must not depend
// on badge bookkeeping.
func (s *BadgeService) evaluateQuietly(ctx context.Context, userID uuid.UUID) {
	if _, err := s.Evaluate(ctx, userID); err != nil {
		s.logger.Warn("badge evaluation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
