package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

var (
	_ input.ReviewUseCase = (*ReviewService)(nil)
	_ input.PraiseUseCase = (*PraiseService)(nil)
)

const (
	minReviewRunes = 10
	maxReviewRunes = 2000
	maxPraiseRunes = 200
)

// participation loads the member's registration and reports whether it
// counts as having taken part: attended, or confirmed for a meeting that ended.
func participation(ctx context.Context, regs output.RegistrationRepository, meeting *entities.Meeting, userID uuid.UUID, now time.Time) (bool, error) {
	reg, err := regs.FindActiveByMeetingAndUser(ctx, meeting.ID, userID)
	if errors.Is(err, domain.ErrRegistrationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load registration: %w", err)
	}
	if reg.Status != entities.RegistrationConfirmed {
		return false, nil
	}
	ended := meeting.Status == entities.MeetingCompleted || meeting.HasEnded(now)
	return reg.Attended || ended, nil
}

type ReviewService struct {
	reviews       output.ReviewRepository
	meetings      output.MeetingRepository
	registrations output.RegistrationRepository
	badges        *BadgeService
	logger        *zap.Logger
	now           func() time.Time
}

func NewReviewService(
	reviews output.ReviewRepository,
	meetings output.MeetingRepository,
	registrations output.RegistrationRepository,
	badges *BadgeService,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:       reviews,
		meetings:      meetings,
		registrations: registrations,
		badges:        badges,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ReviewService) Write(ctx context.Context, userID, meetingID uuid.UUID, in input.ReviewInput) (*entities.Review, error) {
	content := strings.TrimSpace(in.Content)
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.ErrInvalidReview.With("field", "rating")
	}
	if n := utf8.RuneCountInString(content); n < minReviewRunes || n > maxReviewRunes {
		return nil, domain.ErrInvalidReview.With("field", "content")
	}
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	ok, err := participation(ctx, s.registrations, meeting, userID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotAttended
	}
	review := &entities.Review{
		MeetingID: meetingID,
		UserID:    userID,
		Rating:    in.Rating,
		Content:   content,
		IsPublic:  in.IsPublic,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	s.badges.evaluateQuietly(ctx, userID)
	return review, nil
}

func (s *ReviewService) ListForMeeting(ctx context.Context, meetingID, viewer uuid.UUID) ([]entities.Review, error) {
	if _, err := s.meetings.FindByID(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.reviews.ListByMeeting(ctx, meetingID, viewer)
}

func (s *ReviewService) MyReviews(ctx context.Context, userID uuid.UUID) ([]entities.Review, error) {
	return s.reviews.ListByUser(ctx, userID)
}

type PraiseService struct {
	praises       output.PraiseRepository
	meetings      output.MeetingRepository
	registrations output.RegistrationRepository
	badges        *BadgeService
	notifier      *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

func NewPraiseService(
	praises output.PraiseRepository,
	meetings output.MeetingRepository,
	registrations output.RegistrationRepository,
	badges *BadgeService,
	notifier *NotificationService,
	logger *zap.Logger,
) *PraiseService {
	return &PraiseService{
		praises:       praises,
		meetings:      meetings,
		registrations: registrations,
		badges:        badges,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *PraiseService) Give(ctx context.Context, fromUserID, meetingID uuid.UUID, in input.PraiseInput) (*entities.Praise, error) {
	if fromUserID == in.ToUserID {
		return nil, domain.ErrSelfPraise
	}
	phrase, ok := entities.FindPraisePhrase(in.PhraseID)
	if !ok {
		return nil, domain.ErrInvalidPhrase
	}
	message := strings.TrimSpace(in.Message)
	if utf8.RuneCountInString(message) > maxPraiseRunes {
		return nil, domain.Invalid("message must be at most %d characters", maxPraiseRunes)
	}
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, uid := range []uuid.UUID{fromUserID, in.ToUserID} {
		ok, err := participation(ctx, s.registrations, meeting, uid, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrNotAttended
		}
	}
	praise := &entities.Praise{
		MeetingID:  meetingID,
		FromUserID: fromUserID,
		ToUserID:   in.ToUserID,
		PhraseID:   phrase.ID,
		Message:    message,
		CreatedAt:  now,
	}
	if err := s.praises.Create(ctx, praise); err != nil {
		return nil, err
	}
	s.badges.evaluateQuietly(ctx, fromUserID)
	s.badges.evaluateQuietly(ctx, in.ToUserID)

	data := meetingData(meeting)
	data["Phrase"] = phrase.Text
	s.notifier.tell(ctx, in.ToUserID, entities.TemplatePraiseReceived, praise.ID.String(), data)
	return praise, nil
}

func (s *PraiseService) Received(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error) {
	return s.praises.ListReceived(ctx, userID)
}

func (s *PraiseService) Given(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error) {
	return s.praises.ListGiven(ctx, userID)
}

func (s *PraiseService) Phrases() []entities.PraisePhrase {
	return entities.PraisePhrases
}
