package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/tz"
)

var _ input.WaitlistUseCase = (*WaitlistService)(nil)

// WaitlistService hands released seats to queued members. An offer keeps the
// seat counted in current_participants until it is converted or expires.
type WaitlistService struct {
	waitlist      output.WaitlistRepository
	meetings      output.MeetingRepository
	registrations output.RegistrationRepository
	notifier      *NotificationService
	offerTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewWaitlistService(
	waitlist output.WaitlistRepository,
	meetings output.MeetingRepository,
	registrations output.RegistrationRepository,
	notifier *NotificationService,
	offerTTL time.Duration,
	logger *zap.Logger,
) *WaitlistService {
	return &WaitlistService{
		waitlist:      waitlist,
		meetings:      meetings,
		registrations: registrations,
		notifier:      notifier,
		offerTTL:      offerTTL,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *WaitlistService) Join(ctx context.Context, userID, meetingID uuid.UUID) (*entities.WaitlistEntry, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.AcceptsRegistrations(s.now()) {
		return nil, domain.ErrMeetingClosed
	}
	if meeting.RemainingSeats() > 0 {
		return nil, domain.ErrSeatsAvailable
	}
	if _, err := s.registrations.FindActiveByMeetingAndUser(ctx, meetingID, userID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrRegistrationNotFound) {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	entry, err := s.waitlist.Enqueue(ctx, meetingID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("waitlist joined",
		zap.String("meeting_id", meetingID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("position", entry.Position),
	)
	return entry, nil
}

func (s *WaitlistService) Leave(ctx context.Context, userID, meetingID uuid.UUID) error {
	entry, err := s.waitlist.FindActive(ctx, meetingID, userID)
	if err != nil {
		return err
	}
	from := entry.Status
	entry.Status = entities.WaitlistCancelled
	if err := s.waitlist.UpdateStatus(ctx, entry, from); err != nil {
		return err
	}
	if from != entities.WaitlistOffered {
		return nil
	}
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("load meeting: %w", err)
	}
	return s.ReleaseSlot(ctx, meeting)
}

func (s *WaitlistService) MyWaitlists(ctx context.Context, userID uuid.UUID) ([]entities.WaitlistEntry, error) {
	return s.waitlist.ListByUser(ctx, userID)
}

// ReleaseSlot gives a freed seat to the next waiting member, or back to the
// meeting when nobody is waiting or the meeting no longer takes members.
func (s *WaitlistService) ReleaseSlot(ctx context.Context, meeting *entities.Meeting) error {
	now := s.now()
	if meeting.AcceptsRegistrations(now) {
		for {
			next, err := s.waitlist.FindNextWaiting(ctx, meeting.ID)
			if errors.Is(err, domain.ErrWaitlistNotFound) {
				break
			}
			if err != nil {
				return fmt.Errorf("find next waiting: %w", err)
			}
			next.Status = entities.WaitlistOffered
			next.OfferedAt = now
			next.OfferExpiresAt = now.Add(s.offerTTL)
			if meeting.StartsAt.Before(next.OfferExpiresAt) {
				next.OfferExpiresAt = meeting.StartsAt
			}
			err = s.waitlist.UpdateStatus(ctx, next, entities.WaitlistWaiting)
			if errors.Is(err, domain.ErrInvalidStatus) {
				// left the queue meanwhile
				continue
			}
			if err != nil {
				return fmt.Errorf("offer seat: %w", err)
			}
			data := meetingData(meeting)
			data["ExpiresAt"] = tz.FormatKorean(next.OfferExpiresAt)
			s.notifier.tell(ctx, next.UserID, entities.TemplateWaitlistOffer, next.ID.String(), data)
			s.logger.Info("waitlist seat offered",
				zap.String("meeting_id", meeting.ID.String()),
				zap.String("entry_id", next.ID.String()),
				zap.Time("expires_at", next.OfferExpiresAt),
			)
			return nil
		}
	}
	if err := s.meetings.ReleaseSlot(ctx, meeting.ID); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

// LiveOffer returns the user's unexpired offer for the meeting, if any.
func (s *WaitlistService) LiveOffer(ctx context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error) {
	entry, err := s.waitlist.FindActive(ctx, meetingID, userID)
	if errors.Is(err, domain.ErrWaitlistNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !entry.HasLiveOffer(s.now()) {
		return nil, nil
	}
	return entry, nil
}

// Convert marks an offer as used by a registration.
func (s *WaitlistService) Convert(ctx context.Context, entry *entities.WaitlistEntry) error {
	entry.Status = entities.WaitlistConverted
	return s.waitlist.UpdateStatus(ctx, entry, entities.WaitlistOffered)
}

// ExpireOffers closes lapsed offers and passes their seats on.
func (s *WaitlistService) ExpireOffers(ctx context.Context, now time.Time) (input.JobResult, error) {
	res := input.JobResult{Job: JobWaitlistExpiry}
	entries, err := s.waitlist.FindExpiredOffers(ctx, now)
	if err != nil {
		return res, fmt.Errorf("find expired offers: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		res.Processed++
		e.Status = entities.WaitlistExpired
		if err := s.waitlist.UpdateStatus(ctx, e, entities.WaitlistOffered); err != nil {
			if errors.Is(err, domain.ErrInvalidStatus) {
				res.Skipped++
				continue
			}
			res.Failed++
			s.logger.Warn("expire offer failed", zap.String("entry_id", e.ID.String()), zap.Error(err))
			continue
		}
		meeting, err := s.meetings.FindByID(ctx, e.MeetingID)
		if err != nil {
			res.Failed++
			s.logger.Warn("load meeting for expired offer", zap.String("entry_id", e.ID.String()), zap.Error(err))
			continue
		}
		if _, err := s.notifier.Notify(ctx, e.UserID, entities.TemplateWaitlistExpired, e.ID.String(), meetingData(meeting)); err != nil {
			s.logger.Warn("waitlist expiry notification failed", zap.String("entry_id", e.ID.String()), zap.Error(err))
		} else {
			res.Sent++
		}
		if err := s.ReleaseSlot(ctx, meeting); err != nil {
			res.Failed++
			s.logger.Warn("release expired offer seat", zap.String("entry_id", e.ID.String()), zap.Error(err))
		}
	}
	return res, nil
}
