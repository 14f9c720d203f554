package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/tz"
)

// ReminderService runs the date driven notification sweeps. Each send is
// keyed in the notification log so reruns on the same day are no-ops.
type ReminderService struct {
	meetings      output.MeetingRepository
	registrations output.RegistrationRepository
	users         output.UserRepository
	notifier      *NotificationService
	logger        *zap.Logger
}

func NewReminderService(
	meetings output.MeetingRepository,
	registrations output.RegistrationRepository,
	users output.UserRepository,
	notifier *NotificationService,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		meetings:      meetings,
		registrations: registrations,
		users:         users,
		notifier:      notifier,
		logger:        logger,
	}
}

type reminderWindow struct {
	template entities.Template
	from, to time.Time
}

// MeetingReminders notifies confirmed registrants three days before, one day
// before and on the day of each meeting.
func (s *ReminderService) MeetingReminders(ctx context.Context, now time.Time) (input.JobResult, error) {
	res := input.JobResult{Job: JobMeetingReminders}
	d3From, d3To := tz.DayRange(now, 3)
	d1From, d1To := tz.DayRange(now, 1)
	_, todayEnd := tz.DayRange(now, 0)
	windows := []reminderWindow{
		{entities.TemplateReminderD3, d3From, d3To},
		{entities.TemplateReminderD1, d1From, d1To},
		{entities.TemplateReminderToday, now, todayEnd},
	}
	for _, w := range windows {
		meetings, err := s.meetings.FindStartingBetween(ctx, w.from, w.to)
		if err != nil {
			return res, fmt.Errorf("find meetings for %s: %w", w.template, err)
		}
		for i := range meetings {
			res.Add(s.notifyConfirmed(ctx, &meetings[i], w.template))
		}
	}
	s.logger.Info("meeting reminders done", zap.Int("sent", res.Sent), zap.Int("skipped", res.Skipped), zap.Int("failed", res.Failed))
	return res, nil
}

// PostMeeting completes yesterday's meetings and asks attendees for a review.
func (s *ReminderService) PostMeeting(ctx context.Context, now time.Time) (input.JobResult, error) {
	res := input.JobResult{Job: JobPostMeeting}
	from, to := tz.DayRange(now, -1)
	meetings, err := s.meetings.FindEndedBetween(ctx, from, to)
	if err != nil {
		return res, fmt.Errorf("find ended meetings: %w", err)
	}
	for i := range meetings {
		m := &meetings[i]
		if m.Status == entities.MeetingOpen {
			if err := s.meetings.SetStatus(ctx, m.ID, entities.MeetingCompleted); err != nil {
				res.Failed++
				s.logger.Warn("complete meeting", zap.String("meeting_id", m.ID.String()), zap.Error(err))
				continue
			}
			m.Status = entities.MeetingCompleted
		}
		res.Add(s.notifyConfirmed(ctx, m, entities.TemplateReviewRequest))
	}
	return res, nil
}

func (s *ReminderService) notifyConfirmed(ctx context.Context, m *entities.Meeting, tpl entities.Template) input.JobResult {
	var res input.JobResult
	regs, err := s.registrations.ListByMeeting(ctx, m.ID, entities.RegistrationConfirmed)
	if err != nil {
		res.Failed++
		s.logger.Warn("list confirmed registrations", zap.String("meeting_id", m.ID.String()), zap.Error(err))
		return res
	}
	data := meetingData(m)
	for _, reg := range regs {
		res.Processed++
		d, err := s.notifier.NotifyOnce(ctx, reg.UserID, tpl, reg.ID.String(), data)
		tally(&res, d)
		if err != nil {
			s.logger.Warn("reminder failed",
				zap.String("template", string(tpl)),
				zap.String("registration_id", reg.ID.String()),
				zap.Error(err),
			)
		}
	}
	return res
}

type onboardingStep struct {
	daysAgo  int
	count    int
	template entities.Template
}

var onboardingSteps = []onboardingStep{
	{daysAgo: 3, count: 0, template: entities.TemplateOnboardingDay3},
	{daysAgo: 7, count: 1, template: entities.TemplateOnboardingDay7},
}

// Onboarding nudges members who signed up three and seven days ago and have
// not registered yet. The counter advances once an attempt is on record,
// whether or not the message went out.
func (s *ReminderService) Onboarding(ctx context.Context, now time.Time) (input.JobResult, error) {
	res := input.JobResult{Job: JobOnboarding}
	for _, step := range onboardingSteps {
		from, to := tz.DayRange(now, -step.daysAgo)
		users, err := s.users.FindOnboardingCandidates(ctx, from, to, step.count)
		if err != nil {
			return res, fmt.Errorf("find onboarding candidates: %w", err)
		}
		for _, u := range users {
			res.Processed++
			d, err := s.notifier.NotifyOnce(ctx, u.ID, step.template, u.ID.String(), nil)
			tally(&res, d)
			if err != nil {
				s.logger.Warn("onboarding message failed", zap.String("user_id", u.ID.String()), zap.Error(err))
			}
			if !d.Logged() {
				continue
			}
			if err := s.users.SetOnboardingReminderCount(ctx, u.ID, step.count+1); err != nil {
				s.logger.Warn("bump onboarding counter", zap.String("user_id", u.ID.String()), zap.Error(err))
			}
		}
	}
	return res, nil
}
