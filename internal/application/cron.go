package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/metrics"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

var _ input.CronUseCase = (*CronService)(nil)

// Job names, as used in /api/cron/<job> and `cron run <job>`.
const (
	JobMeetingReminders = "meeting-reminders"
	JobOnboarding       = "onboarding"
	JobWaitlistExpiry   = "waitlist-expiry"
	JobTransferTimeout  = "transfer-timeout"
	JobPendingPayments  = "pending-payments"
	JobPostMeeting      = "post-meeting"
)

const jobLockTTL = 5 * time.Minute

type Job struct {
	Name string
	Run  func(ctx context.Context, now time.Time) (input.JobResult, error)
}

// CronService runs sweeps one at a time per name across every instance.
type CronService struct {
	jobs   []Job
	locker output.Locker
	alerts output.AdminNotifier
	logger *zap.Logger
	now    func() time.Time
}

func NewCronService(jobs []Job, locker output.Locker, alerts output.AdminNotifier, logger *zap.Logger) *CronService {
	return &CronService{jobs: jobs, locker: locker, alerts: alerts, logger: logger, now: time.Now}
}

// DefaultJobs binds every sweep to its service.
func DefaultJobs(reminders *ReminderService, waitlist *WaitlistService, registrations *RegistrationService) []Job {
	return []Job{
		{Name: JobMeetingReminders, Run: reminders.MeetingReminders},
		{Name: JobOnboarding, Run: reminders.Onboarding},
		{Name: JobWaitlistExpiry, Run: waitlist.ExpireOffers},
		{Name: JobTransferTimeout, Run: registrations.ExpireOverdueTransfers},
		{Name: JobPendingPayments, Run: registrations.ExpireStalePayments},
		{Name: JobPostMeeting, Run: reminders.PostMeeting},
	}
}

func (s *CronService) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

func (s *CronService) Run(ctx context.Context, name string) (*input.JobResult, error) {
	job, ok := s.find(name)
	if !ok {
		return nil, domain.ErrUnknownJob
	}
	log := s.logger.With(zap.String("job", name))

	unlock, acquired, err := s.locker.TryLock(ctx, "cron:lock:"+name, jobLockTTL)
	switch {
	case err != nil:
		log.Warn("job lock unavailable, running unlocked", zap.Error(err))
	case !acquired:
		metrics.CronRuns.WithLabelValues(name, metrics.OutcomeSkipped).Inc()
		log.Info("job already running")
		return nil, domain.ErrJobRunning
	default:
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("release job lock", zap.Error(err))
			}
		}()
	}

	started := s.now()
	res, err := job.Run(ctx, started)
	res.Job = name
	if err != nil {
		metrics.CronRuns.WithLabelValues(name, metrics.OutcomeError).Inc()
		log.Error("job failed", zap.Error(err))
		s.alert(ctx, "작업 실패: "+name, output.AlertField{Name: "오류", Value: err.Error()})
		return &res, err
	}
	metrics.CronRuns.WithLabelValues(name, metrics.OutcomeOK).Inc()
	log.Info("job done",
		zap.Int("processed", res.Processed),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("took", s.now().Sub(started)),
	)
	if res.Failed > 0 {
		s.alert(ctx, "작업 일부 실패: "+name,
			output.AlertField{Name: "처리", Value: strconv.Itoa(res.Processed)},
			output.AlertField{Name: "실패", Value: strconv.Itoa(res.Failed)},
		)
	}
	return &res, nil
}

// RunAll runs every job once, logging failures. It backs the in-process
// scheduler.
func (s *CronService) RunAll(ctx context.Context) {
	for _, j := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.Run(ctx, j.Name); err != nil && !errors.Is(err, domain.ErrJobRunning) {
			s.logger.Warn("scheduled job failed", zap.String("job", j.Name), zap.Error(err))
		}
	}
}

func (s *CronService) find(name string) (Job, bool) {
	for _, j := range s.jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

func (s *CronService) alert(ctx context.Context, title string, fields ...output.AlertField) {
	if err := s.alerts.Alert(ctx, title, fields...); err != nil {
		s.logger.Warn("admin alert failed", zap.Error(err))
	}
}

// tally counts one notification outcome into res.
func tally(res *input.JobResult, d Delivery) {
	switch d {
	case DeliverySent:
		res.Sent++
	case DeliverySkipped:
		res.Skipped++
	default:
		res.Failed++
	}
}
