package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/tz"
)

var _ input.MeetingUseCase = (*MeetingService)(nil)

const (
	maxCapacity     = 200
	defaultDuration = 2 * time.Hour
	defaultPageSize = 20
	maxPageSize     = 100
)

type MeetingService struct {
	meetings      output.MeetingRepository
	registrations output.RegistrationRepository
	waitlist      output.WaitlistRepository
	policies      output.RefundPolicyRepository
	registrar     *RegistrationService
	exporter      output.RosterExporter
	logger        *zap.Logger
	now           func() time.Time
}

func NewMeetingService(
	meetings output.MeetingRepository,
	registrations output.RegistrationRepository,
	waitlist output.WaitlistRepository,
	policies output.RefundPolicyRepository,
	registrar *RegistrationService,
	exporter output.RosterExporter,
	logger *zap.Logger,
) *MeetingService {
	return &MeetingService{
		meetings:      meetings,
		registrations: registrations,
		waitlist:      waitlist,
		policies:      policies,
		registrar:     registrar,
		exporter:      exporter,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *MeetingService) List(ctx context.Context, filter output.MeetingFilter, viewer uuid.UUID) ([]input.MeetingView, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, domain.Invalid("unknown status %q", st)
		}
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, domain.Invalid("unknown meeting type %q", t)
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	filter.Limit = min(filter.Limit, maxPageSize)
	filter.Offset = max(filter.Offset, 0)

	now := s.now()
	meetings, err := s.meetings.List(ctx, filter, now)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	views := make([]input.MeetingView, len(meetings))
	for i := range meetings {
		views[i] = view(&meetings[i], now)
	}
	return views, nil
}

func (s *MeetingService) Get(ctx context.Context, id, viewer uuid.UUID) (*input.MeetingView, error) {
	m, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := view(m, s.now())
	if viewer == uuid.Nil {
		return &v, nil
	}
	reg, err := s.registrations.FindActiveByMeetingAndUser(ctx, id, viewer)
	switch {
	case err == nil:
		v.MyRegistration = reg
	case !errors.Is(err, domain.ErrRegistrationNotFound):
		return nil, fmt.Errorf("load viewer registration: %w", err)
	}
	entry, err := s.waitlist.FindActive(ctx, id, viewer)
	switch {
	case err == nil:
		v.MyWaitlist = entry
	case !errors.Is(err, domain.ErrWaitlistNotFound):
		return nil, fmt.Errorf("load viewer waitlist: %w", err)
	}
	return &v, nil
}

func view(m *entities.Meeting, now time.Time) input.MeetingView {
	return input.MeetingView{
		Meeting:        *m,
		DisplayStatus:  domain.DeriveMeetingStatus(m, now),
		RemainingSeats: m.RemainingSeats(),
	}
}

func (s *MeetingService) Create(ctx context.Context, in input.MeetingInput) (*entities.Meeting, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	if !in.StartsAt.After(s.now()) {
		return nil, domain.ErrInvalidMeeting.With("field", "starts_at")
	}
	policyID, err := s.resolvePolicy(ctx, in)
	if err != nil {
		return nil, err
	}
	now := s.now()
	m := &entities.Meeting{
		Title:          in.Title,
		BookTitle:      in.BookTitle,
		Description:    in.Description,
		Location:       in.Location,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
		Capacity:       in.Capacity,
		Fee:            in.Fee,
		Status:         entities.MeetingOpen,
		Type:           in.Type,
		RefundPolicyID: policyID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	s.logger.Info("meeting created", zap.String("meeting_id", m.ID.String()), zap.String("starts_at", tz.FormatKorean(m.StartsAt)))
	return m, nil
}

func (s *MeetingService) Update(ctx context.Context, id uuid.UUID, in input.MeetingInput) (*entities.Meeting, error) {
	m, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != entities.MeetingOpen {
		return nil, domain.ErrMeetingClosed
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	if in.Capacity < m.CurrentParticipants {
		return nil, domain.ErrCapacityTooLow.With("current", m.CurrentParticipants)
	}
	policyID := m.RefundPolicyID
	if in.RefundPolicyID != uuid.Nil && in.RefundPolicyID != m.RefundPolicyID {
		if policyID, err = s.resolvePolicy(ctx, in); err != nil {
			return nil, err
		}
	}
	m.Title = in.Title
	m.BookTitle = in.BookTitle
	m.Description = in.Description
	m.Location = in.Location
	m.StartsAt = in.StartsAt
	m.EndsAt = in.EndsAt
	m.Capacity = in.Capacity
	m.Fee = in.Fee
	m.Type = in.Type
	m.RefundPolicyID = policyID
	m.UpdatedAt = s.now()
	if err := s.meetings.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MeetingService) validate(in *input.MeetingInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.ErrInvalidMeeting.With("field", "title")
	}
	if in.Capacity < 1 || in.Capacity > maxCapacity {
		return domain.ErrInvalidMeeting.With("field", "capacity")
	}
	if in.Fee < 0 {
		return domain.ErrInvalidMeeting.With("field", "fee")
	}
	if in.StartsAt.IsZero() {
		return domain.ErrInvalidMeeting.With("field", "starts_at")
	}
	if in.EndsAt.IsZero() {
		in.EndsAt = in.StartsAt.Add(defaultDuration)
	}
	if !in.EndsAt.After(in.StartsAt) {
		return domain.ErrInvalidMeeting.With("field", "ends_at")
	}
	if in.Type == "" {
		in.Type = entities.MeetingRegular
	}
	if !in.Type.Valid() {
		return domain.ErrInvalidMeeting.With("field", "meeting_type")
	}
	return nil
}

// resolvePolicy checks an explicit policy or falls back to the type default.
// uuid.Nil means the built-in rules apply.
func (s *MeetingService) resolvePolicy(ctx context.Context, in input.MeetingInput) (uuid.UUID, error) {
	if in.RefundPolicyID != uuid.Nil {
		p, err := s.policies.FindByID(ctx, in.RefundPolicyID)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	}
	p, err := s.policies.FindDefaultForType(ctx, in.Type)
	if errors.Is(err, domain.ErrRefundPolicyAbsent) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("default refund policy: %w", err)
	}
	return p.ID, nil
}

func (s *MeetingService) Cancel(ctx context.Context, id uuid.UUID) (int, error) {
	m, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if m.Status == entities.MeetingCancelled {
		return 0, domain.ErrMeetingClosed
	}
	if err := s.meetings.SetStatus(ctx, id, entities.MeetingCancelled); err != nil {
		return 0, fmt.Errorf("cancel meeting: %w", err)
	}
	m.Status = entities.MeetingCancelled
	cleared, err := s.waitlist.CancelAllForMeeting(ctx, id)
	if err != nil {
		s.logger.Warn("clear waitlist", zap.String("meeting_id", id.String()), zap.Error(err))
	}
	n, err := s.registrar.cancelForMeeting(ctx, m)
	if err != nil {
		return n, err
	}
	s.logger.Info("meeting cancelled",
		zap.String("meeting_id", id.String()),
		zap.Int("registrations", n),
		zap.Int64("waitlist", cleared),
	)
	return n, nil
}

func (s *MeetingService) ExportRoster(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	m, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	entries, err := s.registrations.ListRoster(ctx, id, "")
	if err != nil {
		return "", nil, fmt.Errorf("load roster: %w", err)
	}
	data, err := s.exporter.Export(m, entries)
	if err != nil {
		return "", nil, fmt.Errorf("export roster: %w", err)
	}
	name := fmt.Sprintf("roster_%s.xlsx", m.StartsAt.In(tz.Seoul).Format("20060102"))
	return name, data, nil
}
