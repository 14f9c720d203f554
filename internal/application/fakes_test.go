package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
)

// store backs every fake repository so joins behave like the database.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entities.User
	meetings map[uuid.UUID]*entities.Meeting
	regs     map[uuid.UUID]*entities.Registration
	waitlist map[uuid.UUID]*entities.WaitlistEntry
	reviews  []entities.Review
	praises  []entities.Praise
	badges   []entities.Badge
	logs     []entities.NotificationLog
	policies map[uuid.UUID]*entities.RefundPolicy
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]*entities.User{},
		meetings: map[uuid.UUID]*entities.Meeting{},
		regs:     map[uuid.UUID]*entities.Registration{},
		waitlist: map[uuid.UUID]*entities.WaitlistEntry{},
		policies: map[uuid.UUID]*entities.RefundPolicy{},
	}
}

type fakeUsers struct{ *store }

func (s fakeUsers) Create(_ context.Context, u *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if x.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s fakeUsers) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, name, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name, u.Phone = name, phone
	return nil
}

func (s fakeUsers) FindOnboardingCandidates(_ context.Context, from, to time.Time, count int) ([]entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.User
	for _, u := range s.users {
		if u.CreatedAt.Before(from) || !u.CreatedAt.Before(to) || u.OnboardingReminderCount != count {
			continue
		}
		registered := false
		for _, r := range s.regs {
			registered = registered || r.UserID == u.ID
		}
		if !registered {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s fakeUsers) SetOnboardingReminderCount(_ context.Context, id uuid.UUID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].OnboardingReminderCount = count
	return nil
}

type fakeMeetings struct{ *store }

func (s fakeMeetings) Create(_ context.Context, m *entities.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	c := *m
	s.meetings[m.ID] = &c
	return nil
}

func (s fakeMeetings) Update(_ context.Context, m *entities.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.meetings[m.ID]
	if !ok {
		return domain.ErrMeetingNotFound
	}
	if m.Capacity < cur.CurrentParticipants {
		return domain.ErrCapacityTooLow
	}
	c := *m
	c.CurrentParticipants = cur.CurrentParticipants
	s.meetings[m.ID] = &c
	return nil
}

func (s fakeMeetings) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, domain.ErrMeetingNotFound
	}
	c := *m
	return &c, nil
}

func (s fakeMeetings) List(_ context.Context, f output.MeetingFilter, now time.Time) ([]entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Meeting
	for _, m := range s.meetings {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, domain.DeriveMeetingStatus(m, now)) {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, m.Type) {
			continue
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b entities.Meeting) int { return a.StartsAt.Compare(b.StartsAt) })
	return out, nil
}

func (s fakeMeetings) ReserveSlot(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meetings[id]
	if m.CurrentParticipants >= m.Capacity {
		return false, nil
	}
	m.CurrentParticipants++
	return true, nil
}

func (s fakeMeetings) ReleaseSlot(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.meetings[id]; m.CurrentParticipants > 0 {
		m.CurrentParticipants--
	}
	return nil
}

func (s fakeMeetings) SetStatus(_ context.Context, id uuid.UUID, st entities.MeetingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[id].Status = st
	return nil
}

func (s fakeMeetings) FindStartingBetween(_ context.Context, from, to time.Time) ([]entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Meeting
	for _, m := range s.meetings {
		if m.Status == entities.MeetingOpen && !m.StartsAt.Before(from) && m.StartsAt.Before(to) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s fakeMeetings) FindEndedBetween(_ context.Context, from, to time.Time) ([]entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Meeting
	for _, m := range s.meetings {
		if m.Status != entities.MeetingCancelled && !m.EndsAt.Before(from) && m.EndsAt.Before(to) {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeRegistrations struct {
	*store

	failUpdate error
}

func (s *fakeRegistrations) Create(_ context.Context, r *entities.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.regs {
		if x.MeetingID == r.MeetingID && x.UserID == r.UserID && x.IsActive() {
			return domain.ErrAlreadyRegistered
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	c := *r
	s.regs[r.ID] = &c
	return nil
}

func (s *fakeRegistrations) FindByID(_ context.Context, id uuid.UUID) (*entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[id]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	c := *r
	return &c, nil
}

func (s *fakeRegistrations) FindByMerchantUID(_ context.Context, uid string) (*entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regs {
		if r.MerchantUID == uid {
			c := *r
			return &c, nil
		}
	}
	return nil, domain.ErrRegistrationNotFound
}

func (s *fakeRegistrations) FindActiveByMeetingAndUser(_ context.Context, meetingID, userID uuid.UUID) (*entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regs {
		if r.MeetingID == meetingID && r.UserID == userID && r.IsActive() {
			c := *r
			return &c, nil
		}
	}
	return nil, domain.ErrRegistrationNotFound
}

func (s *fakeRegistrations) ListByUser(_ context.Context, userID uuid.UUID) ([]entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Registration
	for _, r := range s.regs {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRegistrations) ListByMeeting(_ context.Context, meetingID uuid.UUID, statuses ...entities.RegistrationStatus) ([]entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Registration
	for _, r := range s.regs {
		if r.MeetingID == meetingID && (len(statuses) == 0 || slices.Contains(statuses, r.Status)) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRegistrations) ListRoster(_ context.Context, meetingID uuid.UUID, status entities.RegistrationStatus) ([]entities.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.RosterEntry
	for _, r := range s.regs {
		if r.MeetingID != meetingID || (status != "" && r.Status != status) {
			continue
		}
		u := s.users[r.UserID]
		out = append(out, entities.RosterEntry{Registration: *r, UserName: u.Name, UserEmail: u.Email, UserPhone: u.Phone})
	}
	return out, nil
}

func (s *fakeRegistrations) UpdateStatus(_ context.Context, r *entities.Registration, from entities.RegistrationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	cur, ok := s.regs[r.ID]
	if !ok {
		return domain.ErrRegistrationNotFound
	}
	if cur.Status != from {
		return domain.ErrInvalidStatus
	}
	c := *r
	s.regs[r.ID] = &c
	return nil
}

func (s *fakeRegistrations) SetRefundStatus(_ context.Context, id uuid.UUID, st entities.RefundStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[id].RefundStatus = st
	return nil
}

func (s *fakeRegistrations) FindOverdueTransfers(_ context.Context, now time.Time) ([]entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Registration
	for _, r := range s.regs {
		if r.TransferOverdue(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRegistrations) FindStalePending(_ context.Context, before time.Time) ([]entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Registration
	for _, r := range s.regs {
		if r.Status == entities.RegistrationPending && r.PaymentMethod == entities.PaymentCard && r.CreatedAt.Before(before) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRegistrations) MarkAttended(_ context.Context, meetingID uuid.UUID, ids []uuid.UUID) ([]entities.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Registration
	for _, id := range ids {
		r, ok := s.regs[id]
		if ok && r.MeetingID == meetingID && r.Status == entities.RegistrationConfirmed {
			r.Attended = true
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRegistrations) CountAttended(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.regs {
		if r.UserID == userID && r.Attended {
			n++
		}
	}
	return n, nil
}

type fakeWaitlist struct{ *store }

func (s fakeWaitlist) Enqueue(_ context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := 0
	for _, e := range s.waitlist {
		if e.MeetingID != meetingID {
			continue
		}
		if e.UserID == userID && e.IsActive() {
			return nil, domain.ErrAlreadyWaiting
		}
		pos = max(pos, e.Position)
	}
	e := &entities.WaitlistEntry{ID: uuid.New(), MeetingID: meetingID, UserID: userID, Position: pos + 1, Status: entities.WaitlistWaiting}
	s.waitlist[e.ID] = e
	c := *e
	return &c, nil
}

func (s fakeWaitlist) FindActive(_ context.Context, meetingID, userID uuid.UUID) (*entities.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.waitlist {
		if e.MeetingID == meetingID && e.UserID == userID && e.IsActive() {
			c := *e
			return &c, nil
		}
	}
	return nil, domain.ErrWaitlistNotFound
}

func (s fakeWaitlist) FindNextWaiting(_ context.Context, meetingID uuid.UUID) (*entities.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *entities.WaitlistEntry
	for _, e := range s.waitlist {
		if e.MeetingID == meetingID && e.Status == entities.WaitlistWaiting && (next == nil || e.Position < next.Position) {
			next = e
		}
	}
	if next == nil {
		return nil, domain.ErrWaitlistNotFound
	}
	c := *next
	return &c, nil
}

func (s fakeWaitlist) UpdateStatus(_ context.Context, e *entities.WaitlistEntry, from entities.WaitlistStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.waitlist[e.ID]
	if !ok {
		return domain.ErrWaitlistNotFound
	}
	if cur.Status != from {
		return domain.ErrInvalidStatus
	}
	c := *e
	s.waitlist[e.ID] = &c
	return nil
}

func (s fakeWaitlist) ListByUser(_ context.Context, userID uuid.UUID) ([]entities.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.WaitlistEntry
	for _, e := range s.waitlist {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s fakeWaitlist) FindExpiredOffers(_ context.Context, now time.Time) ([]entities.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.WaitlistEntry
	for _, e := range s.waitlist {
		if e.Status == entities.WaitlistOffered && !now.Before(e.OfferExpiresAt) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s fakeWaitlist) CancelAllForMeeting(_ context.Context, meetingID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.waitlist {
		if e.MeetingID == meetingID && e.IsActive() {
			e.Status = entities.WaitlistCancelled
			n++
		}
	}
	return n, nil
}

type fakeReviews struct{ *store }

func (s fakeReviews) Create(_ context.Context, r *entities.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.reviews {
		if x.MeetingID == r.MeetingID && x.UserID == r.UserID {
			return domain.ErrReviewExists
		}
	}
	r.ID = uuid.New()
	s.reviews = append(s.reviews, *r)
	return nil
}

func (s fakeReviews) ListByMeeting(_ context.Context, meetingID, viewer uuid.UUID) ([]entities.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Review
	for _, r := range s.reviews {
		if r.MeetingID == meetingID && (r.IsPublic || r.UserID == viewer) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s fakeReviews) ListByUser(_ context.Context, userID uuid.UUID) ([]entities.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Review
	for _, r := range s.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s fakeReviews) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	rs, _ := s.ListByUser(ctx, userID)
	return len(rs), nil
}

type fakePraises struct{ *store }

func (s fakePraises) Create(_ context.Context, p *entities.Praise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.praises {
		if x.MeetingID == p.MeetingID && x.FromUserID == p.FromUserID {
			return domain.ErrPraiseExists
		}
	}
	p.ID = uuid.New()
	s.praises = append(s.praises, *p)
	return nil
}

func (s fakePraises) filter(keep func(entities.Praise) bool) []entities.Praise {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Praise
	for _, p := range s.praises {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s fakePraises) ListReceived(_ context.Context, userID uuid.UUID) ([]entities.Praise, error) {
	return s.filter(func(p entities.Praise) bool { return p.ToUserID == userID }), nil
}

func (s fakePraises) ListGiven(_ context.Context, userID uuid.UUID) ([]entities.Praise, error) {
	return s.filter(func(p entities.Praise) bool { return p.FromUserID == userID }), nil
}

func (s fakePraises) CountReceived(ctx context.Context, userID uuid.UUID) (int, error) {
	ps, _ := s.ListReceived(ctx, userID)
	return len(ps), nil
}

func (s fakePraises) CountGiven(ctx context.Context, userID uuid.UUID) (int, error) {
	ps, _ := s.ListGiven(ctx, userID)
	return len(ps), nil
}

type fakeBadges struct{ *store }

func (s fakeBadges) Award(_ context.Context, b *entities.Badge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.badges {
		if x.UserID == b.UserID && x.Type == b.Type {
			return false, nil
		}
	}
	b.ID = uuid.New()
	s.badges = append(s.badges, *b)
	return true, nil
}

func (s fakeBadges) ListByUser(_ context.Context, userID uuid.UUID) ([]entities.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Badge
	for _, b := range s.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeLogs struct{ *store }

func (s fakeLogs) Create(_ context.Context, l *entities.NotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.New()
	s.logs = append(s.logs, *l)
	return nil
}

func (s fakeLogs) Exists(_ context.Context, userID uuid.UUID, tpl entities.Template, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.logs {
		if l.UserID == userID && l.Template == tpl && l.ReferenceID == ref {
			return true, nil
		}
	}
	return false, nil
}

type fakePolicies struct{ *store }

func (s fakePolicies) Create(_ context.Context, p *entities.RefundPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.IsDefault {
		for _, x := range s.policies {
			if x.MeetingType == p.MeetingType {
				x.IsDefault = false
			}
		}
	}
	p.ID = uuid.New()
	c := *p
	s.policies[p.ID] = &c
	return nil
}

func (s fakePolicies) FindByID(_ context.Context, id uuid.UUID) (*entities.RefundPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, domain.ErrRefundPolicyAbsent
	}
	c := *p
	return &c, nil
}

func (s fakePolicies) FindDefaultForType(_ context.Context, t entities.MeetingType) (*entities.RefundPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.policies {
		if p.MeetingType == t && p.IsDefault {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.ErrRefundPolicyAbsent
}

func (s fakePolicies) List(_ context.Context) ([]entities.RefundPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.RefundPolicy
	for _, p := range s.policies {
		out = append(out, *p)
	}
	return out, nil
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []output.Message
	fail bool
}

func (m *fakeMessenger) Send(_ context.Context, msg output.Message) (*output.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("gateway down")
	}
	m.sent = append(m.sent, msg)
	return &output.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent)), Channel: entities.ChannelSMS}, nil
}

type refundCall struct {
	impUID string
	amount int64
}

type fakeGateway struct {
	payments   map[string]*output.Payment
	refunds    []refundCall
	failRefund bool
}

func (g *fakeGateway) GetPayment(_ context.Context, impUID string) (*output.Payment, error) {
	p, ok := g.payments[impUID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

func (g *fakeGateway) CancelPayment(_ context.Context, impUID string, amount int64, _ string) error {
	if g.failRefund {
		return domain.ErrPaymentGateway
	}
	g.refunds = append(g.refunds, refundCall{impUID: impUID, amount: amount})
	return nil
}

type fakeLimiter struct{ deny bool }

func (l *fakeLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return !l.deny, nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}

type fakeAlerts struct {
	mu     sync.Mutex
	titles []string
}

func (a *fakeAlerts) Alert(_ context.Context, title string, _ ...output.AlertField) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
	return nil
}

// keyTranslator renders "<key>|<Meeting>" so tests can see what was sent.
type keyTranslator struct{}

func (keyTranslator) T(_, key string, data map[string]any) string {
	if m, ok := data["Meeting"]; ok {
		return fmt.Sprintf("%s|%v", key, m)
	}
	return key
}

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hash:" + pw, nil }
func (fakeHasher) Compare(hash, pw string) bool { return hash == "hash:"+pw }

type fakeTokens struct{ now time.Time }

func (f fakeTokens) Issue(u *entities.User) (string, time.Time, error) {
	return "token-" + u.ID.String(), f.now.Add(7 * 24 * time.Hour), nil
}

func (f fakeTokens) Parse(string) (*output.Claims, error) { return nil, domain.ErrUnauthorized }

type fakeExporter struct{}

func (fakeExporter) Export(_ *entities.Meeting, entries []entities.RosterEntry) ([]byte, error) {
	return []byte(fmt.Sprintf("%d rows", len(entries))), nil
}
