package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/tz"
)

// harness wires every service over one in-memory store with a fixed clock.
type harness struct {
	t   *testing.T
	now time.Time

	store     *store
	regRepo   *fakeRegistrations
	messenger *fakeMessenger
	gateway   *fakeGateway
	limiter   *fakeLimiter
	locker    *fakeLocker
	alerts    *fakeAlerts

	notifier      *NotificationService
	badges        *BadgeService
	waitlist      *WaitlistService
	registrations *RegistrationService
	meetings      *MeetingService
	reviews       *ReviewService
	praises       *PraiseService
	auth          *AuthService
	reminders     *ReminderService
	cron          *CronService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		now:       time.Date(2026, 10, 14, 10, 0, 0, 0, tz.Seoul),
		store:     newStore(),
		messenger: &fakeMessenger{},
		gateway:   &fakeGateway{payments: map[string]*output.Payment{}},
		limiter:   &fakeLimiter{},
		locker:    &fakeLocker{held: map[string]bool{}},
		alerts:    &fakeAlerts{},
	}
	log := zap.NewNop()
	users := fakeUsers{h.store}
	mtgs := fakeMeetings{h.store}
	h.regRepo = &fakeRegistrations{store: h.store}
	wl := fakeWaitlist{h.store}
	policies := fakePolicies{h.store}

	h.notifier = NewNotificationService(users, fakeLogs{h.store}, h.messenger, keyTranslator{}, "ko", nil, log)
	h.badges = NewBadgeService(fakeBadges{h.store}, h.regRepo, fakeReviews{h.store}, fakePraises{h.store}, log)
	h.waitlist = NewWaitlistService(wl, mtgs, h.regRepo, h.notifier, 24*time.Hour, log)
	h.registrations = NewRegistrationService(h.regRepo, mtgs, users, policies, h.waitlist, h.badges, h.notifier,
		h.gateway, h.limiter, h.alerts, RegistrationSettings{
			TransferDeadline: 24 * time.Hour,
			PendingTTL:       30 * time.Minute,
			Account:          input.BankAccount{Bank: "국민", Number: "123-45-6789", Holder: "지독해"},
		}, log)
	h.meetings = NewMeetingService(mtgs, h.regRepo, wl, policies, h.registrations, fakeExporter{}, log)
	h.reviews = NewReviewService(fakeReviews{h.store}, mtgs, h.regRepo, h.badges, log)
	h.praises = NewPraiseService(fakePraises{h.store}, mtgs, h.regRepo, h.badges, h.notifier, log)
	h.auth = NewAuthService(users, fakeBadges{h.store}, fakeHasher{}, fakeTokens{now: h.now}, h.notifier, log)
	h.reminders = NewReminderService(mtgs, h.regRepo, users, h.notifier, log)
	h.cron = NewCronService(DefaultJobs(h.reminders, h.waitlist, h.registrations), h.locker, h.alerts, log)
	h.setNow(h.now)
	return h
}

func (h *harness) setNow(now time.Time) {
	h.now = now
	clock := func() time.Time { return h.now }
	h.notifier.now = clock
	h.badges.now = clock
	h.waitlist.now = clock
	h.registrations.now = clock
	h.meetings.now = clock
	h.reviews.now = clock
	h.praises.now = clock
	h.auth.now = clock
	h.cron.now = clock
}

func (h *harness) addUser(name string) *entities.User {
	h.t.Helper()
	u := &entities.User{
		ID:        uuid.New(),
		Email:     name + "@example.com",
		Name:      name,
		Phone:     "01012345678",
		Role:      entities.RoleMember,
		CreatedAt: h.now.AddDate(0, -1, 0),
	}
	require.NoError(h.t, fakeUsers{h.store}.Create(context.Background(), u))
	return u
}

// addMeeting stores an open meeting on 2026-10-20 19:00 KST.
func (h *harness) addMeeting(capacity int, fee int64) *entities.Meeting {
	h.t.Helper()
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, tz.Seoul)
	m := &entities.Meeting{
		ID:       uuid.New(),
		Title:    "데미안 읽기",
		StartsAt: start,
		EndsAt:   start.Add(2 * time.Hour),
		Capacity: capacity,
		Fee:      fee,
		Status:   entities.MeetingOpen,
		Type:     entities.MeetingRegular,
	}
	require.NoError(h.t, fakeMeetings{h.store}.Create(context.Background(), m))
	return m
}

func (h *harness) meeting(id uuid.UUID) *entities.Meeting {
	h.t.Helper()
	m, err := fakeMeetings{h.store}.FindByID(context.Background(), id)
	require.NoError(h.t, err)
	return m
}

func (h *harness) registration(id uuid.UUID) *entities.Registration {
	h.t.Helper()
	r, err := h.regRepo.FindByID(context.Background(), id)
	require.NoError(h.t, err)
	return r
}

// confirmCard registers u by card and settles the payment.
func (h *harness) confirmCard(u *entities.User, m *entities.Meeting) *entities.Registration {
	h.t.Helper()
	res, err := h.registrations.Register(context.Background(), u.ID, m.ID, input.RegisterRequest{Method: entities.PaymentCard})
	require.NoError(h.t, err)
	imp := "imp_" + u.Name
	h.gateway.payments[imp] = &output.Payment{ImpUID: imp, MerchantUID: res.Registration.MerchantUID, Amount: m.Fee, Status: output.PaymentPaid}
	reg, err := h.registrations.CompletePayment(context.Background(), imp, res.Registration.MerchantUID)
	require.NoError(h.t, err)
	return reg
}

// templates returns the message texts sent so far.
func (h *harness) templates() []string {
	h.messenger.mu.Lock()
	defer h.messenger.mu.Unlock()
	out := make([]string, len(h.messenger.sent))
	for i, m := range h.messenger.sent {
		out[i] = m.Text
	}
	return out
}
