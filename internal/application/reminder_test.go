package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/pkg/tz"
)

func TestMeetingRemindersAreSentOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(10, 15000)
	h.confirmCard(h.addUser("a"), m)

	now := time.Date(2026, 10, 17, 9, 0, 0, 0, tz.Seoul)
	h.setNow(now)
	res, err := h.reminders.MeetingReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Contains(t, h.templates(), "notify.meeting_reminder_d3|데미안 읽기")

	res, err = h.reminders.MeetingReminders(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 1, res.Skipped)
}

func TestMeetingRemindersPickTheRightWindow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(10, 15000)
	h.confirmCard(h.addUser("a"), m)

	for now, want := range map[time.Time]string{
		time.Date(2026, 10, 19, 8, 0, 0, 0, tz.Seoul):  "notify.meeting_reminder_d1|데미안 읽기",
		time.Date(2026, 10, 20, 12, 0, 0, 0, tz.Seoul): "notify.meeting_reminder_today|데미안 읽기",
	} {
		h.setNow(now)
		_, err := h.reminders.MeetingReminders(ctx, now)
		require.NoError(t, err)
		assert.Contains(t, h.templates(), want)
	}

	_, err := h.reminders.MeetingReminders(ctx, time.Date(2026, 10, 20, 20, 0, 0, 0, tz.Seoul))
	require.NoError(t, err)
	assert.Len(t, h.templates(), 3, "confirmation, d1 and today only")
}

func TestPostMeetingCompletesAndAsksForReviews(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(10, 15000)
	h.confirmCard(h.addUser("a"), m)

	now := time.Date(2026, 10, 21, 9, 0, 0, 0, tz.Seoul)
	h.setNow(now)
	res, err := h.reminders.PostMeeting(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, entities.MeetingCompleted, h.meeting(m.ID).Status)
	assert.Contains(t, h.templates(), "notify.review_request|데미안 읽기")
}

func (h *harness) addNewcomer(name string, createdAt time.Time) *entities.User {
	h.t.Helper()
	u := &entities.User{ID: uuid.New(), Email: name + "@example.com", Name: name, Phone: "01099998888", Role: entities.RoleMember, CreatedAt: createdAt}
	require.NoError(h.t, fakeUsers{h.store}.Create(context.Background(), u))
	return u
}

func TestOnboardingSteps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	signedUp := time.Date(2026, 10, 11, 15, 0, 0, 0, tz.Seoul)
	u := h.addNewcomer("new", signedUp)
	registered := h.addNewcomer("eager", signedUp)
	_, err := h.registrations.Register(ctx, registered.ID, h.addMeeting(10, 0).ID, input.RegisterRequest{})
	require.NoError(t, err)

	res, err := h.reminders.Onboarding(ctx, h.now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, h.store.users[u.ID].OnboardingReminderCount)
	assert.Zero(t, h.store.users[registered.ID].OnboardingReminderCount)

	res, err = h.reminders.Onboarding(ctx, h.now)
	require.NoError(t, err)
	assert.Zero(t, res.Processed, "day3 step only matches a zero counter")

	day7 := time.Date(2026, 10, 18, 10, 0, 0, 0, tz.Seoul)
	h.setNow(day7)
	res, err = h.reminders.Onboarding(ctx, day7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, h.store.users[u.ID].OnboardingReminderCount)
	assert.Equal(t, []string{"notify.onboarding_day3", "notify.onboarding_day7"}, h.templates()[1:])
}

func TestOnboardingCountsFailedAttempts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.addNewcomer("new", time.Date(2026, 10, 11, 15, 0, 0, 0, tz.Seoul))
	h.messenger.fail = true

	res, err := h.reminders.Onboarding(ctx, h.now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, h.store.users[u.ID].OnboardingReminderCount)
}
