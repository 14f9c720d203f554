package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

func validMeetingInput(now time.Time) input.MeetingInput {
	return input.MeetingInput{
		Title:    "  이방인 함께 읽기 ",
		StartsAt: now.Add(72 * time.Hour),
		Capacity: 12,
		Fee:      15000,
	}
}

func TestCreateMeetingDefaults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	policy := &entities.RefundPolicy{Name: "기본", MeetingType: entities.MeetingRegular, Rules: domain.DefaultRefundRules, IsDefault: true}
	require.NoError(t, fakePolicies{h.store}.Create(ctx, policy))

	m, err := h.meetings.Create(ctx, validMeetingInput(h.now))
	require.NoError(t, err)

	assert.Equal(t, "이방인 함께 읽기", m.Title)
	assert.Equal(t, m.StartsAt.Add(2*time.Hour), m.EndsAt)
	assert.Equal(t, entities.MeetingRegular, m.Type)
	assert.Equal(t, entities.MeetingOpen, m.Status)
	assert.Equal(t, policy.ID, m.RefundPolicyID)
}

func TestCreateMeetingValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cases := map[string]func(*input.MeetingInput){
		"blank title":    func(in *input.MeetingInput) { in.Title = " " },
		"zero capacity":  func(in *input.MeetingInput) { in.Capacity = 0 },
		"huge capacity":  func(in *input.MeetingInput) { in.Capacity = 201 },
		"negative fee":   func(in *input.MeetingInput) { in.Fee = -1 },
		"in the past":    func(in *input.MeetingInput) { in.StartsAt = h.now.Add(-time.Hour) },
		"ends before":    func(in *input.MeetingInput) { in.EndsAt = in.StartsAt.Add(-time.Minute) },
		"unknown type":   func(in *input.MeetingInput) { in.Type = "party" },
		"missing policy": func(in *input.MeetingInput) { in.RefundPolicyID = uuid.New() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validMeetingInput(h.now)
			mutate(&in)
			_, err := h.meetings.Create(ctx, in)
			assert.Error(t, err)
			assert.Contains(t, []domain.ErrorCode{domain.CodeInvalidMeeting, domain.CodeRefundPolicyAbsent}, domain.CodeOf(err))
		})
	}
}

func TestUpdateMeetingRejectsCapacityBelowParticipants(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(3, 15000)
	h.confirmCard(h.addUser("a"), m)
	h.confirmCard(h.addUser("b"), m)

	in := validMeetingInput(h.now)
	in.Capacity = 1
	_, err := h.meetings.Update(ctx, m.ID, in)
	assert.ErrorIs(t, err, domain.ErrCapacityTooLow)
	assert.Equal(t, 2, domain.FieldsOf(err)["current"])

	in.Capacity = 2
	updated, err := h.meetings.Update(ctx, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Capacity)
	assert.Equal(t, 2, h.meeting(m.ID).CurrentParticipants)
}

func TestListMeetingsDerivesStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	full := h.addMeeting(1, 0)
	_, err := h.registrations.Register(ctx, h.addUser("a").ID, full.ID, input.RegisterRequest{})
	require.NoError(t, err)
	h.addMeeting(10, 0)

	all, err := h.meetings.List(ctx, output.MeetingFilter{}, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	onlyFull, err := h.meetings.List(ctx, output.MeetingFilter{Statuses: []domain.DisplayStatus{domain.DisplayFull}}, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, onlyFull, 1)
	assert.Equal(t, full.ID, onlyFull[0].ID)
	assert.Equal(t, 0, onlyFull[0].RemainingSeats)

	_, err = h.meetings.List(ctx, output.MeetingFilter{Statuses: []domain.DisplayStatus{"soon"}}, uuid.Nil)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestGetMeetingIncludesViewerState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(1, 15000)
	a, b := h.addUser("a"), h.addUser("b")
	h.confirmCard(a, m)
	_, err := h.waitlist.Join(ctx, b.ID, m.ID)
	require.NoError(t, err)

	anon, err := h.meetings.Get(ctx, m.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, anon.MyRegistration)
	assert.Equal(t, domain.DisplayFull, anon.DisplayStatus)

	mine, err := h.meetings.Get(ctx, m.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, mine.MyRegistration)
	assert.Nil(t, mine.MyWaitlist)

	waiting, err := h.meetings.Get(ctx, m.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, waiting.MyRegistration)
	require.NotNil(t, waiting.MyWaitlist)
	assert.Equal(t, 1, waiting.MyWaitlist.Position)
}

func TestCancelMeetingRefundsEveryone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(2, 15000)
	card := h.confirmCard(h.addUser("a"), m)
	transfer, err := h.registrations.Register(ctx, h.addUser("b").ID, m.ID, input.RegisterRequest{Method: entities.PaymentTransfer, DepositorName: "비"})
	require.NoError(t, err)
	waiter, err := h.waitlist.Join(ctx, h.addUser("c").ID, m.ID)
	require.NoError(t, err)
	h.setNow(time.Date(2026, 10, 19, 12, 0, 0, 0, m.StartsAt.Location()))

	n, err := h.meetings.Cancel(ctx, m.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, entities.MeetingCancelled, h.meeting(m.ID).Status)
	assert.Equal(t, []refundCall{{impUID: "imp_a", amount: 15000}}, h.gateway.refunds, "full refund even the day before")
	assert.Equal(t, entities.RegistrationCancelled, h.registration(card.ID).Status)
	assert.Equal(t, entities.CancelMeetingCanceled, h.registration(transfer.Registration.ID).CancelReason)
	assert.Equal(t, entities.WaitlistCancelled, h.store.waitlist[waiter.ID].Status)
	assert.Contains(t, h.templates(), "notify.meeting_cancelled|데미안 읽기")
	assert.NotContains(t, h.templates(), "notify.waitlist_offer|데미안 읽기")

	_, err = h.meetings.Cancel(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrMeetingClosed)
}

func TestExportRoster(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	m := h.addMeeting(10, 15000)
	h.confirmCard(h.addUser("a"), m)

	name, data, err := h.meetings.ExportRoster(ctx, m.ID)
	require.NoError(t, err)

	assert.Equal(t, "roster_20261020.xlsx", name)
	assert.Equal(t, "1 rows", string(data))
}
