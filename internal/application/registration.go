package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/metrics"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/phone"
	"jidokhae/pkg/tz"
)

var _ input.RegistrationUseCase = (*RegistrationService)(nil)

const (
	registerAttempts = 5
	registerWindow   = time.Minute
	merchantPrefix   = "jdh_"
)

// RegistrationSettings are the tunables of the registration flow.
type RegistrationSettings struct {
	TransferDeadline time.Duration
	PendingTTL       time.Duration
	Account          input.BankAccount
}

type RegistrationService struct {
	registrations output.RegistrationRepository
	meetings      output.MeetingRepository
	users         output.UserRepository
	policies      output.RefundPolicyRepository
	waitlist      *WaitlistService
	badges        *BadgeService
	notifier      *NotificationService
	gateway       output.PaymentGateway
	limiter       output.RateLimiter
	alerts        output.AdminNotifier
	settings      RegistrationSettings
	logger        *zap.Logger
	now           func() time.Time
}

func NewRegistrationService(
	registrations output.RegistrationRepository,
	meetings output.MeetingRepository,
	users output.UserRepository,
	policies output.RefundPolicyRepository,
	waitlist *WaitlistService,
	badges *BadgeService,
	notifier *NotificationService,
	gateway output.PaymentGateway,
	limiter output.RateLimiter,
	alerts output.AdminNotifier,
	settings RegistrationSettings,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		meetings:      meetings,
		users:         users,
		policies:      policies,
		waitlist:      waitlist,
		badges:        badges,
		notifier:      notifier,
		gateway:       gateway,
		limiter:       limiter,
		alerts:        alerts,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *RegistrationService) Register(ctx context.Context, userID, meetingID uuid.UUID, req input.RegisterRequest) (*input.RegisterResult, error) {
	now := s.now()
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.AcceptsRegistrations(now) {
		return nil, domain.ErrMeetingClosed
	}
	method := req.Method
	if meeting.IsFree() {
		method = entities.PaymentFree
	} else if !method.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if method == entities.PaymentTransfer && req.DepositorName == "" {
		return nil, domain.Invalid("depositor_name is required for transfers")
	}
	if _, err := s.registrations.FindActiveByMeetingAndUser(ctx, meetingID, userID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrRegistrationNotFound) {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	allowed, err := s.limiter.Allow(ctx, "rl:register:"+userID.String(), registerAttempts, registerWindow)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, domain.ErrTooManyAttempts
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.takeSeat(ctx, meeting, userID); err != nil {
		return nil, err
	}

	reg := &entities.Registration{
		MeetingID:     meetingID,
		UserID:        userID,
		PaymentMethod: method,
		Amount:        meeting.Fee,
		RefundStatus:  entities.RefundNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch method {
	case entities.PaymentFree:
		reg.Status = entities.RegistrationConfirmed
	case entities.PaymentCard:
		reg.Status = entities.RegistrationPending
		reg.MerchantUID = merchantPrefix + uuid.NewString()
	case entities.PaymentTransfer:
		reg.Status = entities.RegistrationPendingTransfer
		reg.DepositorName = req.DepositorName
		reg.TransferDeadline = now.Add(s.settings.TransferDeadline)
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		if relErr := s.waitlist.ReleaseSlot(ctx, meeting); relErr != nil {
			s.logger.Error("release seat after failed registration", zap.String("meeting_id", meetingID.String()), zap.Error(relErr))
		}
		return nil, err
	}
	metrics.Registrations.WithLabelValues(metrics.ResultCreated).Inc()
	s.logger.Info("registration created",
		zap.String("registration_id", reg.ID.String()),
		zap.String("meeting_id", meetingID.String()),
		zap.String("method", string(method)),
	)

	res := &input.RegisterResult{Registration: reg}
	switch method {
	case entities.PaymentFree:
		metrics.Registrations.WithLabelValues(metrics.ResultConfirmed).Inc()
		s.notifier.tell(ctx, userID, entities.TemplateRegistrationConfirmed, reg.ID.String(), meetingData(meeting))
	case entities.PaymentCard:
		res.Payment = &input.PaymentRequest{
			MerchantUID: reg.MerchantUID,
			Name:        meeting.Title,
			Amount:      reg.Amount,
			BuyerName:   user.Name,
			BuyerEmail:  user.Email,
			BuyerTel:    user.Phone,
		}
	case entities.PaymentTransfer:
		res.Transfer = &input.TransferGuide{
			Account:       s.settings.Account,
			Amount:        reg.Amount,
			DepositorName: reg.DepositorName,
			Deadline:      reg.TransferDeadline,
		}
		data := meetingData(meeting)
		data["Amount"] = reg.Amount
		data["Bank"] = s.settings.Account.Bank
		data["Account"] = s.settings.Account.Number
		data["Holder"] = s.settings.Account.Holder
		data["Deadline"] = tz.FormatKorean(reg.TransferDeadline)
		s.notifier.tell(ctx, userID, entities.TemplateTransferGuide, reg.ID.String(), data)
		s.alert(ctx, "입금 대기 신청",
			output.AlertField{Name: "모임", Value: meeting.Title},
			output.AlertField{Name: "신청자", Value: user.Name + " (" + phone.Mask(user.Phone) + ")"},
			output.AlertField{Name: "입금자명", Value: reg.DepositorName},
			output.AlertField{Name: "금액", Value: strconv.FormatInt(reg.Amount, 10)},
		)
	}
	return res, nil
}

// takeSeat converts a live waitlist offer, which already holds a seat, or
// reserves a fresh one.
func (s *RegistrationService) takeSeat(ctx context.Context, meeting *entities.Meeting, userID uuid.UUID) error {
	offer, err := s.waitlist.LiveOffer(ctx, meeting.ID, userID)
	if err != nil {
		return fmt.Errorf("check waitlist offer: %w", err)
	}
	if offer != nil {
		if err := s.waitlist.Convert(ctx, offer); err == nil {
			return nil
		} else if !errors.Is(err, domain.ErrInvalidStatus) {
			return fmt.Errorf("convert offer: %w", err)
		}
		// the offer expired in the meantime; compete for a seat like everyone else
	}
	ok, err := s.meetings.ReserveSlot(ctx, meeting.ID)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if !ok {
		metrics.Registrations.WithLabelValues(metrics.ResultFull).Inc()
		return domain.ErrMeetingFull.With("waitlist", true)
	}
	return nil
}

func (s *RegistrationService) CompletePayment(ctx context.Context, impUID, merchantUID string) (*entities.Registration, error) {
	if impUID == "" {
		return nil, domain.Invalid("imp_uid is required")
	}
	payment, err := s.gateway.GetPayment(ctx, impUID)
	if err != nil {
		return nil, err
	}
	if merchantUID != "" && merchantUID != payment.MerchantUID {
		s.logger.Warn("merchant uid mismatch", zap.String("imp_uid", impUID), zap.String("merchant_uid", merchantUID))
		return nil, domain.ErrPaymentNotFound
	}
	reg, err := s.registrations.FindByMerchantUID(ctx, payment.MerchantUID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, reg, payment, true)
}

func (s *RegistrationService) settle(ctx context.Context, reg *entities.Registration, payment *output.Payment, retry bool) (*entities.Registration, error) {
	switch reg.Status {
	case entities.RegistrationConfirmed:
		return reg, nil
	case entities.RegistrationCancelled:
		if payment.Status == output.PaymentPaid {
			// paid after the hold expired; give the money back
			s.logger.Warn("payment for a cancelled registration", zap.String("registration_id", reg.ID.String()))
			if err := s.gateway.CancelPayment(ctx, payment.ImpUID, payment.Amount, "registration expired"); err != nil {
				s.alert(ctx, "자동 환불 실패", output.AlertField{Name: "결제", Value: payment.ImpUID})
				return nil, err
			}
		}
		return nil, domain.ErrInvalidStatus
	case entities.RegistrationPending:
	default:
		return nil, domain.ErrInvalidStatus
	}

	meeting, err := s.meetings.FindByID(ctx, reg.MeetingID)
	if err != nil {
		return nil, err
	}
	switch payment.Status {
	case output.PaymentReady:
		return reg, nil
	case output.PaymentFailed, output.PaymentCancelled:
		if _, err := s.cancel(ctx, reg, meeting, cancelOptions{reason: entities.CancelPaymentFailed}); err != nil {
			return nil, s.retrySettle(ctx, reg, payment, retry, err)
		}
		return reg, domain.ErrPaymentFailed
	case output.PaymentPaid:
	default:
		return nil, domain.Invalid("unknown payment status %q", payment.Status)
	}

	if payment.Amount != reg.Amount {
		s.logger.Warn("payment amount mismatch",
			zap.String("registration_id", reg.ID.String()),
			zap.Int64("expected", reg.Amount),
			zap.Int64("paid", payment.Amount),
		)
		metrics.Registrations.WithLabelValues(metrics.ResultMismatch).Inc()
		if err := s.gateway.CancelPayment(ctx, payment.ImpUID, payment.Amount, "amount mismatch"); err != nil {
			return nil, err
		}
		reg.PaymentID = payment.ImpUID
		if _, err := s.cancel(ctx, reg, meeting, cancelOptions{reason: entities.CancelAmountMismatch}); err != nil {
			return nil, s.retrySettle(ctx, reg, payment, retry, err)
		}
		return nil, domain.ErrPaymentAmountMismatch
	}

	reg.Status = entities.RegistrationConfirmed
	reg.PaymentID = payment.ImpUID
	reg.UpdatedAt = s.now()
	if err := s.registrations.UpdateStatus(ctx, reg, entities.RegistrationPending); err != nil {
		return nil, s.retrySettle(ctx, reg, payment, retry, err)
	}
	metrics.Registrations.WithLabelValues(metrics.ResultConfirmed).Inc()
	s.notifier.tell(ctx, reg.UserID, entities.TemplateRegistrationConfirmed, reg.ID.String(), meetingData(meeting))
	return reg, nil
}

// retrySettle re-reads the registration once when the redirect and the
// webhook raced on the same payment.
func (s *RegistrationService) retrySettle(ctx context.Context, reg *entities.Registration, payment *output.Payment, retry bool, cause error) error {
	if !retry || !(errors.Is(cause, domain.ErrInvalidStatus) || errors.Is(cause, domain.ErrAlreadyCancelled)) {
		return cause
	}
	fresh, err := s.registrations.FindByID(ctx, reg.ID)
	if err != nil {
		return err
	}
	if _, err := s.settle(ctx, fresh, payment, false); err != nil {
		return err
	}
	*reg = *fresh
	return nil
}

func (s *RegistrationService) Cancel(ctx context.Context, userID, registrationID uuid.UUID) (*input.CancelResult, error) {
	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if !reg.CanCancel() {
		return nil, domain.ErrAlreadyCancelled
	}
	meeting, err := s.meetings.FindByID(ctx, reg.MeetingID)
	if err != nil {
		return nil, err
	}
	if meeting.HasStarted(s.now()) {
		return nil, domain.ErrCancelAfterStart
	}
	return s.cancel(ctx, reg, meeting, cancelOptions{
		reason:   entities.CancelByUser,
		template: entities.TemplateRegistrationCancelled,
	})
}

type cancelOptions struct {
	reason string
	// fullRefund bypasses the refund policy.
	fullRefund bool
	// template is sent to the member when set.
	template entities.Template
	// skipWaitlist returns the seat to the meeting instead of offering it.
	skipWaitlist bool
}

// cancel moves reg to cancelled, refunds what the policy grants and frees
// its seat. The status switch happens first so concurrent calls refund once.
func (s *RegistrationService) cancel(ctx context.Context, reg *entities.Registration, meeting *entities.Meeting, opts cancelOptions) (*input.CancelResult, error) {
	if !reg.CanCancel() {
		return nil, domain.ErrAlreadyCancelled
	}
	now := s.now()
	from := reg.Status

	percent := 0
	if from == entities.RegistrationConfirmed && reg.Amount > 0 {
		if opts.fullRefund {
			percent = 100
		} else {
			percent = domain.RefundPercent(s.refundRules(ctx, meeting), meeting.StartsAt, now)
		}
	}
	amount := domain.RefundAmount(reg.Amount, percent)

	next := *reg
	next.Status = entities.RegistrationCancelled
	next.CancelledAt = now
	next.CancelReason = opts.reason
	next.RefundAmount = amount
	next.RefundStatus = entities.RefundNone
	next.UpdatedAt = now
	if amount > 0 {
		next.RefundStatus = entities.RefundDone
		if next.PaymentMethod == entities.PaymentTransfer {
			next.RefundStatus = entities.RefundManual
		}
	}
	if err := s.registrations.UpdateStatus(ctx, &next, from); err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return nil, domain.ErrAlreadyCancelled
		}
		return nil, fmt.Errorf("cancel registration: %w", err)
	}
	*reg = next
	metrics.Registrations.WithLabelValues(metrics.ResultCancelled).Inc()

	switch {
	case amount > 0 && reg.PaymentMethod == entities.PaymentCard:
		if err := s.gateway.CancelPayment(ctx, reg.PaymentID, amount, opts.reason); err != nil {
			s.logger.Error("gateway refund failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
			reg.RefundStatus = entities.RefundManual
			if err := s.registrations.SetRefundStatus(ctx, reg.ID, entities.RefundManual); err != nil {
				s.logger.Error("mark refund manual", zap.String("registration_id", reg.ID.String()), zap.Error(err))
			}
			s.refundAlert(ctx, "카드 환불 실패, 수동 환불 필요", reg, meeting)
		}
	case reg.RefundStatus == entities.RefundManual:
		s.refundAlert(ctx, "계좌 환불 필요", reg, meeting)
	}

	if opts.skipWaitlist {
		if err := s.meetings.ReleaseSlot(ctx, meeting.ID); err != nil {
			s.logger.Error("release slot", zap.String("meeting_id", meeting.ID.String()), zap.Error(err))
		}
	} else if err := s.waitlist.ReleaseSlot(ctx, meeting); err != nil {
		s.logger.Error("hand seat to waitlist", zap.String("meeting_id", meeting.ID.String()), zap.Error(err))
	}

	if opts.template != "" {
		data := meetingData(meeting)
		data["RefundAmount"] = amount
		data["RefundPercent"] = percent
		s.notifier.tell(ctx, reg.UserID, opts.template, reg.ID.String(), data)
	}
	s.logger.Info("registration cancelled",
		zap.String("registration_id", reg.ID.String()),
		zap.String("reason", opts.reason),
		zap.Int("refund_percent", percent),
		zap.Int64("refund_amount", amount),
	)
	return &input.CancelResult{Registration: reg, RefundPercent: percent, RefundAmount: amount}, nil
}

func (s *RegistrationService) refundRules(ctx context.Context, meeting *entities.Meeting) []entities.RefundRule {
	var (
		policy *entities.RefundPolicy
		err    error
	)
	if meeting.RefundPolicyID != uuid.Nil {
		policy, err = s.policies.FindByID(ctx, meeting.RefundPolicyID)
	} else {
		policy, err = s.policies.FindDefaultForType(ctx, meeting.Type)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrRefundPolicyAbsent) {
			s.logger.Warn("load refund policy", zap.String("meeting_id", meeting.ID.String()), zap.Error(err))
		}
		return domain.DefaultRefundRules
	}
	return policy.Rules
}

func (s *RegistrationService) ConfirmTransfer(ctx context.Context, registrationID uuid.UUID) (*entities.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !reg.CanConfirmTransfer() {
		return nil, domain.ErrInvalidStatus
	}
	meeting, err := s.meetings.FindByID(ctx, reg.MeetingID)
	if err != nil {
		return nil, err
	}
	reg.Status = entities.RegistrationConfirmed
	reg.UpdatedAt = s.now()
	if err := s.registrations.UpdateStatus(ctx, reg, entities.RegistrationPendingTransfer); err != nil {
		return nil, err
	}
	metrics.Registrations.WithLabelValues(metrics.ResultConfirmed).Inc()
	s.notifier.tell(ctx, reg.UserID, entities.TemplateRegistrationConfirmed, reg.ID.String(), meetingData(meeting))
	return reg, nil
}

func (s *RegistrationService) MyRegistrations(ctx context.Context, userID uuid.UUID) ([]entities.Registration, error) {
	return s.registrations.ListByUser(ctx, userID)
}

func (s *RegistrationService) ListRoster(ctx context.Context, meetingID uuid.UUID, status entities.RegistrationStatus) ([]entities.RosterEntry, error) {
	if _, err := s.meetings.FindByID(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.registrations.ListRoster(ctx, meetingID, status)
}

func (s *RegistrationService) MarkAttendance(ctx context.Context, meetingID uuid.UUID, registrationIDs []uuid.UUID) (int, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	if !meeting.HasStarted(s.now()) {
		return 0, domain.ErrMeetingNotStarted
	}
	if len(registrationIDs) == 0 {
		return 0, nil
	}
	marked, err := s.registrations.MarkAttended(ctx, meetingID, registrationIDs)
	if err != nil {
		return 0, fmt.Errorf("mark attended: %w", err)
	}
	for _, r := range marked {
		s.badges.evaluateQuietly(ctx, r.UserID)
	}
	return len(marked), nil
}

// ExpireOverdueTransfers cancels transfers whose deadline passed.
func (s *RegistrationService) ExpireOverdueTransfers(ctx context.Context, now time.Time) (input.JobResult, error) {
	regs, err := s.registrations.FindOverdueTransfers(ctx, now)
	if err != nil {
		return input.JobResult{Job: JobTransferTimeout}, fmt.Errorf("find overdue transfers: %w", err)
	}
	return s.expire(ctx, JobTransferTimeout, regs, entities.CancelTransferTimeout, entities.TemplateTransferExpired), nil
}

// ExpireStalePayments cancels card registrations abandoned at checkout.
func (s *RegistrationService) ExpireStalePayments(ctx context.Context, now time.Time) (input.JobResult, error) {
	regs, err := s.registrations.FindStalePending(ctx, now.Add(-s.settings.PendingTTL))
	if err != nil {
		return input.JobResult{Job: JobPendingPayments}, fmt.Errorf("find stale payments: %w", err)
	}
	return s.expire(ctx, JobPendingPayments, regs, entities.CancelPaymentTimeout, entities.TemplatePaymentExpired), nil
}

func (s *RegistrationService) expire(ctx context.Context, job string, regs []entities.Registration, reason string, tpl entities.Template) input.JobResult {
	res := input.JobResult{Job: job}
	meetings := map[uuid.UUID]*entities.Meeting{}
	for i := range regs {
		reg := &regs[i]
		res.Processed++
		meeting, ok := meetings[reg.MeetingID]
		if !ok {
			m, err := s.meetings.FindByID(ctx, reg.MeetingID)
			if err != nil {
				res.Failed++
				s.logger.Warn("load meeting", zap.String("registration_id", reg.ID.String()), zap.Error(err))
				continue
			}
			meetings[reg.MeetingID], meeting = m, m
		}
		if _, err := s.cancel(ctx, reg, meeting, cancelOptions{reason: reason, template: tpl}); err != nil {
			if errors.Is(err, domain.ErrAlreadyCancelled) {
				res.Skipped++
				continue
			}
			res.Failed++
			s.logger.Warn("expire registration", zap.String("registration_id", reg.ID.String()), zap.Error(err))
			continue
		}
		res.Sent++
	}
	return res
}

// cancelForMeeting cancels every active registration of a cancelled meeting
// with a full refund.
func (s *RegistrationService) cancelForMeeting(ctx context.Context, meeting *entities.Meeting) (int, error) {
	regs, err := s.registrations.ListByMeeting(ctx, meeting.ID,
		entities.RegistrationPending, entities.RegistrationPendingTransfer, entities.RegistrationConfirmed)
	if err != nil {
		return 0, fmt.Errorf("list registrations: %w", err)
	}
	n := 0
	for i := range regs {
		_, err := s.cancel(ctx, &regs[i], meeting, cancelOptions{
			reason:       entities.CancelMeetingCanceled,
			fullRefund:   true,
			template:     entities.TemplateMeetingCancelled,
			skipWaitlist: true,
		})
		if err != nil {
			s.logger.Warn("cancel registration of cancelled meeting", zap.String("registration_id", regs[i].ID.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

func (s *RegistrationService) refundAlert(ctx context.Context, title string, reg *entities.Registration, meeting *entities.Meeting) {
	s.alert(ctx, title,
		output.AlertField{Name: "모임", Value: meeting.Title},
		output.AlertField{Name: "신청", Value: reg.ID.String()},
		output.AlertField{Name: "환불액", Value: strconv.FormatInt(reg.RefundAmount, 10)},
	)
}

func (s *RegistrationService) alert(ctx context.Context, title string, fields ...output.AlertField) {
	if err := s.alerts.Alert(ctx, title, fields...); err != nil {
		s.logger.Warn("admin alert failed", zap.String("title", title), zap.Error(err))
	}
}
