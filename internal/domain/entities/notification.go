package entities

import (
	"time"

	"github.com/google/uuid"
)

// Template identifies a notification message. It doubles as the i18n
// message id suffix ("notify.<template>").
type Template string

const (
	TemplateWelcome               Template = "welcome"
	TemplateOnboardingDay3        Template = "onboarding_day3"
	TemplateOnboardingDay7        Template = "onboarding_day7"
	TemplateTransferGuide         Template = "transfer_guide"
	TemplateRegistrationConfirmed Template = "registration_confirmed"
	TemplateRegistrationCancelled Template = "registration_cancelled"
	TemplateTransferExpired       Template = "transfer_expired"
	TemplatePaymentExpired        Template = "payment_expired"
	TemplateWaitlistOffer         Template = "waitlist_offer"
	TemplateWaitlistExpired       Template = "waitlist_expired"
	TemplateReminderD3            Template = "meeting_reminder_d3"
	TemplateReminderD1            Template = "meeting_reminder_d1"
	TemplateReminderToday         Template = "meeting_reminder_today"
	TemplateReviewRequest         Template = "review_request"
	TemplatePraiseReceived        Template = "praise_received"
	TemplateMeetingCancelled      Template = "meeting_cancelled"
)

type Channel string

const (
	ChannelKakao Channel = "kakao"
	ChannelSMS   Channel = "sms"
)

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// NotificationLog records every send attempt. (user, template, reference)
// is the idempotency key for scheduled sends.
type NotificationLog struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Template          Template
	ReferenceID       string
	Channel           Channel
	Status            NotificationStatus
	ProviderMessageID string
	Error             string
	CreatedAt         time.Time
}
