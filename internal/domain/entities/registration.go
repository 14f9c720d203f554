package entities

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationPending         RegistrationStatus = "pending"
	RegistrationPendingTransfer RegistrationStatus = "pending_transfer"
	RegistrationConfirmed       RegistrationStatus = "confirmed"
	RegistrationCancelled       RegistrationStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentFree     PaymentMethod = "free" // assigned for fee-less meetings, never chosen by users
)

// Valid reports whether p can be requested by a member.
func (p PaymentMethod) Valid() bool {
	return p == PaymentCard || p == PaymentTransfer
}

type RefundStatus string

const (
	RefundNone   RefundStatus = "none"
	RefundDone   RefundStatus = "done"
	RefundManual RefundStatus = "manual"
)

// Cancel reasons recorded on registrations.
const (
	CancelByUser          = "user_request"
	CancelTransferTimeout = "transfer_timeout"
	CancelPaymentTimeout  = "payment_timeout"
	CancelPaymentFailed   = "payment_failed"
	CancelAmountMismatch  = "amount_mismatch"
	CancelMeetingCanceled = "meeting_cancelled"
)

// Registration is a user's application to attend one meeting. Every
// registration that is not cancelled holds one seat of the meeting.
type Registration struct {
	ID               uuid.UUID          `json:"id"`
	MeetingID        uuid.UUID          `json:"meeting_id"`
	UserID           uuid.UUID          `json:"user_id"`
	Status           RegistrationStatus `json:"status"`
	PaymentMethod    PaymentMethod      `json:"payment_method"`
	MerchantUID      string             `json:"merchant_uid,omitempty"`
	PaymentID        string             `json:"payment_id,omitempty"`
	Amount           int64              `json:"amount"`
	DepositorName    string             `json:"depositor_name,omitempty"`
	TransferDeadline time.Time          `json:"transfer_deadline,omitzero"`
	RefundAmount     int64              `json:"refund_amount"`
	RefundStatus     RefundStatus       `json:"refund_status"`
	Attended         bool               `json:"attended"`
	CancelledAt      time.Time          `json:"cancelled_at,omitzero"`
	CancelReason     string             `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func (r *Registration) IsActive() bool {
	switch r.Status {
	case RegistrationPending, RegistrationPendingTransfer, RegistrationConfirmed:
		return true
	}
	return false
}

func (r *Registration) CanCancel() bool {
	return r.IsActive()
}

func (r *Registration) CanConfirmTransfer() bool {
	return r.Status == RegistrationPendingTransfer
}

func (r *Registration) TransferOverdue(now time.Time) bool {
	return r.Status == RegistrationPendingTransfer && !r.TransferDeadline.IsZero() && now.After(r.TransferDeadline)
}

// RosterEntry is a registration joined with the member's contact details.
type RosterEntry struct {
	Registration
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	UserPhone string `json:"user_phone"`
}
