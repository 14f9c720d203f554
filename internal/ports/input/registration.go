package input

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type RegisterRequest struct {
	Method        entities.PaymentMethod `json:"payment_method"`
	DepositorName string                 `json:"depositor_name"`
}

// PaymentRequest is what the front end hands to the payment widget.
type PaymentRequest struct {
	MerchantUID string `json:"merchant_uid"`
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	BuyerName   string `json:"buyer_name"`
	BuyerEmail  string `json:"buyer_email"`
	BuyerTel    string `json:"buyer_tel"`
}

type BankAccount struct {
	Bank   string `json:"bank"`
	Number string `json:"number"`
	Holder string `json:"holder"`
}

type TransferGuide struct {
	Account       BankAccount `json:"account"`
	Amount        int64       `json:"amount"`
	DepositorName string      `json:"depositor_name"`
	Deadline      time.Time   `json:"deadline"`
}

type RegisterResult struct {
	Registration *entities.Registration `json:"registration"`
	Payment      *PaymentRequest        `json:"payment,omitempty"`
	Transfer     *TransferGuide         `json:"transfer,omitempty"`
}

type CancelResult struct {
	Registration  *entities.Registration `json:"registration"`
	RefundPercent int                    `json:"refund_percent"`
	RefundAmount  int64                  `json:"refund_amount"`
}

type RegistrationUseCase interface {
	Register(ctx context.Context, userID, meetingID uuid.UUID, req RegisterRequest) (*RegisterResult, error)
	// CompletePayment settles a card payment from the redirect or the
	// webhook. merchantUID may be empty.
	CompletePayment(ctx context.Context, impUID, merchantUID string) (*entities.Registration, error)
	Cancel(ctx context.Context, userID, registrationID uuid.UUID) (*CancelResult, error)
	ConfirmTransfer(ctx context.Context, registrationID uuid.UUID) (*entities.Registration, error)
	MyRegistrations(ctx context.Context, userID uuid.UUID) ([]entities.Registration, error)
	ListRoster(ctx context.Context, meetingID uuid.UUID, status entities.RegistrationStatus) ([]entities.RosterEntry, error)
	MarkAttendance(ctx context.Context, meetingID uuid.UUID, registrationIDs []uuid.UUID) (int, error)
}

type WaitlistUseCase interface {
	Join(ctx context.Context, userID, meetingID uuid.UUID) (*entities.WaitlistEntry, error)
	Leave(ctx context.Context, userID, meetingID uuid.UUID) error
	MyWaitlists(ctx context.Context, userID uuid.UUID) ([]entities.WaitlistEntry, error)
}
