package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type PaymentStatus string

const (
	PaymentReady     PaymentStatus = "ready"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is the gateway's view of one payment.
type Payment struct {
	ImpUID      string
	MerchantUID string
	Amount      int64
	Status      PaymentStatus
	PayMethod   string
}

type PaymentGateway interface {
	GetPayment(ctx context.Context, impUID string) (*Payment, error)
	// CancelPayment refunds amount won of the payment.
	CancelPayment(ctx context.Context, impUID string, amount int64, reason string) error
}

// Message is one outbound notification. When KakaoTemplateID is set the
// gateway tries alimtalk first and falls back to Text as SMS.
type Message struct {
	To              string
	Text            string
	KakaoTemplateID string
	Variables       map[string]string
}

type SendResult struct {
	MessageID string
	Channel   entities.Channel
}

type Messenger interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

type AlertField struct {
	Name  string
	Value string
}

// AdminNotifier posts operational alerts to the admin channel.
type AdminNotifier interface {
	Alert(ctx context.Context, title string, fields ...AlertField) error
}

// RosterExporter renders a meeting roster as a spreadsheet.
type RosterExporter interface {
	Export(meeting *entities.Meeting, entries []entities.RosterEntry) ([]byte, error)
}

// Locker takes short-lived named locks. unlock is nil when acquired is false.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Claims identify the caller behind a session token.
type Claims struct {
	UserID    uuid.UUID
	Role      entities.Role
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(user *entities.User) (token string, expiresAt time.Time, err error)
	Parse(token string) (*Claims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
