package payment

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/ports/output"
)

var _ output.PaymentGateway = (*PortOne)(nil)

// tokenSlack renews the access token a little before the gateway expires it.
const tokenSlack = time.Minute

// envelope is the body shape of every PortOne v1 response.
type envelope[T any] struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response *T     `json:"response"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiredAt   int64  `json:"expired_at"`
}

type paymentResponse struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	PayMethod   string `json:"pay_method"`
}

type cancelRequest struct {
	ImpUID string `json:"imp_uid"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// PortOne is the card payment gateway client (PortOne REST API v1).
type PortOne struct {
	httpClient *resty.Client
	key        string
	secret     string
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewPortOne(baseURL, key, secret string, logger *zap.Logger) *PortOne {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &PortOne{
		httpClient: client,
		key:        key,
		secret:     secret,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *PortOne) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Add(tokenSlack).Before(c.expiresAt) {
		return c.token, nil
	}

	var out envelope[tokenResponse]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"imp_key": c.key, "imp_secret": c.secret}).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Post("/users/getToken")
	if err := c.check(resp, err, out.Code, out.Message, "get token"); err != nil {
		return "", err
	}
	if out.Response == nil || out.Response.AccessToken == "" {
		return "", domain.Wrap(domain.CodePaymentGateway, fmt.Errorf("get token: empty response"))
	}
	c.token = out.Response.AccessToken
	c.expiresAt = time.Unix(out.Response.ExpiredAt, 0)
	return c.token, nil
}

// check turns transport failures and non-zero gateway codes into CodePaymentGateway.
func (c *PortOne) check(resp *resty.Response, err error, code int, message, op string) error {
	if err != nil {
		c.logger.Error("payment gateway call failed", zap.String("op", op), zap.Error(err))
		return domain.Wrap(domain.CodePaymentGateway, fmt.Errorf("%s: %w", op, err))
	}
	if resp.IsError() || code != 0 {
		c.logger.Error("payment gateway returned error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("code", code),
			zap.String("message", message),
		)
		return domain.Wrap(domain.CodePaymentGateway, fmt.Errorf("%s: %s (code %d, http %d)", op, message, code, resp.StatusCode()))
	}
	return nil
}

func (c *PortOne) GetPayment(ctx context.Context, impUID string) (*output.Payment, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	var out envelope[paymentResponse]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", token).
		SetPathParam("imp_uid", impUID).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Get("/payments/{imp_uid}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return nil, domain.ErrPaymentNotFound
	}
	if err := c.check(resp, err, out.Code, out.Message, "get payment"); err != nil {
		return nil, err
	}
	if out.Response == nil {
		return nil, domain.ErrPaymentNotFound
	}
	p := out.Response
	return &output.Payment{
		ImpUID:      p.ImpUID,
		MerchantUID: p.MerchantUID,
		Amount:      p.Amount,
		Status:      output.PaymentStatus(p.Status),
		PayMethod:   p.PayMethod,
	}, nil
}

func (c *PortOne) CancelPayment(ctx context.Context, impUID string, amount int64, reason string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	var out envelope[paymentResponse]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", token).
		SetBody(cancelRequest{ImpUID: impUID, Amount: amount, Reason: reason}).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Post("/payments/cancel")
	if err := c.check(resp, err, out.Code, out.Message, "cancel payment"); err != nil {
		return err
	}
	c.logger.Info("payment cancelled", zap.String("imp_uid", impUID), zap.Int64("amount", amount))
	return nil
}
