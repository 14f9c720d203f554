package messaging

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/korean"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/phone"
)

var _ output.Messenger = (*Solapi)(nil)

// smsMaxBytes is the SMS limit in EUC-KR bytes; longer texts go out as LMS.
const smsMaxBytes = 90

const statusAccepted = "2000"

type kakaoOptions struct {
	PfID       string            `json:"pfId"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables,omitempty"`
	DisableSms bool              `json:"disableSms"`
}

type message struct {
	To           string        `json:"to"`
	From         string        `json:"from"`
	Text         string        `json:"text"`
	Type         string        `json:"type"`
	KakaoOptions *kakaoOptions `json:"kakaoOptions,omitempty"`
}

type sendRequest struct {
	Message message `json:"message"`
}

type sendResponse struct {
	GroupID       string `json:"groupId"`
	MessageID     string `json:"messageId"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
}

// Solapi sends Kakao Alimtalk with SMS/LMS fallback through the Solapi v4 API.
type Solapi struct {
	httpClient *resty.Client
	apiKey     string
	apiSecret  string
	sender     string
	pfID       string
	logger     *zap.Logger
	now        func() time.Time
}

func NewSolapi(baseURL, apiKey, apiSecret, sender, pfID string, logger *zap.Logger) *Solapi {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Solapi{
		httpClient: client,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		sender:     phone.Normalize(sender),
		pfID:       pfID,
		logger:     logger,
		now:        time.Now,
	}
}

// authorization builds the HMAC-SHA256 header: signature = hex(hmac(secret, date+salt)).
func (c *Solapi) authorization() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(buf)
	date := c.now().UTC().Format(time.RFC3339)
	return signature(c.apiKey, c.apiSecret, date, salt), nil
}

func signature(apiKey, apiSecret, date, salt string) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(date + salt))
	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		apiKey, date, salt, hex.EncodeToString(mac.Sum(nil)))
}

// textType picks SMS or LMS by the EUC-KR length carriers bill on.
func textType(text string) string {
	encoded, err := korean.EUCKR.NewEncoder().String(text)
	if err != nil || len(encoded) > smsMaxBytes {
		return "LMS"
	}
	return "SMS"
}

func (c *Solapi) build(msg output.Message) message {
	m := message{
		To:   phone.Normalize(msg.To),
		From: c.sender,
		Text: msg.Text,
		Type: textType(msg.Text),
	}
	if msg.KakaoTemplateID != "" && c.pfID != "" {
		vars := make(map[string]string, len(msg.Variables))
		for k, v := range msg.Variables {
			vars["#{"+k+"}"] = v
		}
		m.Type = "ATA"
		m.KakaoOptions = &kakaoOptions{PfID: c.pfID, TemplateID: msg.KakaoTemplateID, Variables: vars}
	}
	return m
}

func (c *Solapi) Send(ctx context.Context, msg output.Message) (*output.SendResult, error) {
	m := c.build(msg)
	if !phone.Valid(m.To) {
		return nil, domain.Invalid("invalid recipient %q", phone.Mask(m.To))
	}
	auth, err := c.authorization()
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	var out sendResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetBody(sendRequest{Message: m}).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Post("/messages/v4/send")
	if err != nil {
		c.logger.Error("messaging call failed", zap.Error(err))
		return nil, fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() || (out.StatusCode != "" && out.StatusCode != statusAccepted) {
		c.logger.Error("messaging gateway rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("to", phone.Mask(m.To)),
			zap.String("type", m.Type),
			zap.String("error_code", out.ErrorCode+out.StatusCode),
			zap.String("error_message", out.ErrorMessage+out.StatusMessage),
		)
		return nil, fmt.Errorf("send message: %s %s", out.ErrorCode+out.StatusCode, out.ErrorMessage+out.StatusMessage)
	}

	channel := entities.ChannelSMS
	if m.Type == "ATA" {
		channel = entities.ChannelKakao
	}
	return &output.SendResult{MessageID: out.MessageID, Channel: channel}, nil
}
