package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/metrics"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/tz"
)

// Delivery describes what a notify call did.
type Delivery int

const (
	DeliveryNone    Delivery = iota // nothing was logged
	DeliverySent                    // sent and logged
	DeliveryFailed                  // attempted, failure logged
	DeliverySkipped                 // an earlier attempt was already logged
)

// Logged reports whether an attempt for the key is on record.
func (d Delivery) Logged() bool {
	return d != DeliveryNone
}

// NotificationService renders templates through i18n, sends them through the
// messaging gateway and logs every attempt.
type NotificationService struct {
	users      output.UserRepository
	logs       output.NotificationLogRepository
	messenger  output.Messenger
	translator output.T
	locale     string
	kakao      map[entities.Template]string
	logger     *zap.Logger
	now        func() time.Time
}

func NewNotificationService(
	users output.UserRepository,
	logs output.NotificationLogRepository,
	messenger output.Messenger,
	translator output.T,
	locale string,
	kakaoTemplates map[entities.Template]string,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		users:      users,
		logs:       logs,
		messenger:  messenger,
		translator: translator,
		locale:     locale,
		kakao:      kakaoTemplates,
		logger:     logger,
		now:        time.Now,
	}
}

// Notify sends tpl to the user and logs the attempt under (user, tpl, ref).
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, tpl entities.Template, ref string, data map[string]any) (Delivery, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return DeliveryNone, fmt.Errorf("notify %s: %w", tpl, err)
	}
	msg := output.Message{
		To:              user.Phone,
		Text:            s.translator.T(s.locale, "notify."+string(tpl), withName(data, user.Name)),
		KakaoTemplateID: s.kakao[tpl],
		Variables:       variables(withName(data, user.Name)),
	}

	entry := &entities.NotificationLog{
		UserID:      user.ID,
		Template:    tpl,
		ReferenceID: ref,
		Channel:     entities.ChannelSMS,
		Status:      entities.NotificationSent,
		CreatedAt:   s.now(),
	}
	if msg.KakaoTemplateID != "" {
		entry.Channel = entities.ChannelKakao
	}
	res, sendErr := s.messenger.Send(ctx, msg)
	if sendErr != nil {
		entry.Status = entities.NotificationFailed
		entry.Error = sendErr.Error()
	} else {
		entry.Channel = res.Channel
		entry.ProviderMessageID = res.MessageID
	}
	metrics.Notifications.WithLabelValues(string(tpl), string(entry.Status)).Inc()

	if err := s.logs.Create(ctx, entry); err != nil {
		return DeliveryNone, fmt.Errorf("log notification %s: %w", tpl, err)
	}
	if sendErr != nil {
		return DeliveryFailed, domain.Wrap(domain.CodeMessaging, sendErr)
	}
	return DeliverySent, nil
}

// NotifyOnce is Notify guarded by the notification log.
func (s *NotificationService) NotifyOnce(ctx context.Context, userID uuid.UUID, tpl entities.Template, ref string, data map[string]any) (Delivery, error) {
	sent, err := s.logs.Exists(ctx, userID, tpl, ref)
	if err != nil {
		return DeliveryNone, fmt.Errorf("check notification log: %w", err)
	}
	if sent {
		return DeliverySkipped, nil
	}
	return s.Notify(ctx, userID, tpl, ref, data)
}

// tell is Notify for request paths where a failed message must not fail the
// request.
func (s *NotificationService) tell(ctx context.Context, userID uuid.UUID, tpl entities.Template, ref string, data map[string]any) {
	if _, err := s.Notify(ctx, userID, tpl, ref, data); err != nil {
		s.logger.Warn("notification failed",
			zap.String("template", string(tpl)),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func withName(data map[string]any, name string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	if _, ok := out["Name"]; !ok {
		out["Name"] = name
	}
	return out
}

func variables(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// meetingData is the template data every meeting related message shares.
func meetingData(m *entities.Meeting) map[string]any {
	return map[string]any{
		"Meeting":  m.Title,
		"Book":     m.BookTitle,
		"StartsAt": tz.FormatKorean(m.StartsAt),
		"Location": m.Location,
	}
}
