package messaging

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/phone"
)

var _ output.Messenger = (*DryRun)(nil)

// DryRun logs messages instead of sending them. It backs local runs and
// deployments without gateway credentials.
type DryRun struct {
	logger *zap.Logger
	seq    atomic.Int64
}

func NewDryRun(logger *zap.Logger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) Send(_ context.Context, msg output.Message) (*output.SendResult, error) {
	channel := entities.ChannelSMS
	if msg.KakaoTemplateID != "" {
		channel = entities.ChannelKakao
	}
	d.logger.Info("dry-run message",
		zap.String("to", phone.Mask(msg.To)),
		zap.String("channel", string(channel)),
		zap.String("template_id", msg.KakaoTemplateID),
		zap.String("text", msg.Text),
	)
	return &output.SendResult{MessageID: fmt.Sprintf("dry-%d", d.seq.Add(1)), Channel: channel}, nil
}
