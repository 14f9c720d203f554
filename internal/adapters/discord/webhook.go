package discord

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"jidokhae/internal/ports/output"
	"jidokhae/pkg/discord"
)

var _ output.AdminNotifier = (*Webhook)(nil)

// Webhook posts admin alerts to a Discord channel webhook. A Webhook built
// from an empty URL only logs.
type Webhook struct {
	session *discordgo.Session
	id      string
	token   string
	logger  *zap.Logger
	now     func() time.Time
}

// NewWebhook parses https://discord.com/api/webhooks/{id}/{token}.
func NewWebhook(webhookURL string, logger *zap.Logger) (*Webhook, error) {
	w := &Webhook{logger: logger, now: time.Now}
	if webhookURL == "" {
		return w, nil
	}

	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Client.Timeout = 10 * time.Second
	w.session, w.id, w.token = s, id, token
	return w, nil
}

func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("discord webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("discord webhook url: expected /webhooks/{id}/{token}, got %q", u.Path)
}

func (w *Webhook) Alert(ctx context.Context, title string, fields ...output.AlertField) error {
	if w.session == nil {
		w.logger.Info("admin alert (no webhook configured)", zap.String("title", title), zap.Int("fields", len(fields)))
		return nil
	}

	lines := make([]discord.Field, len(fields))
	for i, f := range fields {
		lines[i] = discord.Field{Name: f.Name, Value: f.Value}
	}
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{discord.BuildAlertEmbed(title, lines, w.now())},
	}
	if _, err := w.session.WebhookExecute(w.id, w.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
