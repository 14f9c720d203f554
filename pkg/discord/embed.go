package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"jidokhae/pkg/tz"
)

const (
	embedColor  = 0xF59E0B
	footerText  = "지독해 운영 알림"
	maxFieldLen = 1024
	maxFields   = 25
)

// Field is one name/value line of an alert.
type Field struct {
	Name  string
	Value string
}

// BuildAlertEmbed renders an admin alert. Values longer than Discord allows
// are cut, empty values show as "-".
func BuildAlertEmbed(title string, fields []Field, at time.Time) *discordgo.MessageEmbed {
	if len(fields) > maxFields {
		fields = fields[:maxFields]
	}
	out := make([]*discordgo.MessageEmbedField, 0, len(fields))
	for _, f := range fields {
		v := f.Value
		if v == "" {
			v = "-"
		}
		if r := []rune(v); len(r) > maxFieldLen {
			v = string(r[:maxFieldLen-1]) + "…"
		}
		out = append(out, &discordgo.MessageEmbedField{Name: f.Name, Value: v, Inline: len(v) <= 32})
	}
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     embedColor,
		Fields:    out,
		Timestamp: at.In(tz.Seoul).Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	}
}
