package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// webhookExecutor abstracts the discordgo call we use, enabling test fakes.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAdapter delivers events to a Discord webhook. Webhook execution
// needs no bot token, so the session is never opened.
type DiscordAdapter struct {
	session webhookExecutor
	id      string
	token   string
}

// NewDiscordAdapter builds a DiscordAdapter for the given webhook id/token
// pair.
func NewDiscordAdapter(webhookID, webhookToken string) (*DiscordAdapter, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("notify: discord session: %w", err)
	}
	return &DiscordAdapter{session: session, id: webhookID, token: webhookToken}, nil
}

// Name implements Adapter.
func (a *DiscordAdapter) Name() string { return "discord" }

// Send implements Adapter.
func (a *DiscordAdapter) Send(ctx context.Context, ev Event) error {
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       ev.Title,
			Description: ev.Body,
			Color:       embedColor(ev.Color),
		}},
	}
	if _, err := a.session.WebhookExecute(a.id, a.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("notify: discord webhook: %w", err)
	}
	return nil
}

// embedColor converts a "#rrggbb" hint to Discord's integer color.
func embedColor(hex string) int {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
