package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// webhookPoster abstracts the Slack webhook call, enabling test fakes.
type webhookPoster func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error

// SlackAdapter delivers events to a Slack incoming webhook.
type SlackAdapter struct {
	url  string
	post webhookPoster
}

// NewSlackAdapter builds a SlackAdapter for the given webhook URL.
func NewSlackAdapter(webhookURL string) *SlackAdapter {
	return &SlackAdapter{
		url:  webhookURL,
		post: slackapi.PostWebhookContext,
	}
}

// Name implements Adapter.
func (a *SlackAdapter) Name() string { return "slack" }

// Send implements Adapter.
func (a *SlackAdapter) Send(ctx context.Context, ev Event) error {
	msg := &slackapi.WebhookMessage{
		Attachments: []slackapi.Attachment{{
			Color: ev.Color,
			Title: ev.Title,
			Text:  ev.Body,
		}},
	}
	if err := a.post(ctx, a.url, msg); err != nil {
		return fmt.Errorf("notify: slack webhook: %w", err)
	}
	return nil
}
