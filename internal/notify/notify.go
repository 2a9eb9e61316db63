// Package notify bridges daemon events to chat platforms (Slack, Discord).
// Delivery is best-effort: a webhook failure is logged and swallowed, never
// allowed to affect task processing.
package notify

import (
	"context"
	"log"
)

// Severity color hints for platform attachments.
const (
	ColorSuccess = "#36a64f"
	ColorError   = "#d13212"
	ColorInfo    = "#2b6cb0"
)

// Event is one notification: a headline, detail text, and a color hint.
type Event struct {
	Title string
	Body  string
	Color string
}

// Adapter is a platform-specific delivery channel.
type Adapter interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Notifier fans an event out to all configured adapters.
type Notifier struct {
	adapters []Adapter
}

// New builds a Notifier. A Notifier with no adapters is valid and silent.
func New(adapters ...Adapter) *Notifier {
	return &Notifier{adapters: adapters}
}

// Publish delivers ev to every adapter. Best-effort.
func (n *Notifier) Publish(ctx context.Context, ev Event) {
	if n == nil {
		return
	}
	for _, a := range n.adapters {
		if err := a.Send(ctx, ev); err != nil {
			log.Printf("notify: %s: %v", a.Name(), err)
		}
	}
}

// PROpened builds the event published when a task's PR is opened.
func PROpened(taskID, prURL string) Event {
	return Event{
		Title: "PR opened for task " + taskID,
		Body:  prURL,
		Color: ColorSuccess,
	}
}

// TaskFailed builds the event published when a processing attempt fails.
func TaskFailed(taskID, reason string) Event {
	return Event{
		Title: "Task " + taskID + " failed",
		Body:  reason,
		Color: ColorError,
	}
}
