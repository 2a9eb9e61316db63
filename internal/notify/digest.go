package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fennwick/taskboard/internal/models"
)

// cronParser accepts standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns the duration until expr next fires. Returns 0 on
// parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ValidDigestCron reports whether expr parses as a 5-field cron expression.
func ValidDigestCron(expr string) bool {
	_, err := cronParser.Parse(expr)
	return err == nil
}

// Counter supplies per-kind event counts for a time window; the activity
// emitter satisfies it.
type Counter interface {
	CountsSince(ctx context.Context, since time.Time) (map[string]int64, error)
}

// DigestEvent builds the scheduled summary event from per-kind counts.
func DigestEvent(counts map[string]int64, window time.Duration) Event {
	return Event{
		Title: "AUTOCLAUDE digest",
		Body: fmt.Sprintf("last %s: %d PRs opened, %d claims, %d failures",
			window,
			counts[models.EventTaskResolved],
			counts[models.EventTaskClaimed],
			counts[models.EventTaskFailed]),
		Color: ColorInfo,
	}
}

// RunDigest publishes a summary on the given cron schedule until ctx is
// cancelled. Intended to run as its own goroutine beside the poll loop.
func RunDigest(ctx context.Context, n *Notifier, counter Counter, cronExpr string) {
	const window = 24 * time.Hour

	for {
		wait := nextCronDuration(cronExpr, time.Now())
		if wait <= 0 {
			log.Printf("notify: digest: invalid cron expression %q, digest disabled", cronExpr)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		counts, err := counter.CountsSince(ctx, time.Now().Add(-window))
		if err != nil {
			log.Printf("notify: digest: %v", err)
			continue
		}
		n.Publish(ctx, DigestEvent(counts, window))
	}
}
