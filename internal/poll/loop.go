// Package poll runs the daemon's top-level scheduler: fixed-interval
// polling with exponential backoff on error, feedback tasks drained before
// new tasks, and claim-then-process per candidate.
package poll

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fennwick/taskboard/internal/activity"
	"github.com/fennwick/taskboard/internal/columns"
	"github.com/fennwick/taskboard/internal/db"
	"github.com/fennwick/taskboard/internal/models"
	"github.com/fennwick/taskboard/internal/notify"
	"github.com/fennwick/taskboard/internal/pipeline"
	"github.com/fennwick/taskboard/internal/selector"
)

// Selector supplies each cycle's candidates; satisfied by selector.Selector.
type Selector interface {
	FeedbackTasks(ctx context.Context) ([]selector.Candidate, error)
	ClaimableTasks(ctx context.Context) ([]selector.Candidate, error)
}

// Claimer takes the lease on a task; satisfied by claim.Coordinator.
type Claimer interface {
	Claim(ctx context.Context, taskID, inProgressColumnID string) (bool, error)
}

// Processor drives a claimed task to its terminal outcome; satisfied by
// pipeline.Pipeline.
type Processor interface {
	ProcessNew(ctx context.Context, task models.Task, roles columns.Roles) (pipeline.Outcome, error)
	ProcessFeedback(ctx context.Context, task models.Task, roles columns.Roles) (pipeline.Outcome, error)
}

// Options configures a Loop.
type Options struct {
	Interval   time.Duration
	MaxBackoff time.Duration
}

// Loop is the poll scheduler. One Loop runs per daemon process; multiple
// processes may poll the same store concurrently and coordinate only
// through leases.
type Loop struct {
	sel       Selector
	claimer   Claimer
	processor Processor
	events    *activity.Emitter
	notifier  *notify.Notifier
	opts      Options

	consecutiveErrs int
}

// New builds a Loop. events and notifier may be nil.
func New(sel Selector, claimer Claimer, processor Processor, events *activity.Emitter, notifier *notify.Notifier, opts Options) *Loop {
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Minute
	}
	return &Loop{
		sel:       sel,
		claimer:   claimer,
		processor: processor,
		events:    events,
		notifier:  notifier,
		opts:      opts,
	}
}

// Run polls until ctx is cancelled. A cycle error switches the next wait to
// exponential backoff; a clean cycle resets it.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		wait := l.opts.Interval
		if err := l.Cycle(ctx); err != nil {
			l.consecutiveErrs++
			wait = backoffDelay(l.opts.Interval, l.consecutiveErrs, l.opts.MaxBackoff)
			if db.IsTransient(err) {
				log.Printf("poll: transient store error (consecutive errors: %d, next attempt in %s): %v",
					l.consecutiveErrs, wait, err)
			} else {
				log.Printf("poll: cycle failed (consecutive errors: %d, next attempt in %s): %v",
					l.consecutiveErrs, wait, err)
			}
		} else {
			l.consecutiveErrs = 0
		}

		sleepWithContext(ctx, wait)
	}
}

// Cycle runs one poll pass: feedback tasks first, then new tasks, claiming
// each candidate before processing it. Per-task tool failures are contained
// to the task's row; only store-level failures bubble up as cycle errors.
func (l *Loop) Cycle(ctx context.Context) error {
	feedback, err := l.sel.FeedbackTasks(ctx)
	if err != nil {
		return fmt.Errorf("poll: select feedback tasks: %w", err)
	}
	for _, cand := range feedback {
		if err := l.handle(ctx, cand, true); err != nil {
			return err
		}
	}

	claimable, err := l.sel.ClaimableTasks(ctx)
	if err != nil {
		return fmt.Errorf("poll: select claimable tasks: %w", err)
	}
	for _, cand := range claimable {
		if err := l.handle(ctx, cand, false); err != nil {
			return err
		}
	}
	return nil
}

// handle claims and processes one candidate. A lost claim race is an
// expected outcome and is silently skipped.
func (l *Loop) handle(ctx context.Context, cand selector.Candidate, isFeedback bool) error {
	ok, err := l.claimer.Claim(ctx, cand.Task.ID, cand.Roles.InProgressID)
	if err != nil {
		return fmt.Errorf("poll: claim task %s: %w", cand.Task.ID, err)
	}
	if !ok {
		return nil
	}

	l.events.Emit(models.EventTaskClaimed, cand.Task, "")

	var outcome pipeline.Outcome
	if isFeedback {
		outcome, err = l.processor.ProcessFeedback(ctx, cand.Task, cand.Roles)
	} else {
		outcome, err = l.processor.ProcessNew(ctx, cand.Task, cand.Roles)
	}
	if err != nil {
		return fmt.Errorf("poll: process task %s: %w", cand.Task.ID, err)
	}

	if outcome.Resolved {
		if isFeedback {
			l.events.Emit(models.EventFeedbackCleared, cand.Task, "")
		}
		l.events.Emit(models.EventTaskResolved, cand.Task, outcome.PRURL)
		l.notifier.Publish(ctx, notify.PROpened(cand.Task.ID, outcome.PRURL))
	} else {
		l.events.Emit(models.EventTaskFailed, cand.Task, outcome.Err)
		l.notifier.Publish(ctx, notify.TaskFailed(cand.Task.ID, outcome.Err))
	}
	return nil
}

// backoffDelay computes interval * 2^errors, capped at max.
func backoffDelay(interval time.Duration, errors int, max time.Duration) time.Duration {
	d := interval
	for range errors {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// sleepWithContext waits for d or until ctx is cancelled, whichever first.
func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
