// Package claim implements the lease protocol over task rows. All
// cross-instance coordination goes through the store; at-most-one-holder is
// enforced by a single conditional UPDATE, never a read-then-write.
package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/fennwick/taskboard/internal/models"
	"gorm.io/gorm"
)

// maxErrorLen bounds what gets written into tasks.last_error; tool output
// can be arbitrarily large.
const maxErrorLen = 4000

// Coordinator performs lease state transitions for one daemon instance.
type Coordinator struct {
	db           *gorm.DB
	instanceID   string
	claimTimeout time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewCoordinator builds a Coordinator. claimTimeout is the age past which
// an unresolved lease counts as stale and reclaimable.
func NewCoordinator(gdb *gorm.DB, instanceID string, claimTimeout time.Duration) *Coordinator {
	return &Coordinator{
		db:           gdb,
		instanceID:   instanceID,
		claimTimeout: claimTimeout,
		Now:          time.Now,
	}
}

// InstanceID returns the identifier leases are attributed to.
func (c *Coordinator) InstanceID() string { return c.instanceID }

// Claim attempts to take the lease on a task and move it into the project's
// in-progress column. It succeeds only if the current lease is absent or
// older than the claim timeout; the conditional UPDATE closes the race
// between two instances claiming the same row. A false return is not an
// error — the other instance won, or the row changed since selection.
func (c *Coordinator) Claim(ctx context.Context, taskID, inProgressColumnID string) (bool, error) {
	now := c.Now()
	cutoff := now.Add(-c.claimTimeout)

	result := c.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND (claimed_at IS NULL OR claimed_at < ?)", taskID, cutoff).
		Updates(map[string]interface{}{
			"claimed_at":       now,
			"claimed_by":       c.instanceID,
			"kanban_column_id": inProgressColumnID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("claim: task %s: %w", taskID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Resolve records a successful outcome: lease cleared, feedback and
// last_error wiped, PR URL set, task moved to the resolved column and
// marked completed. Unconditional by task ID, so it is idempotent.
func (c *Coordinator) Resolve(ctx context.Context, taskID, prURL, resolvedColumnID string) error {
	err := c.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"claimed_at":       nil,
			"claimed_by":       "",
			"feedback":         "",
			"last_error":       "",
			"pr_url":           prURL,
			"kanban_column_id": resolvedColumnID,
			"status":           models.TaskStatusCompleted,
		}).Error
	if err != nil {
		return fmt.Errorf("claim: resolve task %s: %w", taskID, err)
	}
	return nil
}

// RecordError records a failed attempt on a new task: lease cleared, error
// text saved, attempt count bumped, task bounced to targetColumnID (the
// backlog column, so any instance may retry it next cycle).
func (c *Coordinator) RecordError(ctx context.Context, taskID, message, targetColumnID string) error {
	err := c.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"claimed_at":       nil,
			"claimed_by":       "",
			"last_error":       truncate(message, maxErrorLen),
			"attempt_count":    gorm.Expr("attempt_count + 1"),
			"kanban_column_id": targetColumnID,
		}).Error
	if err != nil {
		return fmt.Errorf("claim: record error for task %s: %w", taskID, err)
	}
	return nil
}

// RecordFeedbackError records a failed attempt on a feedback task. The
// lease is cleared and the attempt counted, but the column — and the
// pending feedback — stay put, so the next poll re-discovers the task as a
// feedback task instead of restarting it down the new-task path.
func (c *Coordinator) RecordFeedbackError(ctx context.Context, taskID, message string) error {
	err := c.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"claimed_at":    nil,
			"claimed_by":    "",
			"last_error":    truncate(message, maxErrorLen),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("claim: record feedback error for task %s: %w", taskID, err)
	}
	return nil
}

// ClearFeedback nulls the feedback field once its text has been
// incorporated into a commit, decoupling "feedback exists" from "feedback
// still needs addressing."
func (c *Coordinator) ClearFeedback(ctx context.Context, taskID string) error {
	err := c.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("feedback", "").Error
	if err != nil {
		return fmt.Errorf("claim: clear feedback for task %s: %w", taskID, err)
	}
	return nil
}

// truncate clips s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
