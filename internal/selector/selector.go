// Package selector produces each poll cycle's bounded candidate list, in
// priority order, across all projects in one pass.
package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/fennwick/taskboard/internal/columns"
	"github.com/fennwick/taskboard/internal/models"
	"gorm.io/gorm"
)

// Candidate pairs an eligible task with its project's resolved column
// roles, so the caller can claim into the right column without another
// round-trip through the classifier.
type Candidate struct {
	Task  models.Task
	Roles columns.Roles
}

// Options configures a Selector.
type Options struct {
	ClaimTimeout     time.Duration
	MaxRetryAttempts int
	MaxConcurrent    int
}

// Selector queries claimable new tasks and feedback tasks.
type Selector struct {
	db    *gorm.DB
	cache *columns.Cache
	opts  Options

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// New builds a Selector around a store handle and a column role cache.
func New(gdb *gorm.DB, cache *columns.Cache, opts Options) *Selector {
	return &Selector{db: gdb, cache: cache, opts: opts, Now: time.Now}
}

// ColumnLoader returns a columns.Loader backed by the store, for wiring
// into a columns.Cache.
func ColumnLoader(gdb *gorm.DB) columns.Loader {
	return func(projectID string) ([]columns.ColumnInfo, error) {
		var rows []models.KanbanColumn
		err := gdb.Where("project_id = ?", projectID).
			Order("position ASC").
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("selector: load columns for project %s: %w", projectID, err)
		}
		infos := make([]columns.ColumnInfo, len(rows))
		for i, r := range rows {
			infos[i] = columns.ColumnInfo{ID: r.ID, Name: r.Name, Position: r.Position}
		}
		return infos, nil
	}
}

// eligibleBase is the shared eligibility query: opted-in task, configured
// and un-paused project, absent or stale lease, attempts below the ceiling.
// Ordered oldest-first for FIFO fairness.
func (s *Selector) eligibleBase(ctx context.Context) *gorm.DB {
	cutoff := s.Now().Add(-s.opts.ClaimTimeout)
	return s.db.WithContext(ctx).Model(&models.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.autoclaude_enabled = ?", true).
		Where("projects.repo_url IS NOT NULL AND projects.repo_url <> ''").
		Where("projects.autoclaude_paused = ?", false).
		Where("tasks.claimed_at IS NULL OR tasks.claimed_at < ?", cutoff).
		Where("tasks.attempt_count < ?", s.opts.MaxRetryAttempts).
		Preload("Project").
		Order("tasks.created_at ASC")
}

// FeedbackTasks returns tasks a human has sent back for rework: PR opened,
// non-empty feedback, and currently sitting in the project's in-progress
// column. Oldest first.
func (s *Selector) FeedbackTasks(ctx context.Context) ([]Candidate, error) {
	var tasks []models.Task
	err := s.eligibleBase(ctx).
		Where("tasks.pr_url IS NOT NULL AND tasks.pr_url <> ''").
		Where("tasks.feedback IS NOT NULL AND tasks.feedback <> ''").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("selector: feedback tasks: %w", err)
	}
	return s.filterByRole(tasks, func(r columns.Roles) string { return r.InProgressID }, 0)
}

// ClaimableTasks returns new tasks waiting in backlog columns, oldest
// first, truncated to the configured max-concurrency limit.
func (s *Selector) ClaimableTasks(ctx context.Context) ([]Candidate, error) {
	var tasks []models.Task
	err := s.eligibleBase(ctx).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("selector: claimable tasks: %w", err)
	}
	return s.filterByRole(tasks, func(r columns.Roles) string { return r.BacklogID }, s.opts.MaxConcurrent)
}

// filterByRole keeps tasks whose current column matches the wanted role for
// their project, resolving roles through the cache. limit <= 0 means
// unbounded.
func (s *Selector) filterByRole(tasks []models.Task, want func(columns.Roles) string, limit int) ([]Candidate, error) {
	var out []Candidate
	for _, task := range tasks {
		if task.KanbanColumnID == nil {
			continue
		}
		roles, available, err := s.cache.Roles(task.ProjectID)
		if err != nil {
			return nil, err
		}
		if !available {
			continue
		}
		if *task.KanbanColumnID != want(roles) {
			continue
		}
		out = append(out, Candidate{Task: task, Roles: roles})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
