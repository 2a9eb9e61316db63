// Package activity writes best-effort event rows for the UI activity feed.
// The feed is observability, not correctness: a failed write is logged and
// swallowed, never allowed to abort task processing.
package activity

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fennwick/taskboard/internal/models"
	"gorm.io/gorm"
)

// Emitter records daemon events against the store.
type Emitter struct {
	db         *gorm.DB
	instanceID string
}

// NewEmitter builds an Emitter attributed to instanceID.
func NewEmitter(gdb *gorm.DB, instanceID string) *Emitter {
	return &Emitter{db: gdb, instanceID: instanceID}
}

// Emit writes one event row. Best-effort.
func (e *Emitter) Emit(kind string, task models.Task, detail string) {
	if e == nil {
		return
	}
	ev := models.ActivityEvent{
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		Instance:  e.instanceID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := e.db.Create(&ev).Error; err != nil {
		log.Printf("activity: emit %s for task %s: %v", kind, task.ID, err)
	}
}

// Recent returns the newest limit events, newest first.
func (e *Emitter) Recent(ctx context.Context, limit int) ([]models.ActivityEvent, error) {
	var events []models.ActivityEvent
	err := e.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("activity: recent events: %w", err)
	}
	return events, nil
}

// CountsSince returns event counts per kind since the given time, for the
// notification digest.
func (e *Emitter) CountsSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		Kind  string
		Count int64
	}
	var rows []row
	err := e.db.WithContext(ctx).Model(&models.ActivityEvent{}).
		Select("kind, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("activity: counts since %s: %w", since.Format(time.RFC3339), err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Kind] = r.Count
	}
	return counts, nil
}
