package models

import "time"

// Activity event kinds emitted by the daemon.
const (
	EventTaskClaimed     = "task_claimed"
	EventTaskResolved    = "task_resolved"
	EventTaskFailed      = "task_failed"
	EventFeedbackCleared = "feedback_cleared"
)

// ActivityEvent is a best-effort row for the UI activity feed. Writes are
// observability only; a failed insert must never abort task processing.
type ActivityEvent struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    string `gorm:"size:32;index"`
	ProjectID string `gorm:"size:32;index"`
	Instance  string `gorm:"size:64"`
	Kind      string `gorm:"size:32;index"`
	Detail    string `gorm:"type:text"`
	CreatedAt time.Time
}
