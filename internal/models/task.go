package models

import "time"

// Task lifecycle status values. The daemon never deletes tasks; it only
// moves them between columns and flips status on completion.
const (
	TaskStatusTodo      = "todo"
	TaskStatusCompleted = "completed"
)

// Task is a kanban work item. The (ClaimedAt, ClaimedBy) pair is the lease:
// a non-expired lease marks the task as owned by one daemon instance.
type Task struct {
	ID                string     `gorm:"primaryKey;size:32"`
	ProjectID         string     `gorm:"size:32;not null;index"`
	KanbanColumnID    *string    `gorm:"size:32;index"`
	Description       string     `gorm:"type:text"`
	Status            string     `gorm:"size:16;default:todo;index"`
	AutoclaudeEnabled bool       `gorm:"default:false;index"`
	ClaimedAt         *time.Time `gorm:"index"`
	ClaimedBy         string     `gorm:"size:64"`
	AttemptCount      int        `gorm:"default:0"`
	LastError         string     `gorm:"type:text"`
	PRURL             string     `gorm:"column:pr_url;size:512"`
	Feedback          string     `gorm:"type:text"`
	CreatedAt         time.Time  `gorm:"index"`
	UpdatedAt         time.Time

	Project Project       `gorm:"foreignKey:ProjectID"`
	Column  *KanbanColumn `gorm:"foreignKey:KanbanColumnID"`
}

// IsFeedbackTask reports whether a human has sent this task back for rework:
// it already has a pull request and carries non-empty reviewer feedback.
func (t *Task) IsFeedbackTask() bool {
	return t.PRURL != "" && t.Feedback != ""
}

// LeaseExpired reports whether the task's lease is absent or older than
// timeout as of now.
func (t *Task) LeaseExpired(now time.Time, timeout time.Duration) bool {
	return t.ClaimedAt == nil || t.ClaimedAt.Before(now.Add(-timeout))
}
