package models

import "time"

// KanbanColumn is one column of a project's board. The daemon infers each
// column's semantic role (backlog / in-progress / resolved) from Name and
// Position; no role enum is stored.
type KanbanColumn struct {
	ID        string `gorm:"primaryKey;size:32"`
	ProjectID string `gorm:"size:32;not null;index"`
	Name      string `gorm:"not null"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
