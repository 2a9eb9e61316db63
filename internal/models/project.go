package models

import "time"

// Project is a kanban board backed by a git repository. A project's tasks
// are claimable only once RepoURL is set and AutoclaudePaused is cleared;
// seeding defaults new projects to paused so the daemon never surprises
// anyone. No gorm default tag: it would make gorm drop an explicit false
// from inserts.
type Project struct {
	ID               string  `gorm:"primaryKey;size:32"`
	Name             string  `gorm:"not null"`
	RepoURL          *string `gorm:"size:512"`
	AutoclaudePaused bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Columns []KanbanColumn `gorm:"foreignKey:ProjectID"`
	Tasks   []Task         `gorm:"foreignKey:ProjectID"`
}

// Claimable reports whether the project-level preconditions for claiming
// any of its tasks hold.
func (p *Project) Claimable() bool {
	return !p.AutoclaudePaused && p.RepoURL != nil && *p.RepoURL != ""
}
