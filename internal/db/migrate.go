package db

import (
	"fmt"

	"github.com/fennwick/taskboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of GORM models the daemon depends on. The UI
// owns additional tables (whiteboards, user settings); they are not
// migrated here.
func AllModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.KanbanColumn{},
		&models.Task{},
		&models.ActivityEvent{},
	}
}

// AutoMigrate creates or updates the daemon's tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
