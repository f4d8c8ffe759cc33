package db

import (
	"fmt"

	"github.com/sprintwell/sprintwell/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.Sprint{},
		&models.UserStory{},
		&models.Task{},
		&models.TaskHistory{},
		&models.User{},
		&models.SprintSnapshot{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
