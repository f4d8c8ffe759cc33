package models

import "time"

// Project is the top-level container for sprints and user stories.
type Project struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Owner       string `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Sprints []Sprint    `gorm:"foreignKey:ProjectID"`
	Stories []UserStory `gorm:"foreignKey:ProjectID"`
}
