package models

import "time"

// User is a team member tasks can be assigned to.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"size:128;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
