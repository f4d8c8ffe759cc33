package models

import "time"

// SprintStatus is the lifecycle state of a sprint.
type SprintStatus string

const (
	SprintPlanned   SprintStatus = "PLANNED"
	SprintActive    SprintStatus = "ACTIVE"
	SprintCompleted SprintStatus = "COMPLETED"
	SprintCancelled SprintStatus = "CANCELLED"
)

// Valid reports whether s is one of the declared sprint statuses.
func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted, SprintCancelled:
		return true
	}
	return false
}

// Sprint is a time-boxed iteration within a project. Stories are owned by
// the project and merely associated to the sprint; a CANCELLED sprint holds
// no associations.
type Sprint struct {
	ID        string       `gorm:"primaryKey;size:32"`
	Name      string       `gorm:"not null"`
	Goal      string       `gorm:"type:text"`
	ProjectID string       `gorm:"size:32;not null;index"`
	Status    SprintStatus `gorm:"size:16;default:PLANNED;index"`
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Stories []UserStory `gorm:"foreignKey:SprintID"`
}
