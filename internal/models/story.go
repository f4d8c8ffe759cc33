package models

import "time"

// StoryStatus is the lifecycle state of a user story.
type StoryStatus string

const (
	StoryBacklog    StoryStatus = "BACKLOG"
	StoryPlanned    StoryStatus = "PLANNED"
	StoryInProgress StoryStatus = "IN_PROGRESS"
	StoryTesting    StoryStatus = "TESTING"
	StoryDone       StoryStatus = "DONE"
)

// Valid reports whether s is one of the declared story statuses.
func (s StoryStatus) Valid() bool {
	switch s {
	case StoryBacklog, StoryPlanned, StoryInProgress, StoryTesting, StoryDone:
		return true
	}
	return false
}

// UserStory is owned by a project and optionally associated to a sprint.
// Points is the story-point estimate; zero means unestimated.
type UserStory struct {
	ID          string      `gorm:"primaryKey;size:32"`
	Title       string      `gorm:"not null"`
	Description string      `gorm:"type:text"`
	Acceptance  string      `gorm:"type:text"`
	Priority    int         `gorm:"default:2"`
	Status      StoryStatus `gorm:"size:16;default:BACKLOG;index"`
	Points      float64     `gorm:"default:0"`
	ProjectID   string      `gorm:"size:32;not null;index"`
	SprintID    *string     `gorm:"size:32;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Sprint *Sprint `gorm:"foreignKey:SprintID"`
	Tasks  []Task  `gorm:"foreignKey:StoryID"`
}
