package models

import "time"

// TaskStatus is the workflow state of a task. Only the five declared
// constants are valid; the board keys its columns by this type.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskReview     TaskStatus = "REVIEW"
	TaskDone       TaskStatus = "DONE"
	TaskBlocked    TaskStatus = "BLOCKED"
)

// TaskStatuses lists all task statuses in board column order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskReview, TaskDone, TaskBlocked}

// Valid reports whether s is one of the five declared statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone, TaskBlocked:
		return true
	}
	return false
}

// Task is a unit of work belonging to exactly one user story for its whole
// lifecycle.
type Task struct {
	ID             string     `gorm:"primaryKey;size:32"`
	Title          string     `gorm:"not null"`
	Description    string     `gorm:"type:text"`
	Status         TaskStatus `gorm:"size:16;default:TODO;index"`
	StoryID        string     `gorm:"size:32;not null;index"`
	Assignee       string     `gorm:"size:64"`
	EstimatedHours float64    `gorm:"default:0"`
	SpentHours     float64    `gorm:"default:0"`
	CreatedBy      string     `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time

	Story   *UserStory    `gorm:"foreignKey:StoryID"`
	History []TaskHistory `gorm:"foreignKey:TaskID"`
}
