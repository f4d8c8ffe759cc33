package models

import "time"

// SprintSnapshot is one immutable point in a sprint's burndown time series.
// A snapshot is never mutated after creation; recalculation replaces the
// whole series for a sprint. At most one snapshot exists per sprint per day.
type SprintSnapshot struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	SprintID        string    `gorm:"size:32;uniqueIndex:idx_sprint_day"`
	Date            time.Time `gorm:"uniqueIndex:idx_sprint_day"`
	TotalPoints     float64
	CompletedPoints float64
	RemainingPoints float64
	IdealRemaining  float64
	TasksCompleted  int
	TasksRemaining  int
	GeneratedAt     time.Time
}
