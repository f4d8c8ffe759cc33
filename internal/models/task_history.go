package models

import "time"

// History entry kinds.
const (
	HistoryTransition = "transition"
	HistoryTimeLog    = "time_log"
	HistoryAssignment = "assignment"
)

// TaskHistory is an audit entry recorded for every task mutation: a status
// transition, a time log, or an assignment.
type TaskHistory struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	TaskID     string     `gorm:"size:32;index"`
	Kind       string     `gorm:"size:16"`
	FromStatus TaskStatus `gorm:"size:16"`
	ToStatus   TaskStatus `gorm:"size:16"`
	Hours      float64    `gorm:"default:0"`
	Actor      string     `gorm:"size:64"`
	Note       string     `gorm:"type:text"`
	CreatedAt  time.Time
}
