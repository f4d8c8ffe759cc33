// Package workflow implements the task workflow state machine: task
// creation, status transitions, time logging and assignment. Every mutation
// records a task history entry. WIP limits are a board concern and are
// enforced in the board package, not here.
package workflow

import (
	"strings"
	"time"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
)

// Title length bounds for new tasks.
const (
	MinTitleLen = 3
	MaxTitleLen = 200
)

// Storage is the persistence port the state machine depends on. Lookups
// return nil when nothing matches; errors are storage failures only.
type Storage interface {
	TaskByID(id string) (*models.Task, error)
	StoryByID(id string) (*models.UserStory, error)
	UserByID(id string) (*models.User, error)
	CreateTask(t *models.Task) error
	UpdateTask(id string, updates map[string]interface{}, entry *models.TaskHistory) error
	DeleteTask(id string) error
}

// Machine executes workflow operations against a storage port.
type Machine struct {
	store Storage
}

// New creates a workflow Machine over the given storage.
func New(store Storage) *Machine {
	return &Machine{store: store}
}

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	Title          string
	Description    string
	StoryID        string
	Assignee       string
	EstimatedHours float64
	CreatedBy      string
}

// CreateTask validates opts and inserts a new task in TODO status.
func (m *Machine) CreateTask(opts CreateOpts) (*models.Task, error) {
	title := strings.TrimSpace(opts.Title)
	if len(title) < MinTitleLen {
		return nil, apperr.Invalidf("title", "must be at least %d characters", MinTitleLen)
	}
	if len(title) > MaxTitleLen {
		return nil, apperr.Invalidf("title", "must be at most %d characters", MaxTitleLen)
	}
	if opts.EstimatedHours < 0 {
		return nil, apperr.Invalid("estimatedHours", "must not be negative")
	}
	if opts.StoryID == "" {
		return nil, apperr.Invalid("userStoryId", "is required")
	}

	story, err := m.store.StoryByID(opts.StoryID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, apperr.Invalidf("userStoryId", "story %s does not exist", opts.StoryID)
	}

	task := &models.Task{
		Title:          title,
		Description:    opts.Description,
		Status:         models.TaskTodo,
		StoryID:        story.ID,
		Assignee:       opts.Assignee,
		EstimatedHours: opts.EstimatedHours,
		CreatedBy:      opts.CreatedBy,
	}
	if err := m.store.CreateTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Transition moves a task to a new status and records a history entry.
// Moving a task to its current status is a no-op: it succeeds without
// touching the record or its history. No status is terminal; DONE and
// BLOCKED tasks may move back to any other status.
func (m *Machine) Transition(taskID string, to models.TaskStatus, actor string) (*models.Task, error) {
	if !to.Valid() {
		return nil, apperr.Invalidf("status", "unknown status %q", string(to))
	}

	task, err := m.store.TaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task", taskID)
	}
	if task.Status == to {
		return task, nil
	}

	updates := map[string]interface{}{"status": to}
	now := time.Now()
	switch {
	case to == models.TaskDone:
		updates["completed_at"] = now
	case task.Status == models.TaskDone:
		// Un-completing clears the completion stamp.
		updates["completed_at"] = nil
	}

	entry := &models.TaskHistory{
		Kind:       models.HistoryTransition,
		FromStatus: task.Status,
		ToStatus:   to,
		Actor:      actor,
	}
	if err := m.store.UpdateTask(taskID, updates, entry); err != nil {
		return nil, err
	}

	task.Status = to
	if to == models.TaskDone {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	return task, nil
}

// LogTime adds hours to a task's spent time. Hours must be positive; the
// amount is additive, never an overwrite.
func (m *Machine) LogTime(taskID string, hours float64, actor string) (*models.Task, error) {
	if hours <= 0 {
		return nil, apperr.Invalid("hours", "must be positive")
	}

	task, err := m.store.TaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task", taskID)
	}

	total := task.SpentHours + hours
	entry := &models.TaskHistory{
		Kind:  models.HistoryTimeLog,
		Hours: hours,
		Actor: actor,
	}
	if err := m.store.UpdateTask(taskID, map[string]interface{}{"spent_hours": total}, entry); err != nil {
		return nil, err
	}

	task.SpentHours = total
	return task, nil
}

// Assign sets the task's assignee. It does not change status. Both the task
// and the user must exist.
func (m *Machine) Assign(taskID, userID string) (*models.Task, error) {
	task, err := m.store.TaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task", taskID)
	}

	user, err := m.store.UserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}

	entry := &models.TaskHistory{
		Kind:  models.HistoryAssignment,
		Actor: userID,
		Note:  "assigned to " + user.Name,
	}
	if err := m.store.UpdateTask(taskID, map[string]interface{}{"assignee": userID}, entry); err != nil {
		return nil, err
	}

	task.Assignee = userID
	return task, nil
}

// Delete hard-deletes a task and its history.
func (m *Machine) Delete(taskID string) error {
	task, err := m.store.TaskByID(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return apperr.NotFound("task", taskID)
	}
	return m.store.DeleteTask(taskID)
}
