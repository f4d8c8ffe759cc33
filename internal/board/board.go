// Package board implements the Kanban board view over a sprint's tasks:
// columns keyed by task status, per-column WIP limits, and the WIP-checked
// move operation. Concurrent moves within one sprint are serialized so two
// moves can never both squeeze into a column's last slot.
package board

import (
	"sync"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/workflow"
)

// Storage is the persistence port the board depends on.
type Storage interface {
	TaskByID(id string) (*models.Task, error)
	StoryByID(id string) (*models.UserStory, error)
	TasksBySprint(sprintID string) ([]models.Task, error)
}

// Board groups a sprint's tasks into status columns and enforces WIP limits
// on moves. Limits are keyed by status; a zero or missing limit means the
// column is unconstrained.
type Board struct {
	store   Storage
	machine *workflow.Machine
	limits  map[models.TaskStatus]int

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-sprint serialization
}

// New creates a Board over the given storage and workflow machine.
func New(store Storage, machine *workflow.Machine, limits map[models.TaskStatus]int) *Board {
	return &Board{
		store:   store,
		machine: machine,
		limits:  limits,
		locks:   map[string]*sync.Mutex{},
	}
}

// Limit returns the WIP limit for a column, or 0 if unconstrained.
func (b *Board) Limit(status models.TaskStatus) int {
	return b.limits[status]
}

// sprintLock returns the mutex serializing moves for one sprint.
func (b *Board) sprintLock(sprintID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[sprintID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[sprintID] = l
	}
	return l
}

// Column is one status column of the board.
type Column struct {
	Status models.TaskStatus `json:"status"`
	Limit  int               `json:"limit,omitempty"`
	Tasks  []models.Task     `json:"tasks"`
}

// Columns builds the board for a sprint: one column per status in fixed
// order, each holding the sprint's tasks with that status.
func (b *Board) Columns(sprintID string) ([]Column, error) {
	tasks, err := b.store.TasksBySprint(sprintID)
	if err != nil {
		return nil, err
	}

	byStatus := map[models.TaskStatus][]models.Task{}
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	cols := make([]Column, 0, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		cols = append(cols, Column{
			Status: status,
			Limit:  b.limits[status],
			Tasks:  byStatus[status],
		})
	}
	return cols, nil
}

// MoveTask moves a task from one column to another, enforcing the
// destination column's WIP limit against current occupancy at the moment of
// the move. Moving a task to its current column succeeds as a no-op without
// touching history. On a full column the move is rejected with a
// CapacityError and no state changes. The history entry is attributed to
// actor, falling back to the task's assignee when actor is empty.
func (b *Board) MoveTask(taskID string, from, to models.TaskStatus, actor string) (*models.Task, error) {
	if !from.Valid() {
		return nil, apperr.Invalidf("fromStatus", "unknown status %q", string(from))
	}
	if !to.Valid() {
		return nil, apperr.Invalidf("toStatus", "unknown status %q", string(to))
	}

	task, err := b.store.TaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task", taskID)
	}
	if task.Status != from {
		return nil, apperr.Invalidf("fromStatus", "task is in %s, not %s", string(task.Status), string(from))
	}
	if from == to {
		return task, nil
	}

	story, err := b.store.StoryByID(task.StoryID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, apperr.NotFound("story", task.StoryID)
	}

	// Limits apply to sprint boards; a backlog task outside any sprint has
	// no column occupancy to measure against.
	if story.SprintID != nil {
		sprintID := *story.SprintID
		lock := b.sprintLock(sprintID)
		lock.Lock()
		defer lock.Unlock()

		if err := b.checkCapacity(sprintID, taskID, to); err != nil {
			return nil, err
		}
	}

	if actor == "" {
		actor = task.Assignee
	}
	return b.machine.Transition(taskID, to, actor)
}

// checkCapacity rejects the move if the destination column is at its WIP
// limit. The moving task is excluded from the occupancy count.
func (b *Board) checkCapacity(sprintID, taskID string, to models.TaskStatus) error {
	limit := b.limits[to]
	if limit <= 0 {
		return nil
	}

	tasks, err := b.store.TasksBySprint(sprintID)
	if err != nil {
		return err
	}
	occupancy := 0
	for _, t := range tasks {
		if t.Status == to && t.ID != taskID {
			occupancy++
		}
	}
	if occupancy >= limit {
		return apperr.CapacityExceeded(string(to), limit)
	}
	return nil
}
