// Package doctor runs data-quality checks over a project's sprints, stories
// and tasks. Violations are reported, never repaired: inconsistent data is a
// defect the team should see, not something to silently "fix".
package doctor

import (
	"fmt"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/workflow"
)

// Finding is one detected data-quality defect.
type Finding struct {
	Code     string `json:"code"`
	EntityID string `json:"entityId"`
	Message  string `json:"message"`
}

// Finding codes.
const (
	CodeDanglingSprint    = "story_dangling_sprint"
	CodeCrossProject      = "story_cross_project_sprint"
	CodeStatusMismatch    = "story_status_mismatch"
	CodeCancelledHasStory = "cancelled_sprint_has_stories"
	CodeDateOrder         = "sprint_date_order"
	CodeNegativePoints    = "story_negative_points"
	CodeBadTaskStatus     = "task_unknown_status"
	CodeBadTaskTitle      = "task_title_bounds"
	CodeNegativeHours     = "task_negative_hours"
)

// Storage is the persistence port the checker depends on.
type Storage interface {
	ProjectByID(id string) (*models.Project, error)
	ProjectSprints(projectID string) ([]models.Sprint, error)
	StoriesByProject(projectID string) ([]models.UserStory, error)
	SprintByID(id string) (*models.Sprint, error)
	TasksByStory(storyID string) ([]models.Task, error)
}

// Checker runs the data-quality checks.
type Checker struct {
	store Storage
}

// New creates a Checker over the given storage.
func New(store Storage) *Checker {
	return &Checker{store: store}
}

// Check inspects one project and returns every detected defect. A clean
// project yields an empty slice.
func (c *Checker) Check(projectID string) ([]Finding, error) {
	project, err := c.store.ProjectByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}

	var findings []Finding

	sprints, err := c.store.ProjectSprints(projectID)
	if err != nil {
		return nil, err
	}
	sprintByID := map[string]models.Sprint{}
	for _, sp := range sprints {
		sprintByID[sp.ID] = sp
		if sp.StartDate != nil && sp.EndDate != nil && sp.EndDate.Before(*sp.StartDate) {
			findings = append(findings, Finding{
				Code:     CodeDateOrder,
				EntityID: sp.ID,
				Message:  fmt.Sprintf("sprint %s ends (%s) before it starts (%s)", sp.ID, sp.EndDate.Format("2006-01-02"), sp.StartDate.Format("2006-01-02")),
			})
		}
	}

	stories, err := c.store.StoriesByProject(projectID)
	if err != nil {
		return nil, err
	}
	for _, st := range stories {
		findings = append(findings, c.checkStory(st, sprintByID)...)

		tasks, err := c.store.TasksByStory(st.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			findings = append(findings, checkTask(t)...)
		}
	}
	return findings, nil
}

// checkStory validates a story's sprint association and status consistency.
func (c *Checker) checkStory(st models.UserStory, sprints map[string]models.Sprint) []Finding {
	var findings []Finding

	if st.Points < 0 {
		findings = append(findings, Finding{
			Code:     CodeNegativePoints,
			EntityID: st.ID,
			Message:  fmt.Sprintf("story %s has negative points (%v)", st.ID, st.Points),
		})
	}
	if st.SprintID == nil {
		return findings
	}

	sp, ok := sprints[*st.SprintID]
	if !ok {
		findings = append(findings, Finding{
			Code:     CodeDanglingSprint,
			EntityID: st.ID,
			Message:  fmt.Sprintf("story %s references missing sprint %s", st.ID, *st.SprintID),
		})
		return findings
	}
	if sp.ProjectID != st.ProjectID {
		findings = append(findings, Finding{
			Code:     CodeCrossProject,
			EntityID: st.ID,
			Message:  fmt.Sprintf("story %s (project %s) is associated to sprint %s of project %s", st.ID, st.ProjectID, sp.ID, sp.ProjectID),
		})
	}

	switch sp.Status {
	case models.SprintActive:
		if st.Status == models.StoryBacklog {
			findings = append(findings, Finding{
				Code:     CodeStatusMismatch,
				EntityID: st.ID,
				Message:  fmt.Sprintf("story %s is still BACKLOG inside active sprint %s", st.ID, sp.ID),
			})
		}
	case models.SprintCompleted:
		if st.Status != models.StoryDone && st.Status != models.StoryTesting {
			findings = append(findings, Finding{
				Code:     CodeStatusMismatch,
				EntityID: st.ID,
				Message:  fmt.Sprintf("story %s is %s inside completed sprint %s", st.ID, st.Status, sp.ID),
			})
		}
	case models.SprintCancelled:
		findings = append(findings, Finding{
			Code:     CodeCancelledHasStory,
			EntityID: st.ID,
			Message:  fmt.Sprintf("cancelled sprint %s still holds story %s", sp.ID, st.ID),
		})
	}
	return findings
}

// checkTask validates a task's own field invariants.
func checkTask(t models.Task) []Finding {
	var findings []Finding
	if !t.Status.Valid() {
		findings = append(findings, Finding{
			Code:     CodeBadTaskStatus,
			EntityID: t.ID,
			Message:  fmt.Sprintf("task %s has unknown status %q", t.ID, string(t.Status)),
		})
	}
	if n := len(t.Title); n < workflow.MinTitleLen || n > workflow.MaxTitleLen {
		findings = append(findings, Finding{
			Code:     CodeBadTaskTitle,
			EntityID: t.ID,
			Message:  fmt.Sprintf("task %s title length %d is outside [%d, %d]", t.ID, n, workflow.MinTitleLen, workflow.MaxTitleLen),
		})
	}
	if t.EstimatedHours < 0 || t.SpentHours < 0 {
		findings = append(findings, Finding{
			Code:     CodeNegativeHours,
			EntityID: t.ID,
			Message:  fmt.Sprintf("task %s has negative hours (estimated %v, spent %v)", t.ID, t.EstimatedHours, t.SpentHours),
		})
	}
	return findings
}
