package burndown

import (
	"fmt"
	"time"

	"github.com/sprintwell/sprintwell/internal/models"
)

// DebugReport is a read-only diagnostic view of a sprint's burndown inputs
// and outputs, intended for human inspection. Warnings flag data-quality
// anomalies; they never turn the report into an error.
type DebugReport struct {
	SprintID    string     `json:"sprintId"`
	SprintName  string     `json:"sprintName"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	GeneratedAt time.Time  `json:"generatedAt"`

	Stats    *Stats       `json:"stats"`
	Stories  []StoryDebug `json:"stories"`
	Tasks    []TaskDebug  `json:"tasks"`
	Warnings []string     `json:"warnings"`
}

// StoryDebug is the per-story breakdown of a debug report.
type StoryDebug struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Points     float64 `json:"points"`
	TasksTotal int     `json:"tasksTotal"`
	TasksDone  int     `json:"tasksDone"`
}

// TaskDebug is the per-task breakdown of a debug report.
type TaskDebug struct {
	ID             string  `json:"id"`
	StoryID        string  `json:"storyId"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	Assignee       string  `json:"assignee,omitempty"`
	EstimatedHours float64 `json:"estimatedHours"`
	SpentHours     float64 `json:"spentHours"`
}

// divergenceThreshold is the ideal-vs-actual gap, as a fraction of total
// points, beyond which a warning is raised.
const divergenceThreshold = 0.20

// Debug builds the diagnostic report for a sprint.
func (c *Calculator) Debug(sprintID string) (*DebugReport, error) {
	data, err := c.load(sprintID)
	if err != nil {
		return nil, err
	}

	stats := c.stats(data)
	report := &DebugReport{
		SprintID:    data.sprint.ID,
		SprintName:  data.sprint.Name,
		Status:      string(data.sprint.Status),
		StartDate:   data.sprint.StartDate,
		EndDate:     data.sprint.EndDate,
		GeneratedAt: c.Now().UTC(),
		Stats:       stats,
		Stories:     make([]StoryDebug, 0, len(data.stories)),
		Tasks:       make([]TaskDebug, 0, len(data.tasks)),
	}

	tasksByStory := map[string][]models.Task{}
	for _, t := range data.tasks {
		tasksByStory[t.StoryID] = append(tasksByStory[t.StoryID], t)
		report.Tasks = append(report.Tasks, TaskDebug{
			ID:             t.ID,
			StoryID:        t.StoryID,
			Title:          t.Title,
			Status:         string(t.Status),
			Assignee:       t.Assignee,
			EstimatedHours: t.EstimatedHours,
			SpentHours:     t.SpentHours,
		})
	}
	for _, st := range data.stories {
		done := 0
		for _, t := range tasksByStory[st.ID] {
			if t.Status == models.TaskDone {
				done++
			}
		}
		report.Stories = append(report.Stories, StoryDebug{
			ID:         st.ID,
			Title:      st.Title,
			Status:     string(st.Status),
			Points:     st.Points,
			TasksTotal: len(tasksByStory[st.ID]),
			TasksDone:  done,
		})
	}

	report.Warnings = warnings(data, stats)
	return report, nil
}

// warnings collects the anomaly flags for a sprint.
func warnings(data *sprintData, stats *Stats) []string {
	var w []string
	if data.sprint.StartDate == nil || data.sprint.EndDate == nil {
		w = append(w, "sprint has no start/end dates; no ideal trajectory can be computed")
	}
	if len(data.stories) == 0 {
		w = append(w, "sprint has no associated stories")
	}
	if stats.TotalPoints == 0 {
		w = append(w, "sprint has zero total story points")
	}
	if len(data.tasks) == 0 {
		w = append(w, "sprint stories have no tasks")
	}
	if !stats.Unavailable && stats.TotalPoints > 0 {
		gap := stats.RemainingPoints - stats.IdealRemaining
		if gap < 0 {
			gap = -gap
		}
		if gap > divergenceThreshold*stats.TotalPoints {
			w = append(w, fmt.Sprintf(
				"actual remaining (%.1f) diverges from ideal (%.1f) by more than %d%% of total points",
				stats.RemainingPoints, stats.IdealRemaining, int(divergenceThreshold*100)))
		}
	}
	return w
}
