// Package velocity derives sprint velocity (story points completed within a
// sprint) and the rolling team average across recent sprints. It is an
// independent read path so callers needing only velocity do not pay for a
// full burndown computation.
package velocity

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
)

// DefaultWindow is the number of recent sprints included in the team
// history when the caller does not specify a limit.
const DefaultWindow = 10

// Storage is the persistence port the calculator depends on.
type Storage interface {
	SprintByID(id string) (*models.Sprint, error)
	StoriesBySprint(sprintID string) ([]models.UserStory, error)
	ProjectSprints(projectID string) ([]models.Sprint, error)
}

// Calculator computes velocity metrics.
type Calculator struct {
	store Storage
}

// New creates a Calculator over the given storage.
func New(store Storage) *Calculator {
	return &Calculator{store: store}
}

// Entry is one sprint's velocity within a team history.
type Entry struct {
	SprintID   string  `json:"sprintId"`
	SprintName string  `json:"sprintName"`
	Velocity   float64 `json:"velocity"`
}

// History is the rolling velocity series for a project.
type History struct {
	Entries []Entry `json:"entries"`
	Average int     `json:"average"`
}

// SprintVelocity returns the sum of points of DONE stories associated to the
// sprint.
func (c *Calculator) SprintVelocity(sprintID string) (float64, error) {
	sprint, err := c.store.SprintByID(sprintID)
	if err != nil {
		return 0, err
	}
	if sprint == nil {
		return 0, apperr.NotFound("sprint", sprintID)
	}

	stories, err := c.store.StoriesBySprint(sprintID)
	if err != nil {
		return 0, err
	}
	return completedPoints(stories), nil
}

// TeamHistory returns the last limit sprints of a project ordered by their
// numeric sprint sequence (parsed from the name, 0 when absent, fetch order
// on ties) with each sprint's velocity and the rounded average. An empty
// project yields an empty series and average 0.
func (c *Calculator) TeamHistory(projectID string, limit int) (*History, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}

	sprints, err := c.store.ProjectSprints(projectID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(sprints))
	for _, sp := range sprints {
		stories, err := c.store.StoriesBySprint(sp.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			SprintID:   sp.ID,
			SprintName: sp.Name,
			Velocity:   completedPoints(stories),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return sequence(entries[i].SprintName) < sequence(entries[j].SprintName)
	})
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	h := &History{Entries: entries}
	if len(entries) > 0 {
		var sum float64
		for _, e := range entries {
			sum += e.Velocity
		}
		h.Average = int(math.Round(sum / float64(len(entries))))
	}
	return h, nil
}

// completedPoints sums points over DONE stories.
func completedPoints(stories []models.UserStory) float64 {
	var sum float64
	for _, st := range stories {
		if st.Status == models.StoryDone {
			sum += st.Points
		}
	}
	return sum
}

// sequence extracts the first integer found in a sprint name, e.g.
// "Sprint 12" -> 12. Names without a number sort as 0.
func sequence(name string) int {
	start := -1
	for i, r := range name {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(name[start:i])
			return n
		}
	}
	if start >= 0 {
		n, _ := strconv.Atoi(strings.TrimSpace(name[start:]))
		return n
	}
	return 0
}
