// Package burndown derives a sprint's burndown trajectory: the ideal linear
// depletion of story points over the sprint's duration against the actual
// remaining work, plus the persisted daily snapshot series.
//
// Historical per-day state is not recorded anywhere, so past days in the
// series are approximated from current story and task state. The series is
// exact for "today" and a flat approximation for earlier days; regenerating
// it with unchanged inputs yields identical values.
package burndown

import (
	"math"
	"time"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
)

// Unavailability reasons reported when no meaningful burndown exists.
const (
	ReasonNoDates    = "sprint has no start/end dates"
	ReasonNotStarted = "sprint has not started"
)

// Storage is the persistence port the calculator depends on.
type Storage interface {
	SprintByID(id string) (*models.Sprint, error)
	StoriesBySprint(sprintID string) ([]models.UserStory, error)
	TasksByStory(storyID string) ([]models.Task, error)
	SnapshotsBySprint(sprintID string) ([]models.SprintSnapshot, error)
	ReplaceSnapshots(sprintID string, snaps []models.SprintSnapshot) error
}

// Calculator computes burndown metrics for sprints. Now is the clock used
// for day indexing; tests override it for determinism.
type Calculator struct {
	store Storage
	Now   func() time.Time
}

// New creates a Calculator over the given storage.
func New(store Storage) *Calculator {
	return &Calculator{store: store, Now: time.Now}
}

// Stats is the current burndown position of a sprint. When Unavailable is
// set no ideal trajectory exists and IdealRemaining must be read as
// "unavailable", not "zero work remaining".
type Stats struct {
	SprintID        string  `json:"sprintId"`
	TotalPoints     float64 `json:"totalPoints"`
	CompletedPoints float64 `json:"completedPoints"`
	RemainingPoints float64 `json:"remainingPoints"`
	ProgressPct     float64 `json:"progressPct"`
	TasksTotal      int     `json:"tasksTotal"`
	TasksCompleted  int     `json:"tasksCompleted"`
	TasksRemaining  int     `json:"tasksRemaining"`
	DurationDays    int     `json:"durationDays"`
	DayIndex        int     `json:"dayIndex"`
	IdealRemaining  float64 `json:"idealRemaining"`
	Unavailable     bool    `json:"unavailable,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// Duration returns the sprint length D in days, ceil((end-start)/1 day).
// It returns 0 when either date is missing or the range is degenerate.
func Duration(sprint *models.Sprint) int {
	if sprint.StartDate == nil || sprint.EndDate == nil {
		return 0
	}
	span := sprint.EndDate.Sub(*sprint.StartDate)
	if span <= 0 {
		return 0
	}
	return int(math.Ceil(span.Hours() / 24))
}

// DayIndex returns the elapsed day index d since the sprint start,
// ceil((now-start)/1 day) clamped to [0, D].
func DayIndex(sprint *models.Sprint, now time.Time) int {
	d := Duration(sprint)
	if d == 0 || sprint.StartDate == nil {
		return 0
	}
	elapsed := now.Sub(*sprint.StartDate)
	idx := int(math.Ceil(elapsed.Hours() / 24))
	if idx < 0 {
		return 0
	}
	if idx > d {
		return d
	}
	return idx
}

// IdealRemaining is the ideal remaining-points value on day d of a sprint
// with total points total and duration days. With no computable duration the
// ideal line is defined as 0 for all days; callers must treat that as
// unavailable.
func IdealRemaining(total float64, days, d int) float64 {
	if days <= 0 {
		return 0
	}
	v := total - float64(d)*(total/float64(days))
	return math.Max(0, v)
}

// sprintData is the loaded working set for one sprint.
type sprintData struct {
	sprint  *models.Sprint
	stories []models.UserStory
	tasks   []models.Task
}

// load fetches the sprint, its stories and all their tasks. A missing sprint
// is a NotFoundError; storage failures propagate as PersistenceError.
func (c *Calculator) load(sprintID string) (*sprintData, error) {
	sprint, err := c.store.SprintByID(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, apperr.NotFound("sprint", sprintID)
	}

	stories, err := c.store.StoriesBySprint(sprintID)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	for _, st := range stories {
		ts, err := c.store.TasksByStory(st.ID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, ts...)
	}
	return &sprintData{sprint: sprint, stories: stories, tasks: tasks}, nil
}

// totals sums story points: total over all stories (missing points count as
// 0) and completed over DONE stories.
func (d *sprintData) totals() (total, completed float64) {
	for _, st := range d.stories {
		total += st.Points
		if st.Status == models.StoryDone {
			completed += st.Points
		}
	}
	return total, completed
}

// taskCounts returns completed and remaining task counts.
func (d *sprintData) taskCounts() (completed, remaining int) {
	for _, t := range d.tasks {
		if t.Status == models.TaskDone {
			completed++
		} else {
			remaining++
		}
	}
	return completed, remaining
}

// Stats computes the current burndown position for a sprint.
func (c *Calculator) Stats(sprintID string) (*Stats, error) {
	data, err := c.load(sprintID)
	if err != nil {
		return nil, err
	}
	return c.stats(data), nil
}

func (c *Calculator) stats(data *sprintData) *Stats {
	total, completed := data.totals()
	tasksDone, tasksLeft := data.taskCounts()
	days := Duration(data.sprint)
	day := DayIndex(data.sprint, c.Now())

	s := &Stats{
		SprintID:        data.sprint.ID,
		TotalPoints:     total,
		CompletedPoints: completed,
		RemainingPoints: total - completed,
		TasksTotal:      len(data.tasks),
		TasksCompleted:  tasksDone,
		TasksRemaining:  tasksLeft,
		DurationDays:    days,
		DayIndex:        day,
		IdealRemaining:  IdealRemaining(total, days, day),
	}
	if total > 0 {
		s.ProgressPct = completed / total * 100
	}
	if days <= 0 {
		s.Unavailable = true
		s.Reason = ReasonNoDates
	}
	return s
}

// Series generates one snapshot per elapsed day, from the sprint start to
// min(now, end). Past days reuse current story/task state; only the ideal
// value varies per day. A sprint with no computable duration, or one that
// has not started, yields an empty series.
func (c *Calculator) Series(sprintID string) ([]models.SprintSnapshot, error) {
	data, err := c.load(sprintID)
	if err != nil {
		return nil, err
	}
	return c.series(data), nil
}

func (c *Calculator) series(data *sprintData) []models.SprintSnapshot {
	days := Duration(data.sprint)
	if days <= 0 {
		return nil
	}
	now := c.Now()
	if now.Before(*data.sprint.StartDate) {
		return nil
	}

	total, completed := data.totals()
	tasksDone, tasksLeft := data.taskCounts()
	last := DayIndex(data.sprint, now)
	generated := now.UTC()

	snaps := make([]models.SprintSnapshot, 0, last+1)
	for d := 0; d <= last; d++ {
		date := dateOnly(data.sprint.StartDate.AddDate(0, 0, d))
		snaps = append(snaps, models.SprintSnapshot{
			SprintID:        data.sprint.ID,
			Date:            date,
			TotalPoints:     total,
			CompletedPoints: completed,
			RemainingPoints: total - completed,
			IdealRemaining:  IdealRemaining(total, days, d),
			TasksCompleted:  tasksDone,
			TasksRemaining:  tasksLeft,
			GeneratedAt:     generated,
		})
	}
	return snaps
}

// Get returns the persisted snapshot series for a sprint, or a freshly
// computed one when nothing is persisted yet. The read path never writes.
func (c *Calculator) Get(sprintID string) ([]models.SprintSnapshot, error) {
	sprint, err := c.store.SprintByID(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, apperr.NotFound("sprint", sprintID)
	}

	snaps, err := c.store.SnapshotsBySprint(sprintID)
	if err != nil {
		return nil, err
	}
	if len(snaps) > 0 {
		return snaps, nil
	}
	return c.Series(sprintID)
}

// Recalculate discards any persisted snapshot series for the sprint and
// regenerates it from current story and task state. Running it twice with
// unchanged inputs yields identical snapshot values apart from GeneratedAt.
func (c *Calculator) Recalculate(sprintID string) ([]models.SprintSnapshot, error) {
	data, err := c.load(sprintID)
	if err != nil {
		return nil, err
	}
	snaps := c.series(data)
	if err := c.store.ReplaceSnapshots(sprintID, snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
