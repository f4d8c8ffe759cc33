// Package health combines schedule adherence, velocity trend and task-flow
// statistics into a single 0-100 project health score with a discrete
// status tier.
//
// The component weighting is internal policy (configurable); the contract is
// the clamped range, the exact tier boundaries, and that a project with no
// usable data scores 0/critical with an insufficient-data flag instead of
// failing.
package health

import (
	"math"
	"time"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/burndown"
	"github.com/sprintwell/sprintwell/internal/config"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/velocity"
)

// Status tiers, from best to worst.
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusFair      = "fair"
	StatusPoor      = "poor"
	StatusCritical  = "critical"
)

// neutralScore is used for a component whose inputs carry no signal (no
// measurable schedule, no historical velocity, no tasks).
const neutralScore = 50.0

// Storage is the persistence port the scorer depends on.
type Storage interface {
	ProjectByID(id string) (*models.Project, error)
	ProjectSprints(projectID string) ([]models.Sprint, error)
	StoriesBySprint(sprintID string) ([]models.UserStory, error)
	ProjectTasks(projectID string) ([]models.Task, error)
}

// Scorer computes project health reports.
type Scorer struct {
	store    Storage
	burndown *burndown.Calculator
	velocity *velocity.Calculator
	weights  config.HealthConfig
}

// New creates a Scorer over the given storage and calculators.
func New(store Storage, bd *burndown.Calculator, vc *velocity.Calculator, weights config.HealthConfig) *Scorer {
	return &Scorer{store: store, burndown: bd, velocity: vc, weights: weights}
}

// Components breaks the overall score into its weighted inputs, each on a
// 0-100 scale before weighting.
type Components struct {
	Schedule float64 `json:"schedule"`
	Velocity float64 `json:"velocity"`
	Flow     float64 `json:"flow"`
}

// Report is the health evaluation of a project at a point in time.
type Report struct {
	ProjectID        string     `json:"projectId"`
	Score            int        `json:"score"`
	Status           string     `json:"status"`
	Timestamp        int64      `json:"timestamp"` // epoch millis
	Components       Components `json:"components"`
	InsufficientData bool       `json:"insufficientData,omitempty"`
}

// Tier maps a clamped score to its status tier. Boundaries are exact:
// >=80 excellent, 60-79 good, 40-59 fair, 20-39 poor, <20 critical.
func Tier(score int) string {
	switch {
	case score >= 80:
		return StatusExcellent
	case score >= 60:
		return StatusGood
	case score >= 40:
		return StatusFair
	case score >= 20:
		return StatusPoor
	default:
		return StatusCritical
	}
}

// Score evaluates a project's health. A project with no sprints or no
// stories yields score 0, tier critical and the insufficient-data flag; it
// is never an error.
func (s *Scorer) Score(projectID string) (*Report, error) {
	project, err := s.store.ProjectByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}

	now := time.Now()
	report := &Report{
		ProjectID: projectID,
		Timestamp: now.UnixMilli(),
	}

	sprints, err := s.store.ProjectSprints(projectID)
	if err != nil {
		return nil, err
	}
	storyCount := 0
	for _, sp := range sprints {
		stories, err := s.store.StoriesBySprint(sp.ID)
		if err != nil {
			return nil, err
		}
		storyCount += len(stories)
	}
	if len(sprints) == 0 || storyCount == 0 {
		report.Score = 0
		report.Status = StatusCritical
		report.InsufficientData = true
		return report, nil
	}

	schedule, err := s.scheduleScore(sprints)
	if err != nil {
		return nil, err
	}
	vel, err := s.velocityScore(projectID, sprints)
	if err != nil {
		return nil, err
	}
	flow, err := s.flowScore(projectID)
	if err != nil {
		return nil, err
	}

	report.Components = Components{Schedule: schedule, Velocity: vel, Flow: flow}
	raw := schedule*s.weights.ScheduleWeight +
		vel*s.weights.VelocityWeight +
		flow*s.weights.FlowWeight
	report.Score = clamp(int(math.Round(raw)))
	report.Status = Tier(report.Score)
	return report, nil
}

// focusSprint picks the sprint whose burndown drives the schedule
// component: the most recent ACTIVE sprint, falling back to the most recent
// COMPLETED one.
func focusSprint(sprints []models.Sprint) *models.Sprint {
	for i := len(sprints) - 1; i >= 0; i-- {
		if sprints[i].Status == models.SprintActive {
			return &sprints[i]
		}
	}
	for i := len(sprints) - 1; i >= 0; i-- {
		if sprints[i].Status == models.SprintCompleted {
			return &sprints[i]
		}
	}
	return nil
}

// scheduleScore rates how closely actual remaining work tracks the ideal
// burndown of the focus sprint. On schedule or ahead scores 100; each point
// of lag, as a percentage of total points, costs one point of score.
func (s *Scorer) scheduleScore(sprints []models.Sprint) (float64, error) {
	sp := focusSprint(sprints)
	if sp == nil {
		return neutralScore, nil
	}
	stats, err := s.burndown.Stats(sp.ID)
	if err != nil {
		return 0, err
	}
	if stats.Unavailable || stats.TotalPoints == 0 {
		return neutralScore, nil
	}
	lag := stats.RemainingPoints - stats.IdealRemaining
	if lag <= 0 {
		return 100, nil
	}
	return math.Max(0, 100-lag/stats.TotalPoints*100), nil
}

// velocityScore rates the focus sprint's velocity against the historical
// team average. Matching or beating the average scores 100; a sprint at
// half the average scores 50.
func (s *Scorer) velocityScore(projectID string, sprints []models.Sprint) (float64, error) {
	history, err := s.velocity.TeamHistory(projectID, 0)
	if err != nil {
		return 0, err
	}
	if history.Average == 0 || len(history.Entries) < 2 {
		return neutralScore, nil
	}

	sp := focusSprint(sprints)
	if sp == nil {
		return neutralScore, nil
	}
	current, err := s.velocity.SprintVelocity(sp.ID)
	if err != nil {
		return 0, err
	}
	ratio := current / float64(history.Average)
	return math.Min(100, ratio*100), nil
}

// flowScore rates task-flow health: blocked tasks weigh against the score
// more heavily than unassigned ones.
func (s *Scorer) flowScore(projectID string) (float64, error) {
	tasks, err := s.store.ProjectTasks(projectID)
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return neutralScore, nil
	}

	blocked, unassigned := 0, 0
	for _, t := range tasks {
		if t.Status == models.TaskBlocked {
			blocked++
		}
		if t.Assignee == "" && t.Status != models.TaskDone {
			unassigned++
		}
	}
	total := float64(len(tasks))
	penalty := (float64(blocked)/total)*60 + (float64(unassigned)/total)*40
	return math.Max(0, 100-penalty), nil
}

// clamp restricts a score to [0, 100].
func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
