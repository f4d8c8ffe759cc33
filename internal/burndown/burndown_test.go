package burndown

import (
	"math"
	"testing"
	"time"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testCalc creates a Calculator over an in-memory SQLite store with one
// project seeded, plus a fixed clock.
func testCalc(t *testing.T, now time.Time) (*Calculator, *store.Store, string) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.Project{},
		&models.Sprint{},
		&models.UserStory{},
		&models.Task{},
		&models.TaskHistory{},
		&models.SprintSnapshot{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	s := store.New(gdb)
	p := &models.Project{Name: "Apollo"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create project: %v", err)
	}

	c := New(s)
	c.Now = func() time.Time { return now }
	return c, s, p.ID
}

// seedDatedSprint creates a sprint with the given window and stories with
// the given (points, done) pairs. Returns the sprint id.
func seedDatedSprint(t *testing.T, s *store.Store, projectID string, start, end time.Time, stories ...struct {
	Points float64
	Done   bool
}) string {
	t.Helper()
	sp := &models.Sprint{
		Name: "Sprint 3", ProjectID: projectID, Status: models.SprintActive,
		StartDate: &start, EndDate: &end,
	}
	if err := s.CreateSprint(sp); err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	for i, st := range stories {
		status := models.StoryPlanned
		if st.Done {
			status = models.StoryDone
		}
		story := &models.UserStory{
			Title: "Story", Priority: i, ProjectID: projectID,
			SprintID: &sp.ID, Points: st.Points, Status: status,
		}
		if err := s.CreateStory(story); err != nil {
			t.Fatalf("create story: %v", err)
		}
	}
	return sp.ID
}

type ps = struct {
	Points float64
	Done   bool
}

func TestIdealRemaining(t *testing.T) {
	tests := []struct {
		total float64
		days  int
		d     int
		want  float64
	}{
		{26, 14, 0, 26},
		{26, 14, 10, 26 - 10*(26.0/14.0)}, // ≈ 7.43
		{26, 14, 14, 0},
		{26, 14, 20, 0}, // clamped, never negative
		{10, 5, 3, 4},
		{0, 5, 2, 0},
		{10, 0, 3, 0}, // no duration: defined as 0, callers treat as unavailable
	}
	for _, tt := range tests {
		got := IdealRemaining(tt.total, tt.days, tt.d)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("IdealRemaining(%v, %d, %d) = %v, want %v", tt.total, tt.days, tt.d, got, tt.want)
		}
		if got < 0 {
			t.Errorf("IdealRemaining(%v, %d, %d) = %v, negative", tt.total, tt.days, tt.d, got)
		}
	}
}

func TestIdealRemaining_MidSprint(t *testing.T) {
	got := IdealRemaining(26, 14, 10)
	if math.Abs(got-7.428571428571429) > 1e-6 {
		t.Errorf("IdealRemaining(26, 14, 10) = %v, want ≈ 7.43", got)
	}
}

func TestDuration(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  *time.Time
		want int
	}{
		{"14 days", timePtr(start.AddDate(0, 0, 14)), 14},
		{"partial day rounds up", timePtr(start.Add(25 * time.Hour)), 2},
		{"same instant", &start, 0},
		{"end before start", timePtr(start.AddDate(0, 0, -1)), 0},
		{"missing end", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := &models.Sprint{StartDate: &start, EndDate: tt.end}
			if got := Duration(sp); got != tt.want {
				t.Errorf("Duration() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := Duration(&models.Sprint{}); got != 0 {
		t.Errorf("Duration(no dates) = %d, want 0", got)
	}
}

func TestDayIndex_Clamped(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)
	sp := &models.Sprint{StartDate: &start, EndDate: &end}

	tests := []struct {
		now  time.Time
		want int
	}{
		{start.AddDate(0, 0, -3), 0},            // before start
		{start, 0},                              // day zero
		{start.Add(12 * time.Hour), 1},          // mid first day rounds up
		{start.AddDate(0, 0, 10), 10},           // exact day boundary
		{start.AddDate(0, 0, 30), 14},           // past end, clamped to D
	}
	for _, tt := range tests {
		if got := DayIndex(sp, tt.now); got != tt.want {
			t.Errorf("DayIndex(now=%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestStats_Conservation(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 5)
	c, s, projectID := testCalc(t, now)
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 14),
		ps{Points: 8, Done: true}, ps{Points: 13, Done: false}, ps{Points: 5, Done: true})

	stats, err := c.Stats(sprintID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalPoints != 26 {
		t.Errorf("TotalPoints = %v, want 26", stats.TotalPoints)
	}
	if stats.CompletedPoints != 13 {
		t.Errorf("CompletedPoints = %v, want 13", stats.CompletedPoints)
	}
	if stats.CompletedPoints+stats.RemainingPoints != stats.TotalPoints {
		t.Errorf("conservation violated: %v + %v != %v",
			stats.CompletedPoints, stats.RemainingPoints, stats.TotalPoints)
	}
	if math.Abs(stats.ProgressPct-50) > 1e-9 {
		t.Errorf("ProgressPct = %v, want 50", stats.ProgressPct)
	}
}

func TestStats_ZeroPointsNoDivideByZero(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c, s, projectID := testCalc(t, start.AddDate(0, 0, 2))
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 7))

	stats, err := c.Stats(sprintID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.ProgressPct != 0 {
		t.Errorf("ProgressPct = %v, want 0 for zero total", stats.ProgressPct)
	}
}

func TestStats_NoDatesUnavailable(t *testing.T) {
	c, s, projectID := testCalc(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	sp := &models.Sprint{Name: "Sprint X", ProjectID: projectID, Status: models.SprintPlanned}
	if err := s.CreateSprint(sp); err != nil {
		t.Fatalf("create sprint: %v", err)
	}

	stats, err := c.Stats(sp.ID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if !stats.Unavailable || stats.Reason != ReasonNoDates {
		t.Errorf("Stats = %+v, want unavailable with reason %q", stats, ReasonNoDates)
	}
}

func TestStats_NotFound(t *testing.T) {
	c, _, _ := testCalc(t, time.Now())
	_, err := c.Stats("spr-zzzzz")
	if !apperr.IsNotFound(err) {
		t.Errorf("Stats(missing) error = %v, want NotFoundError", err)
	}
}

func TestSeries_Shape(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 5)
	c, s, projectID := testCalc(t, now)
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 14),
		ps{Points: 20, Done: true}, ps{Points: 6, Done: false})

	snaps, err := c.Series(sprintID)
	if err != nil {
		t.Fatalf("Series() error: %v", err)
	}
	if len(snaps) != 6 { // days 0..5
		t.Fatalf("len(series) = %d, want 6", len(snaps))
	}
	if snaps[0].IdealRemaining != 26 {
		t.Errorf("ideal(0) = %v, want totalPoints 26", snaps[0].IdealRemaining)
	}
	for i, snap := range snaps {
		if snap.IdealRemaining < 0 {
			t.Errorf("ideal(%d) = %v, negative", i, snap.IdealRemaining)
		}
		if snap.CompletedPoints+snap.RemainingPoints != snap.TotalPoints {
			t.Errorf("day %d: conservation violated", i)
		}
		wantDate := time.Date(2026, 3, 2+i, 0, 0, 0, 0, time.UTC)
		if !snap.Date.Equal(wantDate) {
			t.Errorf("day %d date = %v, want %v", i, snap.Date, wantDate)
		}
	}
}

func TestSeries_ClampsToSprintEnd(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c, s, projectID := testCalc(t, start.AddDate(0, 0, 60))
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 7),
		ps{Points: 10, Done: true})

	snaps, err := c.Series(sprintID)
	if err != nil {
		t.Fatalf("Series() error: %v", err)
	}
	if len(snaps) != 8 { // days 0..7, not 0..60
		t.Errorf("len(series) = %d, want 8", len(snaps))
	}
}

func TestSeries_EmptyBeforeStartAndWithoutDates(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c, s, projectID := testCalc(t, start.AddDate(0, 0, -2))
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 14), ps{Points: 5})

	snaps, err := c.Series(sprintID)
	if err != nil {
		t.Fatalf("Series() error: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("series before sprint start has %d snapshots, want 0", len(snaps))
	}

	undated := &models.Sprint{Name: "Undated", ProjectID: projectID}
	if err := s.CreateSprint(undated); err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	snaps, err = c.Series(undated.ID)
	if err != nil {
		t.Fatalf("Series(undated) error: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("series without dates has %d snapshots, want 0", len(snaps))
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c, s, projectID := testCalc(t, start.AddDate(0, 0, 6))
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 10),
		ps{Points: 8, Done: true}, ps{Points: 5, Done: false})

	first, err := c.Recalculate(sprintID)
	if err != nil {
		t.Fatalf("Recalculate() first run error: %v", err)
	}
	second, err := c.Recalculate(sprintID)
	if err != nil {
		t.Fatalf("Recalculate() second run error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("series lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if !a.Date.Equal(b.Date) || a.TotalPoints != b.TotalPoints ||
			a.CompletedPoints != b.CompletedPoints || a.RemainingPoints != b.RemainingPoints ||
			a.IdealRemaining != b.IdealRemaining ||
			a.TasksCompleted != b.TasksCompleted || a.TasksRemaining != b.TasksRemaining {
			t.Errorf("day %d differs between runs:\n  %+v\n  %+v", i, a, b)
		}
	}

	// The persisted series is the fresh one, not an accumulation.
	persisted, err := s.SnapshotsBySprint(sprintID)
	if err != nil {
		t.Fatalf("SnapshotsBySprint() error: %v", err)
	}
	if len(persisted) != len(second) {
		t.Errorf("persisted %d snapshots, want %d", len(persisted), len(second))
	}
}

func TestRecalculate_NotFound(t *testing.T) {
	c, _, _ := testCalc(t, time.Now())
	_, err := c.Recalculate("spr-zzzzz")
	if !apperr.IsNotFound(err) {
		t.Errorf("Recalculate(missing) error = %v, want NotFoundError", err)
	}
}

func TestGet_ComputesWhenNothingPersisted(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c, s, projectID := testCalc(t, start.AddDate(0, 0, 3))
	sprintID := seedDatedSprint(t, s, projectID, start, start.AddDate(0, 0, 10), ps{Points: 10})

	snaps, err := c.Get(sprintID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(snaps) != 4 {
		t.Errorf("len(series) = %d, want 4", len(snaps))
	}

	// The read path must not have persisted anything.
	persisted, _ := s.SnapshotsBySprint(sprintID)
	if len(persisted) != 0 {
		t.Errorf("Get() persisted %d snapshots, want 0", len(persisted))
	}

	// After a recalculation, Get returns the stored series.
	if _, err := c.Recalculate(sprintID); err != nil {
		t.Fatalf("Recalculate() error: %v", err)
	}
	snaps, err = c.Get(sprintID)
	if err != nil {
		t.Fatalf("Get() after recalc error: %v", err)
	}
	if len(snaps) != 4 {
		t.Errorf("len(persisted series) = %d, want 4", len(snaps))
	}
}

func timePtr(t time.Time) *time.Time { return &t }
