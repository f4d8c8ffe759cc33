package workflow

import (
	"strings"
	"testing"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testMachine creates a Machine over an in-memory SQLite store with one
// project, sprint, story and user seeded.
func testMachine(t *testing.T) (*Machine, *store.Store, string, string) {
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
		&models.User{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	s := store.New(gdb)
	p := &models.Project{Name: "Apollo"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	st := &models.UserStory{Title: "Login page", ProjectID: p.ID, Points: 5}
	if err := s.CreateStory(st); err != nil {
		t.Fatalf("create story: %v", err)
	}
	u := &models.User{Name: "Dana", Email: "dana@example.com"}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return New(s), s, st.ID, u.ID
}

func TestCreateTask(t *testing.T) {
	m, _, storyID, _ := testMachine(t)

	task, err := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID, CreatedBy: "dana"})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if task.Status != models.TaskTodo {
		t.Errorf("initial status = %q, want TODO", task.Status)
	}
	if !strings.HasPrefix(task.ID, "tsk-") {
		t.Errorf("task ID = %q, want tsk- prefix", task.ID)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	m, _, storyID, _ := testMachine(t)

	tests := []struct {
		name string
		opts CreateOpts
	}{
		{"short title", CreateOpts{Title: "ab", StoryID: storyID}},
		{"whitespace title", CreateOpts{Title: "   ", StoryID: storyID}},
		{"long title", CreateOpts{Title: strings.Repeat("x", 201), StoryID: storyID}},
		{"missing story", CreateOpts{Title: "Build form"}},
		{"unknown story", CreateOpts{Title: "Build form", StoryID: "sto-zzzzz"}},
		{"negative estimate", CreateOpts{Title: "Build form", StoryID: storyID, EstimatedHours: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateTask(tt.opts)
			if !apperr.IsValidation(err) {
				t.Errorf("CreateTask() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestTransition(t *testing.T) {
	m, s, storyID, _ := testMachine(t)
	task, err := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	got, err := m.Transition(task.ID, models.TaskInProgress, "dana")
	if err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if got.Status != models.TaskInProgress {
		t.Errorf("status = %q, want IN_PROGRESS", got.Status)
	}

	entries, err := s.TaskHistoryByTask(task.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(entries))
	}
	if entries[0].FromStatus != models.TaskTodo || entries[0].ToStatus != models.TaskInProgress {
		t.Errorf("history entry = %+v", entries[0])
	}
}

func TestTransition_NoOpSameStatus(t *testing.T) {
	m, s, storyID, _ := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	got, err := m.Transition(task.ID, models.TaskTodo, "dana")
	if err != nil {
		t.Fatalf("Transition() to same status error: %v", err)
	}
	if got.Status != models.TaskTodo {
		t.Errorf("status = %q, want TODO", got.Status)
	}

	entries, _ := s.TaskHistoryByTask(task.ID)
	if len(entries) != 0 {
		t.Errorf("no-op transition wrote %d history entries, want 0", len(entries))
	}
}

func TestTransition_NotFound(t *testing.T) {
	m, _, _, _ := testMachine(t)
	_, err := m.Transition("tsk-zzzzz", models.TaskDone, "dana")
	if !apperr.IsNotFound(err) {
		t.Errorf("Transition(missing) error = %v, want NotFoundError", err)
	}
}

func TestTransition_InvalidStatus(t *testing.T) {
	m, _, storyID, _ := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})
	_, err := m.Transition(task.ID, models.TaskStatus("SHIPPED"), "dana")
	if !apperr.IsValidation(err) {
		t.Errorf("Transition(invalid) error = %v, want ValidationError", err)
	}
}

func TestTransition_DoneSetsAndClearsCompletedAt(t *testing.T) {
	m, s, storyID, _ := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	if _, err := m.Transition(task.ID, models.TaskDone, "dana"); err != nil {
		t.Fatalf("Transition(DONE) error: %v", err)
	}
	got, _ := s.TaskByID(task.ID)
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set on DONE")
	}

	// Un-completing is allowed and clears the stamp.
	if _, err := m.Transition(task.ID, models.TaskReview, "dana"); err != nil {
		t.Fatalf("Transition(DONE->REVIEW) error: %v", err)
	}
	got, _ = s.TaskByID(task.ID)
	if got.CompletedAt != nil {
		t.Error("CompletedAt not cleared when leaving DONE")
	}
}

func TestLogTime_Additive(t *testing.T) {
	m, s, storyID, _ := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	if _, err := m.LogTime(task.ID, 2, "dana"); err != nil {
		t.Fatalf("LogTime(2) error: %v", err)
	}
	got, err := m.LogTime(task.ID, 3, "dana")
	if err != nil {
		t.Fatalf("LogTime(3) error: %v", err)
	}
	if got.SpentHours != 5 {
		t.Errorf("SpentHours = %v, want 5", got.SpentHours)
	}

	entries, _ := s.TaskHistoryByTask(task.ID)
	if len(entries) != 2 {
		t.Errorf("len(history) = %d, want 2", len(entries))
	}
}

func TestLogTime_RejectsNonPositive(t *testing.T) {
	m, _, storyID, _ := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	for _, hours := range []float64{0, -1} {
		_, err := m.LogTime(task.ID, hours, "dana")
		if !apperr.IsValidation(err) {
			t.Errorf("LogTime(%v) error = %v, want ValidationError", hours, err)
		}
	}
}

func TestAssign(t *testing.T) {
	m, _, storyID, userID := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	got, err := m.Assign(task.ID, userID)
	if err != nil {
		t.Fatalf("Assign() error: %v", err)
	}
	if got.Assignee != userID {
		t.Errorf("assignee = %q, want %q", got.Assignee, userID)
	}
	if got.Status != models.TaskTodo {
		t.Errorf("Assign changed status to %q", got.Status)
	}
}

func TestAssign_NotFound(t *testing.T) {
	m, _, storyID, userID := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	if _, err := m.Assign("tsk-zzzzz", userID); !apperr.IsNotFound(err) {
		t.Errorf("Assign(missing task) error = %v, want NotFoundError", err)
	}
	if _, err := m.Assign(task.ID, "usr-zzzzz"); !apperr.IsNotFound(err) {
		t.Errorf("Assign(missing user) error = %v, want NotFoundError", err)
	}
}

func TestDelete(t *testing.T) {
	m, s, storyID, _ := testMachine(t)
	task, _ := m.CreateTask(CreateOpts{Title: "Build form", StoryID: storyID})

	if err := m.Delete(task.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	got, _ := s.TaskByID(task.ID)
	if got != nil {
		t.Error("task still present after Delete")
	}
	if err := m.Delete(task.ID); !apperr.IsNotFound(err) {
		t.Errorf("Delete(deleted) error = %v, want NotFoundError", err)
	}
}
