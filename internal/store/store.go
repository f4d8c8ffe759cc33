// Package store implements the storage ports the workflow engine and the
// metric calculators depend on, backed by GORM. Lookups return a nil record
// or an empty slice when nothing matches; only real storage failures produce
// an error, wrapped as apperr.PersistenceError. Raising typed not-found
// errors is the caller's job.
package store

import (
	"errors"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"gorm.io/gorm"
)

// Store is the GORM-backed implementation of every storage port in the
// engine. Calculators and the state machine each declare the narrow
// interface they need; *Store satisfies all of them.
type Store struct {
	db *gorm.DB
}

// New wraps a GORM connection in a Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for migration and test setup.
func (s *Store) DB() *gorm.DB { return s.db }

// first loads a single record by id into dest, returning found=false when no
// row matches.
func (s *Store) first(dest interface{}, id, op string) (bool, error) {
	err := s.db.Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Persistence(op, err)
	}
	return true, nil
}

// ProjectByID returns the project, or nil if it does not exist.
func (s *Store) ProjectByID(id string) (*models.Project, error) {
	var p models.Project
	found, err := s.first(&p, id, "load project "+id)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// SprintByID returns the sprint, or nil if it does not exist.
func (s *Store) SprintByID(id string) (*models.Sprint, error) {
	var sp models.Sprint
	found, err := s.first(&sp, id, "load sprint "+id)
	if err != nil || !found {
		return nil, err
	}
	return &sp, nil
}

// StoryByID returns the user story, or nil if it does not exist.
func (s *Store) StoryByID(id string) (*models.UserStory, error) {
	var st models.UserStory
	found, err := s.first(&st, id, "load story "+id)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

// TaskByID returns the task, or nil if it does not exist.
func (s *Store) TaskByID(id string) (*models.Task, error) {
	var tk models.Task
	found, err := s.first(&tk, id, "load task "+id)
	if err != nil || !found {
		return nil, err
	}
	return &tk, nil
}

// UserByID returns the user, or nil if it does not exist.
func (s *Store) UserByID(id string) (*models.User, error) {
	var u models.User
	found, err := s.first(&u, id, "load user "+id)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// StoriesBySprint returns all stories associated to a sprint, ordered by
// priority then creation time.
func (s *Store) StoriesBySprint(sprintID string) ([]models.UserStory, error) {
	var stories []models.UserStory
	if err := s.db.Where("sprint_id = ?", sprintID).
		Order("priority ASC, created_at ASC").Find(&stories).Error; err != nil {
		return nil, apperr.Persistence("list stories for sprint "+sprintID, err)
	}
	return stories, nil
}

// Projects returns all projects in creation order.
func (s *Store) Projects() ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Order("created_at ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, apperr.Persistence("list projects", err)
	}
	return projects, nil
}

// ActiveSprints returns all sprints currently in ACTIVE status.
func (s *Store) ActiveSprints() ([]models.Sprint, error) {
	var sprints []models.Sprint
	if err := s.db.Where("status = ?", models.SprintActive).
		Order("created_at ASC, id ASC").Find(&sprints).Error; err != nil {
		return nil, apperr.Persistence("list active sprints", err)
	}
	return sprints, nil
}

// StoriesByProject returns all stories owned by a project, associated to a
// sprint or not.
func (s *Store) StoriesByProject(projectID string) ([]models.UserStory, error) {
	var stories []models.UserStory
	if err := s.db.Where("project_id = ?", projectID).
		Order("priority ASC, created_at ASC").Find(&stories).Error; err != nil {
		return nil, apperr.Persistence("list stories for project "+projectID, err)
	}
	return stories, nil
}

// ProjectSprints returns all sprints of a project in creation order.
func (s *Store) ProjectSprints(projectID string) ([]models.Sprint, error) {
	var sprints []models.Sprint
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").Find(&sprints).Error; err != nil {
		return nil, apperr.Persistence("list sprints for project "+projectID, err)
	}
	return sprints, nil
}

// TasksByStory returns all tasks of a user story in creation order.
func (s *Store) TasksByStory(storyID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Where("story_id = ?", storyID).
		Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("list tasks for story "+storyID, err)
	}
	return tasks, nil
}

// TasksBySprint returns all tasks belonging to any story associated to the
// sprint. This is the board's working set.
func (s *Store) TasksBySprint(sprintID string) ([]models.Task, error) {
	sub := s.db.Model(&models.UserStory{}).Select("id").Where("sprint_id = ?", sprintID)
	var tasks []models.Task
	if err := s.db.Where("story_id IN (?)", sub).
		Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("list tasks for sprint "+sprintID, err)
	}
	return tasks, nil
}

// ProjectTasks returns all tasks belonging to any story of the project.
func (s *Store) ProjectTasks(projectID string) ([]models.Task, error) {
	sub := s.db.Model(&models.UserStory{}).Select("id").Where("project_id = ?", projectID)
	var tasks []models.Task
	if err := s.db.Where("story_id IN (?)", sub).
		Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("list tasks for project "+projectID, err)
	}
	return tasks, nil
}

// CreateProject inserts a project, generating an id if absent.
func (s *Store) CreateProject(p *models.Project) error {
	if p.ID == "" {
		id, err := s.uniqueID("prj", &models.Project{})
		if err != nil {
			return err
		}
		p.ID = id
	}
	if err := s.db.Create(p).Error; err != nil {
		return apperr.Persistence("create project", err)
	}
	return nil
}

// CreateSprint inserts a sprint, generating an id if absent.
func (s *Store) CreateSprint(sp *models.Sprint) error {
	if sp.ID == "" {
		id, err := s.uniqueID("spr", &models.Sprint{})
		if err != nil {
			return err
		}
		sp.ID = id
	}
	if err := s.db.Create(sp).Error; err != nil {
		return apperr.Persistence("create sprint", err)
	}
	return nil
}

// CreateStory inserts a user story, generating an id if absent.
func (s *Store) CreateStory(st *models.UserStory) error {
	if st.ID == "" {
		id, err := s.uniqueID("sto", &models.UserStory{})
		if err != nil {
			return err
		}
		st.ID = id
	}
	if err := s.db.Create(st).Error; err != nil {
		return apperr.Persistence("create story", err)
	}
	return nil
}

// CreateTask inserts a task, generating an id if absent.
func (s *Store) CreateTask(tk *models.Task) error {
	if tk.ID == "" {
		id, err := s.uniqueID("tsk", &models.Task{})
		if err != nil {
			return err
		}
		tk.ID = id
	}
	if err := s.db.Create(tk).Error; err != nil {
		return apperr.Persistence("create task", err)
	}
	return nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(u *models.User) error {
	if u.ID == "" {
		id, err := s.uniqueID("usr", &models.User{})
		if err != nil {
			return err
		}
		u.ID = id
	}
	if err := s.db.Create(u).Error; err != nil {
		return apperr.Persistence("create user", err)
	}
	return nil
}

// UpdateTask applies field updates to a task and records one history entry
// in the same transaction. The entry may be nil for silent updates.
func (s *Store) UpdateTask(id string, updates map[string]interface{}, entry *models.TaskHistory) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if entry != nil {
			entry.TaskID = id
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return apperr.Persistence("update task "+id, err)
}

// DeleteTask hard-deletes a task and its history. No tombstone is kept.
func (s *Store) DeleteTask(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskHistory{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Task{}).Error
	})
	return apperr.Persistence("delete task "+id, err)
}

// TaskHistoryByTask returns the audit trail for a task, oldest first.
func (s *Store) TaskHistoryByTask(taskID string) ([]models.TaskHistory, error) {
	var entries []models.TaskHistory
	if err := s.db.Where("task_id = ?", taskID).
		Order("id ASC").Find(&entries).Error; err != nil {
		return nil, apperr.Persistence("list history for task "+taskID, err)
	}
	return entries, nil
}

// LatestHistoryID returns the highest task history ID, 0 if none exist.
func (s *Store) LatestHistoryID() (uint, error) {
	var entry models.TaskHistory
	err := s.db.Order("id DESC").Limit(1).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Persistence("latest history id", err)
	}
	return entry.ID, nil
}

// HistorySince returns history entries with IDs greater than after, oldest
// first. It backs the event stream's polling loop.
func (s *Store) HistorySince(after uint) ([]models.TaskHistory, error) {
	var entries []models.TaskHistory
	if err := s.db.Where("id > ?", after).
		Order("id ASC").Find(&entries).Error; err != nil {
		return nil, apperr.Persistence("list history since", err)
	}
	return entries, nil
}
