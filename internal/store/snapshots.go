package store

import (
	"errors"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"gorm.io/gorm"
)

// SnapshotsBySprint returns the persisted snapshot series for a sprint,
// ordered by date.
func (s *Store) SnapshotsBySprint(sprintID string) ([]models.SprintSnapshot, error) {
	var snaps []models.SprintSnapshot
	if err := s.db.Where("sprint_id = ?", sprintID).
		Order("date ASC").Find(&snaps).Error; err != nil {
		return nil, apperr.Persistence("list snapshots for sprint "+sprintID, err)
	}
	return snaps, nil
}

// ReplaceSnapshots atomically swaps a sprint's snapshot series: the stale
// series is deleted before the fresh one is written, inside one transaction,
// so a crash can never leave overlapping series behind.
func (s *Store) ReplaceSnapshots(sprintID string, snaps []models.SprintSnapshot) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sprint_id = ?", sprintID).Delete(&models.SprintSnapshot{}).Error; err != nil {
			return err
		}
		for i := range snaps {
			snaps[i].ID = 0
			snaps[i].SprintID = sprintID
			if err := tx.Create(&snaps[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return apperr.Persistence("replace snapshots for sprint "+sprintID, err)
}

// CancelSprint marks a sprint CANCELLED and releases its story associations
// back to the backlog, in one transaction.
func (s *Store) CancelSprint(sprintID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sprint{}).Where("id = ?", sprintID).
			Update("status", models.SprintCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.UserStory{}).Where("sprint_id = ?", sprintID).
			Updates(map[string]interface{}{
				"sprint_id": nil,
				"status":    models.StoryBacklog,
			}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("sprint", sprintID)
	}
	return apperr.Persistence("cancel sprint "+sprintID, err)
}
