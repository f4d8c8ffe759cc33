package board

import (
	"fmt"

	"github.com/sprintwell/sprintwell/internal/models"
)

// Validate checks board consistency invariants over a set of columns:
// every task's status matches its column, no task appears in more than one
// column, and no column exceeds its WIP limit. It returns one message per
// violation; an empty slice means the board is consistent.
func Validate(cols []Column) []string {
	var violations []string
	seen := map[string]models.TaskStatus{}

	for _, col := range cols {
		for _, task := range col.Tasks {
			if task.Status != col.Status {
				violations = append(violations, fmt.Sprintf(
					"task %s has status %s but is filed under %s", task.ID, task.Status, col.Status))
			}
			if prev, dup := seen[task.ID]; dup {
				violations = append(violations, fmt.Sprintf(
					"task %s appears in both %s and %s", task.ID, prev, col.Status))
			}
			seen[task.ID] = col.Status
		}
		if col.Limit > 0 && len(col.Tasks) > col.Limit {
			violations = append(violations, fmt.Sprintf(
				"column %s holds %d tasks, exceeding its WIP limit of %d", col.Status, len(col.Tasks), col.Limit))
		}
	}
	return violations
}
