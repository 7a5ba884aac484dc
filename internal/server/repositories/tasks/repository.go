// Package tasks is the task store. Every mutating query is scoped by owner
// so a statement can never touch another user's row.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type Repository interface {
	// Create inserts the task and fills in ID, Completed and CreatedAt.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// GetByID returns common.ErrorNotFound when the task does not exist.
	GetByID(ctx context.Context, id int64) (*models.Task, error)

	// ListByOwner returns the user's tasks in creation order.
	ListByOwner(ctx context.Context, userID int64) ([]*models.Task, error)

	// Toggle flips Completed on the user's task in a single statement and
	// returns the updated row, or common.ErrorNotFound.
	Toggle(ctx context.Context, userID, id int64) (*models.Task, error)

	// Delete removes the user's task, or returns common.ErrorNotFound.
	Delete(ctx context.Context, userID, id int64) error

	// DeleteByOwner removes all tasks of the user and reports how many.
	DeleteByOwner(ctx context.Context, userID int64) (int64, error)
}
