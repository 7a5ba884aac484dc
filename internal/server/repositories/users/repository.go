// Package users is the credential store: persistence of user identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Repository persists users. Emails are expected in normalised form.
type Repository interface {
	// Create inserts the user and fills in ID and CreatedAt. It returns
	// common.ErrDuplicateEmail when the email is already taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByEmail returns common.ErrorNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns common.ErrorNotFound when the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	// Delete removes the user row. Owned tasks must be gone already or be
	// removed by the foreign key cascade.
	Delete(ctx context.Context, id int64) error
}
