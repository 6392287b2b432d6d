// Package users stores user records and enforces their invariants: unique
// email at creation, default role, and a cart provisioned exactly once when
// the user is created.
//
// Expected absences are reported through common sentinel errors
// (ErrorNotFound, ErrorAlreadyExists, ErrorValidation); a broken backing
// store surfaces as a distinct error (recordstore.StorageError or a wrapped
// database error), so callers never mistake one for the other.
package users

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// Repository is the whole surface upstream services use to manage users.
type Repository interface {
	// Get returns every user in insertion order.
	Get(ctx context.Context) ([]models.User, error)

	// GetByID returns the user with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail returns the first user whose email matches exactly
	// (case-sensitive) or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Add validates the candidate, rejects duplicate emails, provisions a cart
	// and stores the new user. It returns the fully materialized record.
	Add(ctx context.Context, candidate Candidate) (*models.User, error)

	// Update shallow-merges patch over the stored user, keeping its position,
	// and returns the merged record. Email uniqueness is not re-checked.
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)

	// Modify hands the stored user to fn and merges the patch fn returns, as
	// one atomic step. An error from fn is returned unchanged and nothing is
	// written.
	Modify(ctx context.Context, id string, fn func(models.User) (models.UserPatch, error)) (*models.User, error)

	// Delete removes the user with the given id, keeping the relative order of
	// the others. A missing id yields common.ErrorNotFound and no change.
	Delete(ctx context.Context, id string) error
}

// CartProvisioner creates the cart attached to a new user and returns its id.
type CartProvisioner interface {
	Add(ctx context.Context, initial []models.CartItem) (string, error)
}
