// Package carts stores shopping carts. A cart is created empty for every new
// user and later filled through the cart endpoints.
package carts

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context) ([]models.Cart, error)
	GetByID(ctx context.Context, id string) (*models.Cart, error)

	// Add stores a new cart holding initial and returns its id.
	Add(ctx context.Context, initial []models.CartItem) (string, error)

	// Update replaces the cart's product lines.
	Update(ctx context.Context, id string, products []models.CartItem) (*models.Cart, error)

	// Modify replaces the cart's lines with what fn derives from the stored
	// ones, as one atomic step. An error from fn is returned unchanged and
	// nothing is written.
	Modify(ctx context.Context, id string, fn func(products []models.CartItem) ([]models.CartItem, error)) (*models.Cart, error)

	Delete(ctx context.Context, id string) error
}
