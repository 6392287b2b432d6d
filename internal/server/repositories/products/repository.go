// Package products stores the product catalog and serves paginated,
// filtered listings of it.
package products

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) (*Page, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)

	// Add assigns an id and stores p. Codes are unique across the catalog.
	Add(ctx context.Context, p models.Product) (*models.Product, error)

	Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}
