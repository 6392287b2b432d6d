// Package tickets stores purchase receipts.
package tickets

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	// Add assigns an id to t and stores it.
	Add(ctx context.Context, t models.Ticket) (*models.Ticket, error)
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
}
