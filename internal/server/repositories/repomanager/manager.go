// Package repomanager builds the set of repositories the server runs on,
// backed either by JSON files or by PostgreSQL.
package repomanager

import (
	"github.com/dmitrijs2005/storefront/internal/server/repositories/carts"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

// Persistence selects the storage backend.
type Persistence string

const (
	PersistenceFile     Persistence = "FILE"
	PersistencePostgres Persistence = "POSTGRES"
)

// RepositoryManager vends the repositories of one backend.
type RepositoryManager interface {
	Users() users.Repository
	Carts() carts.Repository
	Products() products.Repository
	Tickets() tickets.Repository

	// Close releases backend resources.
	Close() error
}
