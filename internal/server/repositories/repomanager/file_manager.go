package repomanager

import (
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/storefront/internal/filex"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/recordstore"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/carts"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

// Collection file names inside the data directory.
const (
	UsersFile    = "users.json"
	CartsFile    = "carts.json"
	ProductsFile = "products.json"
	TicketsFile  = "tickets.json"
)

// FileRepositoryManager keeps every collection in its own JSON file.
type FileRepositoryManager struct {
	users    *users.FileRepository
	carts    *carts.FileRepository
	products *products.FileRepository
	tickets  *tickets.FileRepository
}

// NewFileRepositoryManager opens (creating when missing) the collection
// files under dataDir.
func NewFileRepositoryManager(dataDir string, logger logging.Logger) (*FileRepositoryManager, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	userStore, err := recordstore.Open[models.User](filepath.Join(dir, UsersFile))
	if err != nil {
		return nil, err
	}
	cartStore, err := recordstore.Open[models.Cart](filepath.Join(dir, CartsFile))
	if err != nil {
		return nil, err
	}
	productStore, err := recordstore.Open[models.Product](filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}
	ticketStore, err := recordstore.Open[models.Ticket](filepath.Join(dir, TicketsFile))
	if err != nil {
		return nil, err
	}

	c := carts.NewFileRepository(cartStore, logger)
	m := &FileRepositoryManager{
		users:    users.NewFileRepository(userStore, c, logger),
		carts:    c,
		products: products.NewFileRepository(productStore, logger),
		tickets:  tickets.NewFileRepository(ticketStore, logger),
	}
	return m, nil
}

func (m *FileRepositoryManager) Users() users.Repository       { return m.users }
func (m *FileRepositoryManager) Carts() carts.Repository       { return m.carts }
func (m *FileRepositoryManager) Products() products.Repository { return m.products }
func (m *FileRepositoryManager) Tickets() tickets.Repository   { return m.tickets }

// Close is a no-op; files are not held open between operations.
func (m *FileRepositoryManager) Close() error { return nil }
