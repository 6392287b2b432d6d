package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/migrations"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/carts"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing one
// connection pool.
type PostgresRepositoryManager struct {
	db       *sql.DB
	users    *users.PostgresRepository
	carts    *carts.PostgresRepository
	products *products.PostgresRepository
	tickets  *tickets.PostgresRepository
}

// NewPostgresRepositoryManager wires the repositories on top of db. The
// manager owns db and closes it in Close.
func NewPostgresRepositoryManager(db *sql.DB, logger logging.Logger) *PostgresRepositoryManager {
	cartsFor := func(tx dbx.DBTX) users.CartProvisioner {
		return carts.NewPostgresRepository(tx, logger)
	}

	return &PostgresRepositoryManager{
		db:       db,
		users:    users.NewPostgresRepository(db, cartsFor, logger),
		carts:    carts.NewPostgresRepository(db, logger),
		products: products.NewPostgresRepository(db, logger),
		tickets:  tickets.NewPostgresRepository(db, logger),
	}
}

// sqlOpen and gooseUpContext are seams for tests.
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// OpenPostgres connects to dsn, applies pending migrations and returns the
// manager.
func OpenPostgres(ctx context.Context, dsn string, logger logging.Logger) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m := NewPostgresRepositoryManager(db, logger)
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return m, nil
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Users() users.Repository       { return m.users }
func (m *PostgresRepositoryManager) Carts() carts.Repository       { return m.carts }
func (m *PostgresRepositoryManager) Products() products.Repository { return m.products }
func (m *PostgresRepositoryManager) Tickets() tickets.Repository   { return m.tickets }

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
