package carts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository keeps carts in PostgreSQL with product lines in a
// jsonb column. It can be bound to a transaction.
type PostgresRepository struct {
	db     dbx.DBTX
	logger logging.Logger
	newID  func() string
}

func NewPostgresRepository(db dbx.DBTX, logger logging.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger.With("repository", "carts"),
		newID:  uuid.NewString,
	}
}

func (r *PostgresRepository) Get(ctx context.Context) ([]models.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, products FROM carts ORDER BY seq`)
	if err != nil {
		return nil, r.dbFailure(ctx, err)
	}
	defer rows.Close()

	carts := []models.Cart{}
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, r.dbFailure(ctx, err)
		}
		carts = append(carts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbFailure(ctx, err)
	}
	return carts, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	c, err := scanCart(r.db.QueryRowContext(ctx, `SELECT id, products FROM carts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Error(ctx, "cart not found", "cart_id", id)
			return nil, fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
		}
		return nil, r.dbFailure(ctx, err)
	}
	return c, nil
}

func (r *PostgresRepository) Add(ctx context.Context, initial []models.CartItem) (string, error) {
	cart := models.NewCart(r.newID())
	cart.Products = append(cart.Products, initial...)

	products, err := json.Marshal(cart.Products)
	if err != nil {
		return "", err
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO carts (id, products) VALUES ($1, $2)`, cart.ID, string(products))
	if err != nil {
		return "", r.dbFailure(ctx, err)
	}
	return cart.ID, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, products []models.CartItem) (*models.Cart, error) {
	cart := models.NewCart(id)
	cart.Products = append(cart.Products, products...)

	b, err := json.Marshal(cart.Products)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE carts SET products = $2 WHERE id = $1`, id, string(b))
	if err != nil {
		return nil, r.dbFailure(ctx, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, r.dbFailure(ctx, err)
	} else if n == 0 {
		r.logger.Error(ctx, "cart not found", "cart_id", id)
		return nil, fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
	}
	return &cart, nil
}

// Modify locks the cart row for the duration of fn. Bound to a transaction
// it runs inside it; bound to a pool it opens its own.
func (r *PostgresRepository) Modify(ctx context.Context, id string, fn func([]models.CartItem) ([]models.CartItem, error)) (*models.Cart, error) {
	var (
		updated *models.Cart
		fnErr   error
	)
	run := func(ctx context.Context, tx dbx.DBTX) error {
		current, err := scanCart(tx.QueryRowContext(ctx, `SELECT id, products FROM carts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
			}
			return err
		}

		products, err := fn(current.Products)
		if err != nil {
			fnErr = err
			return err
		}

		cart := models.NewCart(id)
		cart.Products = append(cart.Products, products...)
		b, err := json.Marshal(cart.Products)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE carts SET products = $2 WHERE id = $1`, id, string(b)); err != nil {
			return err
		}
		updated = &cart
		return nil
	}

	var err error
	if db, ok := r.db.(dbx.TxBeginner); ok {
		err = dbx.WithTx(ctx, db, nil, run)
	} else {
		err = run(ctx, r.db)
	}
	if err != nil {
		if fnErr != nil {
			return nil, fnErr
		}
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "cart not found", "cart_id", id)
			return nil, err
		}
		return nil, r.dbFailure(ctx, err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return r.dbFailure(ctx, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return r.dbFailure(ctx, err)
	} else if n == 0 {
		r.logger.Error(ctx, "cart not found", "cart_id", id)
		return fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
	}
	return nil
}

func (r *PostgresRepository) dbFailure(ctx context.Context, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "cart storage failure", "error", err)
	}
	return fmt.Errorf("db error: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCart(row rowScanner) (*models.Cart, error) {
	var (
		id       string
		products []byte
	)
	if err := row.Scan(&id, &products); err != nil {
		return nil, err
	}

	c := models.NewCart(id)
	if len(products) > 0 {
		if err := json.Unmarshal(products, &c.Products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
	}
	if c.Products == nil {
		c.Products = []models.CartItem{}
	}
	return &c, nil
}
