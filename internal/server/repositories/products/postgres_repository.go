package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectProductColumns = `SELECT id, title, description, code, price, status, stock, category, thumbnails, owner
		 FROM products`

type PostgresRepository struct {
	db     dbx.DB
	logger logging.Logger
	newID  func() string
}

func NewPostgresRepository(db dbx.DB, logger logging.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger.With("repository", "products"),
		newID:  uuid.NewString,
	}
}

// listFilter renders the WHERE clause for opts and its positional args.
func listFilter(opts ListOptions) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if opts.Category != "" {
		add("category = ?", opts.Category)
	}
	if opts.Status != nil {
		add("status = ?", *opts.Status)
	}
	if opts.Title != "" {
		add("position(lower(?) in lower(title)) > 0", opts.Title)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*Page, error) {
	opts = opts.normalize()
	where, args := listFilter(opts)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, r.dbFailure(ctx, err)
	}

	order := " ORDER BY seq"
	switch opts.Sort {
	case SortAsc:
		order = " ORDER BY price ASC, seq"
	case SortDesc:
		order = " ORDER BY price DESC, seq"
	}

	n := len(args)
	query := selectProductColumns + where + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, opts.Limit, opts.offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.dbFailure(ctx, err)
	}
	defer rows.Close()

	docs := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, r.dbFailure(ctx, err)
		}
		docs = append(docs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbFailure(ctx, err)
	}

	return newPage(docs, total, opts), nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProductColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Error(ctx, "product not found", "product_id", id)
			return nil, fmt.Errorf("%w: product %s", common.ErrorNotFound, id)
		}
		return nil, r.dbFailure(ctx, err)
	}
	return p, nil
}

func (r *PostgresRepository) Add(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = r.newID()
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}
	thumbs, err := json.Marshal(p.Thumbnails)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO products (id, title, description, code, price, status, stock, category, thumbnails, owner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Description, p.Code, p.Price, p.Status, p.Stock, p.Category, string(thumbs), p.Owner)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Error(ctx, "product code already in use", "code", p.Code)
			return nil, fmt.Errorf("%w: product code %s", common.ErrorAlreadyExists, p.Code)
		}
		return nil, r.dbFailure(ctx, err)
	}

	r.logger.Info(ctx, "product added", "product_id", p.ID, "owner", p.Owner)
	return &p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	var updated models.Product
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := scanProduct(tx.QueryRowContext(ctx, selectProductColumns+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: product %s", common.ErrorNotFound, id)
			}
			return err
		}

		updated = current.Apply(patch)
		thumbs, err := json.Marshal(updated.Thumbnails)
		if err != nil {
			return err
		}

		query :=
			`UPDATE products
			 SET title = $2, description = $3, code = $4, price = $5, status = $6,
			     stock = $7, category = $8, thumbnails = $9
			 WHERE id = $1`

		_, err = tx.ExecContext(ctx, query,
			updated.ID, updated.Title, updated.Description, updated.Code, updated.Price,
			updated.Status, updated.Stock, updated.Category, string(thumbs))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product code %s", common.ErrorAlreadyExists, updated.Code)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAlreadyExists) {
			r.logger.Error(ctx, "product not updated", "product_id", id, "error", err)
			return nil, err
		}
		return nil, r.dbFailure(ctx, err)
	}
	return &updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return r.dbFailure(ctx, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return r.dbFailure(ctx, err)
	} else if n == 0 {
		r.logger.Error(ctx, "product not found", "product_id", id)
		return fmt.Errorf("%w: product %s", common.ErrorNotFound, id)
	}

	r.logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}

func (r *PostgresRepository) dbFailure(ctx context.Context, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "product storage failure", "error", err)
	}
	return fmt.Errorf("db error: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p      models.Product
		thumbs []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Code, &p.Price, &p.Status,
		&p.Stock, &p.Category, &thumbs, &p.Owner)
	if err != nil {
		return nil, err
	}

	if len(thumbs) > 0 {
		if err := json.Unmarshal(thumbs, &p.Thumbnails); err != nil {
			return nil, fmt.Errorf("decode thumbnails: %w", err)
		}
	}
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}
	return &p, nil
}
