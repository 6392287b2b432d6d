package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db     dbx.DBTX
	logger logging.Logger
	newID  func() string
}

func NewPostgresRepository(db dbx.DBTX, logger logging.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger.With("repository", "tickets"),
		newID:  uuid.NewString,
	}
}

func (r *PostgresRepository) Add(ctx context.Context, t models.Ticket) (*models.Ticket, error) {
	t.ID = r.newID()

	query :=
		`INSERT INTO tickets (id, code, purchase_datetime, amount, purchaser)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, t.ID, t.Code, t.PurchaseDateTime, t.Amount, t.Purchaser)
	if err != nil {
		return nil, r.dbFailure(ctx, err)
	}

	r.logger.Info(ctx, "ticket added", "ticket_id", t.ID, "purchaser", t.Purchaser, "amount", t.Amount)
	return &t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query :=
		`SELECT id, code, purchase_datetime, amount, purchaser FROM tickets
		 WHERE id = $1`

	t := &models.Ticket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Code, &t.PurchaseDateTime, &t.Amount, &t.Purchaser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Error(ctx, "ticket not found", "ticket_id", id)
			return nil, fmt.Errorf("%w: ticket %s", common.ErrorNotFound, id)
		}
		return nil, r.dbFailure(ctx, err)
	}
	return t, nil
}

func (r *PostgresRepository) dbFailure(ctx context.Context, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "ticket storage failure", "error", err)
	}
	return fmt.Errorf("db error: %w", err)
}
