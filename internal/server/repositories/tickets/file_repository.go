package tickets

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/recordstore"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
)

type FileRepository struct {
	store  *recordstore.Store[models.Ticket]
	logger logging.Logger
	newID  func() string
}

func NewFileRepository(store *recordstore.Store[models.Ticket], logger logging.Logger) *FileRepository {
	return &FileRepository{
		store:  store,
		logger: logger.With("repository", "tickets", "path", store.Path()),
		newID:  uuid.NewString,
	}
}

func (r *FileRepository) Add(ctx context.Context, t models.Ticket) (*models.Ticket, error) {
	t.ID = r.newID()
	err := r.store.Update(ctx, func(all []models.Ticket) ([]models.Ticket, error) {
		return append(all, t), nil
	})
	if err != nil {
		return nil, r.storageFailure(ctx, "create ticket", err)
	}

	r.logger.Info(ctx, "ticket added", "ticket_id", t.ID, "purchaser", t.Purchaser, "amount", t.Amount)
	return &t, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	all, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read tickets", err)
	}

	i := slices.IndexFunc(all, func(t models.Ticket) bool { return t.ID == id })
	if i < 0 {
		r.logger.Error(ctx, "ticket not found", "ticket_id", id)
		return nil, fmt.Errorf("%w: ticket %s", common.ErrorNotFound, id)
	}
	return &all[i], nil
}

func (r *FileRepository) storageFailure(ctx context.Context, op string, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "ticket storage failure", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
