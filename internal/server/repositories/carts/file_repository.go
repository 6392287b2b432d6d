package carts

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
	store  *recordstore.Store[models.Cart]
	logger logging.Logger
	newID  func() string
}

func NewFileRepository(store *recordstore.Store[models.Cart], logger logging.Logger) *FileRepository {
	return &FileRepository{
		store:  store,
		logger: logger.With("repository", "carts", "path", store.Path()),
		newID:  uuid.NewString,
	}
}

func (r *FileRepository) Get(ctx context.Context) ([]models.Cart, error) {
	carts, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read carts", err)
	}
	return carts, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	carts, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read carts", err)
	}

	i := indexByID(carts, id)
	if i < 0 {
		r.logger.Error(ctx, "cart not found", "cart_id", id)
		return nil, fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
	}
	return &carts[i], nil
}

func (r *FileRepository) Add(ctx context.Context, initial []models.CartItem) (string, error) {
	cart := models.NewCart(r.newID())
	cart.Products = append(cart.Products, initial...)

	err := r.store.Update(ctx, func(carts []models.Cart) ([]models.Cart, error) {
		return append(carts, cart), nil
	})
	if err != nil {
		return "", r.storageFailure(ctx, "create cart", err)
	}

	r.logger.Info(ctx, "cart added", "cart_id", cart.ID)
	return cart.ID, nil
}

func (r *FileRepository) Update(ctx context.Context, id string, products []models.CartItem) (*models.Cart, error) {
	return r.Modify(ctx, id, func([]models.CartItem) ([]models.CartItem, error) { return products, nil })
}

func (r *FileRepository) Modify(ctx context.Context, id string, fn func([]models.CartItem) ([]models.CartItem, error)) (*models.Cart, error) {
	var (
		updated models.Cart
		fnErr   error
	)
	err := r.store.Update(ctx, func(carts []models.Cart) ([]models.Cart, error) {
		i := indexByID(carts, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
		}
		products, err := fn(slices.Clone(carts[i].Products))
		if err != nil {
			fnErr = err
			return nil, err
		}
		carts[i].Products = append([]models.CartItem{}, products...)
		updated = carts[i]
		return carts, nil
	})
	if err != nil {
		if fnErr != nil {
			return nil, fnErr
		}
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "cart not found", "cart_id", id)
			return nil, err
		}
		return nil, r.storageFailure(ctx, "update cart", err)
	}
	return &updated, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Update(ctx, func(carts []models.Cart) ([]models.Cart, error) {
		i := indexByID(carts, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: cart %s", common.ErrorNotFound, id)
		}
		return slices.Delete(carts, i, i+1), nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "cart not found", "cart_id", id)
			return err
		}
		return r.storageFailure(ctx, "delete cart", err)
	}
	return nil
}

func (r *FileRepository) storageFailure(ctx context.Context, op string, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "cart storage failure", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func indexByID(carts []models.Cart, id string) int {
	return slices.IndexFunc(carts, func(c models.Cart) bool { return c.ID == id })
}
