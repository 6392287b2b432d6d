package products

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
	store  *recordstore.Store[models.Product]
	logger logging.Logger
	newID  func() string
}

func NewFileRepository(store *recordstore.Store[models.Product], logger logging.Logger) *FileRepository {
	return &FileRepository{
		store:  store,
		logger: logger.With("repository", "products", "path", store.Path()),
		newID:  uuid.NewString,
	}
}

func (r *FileRepository) List(ctx context.Context, opts ListOptions) (*Page, error) {
	all, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read products", err)
	}
	return paginate(all, opts), nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	all, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read products", err)
	}

	i := indexByID(all, id)
	if i < 0 {
		r.logger.Error(ctx, "product not found", "product_id", id)
		return nil, fmt.Errorf("%w: product %s", common.ErrorNotFound, id)
	}
	return &all[i], nil
}

func (r *FileRepository) Add(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = r.newID()
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}

	err := r.store.Update(ctx, func(all []models.Product) ([]models.Product, error) {
		if indexByCode(all, p.Code) >= 0 {
			return nil, fmt.Errorf("%w: product code %s", common.ErrorAlreadyExists, p.Code)
		}
		return append(all, p), nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			r.logger.Error(ctx, "product code already in use", "code", p.Code)
			return nil, err
		}
		return nil, r.storageFailure(ctx, "create product", err)
	}

	r.logger.Info(ctx, "product added", "product_id", p.ID, "owner", p.Owner)
	return &p, nil
}

func (r *FileRepository) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	var updated models.Product
	err := r.store.Update(ctx, func(all []models.Product) ([]models.Product, error) {
		i := indexByID(all, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %s", common.ErrorNotFound, id)
		}
		if patch.Code != nil {
			if j := indexByCode(all, *patch.Code); j >= 0 && j != i {
				return nil, fmt.Errorf("%w: product code %s", common.ErrorAlreadyExists, *patch.Code)
			}
		}
		updated = all[i].Apply(patch)
		all[i] = updated
		return all, nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAlreadyExists) {
			r.logger.Error(ctx, "product not updated", "product_id", id, "error", err)
			return nil, err
		}
		return nil, r.storageFailure(ctx, "update product", err)
	}
	return &updated, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Update(ctx, func(all []models.Product) ([]models.Product, error) {
		i := indexByID(all, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %s", common.ErrorNotFound, id)
		}
		return slices.Delete(all, i, i+1), nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "product not found", "product_id", id)
			return err
		}
		return r.storageFailure(ctx, "delete product", err)
	}

	r.logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}

func (r *FileRepository) storageFailure(ctx context.Context, op string, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "product storage failure", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func indexByID(all []models.Product, id string) int {
	return slices.IndexFunc(all, func(p models.Product) bool { return p.ID == id })
}

func indexByCode(all []models.Product, code string) int {
	return slices.IndexFunc(all, func(p models.Product) bool { return p.Code == code })
}
