package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/recordstore"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
)

// FileRepository keeps users in a JSON record store.
type FileRepository struct {
	store  *recordstore.Store[models.User]
	carts  CartProvisioner
	logger logging.Logger

	newID func() string
	now   func() time.Time
}

// NewFileRepository returns a FileRepository backed by store. New users get
// their carts from carts.
func NewFileRepository(store *recordstore.Store[models.User], carts CartProvisioner, logger logging.Logger) *FileRepository {
	return &FileRepository{
		store:  store,
		carts:  carts,
		logger: logger.With("repository", "users", "path", store.Path()),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

func (r *FileRepository) Get(ctx context.Context) ([]models.User, error) {
	users, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read users", err)
	}
	return users, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read users", err)
	}

	i := slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		r.logger.Error(ctx, "user not found", "user_id", id)
		return nil, fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
	}
	return &users[i], nil
}

func (r *FileRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.store.Load(ctx)
	if err != nil {
		return nil, r.storageFailure(ctx, "read users", err)
	}

	i := indexByEmail(users, email)
	if i < 0 {
		r.logger.Error(ctx, "user not found", "email", email)
		return nil, fmt.Errorf("%w: user with email %s", common.ErrorNotFound, email)
	}
	return &users[i], nil
}

func (r *FileRepository) Add(ctx context.Context, candidate Candidate) (*models.User, error) {
	v, err := candidate.Validate()
	if err != nil {
		r.logger.Error(ctx, "one or more fields have invalid data types", "error", err)
		return nil, err
	}

	var created models.User
	err = r.store.Update(ctx, func(users []models.User) ([]models.User, error) {
		if indexByEmail(users, v.Email) >= 0 {
			return nil, fmt.Errorf("%w: email %s", common.ErrorAlreadyExists, v.Email)
		}

		cartID, err := r.carts.Add(ctx, []models.CartItem{})
		if err != nil {
			return nil, fmt.Errorf("create cart: %w", err)
		}

		created = models.NewUser(r.newID(), cartID, v.Name, v.Lastname, v.Email, v.Age, v.Password, r.now())
		return append(users, created), nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			r.logger.Error(ctx, "email already registered", "email", v.Email)
			return nil, err
		}
		return nil, r.storageFailure(ctx, "create user", err)
	}

	r.logger.Info(ctx, "user added", "user_id", created.ID, "cart_id", created.Cart)
	return &created, nil
}

func (r *FileRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	return r.Modify(ctx, id, func(models.User) (models.UserPatch, error) { return patch, nil })
}

func (r *FileRepository) Modify(ctx context.Context, id string, fn func(models.User) (models.UserPatch, error)) (*models.User, error) {
	var (
		updated models.User
		fnErr   error
	)
	err := r.store.Update(ctx, func(users []models.User) ([]models.User, error) {
		i := slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
		}
		patch, err := fn(users[i])
		if err != nil {
			fnErr = err
			return nil, err
		}
		updated = users[i].Apply(patch)
		users[i] = updated
		return users, nil
	})
	if err != nil {
		if fnErr != nil {
			return nil, fnErr
		}
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "user not found", "user_id", id)
			return nil, err
		}
		return nil, r.storageFailure(ctx, "update user", err)
	}

	r.logger.Info(ctx, "user updated", "user_id", id)
	return &updated, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Update(ctx, func(users []models.User) ([]models.User, error) {
		i := slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
		}
		return slices.Delete(users, i, i+1), nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "user not found", "user_id", id)
			return err
		}
		return r.storageFailure(ctx, "delete user", err)
	}

	r.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// storageFailure logs err at fatal level and returns it wrapped. The
// returned error keeps any *recordstore.StorageError reachable via errors.As.
func (r *FileRepository) storageFailure(ctx context.Context, op string, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "user storage failure", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func indexByEmail(users []models.User, email string) int {
	return slices.IndexFunc(users, func(u models.User) bool { return u.Email == email })
}
