package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
)

const selectUserColumns = `SELECT id, name, lastname, email, age, cart, password, role, documents, last_connection
		 FROM users`

// PostgresRepository keeps users in PostgreSQL. Rows are ordered by their
// insertion sequence so Get matches the file-backed ordering.
type PostgresRepository struct {
	db       dbx.DB
	cartsFor func(dbx.DBTX) CartProvisioner
	logger   logging.Logger

	newID func() string
	now   func() time.Time
}

// NewPostgresRepository returns a PostgresRepository. cartsFor binds a cart
// repository to the transaction that creates the user.
func NewPostgresRepository(db dbx.DB, cartsFor func(dbx.DBTX) CartProvisioner, logger logging.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:       db,
		cartsFor: cartsFor,
		logger:   logger.With("repository", "users"),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

func (r *PostgresRepository) Get(ctx context.Context) ([]models.User, error) {
	query := selectUserColumns + `
		 ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, r.dbFailure(ctx, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, r.dbFailure(ctx, err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbFailure(ctx, err)
	}

	return users, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := selectUserColumns + `
		 WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Error(ctx, "user not found", "user_id", id)
			return nil, fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
		}
		return nil, r.dbFailure(ctx, err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := selectUserColumns + `
		 WHERE email = $1
		 ORDER BY seq
		 LIMIT 1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Error(ctx, "user not found", "email", email)
			return nil, fmt.Errorf("%w: user with email %s", common.ErrorNotFound, email)
		}
		return nil, r.dbFailure(ctx, err)
	}
	return u, nil
}

func (r *PostgresRepository) Add(ctx context.Context, candidate Candidate) (*models.User, error) {
	v, err := candidate.Validate()
	if err != nil {
		r.logger.Error(ctx, "one or more fields have invalid data types", "error", err)
		return nil, err
	}

	var created models.User
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// Serializes concurrent creations so the email check below holds.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, v.Email).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: email %s", common.ErrorAlreadyExists, v.Email)
		}

		cartID, err := r.cartsFor(tx).Add(ctx, []models.CartItem{})
		if err != nil {
			return fmt.Errorf("create cart: %w", err)
		}

		created = models.NewUser(r.newID(), cartID, v.Name, v.Lastname, v.Email, v.Age, v.Password, r.now())
		docs, err := json.Marshal(created.Documents)
		if err != nil {
			return err
		}

		query :=
			`INSERT INTO users (id, name, lastname, email, age, cart, password, role, documents, last_connection)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		_, err = tx.ExecContext(ctx, query,
			created.ID, created.Name, created.Lastname, created.Email, created.Age,
			created.Cart, created.Password, string(created.Role), string(docs), created.LastConnection)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			r.logger.Error(ctx, "email already registered", "email", v.Email)
			return nil, err
		}
		return nil, r.dbFailure(ctx, err)
	}

	r.logger.Info(ctx, "user added", "user_id", created.ID, "cart_id", created.Cart)
	return &created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	return r.Modify(ctx, id, func(models.User) (models.UserPatch, error) { return patch, nil })
}

// Modify locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (r *PostgresRepository) Modify(ctx context.Context, id string, fn func(models.User) (models.UserPatch, error)) (*models.User, error) {
	var (
		updated models.User
		fnErr   error
	)
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := selectUserColumns + `
		 WHERE id = $1
		 FOR UPDATE`

		current, err := scanUser(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
			}
			return err
		}

		patch, err := fn(*current)
		if err != nil {
			fnErr = err
			return err
		}

		updated = current.Apply(patch)
		docs, err := json.Marshal(updated.Documents)
		if err != nil {
			return err
		}

		query =
			`UPDATE users
			 SET name = $2, lastname = $3, email = $4, age = $5, password = $6,
			     role = $7, documents = $8, last_connection = $9
			 WHERE id = $1`

		_, err = tx.ExecContext(ctx, query,
			updated.ID, updated.Name, updated.Lastname, updated.Email, updated.Age,
			updated.Password, string(updated.Role), string(docs), updated.LastConnection)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if fnErr != nil {
			return nil, fnErr
		}
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Error(ctx, "user not found", "user_id", id)
			return nil, err
		}
		return nil, r.dbFailure(ctx, err)
	}

	r.logger.Info(ctx, "user updated", "user_id", id)
	return &updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return r.dbFailure(ctx, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return r.dbFailure(ctx, err)
	}
	if n == 0 {
		r.logger.Error(ctx, "user not found", "user_id", id)
		return fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
	}

	r.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

func (r *PostgresRepository) dbFailure(ctx context.Context, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Fatal(ctx, "user storage failure", "error", err)
	}
	return fmt.Errorf("db error: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u    models.User
		role string
		docs []byte
	)
	err := row.Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.Age, &u.Cart,
		&u.Password, &role, &docs, &u.LastConnection)
	if err != nil {
		return nil, err
	}

	u.Role = models.Role(role)
	u.Documents = []models.Document{}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &u.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
	}
	return &u, nil
}
