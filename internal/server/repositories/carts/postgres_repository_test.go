package carts

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPostgresRepository(db, logging.Nop())
	repo.newID = func() string { return "c-1" }
	return repo, mock
}

func TestPostgres_Add(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO carts \(id, products\) VALUES \(\$1, \$2\)$`).
		WithArgs("c-1", "[]").
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := repo.Add(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Add_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO carts`).WillReturnError(errors.New("db down"))

	_, err := repo.Add(context.Background(), nil)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestPostgres_GetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT id, products FROM carts WHERE id = \$1$`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "products"}).
			AddRow("c-1", []byte(`[{"product":"p-1","quantity":2}]`)))
	mock.ExpectQuery(`^SELECT id, products FROM carts WHERE id = \$1$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	c, err := repo.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{Product: "p-1", Quantity: 2}}, c.Products)

	_, err = repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT id, products FROM carts ORDER BY seq$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "products"}).
			AddRow("c-1", []byte(`[]`)).
			AddRow("c-2", []byte(`null`)))

	all, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []models.CartItem{}, all[1].Products)
}

func TestPostgres_UpdateDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE carts SET products = \$2 WHERE id = \$1$`).
		WithArgs("c-1", `[{"product":"p-1","quantity":1}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE carts`).
		WithArgs("ghost", "[]").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE FROM carts WHERE id = \$1$`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Update(context.Background(), "c-1", []models.CartItem{{Product: "p-1", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)

	_, err = repo.Update(context.Background(), "ghost", nil)
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Modify(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT id, products FROM carts WHERE id = \$1 FOR UPDATE$`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "products"}).
			AddRow("c-1", []byte(`[{"product":"p-1","quantity":1}]`)))
	mock.ExpectExec(`^UPDATE carts SET products = \$2 WHERE id = \$1$`).
		WithArgs("c-1", `[{"product":"p-1","quantity":3}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Modify(context.Background(), "c-1", func(lines []models.CartItem) ([]models.CartItem, error) {
		lines[0].Quantity += 2
		return lines, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{Product: "p-1", Quantity: 3}}, got.Products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Modify_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE$`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "products"}).AddRow("c-1", []byte(`[]`)))
	mock.ExpectRollback()

	keep := func(lines []models.CartItem) ([]models.CartItem, error) { return lines, nil }
	_, err := repo.Modify(context.Background(), "ghost", keep)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.Modify(context.Background(), "c-1", func([]models.CartItem) ([]models.CartItem, error) {
		return nil, common.ErrorValidation
	})
	require.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}
