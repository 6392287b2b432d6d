package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "name", "lastname", "email", "age", "cart", "password", "role", "documents", "last_connection"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *fakeCarts) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	carts := &fakeCarts{}
	repo := NewPostgresRepository(db, func(dbx.DBTX) CartProvisioner { return carts }, logging.Nop())
	repo.newID = func() string { return "u-1" }
	repo.now = func() time.Time { return fixedNow }
	return repo, mock, carts
}

func TestPostgres_Get(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "Ana", "Li", "a@x.com", 30, "c-1", "h", "USER", []byte(`[]`), int64(1)).
		AddRow("u-2", "Bo", "Ng", "b@x.com", 40, "c-2", "h", "PREMIUM", []byte(`[{"name":"identification","reference":"k"}]`), int64(2))
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+ORDER\s+BY\s+seq$`).WillReturnRows(rows)

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-1", got[0].ID)
	assert.Equal(t, []models.Document{}, got[0].Documents)
	assert.Equal(t, models.RolePremium, got[1].Role)
	assert.Equal(t, []models.Document{{Name: "identification", Reference: "k"}}, got[1].Documents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByID_NotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByEmail(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "Ana", "Li", "a@x.com", 30, "c-1", "h", "USER", []byte(`[]`), int64(1))
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+email\s*=\s*\$1\s+ORDER\s+BY\s+seq\s+LIMIT\s+1$`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByEmail_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+email`).
		WithArgs("a@x.com").
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestPostgres_Add(t *testing.T) {
	repo, mock, carts := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT EXISTS \(SELECT 1 FROM users WHERE email = \$1\)$`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(id,.*VALUES\s*\(\$1,.*\$10\)$`).
		WithArgs("u-1", "Ana", "Li", "a@x.com", 30, "cart-1", "h", "USER", "[]", fixedNow.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	u, err := repo.Add(context.Background(), validCandidate())
	require.NoError(t, err)
	assert.Equal(t, "cart-1", u.Cart)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, 1, carts.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Add_DuplicateEmail(t *testing.T) {
	repo, mock, carts := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^LOCK TABLE users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT EXISTS`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), validCandidate())
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Zero(t, carts.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Add_InvalidCandidate(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	c := validCandidate()
	c.Email = 5
	_, err := repo.Add(context.Background(), c)
	require.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "Ana", "Li", "a@x.com", 30, "c-1", "h", "USER", []byte(`[]`), int64(1)))
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET.*WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1", "Ana", "Li", "a@x.com", 30, "h", "PREMIUM", "[]", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	premium := models.RolePremium
	got, err := repo.Update(context.Background(), "u-1", models.UserPatch{Role: &premium})
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, got.Role)
	assert.Equal(t, "c-1", got.Cart)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update_NotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FOR\s+UPDATE$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "ghost", models.UserPatch{})
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Modify_CallbackErrorRollsBack(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FOR\s+UPDATE$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "Ana", "Li", "a@x.com", 30, "c-1", "h", "USER", []byte(`[]`), int64(1)))
	mock.ExpectRollback()

	_, err := repo.Modify(context.Background(), "u-1", func(u models.User) (models.UserPatch, error) {
		assert.Equal(t, "a@x.com", u.Email)
		return models.UserPatch{}, common.ErrorValidation
	})
	require.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	require.ErrorIs(t, repo.Delete(context.Background(), "u-1"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
