package carts

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/recordstore"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileRepo(t *testing.T) *FileRepository {
	t.Helper()
	store, err := recordstore.Open[models.Cart](filepath.Join(t.TempDir(), "carts.json"))
	require.NoError(t, err)

	repo := NewFileRepository(store, logging.Nop())
	n := 0
	repo.newID = func() string {
		n++
		return fmt.Sprintf("c-%d", n)
	}
	return repo
}

func TestFileRepository_AddGet(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, []models.CartItem{})
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)

	c, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Cart{ID: "c-1", Products: []models.CartItem{}}, *c)

	_, err = repo.Add(ctx, []models.CartItem{{Product: "p-1", Quantity: 2}})
	require.NoError(t, err)

	all, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []models.CartItem{{Product: "p-1", Quantity: 2}}, all[1].Products)
}

func TestFileRepository_Update(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, nil)
	require.NoError(t, err)

	lines := []models.CartItem{{Product: "p-1", Quantity: 1}, {Product: "p-2", Quantity: 3}}
	got, err := repo.Update(ctx, id, lines)
	require.NoError(t, err)
	assert.Equal(t, lines, got.Products)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, lines, stored.Products)

	_, err = repo.Update(ctx, "missing", lines)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFileRepository_Delete(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	require.ErrorIs(t, repo.Delete(ctx, id), common.ErrorNotFound)

	_, err = repo.GetByID(ctx, id)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFileRepository_Modify_Concurrent(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, nil)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Modify(ctx, id, func(lines []models.CartItem) ([]models.CartItem, error) {
				return append(lines, models.CartItem{Product: fmt.Sprintf("p-%d", i), Quantity: 1}), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, c.Products, n)
}
