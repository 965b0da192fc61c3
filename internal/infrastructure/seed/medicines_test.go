package seed

import (
	"context"
	"testing"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Medicine(t *testing.T) {
	g := NewGenerator(42, nil)
	for i := 0; i < 50; i++ {
		item, err := g.Medicine()
		require.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.NotEmpty(t, item.Name)
		assert.Contains(t, catalog.DefaultCategories, item.Category)
		assert.Contains(t, drugTypes, item.DrugType)
		assert.True(t, item.Price.IsPositive(), item.Price.String())
		assert.GreaterOrEqual(t, item.Rating, 0.0)
		assert.LessOrEqual(t, item.Rating, 5.0)
		assert.GreaterOrEqual(t, item.StockQuantity, 0)
	}
}

func TestGenerator_SameSeedSameNames(t *testing.T) {
	a, b := NewGenerator(7, nil), NewGenerator(7, nil)
	for i := 0; i < 10; i++ {
		x, err := a.Medicine()
		require.NoError(t, err)
		y, err := b.Medicine()
		require.NoError(t, err)
		assert.Equal(t, x.Name, y.Name)
		assert.True(t, x.Price.Equal(y.Price))
		assert.NotEqual(t, x.ID, y.ID, "ids stay unique across runs")
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store, err := persistence.NewSnapshotCatalog(`[]`)
	require.NoError(t, err)
	g := NewGenerator(1, []string{"Pain Relief", "First Aid"})

	res, err := Seed(ctx, store, store, g, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: 2, Medicines: 5}, res)

	items, err := store.List(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, items, 5)

	// categories already present are skipped on a second run
	res, err = Seed(ctx, store, store, g, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: 0, Medicines: 1}, res)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}
