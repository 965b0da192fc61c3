package persistence

import (
	"context"
	"testing"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot(t *testing.T) {
	t.Run("numeric and string ids normalize", func(t *testing.T) {
		items, err := ParseSnapshot(`[{"id":1,"name":"A","price":149.99},{"id":"b","name":"B","price":"2"}]`)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "1", items[0].ID)
		assert.Equal(t, "b", items[1].ID)
		assert.True(t, items[0].Price.Equal(decimal.RequireFromString("149.99")))
	})

	t.Run("rejects", func(t *testing.T) {
		for name, raw := range map[string]string{
			"not json":       `{`,
			"missing id":     `[{"name":"A","price":1}]`,
			"duplicate id":   `[{"id":1,"name":"A","price":1},{"id":"1","name":"B","price":2}]`,
			"negative price": `[{"id":1,"name":"A","price":-1}]`,
			"missing name":   `[{"id":1,"price":1}]`,
		} {
			_, err := ParseSnapshot(raw)
			assert.Error(t, err, name)
		}
	})
}

func TestSnapshotCatalog_Default(t *testing.T) {
	c, err := NewSnapshotCatalog("  ")
	require.NoError(t, err)
	ctx := context.Background()

	items, err := c.FindByIDs(ctx, []string{"2", "9", "1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Ibuprofen", items[0].Name)
	assert.Equal(t, "Paracetamol", items[1].Name)

	all, err := c.List(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSnapshotCatalog_Mutations(t *testing.T) {
	c, err := NewSnapshotCatalog(`[{"id":1,"name":"A","price":10,"category":"Vitamins"}]`)
	require.NoError(t, err)
	ctx := context.Background()

	item, err := catalog.NewItem("2", "B", decimal.NewFromInt(20))
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, item))

	item.Name = "changed outside"
	stored, err := c.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Name)

	require.NoError(t, c.Delete(ctx, "1"))
	_, err = c.FindByID(ctx, "1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, "1"), shared.ErrNotFound)
}

func TestSnapshotCatalog_Categories(t *testing.T) {
	c, err := NewSnapshotCatalog(`[{"id":1,"name":"A","price":10,"category":"Vitamins"},{"id":2,"name":"B","price":1,"category":"vitamins"}]`)
	require.NoError(t, err)
	ctx := context.Background()

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	err = c.SaveCategory(ctx, &catalog.Category{Name: "VITAMINS"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	cat := &catalog.Category{Name: "First Aid"}
	require.NoError(t, c.SaveCategory(ctx, cat))
	assert.Equal(t, int64(2), cat.ID)
}
