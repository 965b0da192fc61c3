package integration

import (
	"context"
	"os"
	"testing"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func saveItem(t *testing.T, repo *persistence.GormCatalogRepository, id, name, category, price string, rating float64) {
	t.Helper()
	item, err := catalog.NewItem(id, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	item.Category = category
	require.NoError(t, item.Rate(rating))
	require.NoError(t, repo.Save(context.Background(), item))
}

func TestCatalogRepository_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormCatalogRepository(tdb.DB)
	ctx := context.Background()

	saveItem(t, repo, "1", "Paracetamol", "Pain Relief", "50", 4.5)
	saveItem(t, repo, "2", "Ibuprofen", "Pain Relief", "75", 3.8)
	saveItem(t, repo, "3", "Amoxicillin", "Antibiotics", "150", 4.1)
	saveItem(t, repo, "4", "Vitamin C", "Vitamins & Supplements", "25", 2.5)

	t.Run("FindByIDs keeps request order and skips unknown ids", func(t *testing.T) {
		items, err := repo.FindByIDs(ctx, []string{"3", "99", "1"})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "3", items[0].ID)
		assert.Equal(t, "1", items[1].ID)
	})

	t.Run("prices round trip as decimals", func(t *testing.T) {
		item, err := repo.FindByID(ctx, "2")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(75).Equal(item.Price))
	})

	t.Run("filter dimensions combine", func(t *testing.T) {
		items, err := repo.List(ctx, catalog.Filter{
			Categories: []string{"pain relief", "Antibiotics"},
			PriceBands: []catalog.PriceBand{catalog.Price50To100, catalog.PriceOver100},
			MinRatings: []int{4},
		})
		require.NoError(t, err)
		var ids []string
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		assert.ElementsMatch(t, []string{"1", "3"}, ids)
	})

	t.Run("price bands are half open", func(t *testing.T) {
		items, err := repo.List(ctx, catalog.Filter{PriceBands: []catalog.PriceBand{catalog.PriceUnder25}})
		require.NoError(t, err)
		assert.Empty(t, items, "25 belongs to the next band")
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		items, err := repo.List(ctx, catalog.Filter{Search: "VITAMIN"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "4", items[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "4"))
		_, err := repo.FindByID(ctx, "4")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "4"), shared.ErrNotFound)
	})
}

func TestCategoryRepository_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormCatalogRepository(tdb.DB)
	ctx := context.Background()

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Subset(t, names, catalog.DefaultCategories, "seeded by migration")

	dup, err := catalog.NewCategory("First Aid")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.SaveCategory(ctx, dup), shared.ErrAlreadyExists)
}

func TestAccountRepository_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormAccountRepository(tdb.DB)
	ctx := context.Background()

	vendor, err := identity.NewAccount(identity.RoleVendor, "Shop@Example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, vendor))

	// the same email may exist once per role table
	consumer, err := identity.NewAccount(identity.RoleConsumer, "shop@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, consumer))

	again, err := identity.NewAccount(identity.RoleVendor, "shop@example.com", "other-pass")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, again), identity.ErrEmailTaken)

	found, err := repo.FindByEmail(ctx, identity.RoleVendor, "SHOP@example.com")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, found.ID)
	assert.True(t, found.VerifyPassword("secret123"))

	_, err = repo.FindByID(ctx, identity.RoleConsumer, vendor.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
