package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns maps listing sorts to ORDER BY clauses; id breaks ties
var sortColumns = map[catalog.Sort]string{
	catalog.SortPriceAsc:   "price ASC, id ASC",
	catalog.SortPriceDesc:  "price DESC, id ASC",
	catalog.SortRatingDesc: "rating DESC, id ASC",
	catalog.SortRatingAsc:  "rating ASC, id ASC",
}

// GormCatalogRepository implements catalog.Repository and catalog.CategoryRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindByIDs resolves ids in one query and returns matches in the order of ids
func (r *GormCatalogRepository) FindByIDs(ctx context.Context, ids []string) ([]*catalog.Item, error) {
	if len(ids) == 0 {
		return []*catalog.Item{}, nil
	}

	var found []*catalog.Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	index := catalog.NewIndex(found)
	items := make([]*catalog.Item, 0, len(found))
	for _, id := range ids {
		if item, ok := index.Lookup(id); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// FindByID finds an item by its ID
func (r *GormCatalogRepository) FindByID(ctx context.Context, id string) (*catalog.Item, error) {
	var item catalog.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// List returns items matching filter, sorted as requested
func (r *GormCatalogRepository) List(ctx context.Context, filter catalog.Filter) ([]*catalog.Item, error) {
	var items []*catalog.Item
	query := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Item{}), filter)
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save inserts or updates an item
func (r *GormCatalogRepository) Save(ctx context.Context, item *catalog.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes an item by ID
func (r *GormCatalogRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Item{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListCategories returns every category ordered by name
func (r *GormCatalogRepository) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	var categories []*catalog.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// SaveCategory creates a category; names are unique
func (r *GormCatalogRepository) SaveCategory(ctx context.Context, category *catalog.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("Category already exists")
		}
		return err
	}
	return nil
}

// applyFilter pushes the listing filter into SQL. Values inside one
// dimension are OR-combined, dimensions are AND-combined.
func (r *GormCatalogRepository) applyFilter(query *gorm.DB, filter catalog.Filter) *gorm.DB {
	if len(filter.Categories) > 0 {
		lowered := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			lowered[i] = strings.ToLower(c)
		}
		query = query.Where("LOWER(category) IN ?", lowered)
	}

	if len(filter.PriceBands) > 0 {
		bands := r.db.Session(&gorm.Session{NewDB: true})
		for i, band := range filter.PriceBands {
			lower, upper, hasMax := band.Bounds()
			cond := r.db.Session(&gorm.Session{NewDB: true}).Where("price >= ?", lower)
			if hasMax {
				cond = cond.Where("price < ?", upper)
			}
			if i == 0 {
				bands = bands.Where(cond)
			} else {
				bands = bands.Or(cond)
			}
		}
		query = query.Where(bands)
	}

	if threshold := filter.MinRating(); threshold > 0 {
		query = query.Where("rating >= ?", threshold)
	}

	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	order, ok := sortColumns[filter.Sort]
	if !ok {
		order = sortColumns[catalog.SortPriceAsc]
	}
	return query.Order(order)
}
