package catalog

import "context"

// Repository is the catalog store. Implementations return shared.ErrNotFound for unknown ids.
type Repository interface {
	// FindByIDs resolves ids to items, skipping unknown ones; order follows ids
	FindByIDs(ctx context.Context, ids []string) ([]*Item, error)
	FindByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, filter Filter) ([]*Item, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository lists and creates categories
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	SaveCategory(ctx context.Context, category *Category) error
}
