package catalog

import (
	"context"

	"github.com/medico/backend/internal/domain/catalog"
)

// CategoryService handles category-related operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// List returns all categories ordered by name
func (s *CategoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = CategoryResponse{ID: c.ID, Name: c.Name}
	}
	return out, nil
}

// Create adds a category; duplicate names are shared.ErrAlreadyExists
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		return nil, err
	}
	return &CategoryResponse{ID: category.ID, Name: category.Name}, nil
}
