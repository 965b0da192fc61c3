package catalog

import (
	"context"
	"io"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of catalog.Repository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []string) ([]*catalog.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter catalog.Filter) ([]*catalog.Item, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, item *catalog.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockCategoryRepository is a mock implementation of catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) SaveCategory(ctx context.Context, category *catalog.Category) error {
	return m.Called(ctx, category).Error(0)
}

// MockObjectStorage is a mock implementation of ObjectStorageService
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, storageKey, body, size, contentType).Error(0)
}

func (m *MockObjectStorage) PublicURL(storageKey string) string {
	return m.Called(storageKey).String(0)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	return m.Called(ctx, storageKey).Error(0)
}
