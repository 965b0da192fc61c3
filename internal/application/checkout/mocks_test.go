package checkout

import (
	"context"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/order"
	"github.com/stretchr/testify/mock"
)

// MockCatalogRepository is a mock implementation of catalog.Repository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByIDs(ctx context.Context, ids []string) ([]*catalog.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, id string) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalogRepository) List(ctx context.Context, filter catalog.Filter) ([]*catalog.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockCatalogRepository) Save(ctx context.Context, item *catalog.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockPaymentProcessor is a mock implementation of PaymentProcessor
type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) CreateCheckoutSession(ctx context.Context, params checkout.SessionParams) (*checkout.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

func (m *MockPaymentProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*order.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.SessionSnapshot), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event order.Event) error {
	return m.Called(ctx, event).Error(0)
}
