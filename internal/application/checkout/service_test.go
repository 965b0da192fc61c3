package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func item(id, name string, price float64) *catalog.Item {
	return &catalog.Item{ID: id, Name: name, Price: decimal.NewFromFloat(price)}
}

func testConfig() Config {
	return Config{
		Currency:   "inr",
		SuccessURL: "http://localhost:5173/success",
		CancelURL:  "http://localhost:5173/cancel",
	}
}

type fixture struct {
	repo      *MockCatalogRepository
	processor *MockPaymentProcessor
	events    *MockEventPublisher
	service   *Service
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		repo:      new(MockCatalogRepository),
		processor: new(MockPaymentProcessor),
		events:    new(MockEventPublisher),
		logs:      logs,
	}
	f.service = NewService(f.repo, f.processor, f.events, testConfig(), zap.New(core))
	metrics, err := telemetry.NewStorefrontMetrics(noop.NewMeterProvider().Meter("test"), zap.NewNop())
	require.NoError(t, err)
	f.service.SetBusinessMetrics(metrics)
	return f
}

func TestCreateSession_TwoItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := checkout.NewRequest([]string{"1", "2"}, "a@b.com")
	require.NoError(t, err)

	f.repo.On("FindByIDs", mock.Anything, []string{"1", "2"}).
		Return([]*catalog.Item{item("1", "Paracetamol", 50), item("2", "Ibuprofen", 75)}, nil)

	var captured checkout.SessionParams
	f.processor.On("CreateCheckoutSession", mock.Anything, mock.AnythingOfType("checkout.SessionParams")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(checkout.SessionParams) }).
		Return(&checkout.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e order.Event) bool {
		return e.Type == order.EventSessionCreated && e.SessionID == "cs_test_1"
	})).Return(nil)

	session, err := f.service.CreateSession(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)

	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, int64(5000), captured.LineItems[0].UnitAmount)
	assert.Equal(t, int64(7500), captured.LineItems[1].UnitAmount)
	for _, li := range captured.LineItems {
		assert.Equal(t, "inr", li.Currency)
		assert.Equal(t, int64(1), li.Quantity)
	}
	assert.Equal(t, "a@b.com", captured.CustomerEmail)
	assert.Equal(t, "payment", captured.Mode)
	assert.Equal(t, []string{"card"}, captured.PaymentMethodTypes)
	assert.Equal(t, `["1","2"]`, captured.Metadata[checkout.MetadataItemIDs])
	assert.Equal(t, "http://localhost:5173/success", captured.SuccessURL)
	assert.Equal(t, "http://localhost:5173/cancel", captured.CancelURL)

	f.processor.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
	f.events.AssertExpectations(t)
	assert.Equal(t, 1, f.logs.FilterMessage("Checkout session created").Len())
}

func TestCreateSession_PartialMatch(t *testing.T) {
	f := newFixture(t)
	req, err := checkout.NewRequest([]string{"1", "missing"}, "a@b.com")
	require.NoError(t, err)

	f.repo.On("FindByIDs", mock.Anything, []string{"1", "missing"}).
		Return([]*catalog.Item{item("1", "Paracetamol", 149.99)}, nil)
	f.processor.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p checkout.SessionParams) bool {
		return len(p.LineItems) == 1 && p.LineItems[0].UnitAmount == 14999
	})).Return(&checkout.Session{ID: "cs_2", URL: "https://pay/cs_2"}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	session, err := f.service.CreateSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cs_2", session.ID)
	f.processor.AssertExpectations(t)
}

func TestCreateSession_NoMatches(t *testing.T) {
	f := newFixture(t)
	req, err := checkout.NewRequest([]string{"404"}, "a@b.com")
	require.NoError(t, err)

	f.repo.On("FindByIDs", mock.Anything, []string{"404"}).Return([]*catalog.Item{}, nil)

	_, err = f.service.CreateSession(context.Background(), req)
	assert.ErrorIs(t, err, checkout.ErrItemsNotFound)
	f.processor.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateSession_CatalogFailure(t *testing.T) {
	f := newFixture(t)
	req, err := checkout.NewRequest([]string{"1"}, "a@b.com")
	require.NoError(t, err)

	dbErr := errors.New("connection refused")
	f.repo.On("FindByIDs", mock.Anything, []string{"1"}).Return(nil, dbErr)

	_, err = f.service.CreateSession(context.Background(), req)
	assert.ErrorIs(t, err, checkout.ErrProcessor)
	assert.ErrorIs(t, err, dbErr)
	f.processor.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateSession_ProcessorFailure(t *testing.T) {
	f := newFixture(t)
	req, err := checkout.NewRequest([]string{"1"}, "a@b.com")
	require.NoError(t, err)

	stripeErr := errors.New("invalid api key")
	f.repo.On("FindByIDs", mock.Anything, []string{"1"}).Return([]*catalog.Item{item("1", "Paracetamol", 50)}, nil)
	f.processor.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, stripeErr)

	_, err = f.service.CreateSession(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, checkout.ErrProcessor)
	assert.ErrorIs(t, err, stripeErr)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.logs.FilterMessage("Payment processor rejected checkout session").Len())
}

func TestCreateSession_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	req, err := checkout.NewRequest([]string{"1"}, "a@b.com")
	require.NoError(t, err)

	f.repo.On("FindByIDs", mock.Anything, []string{"1"}).Return([]*catalog.Item{item("1", "Paracetamol", 50)}, nil)
	f.processor.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&checkout.Session{ID: "cs_3", URL: "https://pay/cs_3"}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	session, err := f.service.CreateSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://pay/cs_3", session.URL)
	assert.Equal(t, 1, f.logs.FilterMessage("Failed to publish order event").Len())
}

func TestCreateSession_NilPublisher(t *testing.T) {
	repo := new(MockCatalogRepository)
	processor := new(MockPaymentProcessor)
	svc := NewService(repo, processor, nil, Config{}, nil)

	req, err := checkout.NewRequest([]string{"1"}, "a@b.com")
	require.NoError(t, err)
	repo.On("FindByIDs", mock.Anything, []string{"1"}).Return([]*catalog.Item{item("1", "Paracetamol", 50)}, nil)
	processor.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p checkout.SessionParams) bool {
		return p.LineItems[0].Currency == "inr"
	})).Return(&checkout.Session{ID: "cs_4", URL: "https://pay/cs_4"}, nil)

	_, err = svc.CreateSession(context.Background(), req)
	require.NoError(t, err)
	processor.AssertExpectations(t)
}

func TestTrack(t *testing.T) {
	f := newFixture(t)
	snapshot := &order.SessionSnapshot{
		ID:            "cs_paid",
		Status:        "complete",
		PaymentStatus: "paid",
		Email:         "a@b.com",
		Metadata:      map[string]string{checkout.MetadataItemIDs: `["1","gone"]`},
	}
	f.processor.On("GetCheckoutSession", mock.Anything, "cs_paid").Return(snapshot, nil)
	f.repo.On("FindByIDs", mock.Anything, []string{"1", "gone"}).
		Return([]*catalog.Item{item("1", "Paracetamol", 50)}, nil)

	tracking, err := f.service.Track(context.Background(), " cs_paid ")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, tracking.Status)
	require.Len(t, tracking.Items, 1)
	assert.Equal(t, "Paracetamol", tracking.Items[0].Name)
	assert.True(t, decimal.NewFromInt(50).Equal(tracking.Items[0].Price))
}

func TestTrack_NoMetadata(t *testing.T) {
	f := newFixture(t)
	f.processor.On("GetCheckoutSession", mock.Anything, "cs_open").
		Return(&order.SessionSnapshot{ID: "cs_open", Status: "open", PaymentStatus: "unpaid"}, nil)

	tracking, err := f.service.Track(context.Background(), "cs_open")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, tracking.Status)
	assert.Empty(t, tracking.Items)
	f.repo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestTrack_NotFound(t *testing.T) {
	f := newFixture(t)
	f.processor.On("GetCheckoutSession", mock.Anything, "cs_nope").Return(nil, order.ErrOrderNotFound)

	_, err := f.service.Track(context.Background(), "cs_nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.service.Track(context.Background(), "  ")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestTrack_ProcessorDown(t *testing.T) {
	f := newFixture(t)
	f.processor.On("GetCheckoutSession", mock.Anything, "cs_x").Return(nil, errors.New("timeout"))

	_, err := f.service.Track(context.Background(), "cs_x")
	assert.ErrorIs(t, err, ErrTrackingUnavailable)
}
