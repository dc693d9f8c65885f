package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/ws"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 6, 10, 14, 30, 0, 0, time.Local)

func newTestSaleService(store *memStore, repo *mockSaleRepo, pub *recordingPublisher) *saleService {
	svc := NewSaleService(store, repo, pub, noop.NewTracerProvider().Tracer("test")).(*saleService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func item(productID, quantity, price interface{}) SaleItemInput {
	return SaleItemInput{ProductID: productID, Quantity: quantity, Price: price}
}

func saleReq(customerID interface{}, items ...SaleItemInput) *CreateSaleRequest {
	return &CreateSaleRequest{Sale: SaleInput{CustomerID: customerID}, Items: items}
}

func TestCreateSaleDecrementsStockAndFlagsLowStock(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(10, "Legging Power", 5, 5)
	pub := &recordingPublisher{}
	svc := newTestSaleService(store, &mockSaleRepo{}, pub)

	sale, err := svc.CreateSale(context.Background(), saleReq(float64(1), item(float64(10), float64(3), 10.00)), "ana")
	require.NoError(t, err)

	assert.Equal(t, "30.00", sale.Total.StringFixed(2))
	assert.Equal(t, model.SaleStatusPending, sale.Status)
	assert.Equal(t, fixedNow, sale.Date)
	assert.Equal(t, "ana", sale.CreatedBy)
	assert.Empty(t, sale.Items)
	assert.Equal(t, 2, store.stock(10))
	assert.Equal(t, 1, store.itemCount())
	assert.Equal(t, []string{ws.EventSaleCreated, ws.EventLowStock}, pub.types())
}

func TestCreateSaleRecomputesTotal(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 10, 1)
	store.addProduct(2, "Shorts", 10, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	req := saleReq(1, item(1, 3, "19.99"), item(2, 2, 7.5))
	req.Sale.Total = 1

	sale, err := svc.CreateSale(context.Background(), req, "ana")
	require.NoError(t, err)
	assert.Equal(t, "74.97", sale.Total.StringFixed(2))
	assert.Equal(t, 7, store.stock(1))
	assert.Equal(t, 8, store.stock(2))
}

func TestCreateSaleTotalMatchesLineAmounts(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Meia", 20, 1)
	store.addProduct(2, "Faixa", 20, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	sale, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 3, 0.33), item(2, 7, "1.10")), "ana")
	require.NoError(t, err)

	lines := decimal.NewFromFloat(0.33).Mul(decimal.NewFromInt(3)).
		Add(decimal.RequireFromString("1.10").Mul(decimal.NewFromInt(7)))
	assert.True(t, lines.Round(2).Equal(sale.Total), "total %s", sale.Total)
	assert.Equal(t, "8.69", sale.Total.StringFixed(2))
}

func TestCreateSaleAcceptsNumericStrings(t *testing.T) {
	store := newMemStore()
	store.customers[4] = true
	store.addProduct(7, "Cap", 3, 0)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	req := saleReq("4", item("7", "2", "10.50"))
	req.Sale.Status = "completed"
	req.Sale.Date = "2024-03-15"

	sale, err := svc.CreateSale(context.Background(), req, "ana")
	require.NoError(t, err)
	assert.Equal(t, "21.00", sale.Total.StringFixed(2))
	assert.Equal(t, model.SaleStatusCompleted, sale.Status)
	assert.True(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local).Equal(sale.Date))
	assert.Equal(t, 1, store.stock(7))
}

func TestCreateSaleUnparseableDateFallsBackToNow(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 10, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	req := saleReq(1, item(1, 1, 5))
	req.Sale.Date = "not a date"

	sale, err := svc.CreateSale(context.Background(), req, "ana")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, sale.Date)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(20, "Tênis Run", 2, 1)
	pub := &recordingPublisher{}
	svc := newTestSaleService(store, &mockSaleRepo{}, pub)

	_, err := svc.CreateSale(context.Background(), saleReq(1, item(20, 5, 99.9)), "ana")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Tênis Run", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Contains(t, err.Error(), "Available: 2, Requested: 5")
	assert.Equal(t, 2, store.stock(20))
	assert.Equal(t, 0, store.saleCount())
	assert.Empty(t, pub.types())
	assert.Equal(t, 0, store.commits)
}

func TestCreateSaleLaterItemFailureLeavesEarlierItemsUntouched(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 10, 1)
	store.addProduct(2, "Shorts", 1, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	_, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 4, 10), item(2, 3, 10)), "ana")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, uint(2), stockErr.ProductID)
	assert.Equal(t, 10, store.stock(1))
	assert.Equal(t, 1, store.stock(2))
	assert.Equal(t, 0, store.saleCount())
	assert.Equal(t, 0, store.itemCount())
}

func TestCreateSaleSumsRepeatedProduct(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 5, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	_, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 3, 10), item(1, 3, 10)), "ana")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, store.stock(1))

	sale, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 2, 10), item(1, 3, 10)), "ana")
	require.NoError(t, err)
	assert.Equal(t, "50.00", sale.Total.StringFixed(2))
	assert.Equal(t, 0, store.stock(1))
	assert.Equal(t, 2, store.itemCount())
}

func TestCreateSaleValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *CreateSaleRequest
		message string
	}{
		{"missing customer", saleReq(nil, item(1, 1, 10)), "Customer ID is required"},
		{"zero customer", saleReq(0, item(1, 1, 10)), "Customer ID is required"},
		{"text customer", saleReq("abc", item(1, 1, 10)), "Customer ID is required"},
		{"fractional customer", saleReq(1.5, item(1, 1, 10)), "Customer ID is required"},
		{"empty items", saleReq(1), "at least one item"},
		{"bad product id", saleReq(1, item(-1, 1, 10)), "Item 1: product ID"},
		{"zero quantity", saleReq(1, item(1, 0, 10)), "Item 1: quantity"},
		{"fractional quantity", saleReq(1, item(1, 1, 10), item(1, 2.5, 10)), "Item 2: quantity"},
		{"zero price", saleReq(1, item(1, 1, 0)), "Item 1: price"},
		{"negative price", saleReq(1, item(1, 1, "-3")), "Item 1: price"},
		{"text price", saleReq(1, item(1, 1, "x")), "Item 1: price"},
		{"sub-cent price", saleReq(1, item(1, 1, 0.001)), "Item 1: price"},
		{"fraction of a cent price", saleReq(1, item(1, 3, 0.335)), "at most 2 decimal places"},
		{"fraction of a cent price string", saleReq(1, item(1, 1, "19.999")), "Item 1: price"},
		{"boolean customer", saleReq(true, item(1, 1, 10)), "Customer ID is required"},
		{"boolean product id", saleReq(1, item(true, 1, 10)), "Item 1: product ID"},
		{"boolean quantity", saleReq(1, item(1, true, 10)), "Item 1: quantity"},
		{"object quantity", saleReq(1, item(1, map[string]interface{}{"n": 1}, 10)), "Item 1: quantity"},
		{"unknown status", &CreateSaleRequest{Sale: SaleInput{CustomerID: 1, Status: "shipped"}, Items: []SaleItemInput{item(1, 1, 10)}}, "Status must be one of"},
		{"unknown product", saleReq(1, item(99, 1, 10)), "product 99 does not exist"},
		{"unknown customer", saleReq(42, item(1, 1, 10)), "Customer 42 does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.customers[1] = true
			store.addProduct(1, "Top", 10, 1)
			svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

			_, err := svc.CreateSale(context.Background(), tt.req, "ana")

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Message, tt.message)
			assert.Equal(t, 10, store.stock(1))
			assert.Equal(t, 0, store.saleCount())
			assert.Equal(t, 0, store.commits)
		})
	}
}

func TestCreateSaleEmptyItemsNeverOpensTransaction(t *testing.T) {
	store := newMemStore()
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	_, err := svc.CreateSale(context.Background(), saleReq(1), "ana")
	require.Error(t, err)
	assert.Equal(t, 0, store.begins)
}

func TestCreateSaleRollsBackOnStoreFailure(t *testing.T) {
	for _, op := range []string{"CreateSale", "CreateSaleItems", "AdjustStock"} {
		t.Run(op, func(t *testing.T) {
			store := newMemStore()
			store.customers[1] = true
			store.addProduct(1, "Top", 10, 1)
			store.failOn = op
			pub := &recordingPublisher{}
			svc := newTestSaleService(store, &mockSaleRepo{}, pub)

			_, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 2, 10)), "ana")

			require.ErrorIs(t, err, errInjected)
			var vErr *ValidationError
			assert.False(t, errors.As(err, &vErr))
			assert.Equal(t, 10, store.stock(1))
			assert.Equal(t, 0, store.saleCount())
			assert.Equal(t, 0, store.itemCount())
			assert.Equal(t, 1, store.rollbacks)
			assert.Empty(t, pub.types())
		})
	}
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(3, "C", 10, 1)
	store.addProduct(4, "D", 10, 1)
	pub := &recordingPublisher{}
	svc := newTestSaleService(store, &mockSaleRepo{}, pub)

	sale, err := svc.CreateSale(context.Background(), saleReq(1, item(3, 2, 10), item(4, 1, 20)), "ana")
	require.NoError(t, err)
	require.Equal(t, 8, store.stock(3))
	require.Equal(t, 9, store.stock(4))

	require.NoError(t, svc.DeleteSale(context.Background(), sale.ID, "ana"))

	assert.Equal(t, 10, store.stock(3))
	assert.Equal(t, 10, store.stock(4))
	assert.Equal(t, 0, store.saleCount())
	assert.Equal(t, 0, store.itemCount())
	assert.Contains(t, pub.types(), ws.EventSaleDeleted)
}

func TestDeleteSaleSkipsMissingProduct(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(3, "C", 10, 1)
	store.addProduct(4, "D", 10, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	sale, err := svc.CreateSale(context.Background(), saleReq(1, item(3, 2, 10), item(4, 1, 20)), "ana")
	require.NoError(t, err)
	delete(store.products, 4)

	require.NoError(t, svc.DeleteSale(context.Background(), sale.ID, "ana"))
	assert.Equal(t, 10, store.stock(3))
	assert.Equal(t, 0, store.saleCount())
	assert.Equal(t, 0, store.itemCount())
}

func TestDeleteSaleNotFound(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Top", 10, 1)
	pub := &recordingPublisher{}
	svc := newTestSaleService(store, &mockSaleRepo{}, pub)

	err := svc.DeleteSale(context.Background(), 77, "ana")
	assert.ErrorIs(t, err, ErrSaleNotFound)
	assert.Equal(t, 10, store.stock(1))
	assert.Empty(t, pub.types())
}

func TestDeleteSaleRollsBackOnStoreFailure(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 10, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	sale, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 4, 10)), "ana")
	require.NoError(t, err)

	store.failOn = "DeleteSale"
	err = svc.DeleteSale(context.Background(), sale.ID, "ana")
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 6, store.stock(1))
	assert.Equal(t, 1, store.saleCount())
	assert.Equal(t, 1, store.itemCount())
}

func TestCreateThenDeleteLeavesStockUnchanged(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 7, 1)
	store.addProduct(2, "Shorts", 3, 1)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	sale, err := svc.CreateSale(context.Background(), saleReq(1, item(2, 3, 10), item(1, 1, 10), item(1, 2, 10)), "ana")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSale(context.Background(), sale.ID, "ana"))

	assert.Equal(t, 7, store.stock(1))
	assert.Equal(t, 3, store.stock(2))
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	store := newMemStore()
	store.customers[1] = true
	store.addProduct(1, "Top", 5, 0)
	svc := newTestSaleService(store, &mockSaleRepo{}, &recordingPublisher{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateSale(context.Background(), saleReq(1, item(1, 1, 10)), "ana"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, store.stock(1))
	assert.Equal(t, 5, store.saleCount())
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		repo := &mockSaleRepo{}
		svc := newTestSaleService(newMemStore(), repo, &recordingPublisher{})

		_, err := svc.UpdateStatus(ctx, 1, "refunded", "ana")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown sale", func(t *testing.T) {
		repo := &mockSaleRepo{}
		repo.On("UpdateStatus", mock.Anything, uint(9), model.SaleStatusCompleted).Return(gorm.ErrRecordNotFound)
		svc := newTestSaleService(newMemStore(), repo, &recordingPublisher{})

		_, err := svc.UpdateStatus(ctx, 9, "completed", "ana")
		assert.ErrorIs(t, err, ErrSaleNotFound)
	})

	t.Run("updated", func(t *testing.T) {
		repo := &mockSaleRepo{}
		updated := &model.Sale{ID: 3, Status: model.SaleStatusCancelled}
		repo.On("UpdateStatus", mock.Anything, uint(3), model.SaleStatusCancelled).Return(nil)
		repo.On("FindByID", mock.Anything, uint(3)).Return(updated, nil)
		pub := &recordingPublisher{}
		store := newMemStore()
		svc := newTestSaleService(store, repo, pub)

		sale, err := svc.UpdateStatus(ctx, 3, "cancelled", "ana")
		require.NoError(t, err)
		assert.Equal(t, updated, sale)
		assert.Equal(t, []string{ws.EventSaleUpdated}, pub.types())
		assert.Equal(t, 0, store.begins)
		repo.AssertExpectations(t)
	})
}

func TestSaleSpansCarrySaleID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	repo := &mockSaleRepo{}
	repo.On("UpdateStatus", mock.Anything, uint(3), model.SaleStatusCompleted).Return(nil)
	repo.On("FindByID", mock.Anything, uint(3)).Return(&model.Sale{ID: 3, Status: model.SaleStatusCompleted}, nil)
	svc := newTestSaleService(newMemStore(), repo, &recordingPublisher{})
	svc.tracer = tp.Tracer("test")

	_, err := svc.UpdateStatus(context.Background(), 3, "completed", "ana")
	require.NoError(t, err)

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() != "SaleService.UpdateStatus" {
			continue
		}
		found = true
		assert.Contains(t, span.Attributes(), attribute.Int64("sale.id", 3))
		assert.Contains(t, span.Attributes(), attribute.String("sale.status", "completed"))
	}
	assert.True(t, found)
}

func TestGetByIDMapsNotFound(t *testing.T) {
	repo := &mockSaleRepo{}
	repo.On("FindByID", mock.Anything, uint(5)).Return(nil, gorm.ErrRecordNotFound)
	svc := newTestSaleService(newMemStore(), repo, &recordingPublisher{})

	_, err := svc.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestGetByDateRange(t *testing.T) {
	repo := &mockSaleRepo{}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)
	sameTime := func(want time.Time) interface{} {
		return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
	}
	repo.On("FindByDateRange", mock.Anything, sameTime(from), sameTime(to)).Return([]model.Sale{{ID: 1}}, nil)
	svc := newTestSaleService(newMemStore(), repo, &recordingPublisher{})

	sales, err := svc.GetByDateRange(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	_, err = svc.GetByDateRange(context.Background(), "2024-02-01", "2024-01-01")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
