package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/internal/ws"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// memStore is an in-memory SaleTxManager. A transaction holds the store lock from
// Begin until Commit or Rollback and works on a copy that only Commit publishes.
type memStore struct {
	lock sync.Mutex

	products  map[uint]model.Product
	customers map[uint]bool
	sales     map[uint]model.Sale
	items     map[uint]model.SaleItem
	nextSale  uint
	nextItem  uint

	failOn    string
	begins    int
	commits   int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[uint]model.Product),
		customers: make(map[uint]bool),
		sales:     make(map[uint]model.Sale),
		items:     make(map[uint]model.SaleItem),
	}
}

func (m *memStore) addProduct(id uint, name string, stock, minStock int) {
	p := model.Product{Name: name, Stock: stock, MinStock: minStock}
	p.ID = id
	m.products[id] = p
}

func (m *memStore) stock(id uint) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.products[id].Stock
}

func (m *memStore) saleCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.sales)
}

func (m *memStore) itemCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.items)
}

func (m *memStore) Begin(_ context.Context) (repository.SaleTx, error) {
	m.lock.Lock()
	m.begins++
	tx := &memTx{
		store:    m,
		products: make(map[uint]model.Product, len(m.products)),
		sales:    make(map[uint]model.Sale, len(m.sales)),
		items:    make(map[uint]model.SaleItem, len(m.items)),
		nextSale: m.nextSale,
		nextItem: m.nextItem,
	}
	for k, v := range m.products {
		tx.products[k] = v
	}
	for k, v := range m.sales {
		tx.sales[k] = v
	}
	for k, v := range m.items {
		tx.items[k] = v
	}
	return tx, nil
}

type memTx struct {
	store    *memStore
	products map[uint]model.Product
	sales    map[uint]model.Sale
	items    map[uint]model.SaleItem
	nextSale uint
	nextItem uint
	done     bool
}

var errInjected = errors.New("injected store failure")

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memTx) LockProducts(ids []uint) (map[uint]*model.Product, error) {
	if err := t.fail("LockProducts"); err != nil {
		return nil, err
	}
	out := make(map[uint]*model.Product)
	for _, id := range ids {
		if p, ok := t.products[id]; ok {
			cp := p
			out[id] = &cp
		}
	}
	return out, nil
}

func (t *memTx) CustomerExists(id uint) (bool, error) {
	return t.store.customers[id], nil
}

func (t *memTx) CreateSale(sale *model.Sale) error {
	if err := t.fail("CreateSale"); err != nil {
		return err
	}
	t.nextSale++
	sale.ID = t.nextSale
	t.sales[sale.ID] = *sale
	return nil
}

func (t *memTx) CreateSaleItems(items []model.SaleItem) error {
	if err := t.fail("CreateSaleItems"); err != nil {
		return err
	}
	for i := range items {
		t.nextItem++
		items[i].ID = t.nextItem
		t.items[items[i].ID] = items[i]
	}
	return nil
}

func (t *memTx) AdjustStock(productID uint, delta int) error {
	if err := t.fail("AdjustStock"); err != nil {
		return err
	}
	p, ok := t.products[productID]
	if !ok {
		return nil
	}
	p.Stock += delta
	if p.Stock < 0 {
		return errors.New("stock check constraint violated")
	}
	t.products[productID] = p
	return nil
}

func (t *memTx) FindSale(id uint) (*model.Sale, error) {
	s, ok := t.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (t *memTx) FindSaleItems(saleID uint) ([]model.SaleItem, error) {
	var out []model.SaleItem
	for _, item := range t.items {
		if item.SaleID == saleID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) DeleteSaleItems(saleID uint) error {
	if err := t.fail("DeleteSaleItems"); err != nil {
		return err
	}
	for id, item := range t.items {
		if item.SaleID == saleID {
			delete(t.items, id)
		}
	}
	return nil
}

func (t *memTx) DeleteSale(id uint) error {
	if err := t.fail("DeleteSale"); err != nil {
		return err
	}
	delete(t.sales, id)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	s := t.store
	s.products, s.sales, s.items = t.products, t.sales, t.items
	s.nextSale, s.nextItem = t.nextSale, t.nextItem
	s.commits++
	s.lock.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.rollbacks++
	t.store.lock.Unlock()
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recordingPublisher) Publish(event ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type mockSaleRepo struct {
	mock.Mock
}

func (m *mockSaleRepo) FindAll(ctx context.Context) ([]model.Sale, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Sale), args.Error(1)
}

func (m *mockSaleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*model.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSaleRepo) FindByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]model.Sale), args.Error(1)
}

func (m *mockSaleRepo) FindByDateRange(ctx context.Context, start, end time.Time) ([]model.Sale, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]model.Sale), args.Error(1)
}

func (m *mockSaleRepo) UpdateStatus(ctx context.Context, id uint, status model.SaleStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockSaleRepo) TotalsBetween(ctx context.Context, start, end time.Time) (*repository.DailyTotals, error) {
	args := m.Called(ctx, start, end)
	if t := args.Get(0); t != nil {
		return t.(*repository.DailyTotals), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSaleRepo) TrendBetween(ctx context.Context, start, end time.Time) ([]repository.TrendPoint, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]repository.TrendPoint), args.Error(1)
}

func (m *mockSaleRepo) StatusTotalsBetween(ctx context.Context, start, end time.Time) ([]repository.StatusTotals, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]repository.StatusTotals), args.Error(1)
}
