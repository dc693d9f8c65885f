package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/internal/ws"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventPublisher receives post-commit notifications. *ws.Hub satisfies it.
type EventPublisher interface {
	Publish(event ws.Event)
}

// SaleInput is the sale header as posted by the UI. Numeric fields may be
// JSON numbers or numeric strings; Total is accepted and ignored.
type SaleInput struct {
	CustomerID interface{} `json:"customerId"`
	Status     string      `json:"status"`
	Date       interface{} `json:"date"`
	Total      interface{} `json:"total"`
}

type SaleItemInput struct {
	ProductID interface{} `json:"productId"`
	Quantity  interface{} `json:"quantity"`
	Price     interface{} `json:"price"`
}

type CreateSaleRequest struct {
	Sale  SaleInput       `json:"sale"`
	Items []SaleItemInput `json:"items"`
}

type SaleService interface {
	CreateSale(ctx context.Context, req *CreateSaleRequest, actor string) (*model.Sale, error)
	DeleteSale(ctx context.Context, id uint, actor string) error
	UpdateStatus(ctx context.Context, id uint, status string, actor string) (*model.Sale, error)
	GetAll(ctx context.Context) ([]model.Sale, error)
	GetByID(ctx context.Context, id uint) (*model.Sale, error)
	GetByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error)
	GetByDateRange(ctx context.Context, start, end string) ([]model.Sale, error)
}

type saleService struct {
	txm      repository.SaleTxManager
	saleRepo repository.SaleRepository
	events   EventPublisher
	tracer   trace.Tracer
	now      func() time.Time
	log      *zap.Logger
}

func NewSaleService(txm repository.SaleTxManager, saleRepo repository.SaleRepository, events EventPublisher, tracer trace.Tracer) SaleService {
	return &saleService{
		txm:      txm,
		saleRepo: saleRepo,
		events:   events,
		tracer:   tracer,
		now:      time.Now,
		log:      zap.L().Named("sale"),
	}
}

// validatedItem is one line after coercion, before any product lookup.
type validatedItem struct {
	productID uint
	quantity  int
	price     decimal.Decimal
}

type validatedSale struct {
	customerID uint
	status     model.SaleStatus
	date       time.Time
	items      []validatedItem
	total      decimal.Decimal
}

func (s *saleService) CreateSale(ctx context.Context, req *CreateSaleRequest, actor string) (*model.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.CreateSale")
	defer span.End()

	v, err := s.validate(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("sale.customer_id", int64(v.customerID)),
		attribute.Int("sale.items", len(v.items)),
	)

	sale, lowStock, err := s.createInTx(ctx, v, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.log.Info("sale created",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("customer_id", sale.CustomerID),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("by", actor),
	)
	s.publish(ws.Event{
		Type:    ws.EventSaleCreated,
		Data:    sale,
		User:    actor,
		Message: fmt.Sprintf("%s recorded sale #%d (%s)", actor, sale.ID, sale.Total.StringFixed(2)),
	})
	for _, p := range lowStock {
		s.publish(ws.Event{
			Type:    ws.EventLowStock,
			Data:    lowStockPayload(p),
			Message: fmt.Sprintf("%s is low on stock (%d left)", p.Name, p.Stock),
		})
	}
	return sale, nil
}

// createInTx runs the mutating part of sale creation in a single transaction.
// It returns the products whose stock ended at or below their threshold.
func (s *saleService) createInTx(ctx context.Context, v *validatedSale, actor string) (*model.Sale, []model.Product, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.CustomerExists(v.customerID)
	if err != nil {
		return nil, nil, fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return nil, nil, validationf("Customer %d does not exist", v.customerID)
	}

	requested := make(map[uint]int)
	var ids []uint
	for _, item := range v.items {
		if _, seen := requested[item.productID]; !seen {
			ids = append(ids, item.productID)
		}
		requested[item.productID] += item.quantity
	}

	products, err := tx.LockProducts(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("lock products: %w", err)
	}

	// Every item is checked before the first write.
	for i, item := range v.items {
		if _, ok := products[item.productID]; !ok {
			return nil, nil, validationf("Item %d: product %d does not exist", i+1, item.productID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		p := products[id]
		if p.Stock < requested[id] {
			return nil, nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   requested[id],
			}
		}
	}

	sale := &model.Sale{
		CustomerID: v.customerID,
		Date:       v.date,
		Total:      v.total,
		Status:     v.status,
		CreatedBy:  actor,
	}
	if err := tx.CreateSale(sale); err != nil {
		return nil, nil, fmt.Errorf("insert sale: %w", err)
	}

	items := make([]model.SaleItem, len(v.items))
	for i, item := range v.items {
		items[i] = model.SaleItem{
			SaleID:    sale.ID,
			ProductID: item.productID,
			Quantity:  item.quantity,
			Price:     item.price,
		}
	}
	if err := tx.CreateSaleItems(items); err != nil {
		return nil, nil, fmt.Errorf("insert sale items: %w", err)
	}

	var lowStock []model.Product
	for _, id := range ids {
		if err := tx.AdjustStock(id, -requested[id]); err != nil {
			return nil, nil, fmt.Errorf("decrement stock for product %d: %w", id, err)
		}
		p := *products[id]
		p.Stock -= requested[id]
		if p.IsLowStock() {
			lowStock = append(lowStock, p)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit sale: %w", err)
	}
	return sale, lowStock, nil
}

func (s *saleService) validate(req *CreateSaleRequest) (*validatedSale, error) {
	if req == nil {
		return nil, validationf("Request body is required")
	}

	customerID, ok := positiveInt(req.Sale.CustomerID)
	if !ok {
		return nil, validationf("Customer ID is required and must be a positive integer")
	}

	if len(req.Items) == 0 {
		return nil, validationf("Sale must contain at least one item")
	}

	v := &validatedSale{
		customerID: uint(customerID),
		items:      make([]validatedItem, 0, len(req.Items)),
		total:      decimal.Zero,
	}
	for i, in := range req.Items {
		productID, ok := positiveInt(in.ProductID)
		if !ok {
			return nil, validationf("Item %d: product ID must be a positive integer", i+1)
		}
		quantity, ok := positiveInt(in.Quantity)
		if !ok {
			return nil, validationf("Item %d: quantity must be a positive integer", i+1)
		}
		price, ok := positiveDecimal(in.Price)
		if !ok {
			return nil, validationf("Item %d: price must be a positive number with at most 2 decimal places", i+1)
		}
		v.items = append(v.items, validatedItem{
			productID: uint(productID),
			quantity:  quantity,
			price:     price,
		})
		v.total = v.total.Add(price.Mul(decimal.NewFromInt(int64(quantity))))
	}
	v.total = v.total.Round(2)

	status := model.SaleStatus(strings.TrimSpace(req.Sale.Status))
	if status == "" {
		status = model.DefaultSaleStatus
	}
	if !status.Valid() {
		return nil, validationf("Status must be one of %v", model.SaleStatuses)
	}
	v.status = status
	v.date = s.parseDate(req.Sale.Date)

	return v, nil
}

// parseDate accepts any layout dateparse understands and falls back to now.
func (s *saleService) parseDate(raw interface{}) time.Time {
	str, err := cast.ToStringE(raw)
	if err != nil || strings.TrimSpace(str) == "" {
		return s.now()
	}
	t, err := dateparse.ParseLocal(strings.TrimSpace(str))
	if err != nil {
		return s.now()
	}
	return t
}

// positiveInt coerces JSON numbers and numeric strings, rejecting fractions.
// Booleans and every other type are refused.
func positiveInt(raw interface{}) (int, bool) {
	switch val := raw.(type) {
	case string:
		raw = strings.TrimSpace(val)
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
	default:
		return 0, false
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// positiveDecimal parses a unit price. Prices with fractions of a cent are refused
// so the sale total always equals the sum of the stored line amounts.
func positiveDecimal(raw interface{}) (decimal.Decimal, bool) {
	var d decimal.Decimal
	var err error
	switch val := raw.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(val))
	default:
		var str string
		str, err = cast.ToStringE(val)
		if err == nil {
			d, err = decimal.NewFromString(str)
		}
	}
	if err != nil {
		return decimal.Zero, false
	}
	if !d.IsPositive() || !d.Equal(d.Round(2)) {
		return decimal.Zero, false
	}
	return d, true
}

func (s *saleService) DeleteSale(ctx context.Context, id uint, actor string) error {
	ctx, span := s.tracer.Start(ctx, "SaleService.DeleteSale", trace.WithAttributes(attribute.Int64("sale.id", int64(id))))
	defer span.End()

	restored, err := s.deleteInTx(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.log.Info("sale deleted", zap.Uint("sale_id", id), zap.Int("products_restored", restored), zap.String("by", actor))
	s.publish(ws.Event{
		Type:    ws.EventSaleDeleted,
		Data:    map[string]interface{}{"id": id},
		User:    actor,
		Message: fmt.Sprintf("%s deleted sale #%d", actor, id),
	})
	return nil
}

func (s *saleService) deleteInTx(ctx context.Context, id uint) (int, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.FindSale(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrSaleNotFound
		}
		return 0, fmt.Errorf("load sale: %w", err)
	}

	items, err := tx.FindSaleItems(id)
	if err != nil {
		return 0, fmt.Errorf("load sale items: %w", err)
	}

	restore := make(map[uint]int)
	var ids []uint
	for _, item := range items {
		if _, seen := restore[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		restore[item.ProductID] += item.Quantity
	}

	products, err := tx.LockProducts(ids)
	if err != nil {
		return 0, fmt.Errorf("lock products: %w", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	restored := 0
	for _, pid := range ids {
		if _, ok := products[pid]; !ok {
			s.log.Warn("product gone, stock not restored", zap.Uint("sale_id", id), zap.Uint("product_id", pid))
			continue
		}
		if err := tx.AdjustStock(pid, restore[pid]); err != nil {
			return 0, fmt.Errorf("restore stock for product %d: %w", pid, err)
		}
		restored++
	}

	if err := tx.DeleteSaleItems(id); err != nil {
		return 0, fmt.Errorf("delete sale items: %w", err)
	}
	if err := tx.DeleteSale(id); err != nil {
		return 0, fmt.Errorf("delete sale: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sale deletion: %w", err)
	}
	return restored, nil
}

func (s *saleService) UpdateStatus(ctx context.Context, id uint, status string, actor string) (*model.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("sale.id", int64(id)),
		attribute.String("sale.status", status),
	))
	defer span.End()

	st := model.SaleStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, validationf("Status must be one of %v", model.SaleStatuses)
	}
	if err := s.saleRepo.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}

	sale, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ws.Event{
		Type:    ws.EventSaleUpdated,
		Data:    map[string]interface{}{"id": id, "status": st},
		User:    actor,
		Message: fmt.Sprintf("%s marked sale #%d as %s", actor, id, st),
	})
	return sale, nil
}

func (s *saleService) GetAll(ctx context.Context) ([]model.Sale, error) {
	return s.saleRepo.FindAll(ctx)
}

func (s *saleService) GetByID(ctx context.Context, id uint) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	return sale, err
}

func (s *saleService) GetByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error) {
	return s.saleRepo.FindByCustomer(ctx, customerID)
}

// GetByDateRange accepts inclusive calendar dates; the end day is included whole.
func (s *saleService) GetByDateRange(ctx context.Context, start, end string) ([]model.Sale, error) {
	from, to, err := ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return s.saleRepo.FindByDateRange(ctx, from, to)
}

func (s *saleService) publish(event ws.Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

func lowStockPayload(p model.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":       p.ID,
		"name":     p.Name,
		"stock":    p.Stock,
		"minStock": p.MinStock,
	}
}
