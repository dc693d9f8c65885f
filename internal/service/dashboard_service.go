package service

import (
	"context"
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalSalesToday       decimal.Decimal `json:"totalSalesToday"`
	SalesCountToday       int64           `json:"salesCountToday"`
	ProductsSoldToday     int64           `json:"productsSoldToday"`
	NewCustomersToday     int64           `json:"newCustomersToday"`
	LowStockProductsCount int64           `json:"lowStockProductsCount"`
}

const (
	defaultTrendDays = 7
	maxTrendDays     = 90
)

type DashboardService interface {
	GetStats(ctx context.Context) (*DashboardStats, error)
	GetSalesTrend(ctx context.Context, days int) ([]repository.TrendPoint, error)
	GetLowStock() ([]model.Product, error)
}

type dashboardService struct {
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	now          func() time.Time
}

func NewDashboardService(saleRepo repository.SaleRepository, productRepo repository.ProductRepository, customerRepo repository.CustomerRepository) DashboardService {
	return &dashboardService{
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		now:          time.Now,
	}
}

// GetStats aggregates today, local midnight to midnight. Nothing is cached.
func (s *dashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	start, end := DayBounds(s.now())

	totals, err := s.saleRepo.TotalsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	newCustomers, err := s.customerRepo.CountCreatedBetween(start, end)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.productRepo.CountLowStock()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalSalesToday:       totals.Revenue.Round(2),
		SalesCountToday:       totals.SalesCount,
		ProductsSoldToday:     totals.ProductsSold,
		NewCustomersToday:     newCustomers,
		LowStockProductsCount: lowStock,
	}, nil
}

// GetSalesTrend returns one point per day for the last n days including today, zero-filled.
func (s *dashboardService) GetSalesTrend(ctx context.Context, days int) ([]repository.TrendPoint, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	_, end := DayBounds(s.now())
	start := end.AddDate(0, 0, -days)

	points, err := s.saleRepo.TrendBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]repository.TrendPoint, len(points))
	for _, p := range points {
		byDate[p.Date] = p
	}

	out := make([]repository.TrendPoint, 0, days)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		p, ok := byDate[key]
		if !ok {
			p = repository.TrendPoint{Date: key, Revenue: decimal.Zero}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *dashboardService) GetLowStock() ([]model.Product, error) {
	return s.productRepo.FindLowStock()
}
