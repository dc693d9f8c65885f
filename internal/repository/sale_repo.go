package repository

import (
	"context"
	"time"

	"hlg-fitness/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyTotals aggregates the sales recorded in one window.
type DailyTotals struct {
	Revenue      decimal.Decimal `json:"revenue"`
	ProductsSold int64           `json:"productsSold"`
	SalesCount   int64           `json:"salesCount"`
}

// TrendPoint is one day of the sales trend chart.
type TrendPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Units   int64           `json:"units"`
}

// StatusTotals is the count and amount of sales in one status.
type StatusTotals struct {
	Status model.SaleStatus `json:"status"`
	Count  int64            `json:"count"`
	Total  decimal.Decimal  `json:"total"`
}

type SaleRepository interface {
	FindAll(ctx context.Context) ([]model.Sale, error)
	FindByID(ctx context.Context, id uint) (*model.Sale, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]model.Sale, error)
	UpdateStatus(ctx context.Context, id uint, status model.SaleStatus) error
	TotalsBetween(ctx context.Context, start, end time.Time) (*DailyTotals, error)
	TrendBetween(ctx context.Context, start, end time.Time) ([]TrendPoint, error)
	StatusTotalsBetween(ctx context.Context, start, end time.Time) ([]StatusTotals, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) FindAll(ctx context.Context) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Preload("Customer").Order("date DESC").Order("id DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		First(&sale, id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("date DESC").Find(&sales).Error
	return sales, err
}

// FindByDateRange returns the sales dated in [start, end), with items and customer.
func (r *saleRepo) FindByDateRange(ctx context.Context, start, end time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Product").
		Where("date >= ? AND date < ?", start, end).
		Order("date DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) UpdateStatus(ctx context.Context, id uint, status model.SaleStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *saleRepo) TotalsBetween(ctx context.Context, start, end time.Time) (*DailyTotals, error) {
	var totals DailyTotals
	db := r.db.WithContext(ctx)

	row := db.Model(&model.Sale{}).
		Select("COALESCE(SUM(total), 0), COUNT(*)").
		Where("date >= ? AND date < ?", start, end).
		Row()
	if err := row.Scan(&totals.Revenue, &totals.SalesCount); err != nil {
		return nil, err
	}

	err := db.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.date >= ? AND sales.date < ?", start, end).
		Select("COALESCE(SUM(sale_items.quantity), 0)").
		Scan(&totals.ProductsSold).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// TrendBetween groups revenue and units by calendar day, oldest first.
func (r *saleRepo) TrendBetween(ctx context.Context, start, end time.Time) ([]TrendPoint, error) {
	db := r.db.WithContext(ctx)

	var revenue []TrendPoint
	err := db.Model(&model.Sale{}).
		Select("TO_CHAR(DATE(date), 'YYYY-MM-DD') AS date, COALESCE(SUM(total), 0) AS revenue").
		Where("date >= ? AND date < ?", start, end).
		Group("DATE(date)").
		Order("DATE(date) ASC").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}

	rows, err := db.Table("sale_items").
		Select("TO_CHAR(DATE(sales.date), 'YYYY-MM-DD'), COALESCE(SUM(sale_items.quantity), 0)").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.date >= ? AND sales.date < ?", start, end).
		Group("DATE(sales.date)").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make(map[string]int64)
	for rows.Next() {
		var day string
		var qty int64
		if err := rows.Scan(&day, &qty); err != nil {
			return nil, err
		}
		units[day] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range revenue {
		revenue[i].Units = units[revenue[i].Date]
	}
	return revenue, nil
}

func (r *saleRepo) StatusTotalsBetween(ctx context.Context, start, end time.Time) ([]StatusTotals, error) {
	var totals []StatusTotals
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("date >= ? AND date < ?", start, end).
		Group("status").
		Order("status ASC").
		Scan(&totals).Error
	return totals, err
}
