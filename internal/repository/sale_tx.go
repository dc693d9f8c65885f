package repository

import (
	"context"
	"sort"

	"hlg-fitness/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleTx is one open database transaction used by the sale engine.
// Rollback after a successful Commit is a no-op, so callers can defer it unconditionally.
type SaleTx interface {
	// LockProducts selects the products FOR UPDATE in ascending id order.
	// Ids without a live product are absent from the result.
	LockProducts(ids []uint) (map[uint]*model.Product, error)
	CustomerExists(id uint) (bool, error)
	CreateSale(sale *model.Sale) error
	CreateSaleItems(items []model.SaleItem) error
	// AdjustStock applies a relative change to a product's stock.
	AdjustStock(productID uint, delta int) error
	FindSale(id uint) (*model.Sale, error)
	FindSaleItems(saleID uint) ([]model.SaleItem, error)
	DeleteSaleItems(saleID uint) error
	DeleteSale(id uint) error
	Commit() error
	Rollback() error
}

type SaleTxManager interface {
	Begin(ctx context.Context) (SaleTx, error)
}

type gormSaleTxManager struct {
	db *gorm.DB
}

func NewSaleTxManager(db *gorm.DB) SaleTxManager {
	return &gormSaleTxManager{db: db}
}

func (m *gormSaleTxManager) Begin(ctx context.Context) (SaleTx, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormSaleTx{tx: tx}, nil
}

type gormSaleTx struct {
	tx   *gorm.DB
	done bool
}

func (t *gormSaleTx) LockProducts(ids []uint) (map[uint]*model.Product, error) {
	ordered := make([]uint, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	var products []model.Product
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ordered).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]*model.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (t *gormSaleTx) CustomerExists(id uint) (bool, error) {
	var count int64
	err := t.tx.Model(&model.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (t *gormSaleTx) CreateSale(sale *model.Sale) error {
	return t.tx.Omit(clause.Associations).Create(sale).Error
}

func (t *gormSaleTx) CreateSaleItems(items []model.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return t.tx.Omit(clause.Associations).Create(&items).Error
}

func (t *gormSaleTx) AdjustStock(productID uint, delta int) error {
	return t.tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func (t *gormSaleTx) FindSale(id uint) (*model.Sale, error) {
	var sale model.Sale
	if err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (t *gormSaleTx) FindSaleItems(saleID uint) ([]model.SaleItem, error) {
	var items []model.SaleItem
	err := t.tx.Where("sale_id = ?", saleID).Order("id ASC").Find(&items).Error
	return items, err
}

func (t *gormSaleTx) DeleteSaleItems(saleID uint) error {
	return t.tx.Where("sale_id = ?", saleID).Delete(&model.SaleItem{}).Error
}

func (t *gormSaleTx) DeleteSale(id uint) error {
	return t.tx.Delete(&model.Sale{}, id).Error
}

func (t *gormSaleTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Commit().Error
}

func (t *gormSaleTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback().Error
}
