package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// DefaultSaleStatus applies both at the schema level and to new sales without a status.
const DefaultSaleStatus = SaleStatusPending

var SaleStatuses = []SaleStatus{SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled}

func (s SaleStatus) Valid() bool {
	for _, known := range SaleStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Sale struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"not null;index" json:"customerId"`
	Date       time.Time       `gorm:"not null;index" json:"date"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status     SaleStatus      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedBy  string          `gorm:"type:varchar(100)" json:"createdBy,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"not null;index" json:"saleId"`
	ProductID uint            `gorm:"not null;index" json:"productId"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"` // unit price snapshot

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// Subtotal is the line amount, price times quantity.
func (i *SaleItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
