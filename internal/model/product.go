package model

import "github.com/shopspring/decimal"

type ProductCategory string

const (
	CategoryLeggings    ProductCategory = "leggings"
	CategoryTops        ProductCategory = "tops"
	CategoryShorts      ProductCategory = "shorts"
	CategoryPants       ProductCategory = "pants"
	CategoryAccessories ProductCategory = "accessories"
	CategoryShoes       ProductCategory = "shoes"
	CategoryOther       ProductCategory = "other"
)

var ProductCategories = []ProductCategory{
	CategoryLeggings, CategoryTops, CategoryShorts, CategoryPants,
	CategoryAccessories, CategoryShoes, CategoryOther,
}

func (c ProductCategory) Valid() bool {
	for _, known := range ProductCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultMinStock is the low-stock threshold applied when none is given.
const DefaultMinStock = 5

type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Description string          `gorm:"type:text" json:"description"`
	Category    ProductCategory `gorm:"type:varchar(20);not null;index" json:"category" validate:"required,product_category"`
	Size        string          `gorm:"type:varchar(20);not null" json:"size" validate:"required,max=20"`
	Color       string          `gorm:"type:varchar(50);not null" json:"color" validate:"required,max=50"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock" validate:"gte=0"`
	MinStock    int             `gorm:"not null;default:5;check:min_stock >= 0" json:"minStock" validate:"gte=0"`
	Image       *string         `gorm:"type:varchar(500)" json:"image"`
}

// IsLowStock reports whether stock is at or below the configured threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// StockValue is price times units on hand.
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}
