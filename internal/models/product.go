package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as seen by the table-sales core.
// Exactly one of UnitPrice (unit-priced) or PricePerGram (weighable) is
// expected to be set; incomplete rows price to zero rather than failing.
type Product struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	StoreID uint `gorm:"not null;index:idx_store_product_code,unique,priority:1" json:"store_id"`

	// Code is the product identifier used as the cart key.
	Code        string `gorm:"size:40;not null;index:idx_store_product_code,unique,priority:2" json:"code"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Category    string `gorm:"size:50;index" json:"category"`
	IsWeighable bool   `gorm:"not null;default:false" json:"is_weighable"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	UnitPrice    decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	PricePerGram decimal.NullDecimal `gorm:"type:numeric(12,6)" json:"price_per_gram"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricePerKg returns the display price for weighable products.
func (p *Product) PricePerKg() decimal.Decimal {
	if !p.PricePerGram.Valid {
		return decimal.Zero
	}
	return p.PricePerGram.Decimal.Mul(decimal.NewFromInt(1000))
}
