package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleStatus represents the status of a table sale.
type SaleStatus string

const (
	SaleStatusOpen   SaleStatus = "open"
	SaleStatusClosed SaleStatus = "closed"
)

// PaymentMethod is the payment selection recorded on a sale.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentPix     PaymentMethod = "pix"
	PaymentCredit  PaymentMethod = "credit"
	PaymentDebit   PaymentMethod = "debit"
	PaymentVoucher PaymentMethod = "voucher"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentPix, PaymentCredit, PaymentDebit, PaymentVoucher}

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// TableSale is one sale session attached to a table.
type TableSale struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Ref     uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"ref"`
	StoreID uint      `gorm:"not null;index" json:"store_id"`
	TableID uint      `gorm:"not null;index" json:"table_id"`

	OperatorName  string `gorm:"size:100;not null" json:"operator_name"`
	CustomerName  string `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerCount int    `gorm:"not null;default:1" json:"customer_count"`

	Status        SaleStatus          `gorm:"size:20;not null;default:'open';index" json:"status"`
	PaymentMethod *PaymentMethod      `gorm:"size:20" json:"payment_method,omitempty"`
	ChangeDue     decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"change_due"`
	Subtotal      decimal.Decimal     `gorm:"type:numeric;not null;default:0" json:"subtotal"`
	TotalAmount   decimal.Decimal     `gorm:"type:numeric;not null;default:0" json:"total_amount"`

	Items []TableSaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`

	OpenedAt  time.Time  `gorm:"not null" json:"opened_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// BeforeCreate assigns the external reference and opening time.
func (s *TableSale) BeforeCreate(_ *gorm.DB) error {
	if s.Ref == uuid.Nil {
		s.Ref = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now()
	}
	return nil
}

// IsOpen returns true while the sale accepts cart edits.
func (s TableSale) IsOpen() bool {
	return s.Status == SaleStatusOpen
}

// TableSaleItem is the immutable record of one cart line at finalize time.
type TableSaleItem struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SaleID   uint `gorm:"not null;index:idx_sale_item_product,unique,priority:1" json:"sale_id"`
	StoreID  uint `gorm:"not null;index" json:"store_id"`
	Position int  `gorm:"not null;default:0" json:"position"`

	ProductCode string `gorm:"size:40;not null;index:idx_sale_item_product,unique,priority:2" json:"product_code"`
	ProductName string `gorm:"size:255;not null" json:"product_name"`
	Quantity    int    `gorm:"not null;default:1" json:"quantity"`

	WeightKg     decimal.NullDecimal `gorm:"type:numeric" json:"weight_kg"`
	UnitPrice    decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	PricePerGram decimal.NullDecimal `gorm:"type:numeric(12,6)" json:"price_per_gram"`
	Subtotal     decimal.Decimal     `gorm:"type:numeric;not null" json:"subtotal"`

	CreatedAt time.Time `json:"created_at"`
}

// SaleTotals are the values written on a sale when it closes.
type SaleTotals struct {
	Subtotal      decimal.Decimal
	TotalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
	ChangeDue     decimal.NullDecimal
	ClosedAt      time.Time
}
