// Package pricing computes cart line subtotals for unit-priced and
// weight-priced products.
package pricing

import (
	"sync/atomic"

	"github.com/diewo77/tablesales/internal/models"
	"github.com/shopspring/decimal"
)

var gramsPerKg = decimal.NewFromInt(1000)

// Fallback reasons reported to the observer.
const (
	ReasonMissingPricePerGram = "missing_price_per_gram"
	ReasonMissingWeight       = "missing_weight"
	ReasonMissingUnitPrice    = "missing_unit_price"
)

// FallbackObserver is notified whenever a subtotal degrades to zero
// because the catalog data is incomplete.
type FallbackObserver func(productCode, reason string)

var observer atomic.Pointer[FallbackObserver]

// SetFallbackObserver installs fn as the process-wide fallback observer.
// Passing nil removes it.
func SetFallbackObserver(fn FallbackObserver) {
	if fn == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&fn)
}

func reportFallback(code, reason string) {
	if fn := observer.Load(); fn != nil {
		(*fn)(code, reason)
	}
}

// Snapshot is the pricing data copied from a product when a cart line is
// created. It is never refreshed from the catalog afterwards.
type Snapshot struct {
	ProductCode  string
	IsWeighable  bool
	UnitPrice    decimal.NullDecimal
	PricePerGram decimal.NullDecimal
}

// SnapshotOf copies the pricing fields of p.
func SnapshotOf(p *models.Product) Snapshot {
	return Snapshot{
		ProductCode:  p.Code,
		IsWeighable:  p.IsWeighable,
		UnitPrice:    p.UnitPrice,
		PricePerGram: p.PricePerGram,
	}
}

// Subtotal prices quantity units (or weightKg kilograms) under this snapshot.
// It never fails: incomplete pricing data yields zero.
func (s Snapshot) Subtotal(quantity int, weightKg decimal.NullDecimal) decimal.Decimal {
	if s.IsWeighable {
		switch {
		case !s.PricePerGram.Valid:
			reportFallback(s.ProductCode, ReasonMissingPricePerGram)
		case !weightKg.Valid || !weightKg.Decimal.IsPositive():
			reportFallback(s.ProductCode, ReasonMissingWeight)
		default:
			return weightKg.Decimal.Mul(gramsPerKg).Mul(s.PricePerGram.Decimal)
		}
		return decimal.Zero
	}
	if !s.UnitPrice.Valid {
		reportFallback(s.ProductCode, ReasonMissingUnitPrice)
		return decimal.Zero
	}
	return s.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity)))
}

// ComputeSubtotal prices a product directly from the catalog row.
func ComputeSubtotal(p *models.Product, quantity int, weightKg decimal.NullDecimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return SnapshotOf(p).Subtotal(quantity, weightKg)
}

// GramsToKg converts a scale reading in grams to kilograms.
func GramsToKg(grams decimal.Decimal) decimal.Decimal {
	return grams.Div(gramsPerKg)
}

// Weight wraps kg as a present weight value.
func Weight(kg decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: kg, Valid: true}
}

// NoWeight is the absent weight value.
var NoWeight = decimal.NullDecimal{}
