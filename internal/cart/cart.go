// Package cart holds the in-memory line items of a sale being built.
package cart

import (
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/pricing"
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. Pricing is a snapshot taken when
// the item was first added and fixes the item's pricing mode.
type LineItem struct {
	ProductCode string              `json:"product_code"`
	ProductName string              `json:"product_name"`
	Quantity    int                 `json:"quantity"`
	WeightKg    decimal.NullDecimal `json:"weight_kg"`
	Pricing     pricing.Snapshot    `json:"-"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
}

// IsWeighable reports the item's pricing mode.
func (li *LineItem) IsWeighable() bool { return li.Pricing.IsWeighable }

func (li *LineItem) recompute() {
	li.Subtotal = li.Pricing.Subtotal(li.Quantity, li.WeightKg)
}

// Cart is an ordered collection of line items keyed by product code.
// A Cart is not safe for concurrent use.
type Cart struct {
	items []*LineItem
}

// New returns an empty cart.
func New() *Cart { return &Cart{} }

func (c *Cart) index(code string) int {
	for i, it := range c.items {
		if it.ProductCode == code {
			return i
		}
	}
	return -1
}

// AddItem adds quantity units of p, merging into an existing line for the
// same product code. A zero or negative weight counts as no weight.
func (c *Cart) AddItem(p *models.Product, quantity int, weightKg decimal.NullDecimal) *LineItem {
	if quantity < 1 {
		quantity = 1
	}
	if weightKg.Valid && !weightKg.Decimal.IsPositive() {
		weightKg = pricing.NoWeight
	}
	if i := c.index(p.Code); i >= 0 {
		it := c.items[i]
		it.Quantity += quantity
		if weightKg.Valid {
			prev := decimal.Zero
			if it.WeightKg.Valid {
				prev = it.WeightKg.Decimal
			}
			it.WeightKg = pricing.Weight(prev.Add(weightKg.Decimal))
		}
		it.recompute()
		return it
	}
	it := &LineItem{
		ProductCode: p.Code,
		ProductName: p.Name,
		Quantity:    quantity,
		WeightKg:    weightKg,
		Pricing:     pricing.SnapshotOf(p),
	}
	it.recompute()
	c.items = append(c.items, it)
	return it
}

// UpdateQuantity sets the quantity of the line for code. A quantity of zero
// or less removes the line. Accumulated weight is left untouched.
// It returns false if no line exists for code.
func (c *Cart) UpdateQuantity(code string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(code)
	}
	i := c.index(code)
	if i < 0 {
		return false
	}
	it := c.items[i]
	it.Quantity = quantity
	it.recompute()
	return true
}

// RemoveItem deletes the line for code. Removing an absent code is a no-op
// and returns false.
func (c *Cart) RemoveItem(code string) bool {
	i := c.index(code)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// Get returns a copy of the line for code.
func (c *Cart) Get(code string) (LineItem, bool) {
	if i := c.index(code); i >= 0 {
		return *c.items[i], true
	}
	return LineItem{}, false
}

// Items returns copies of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	for i, it := range c.items {
		out[i] = *it
	}
	return out
}

// Total sums the current line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// ItemCount is the number of distinct lines, not the sum of quantities.
func (c *Cart) ItemCount() int { return len(c.items) }

// IsEmpty returns true when the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Clear drops every line.
func (c *Cart) Clear() { c.items = nil }

// Snapshot converts the lines into sale-item records for saleID.
func (c *Cart) Snapshot(storeID, saleID uint) []models.TableSaleItem {
	out := make([]models.TableSaleItem, 0, len(c.items))
	for i, it := range c.items {
		out = append(out, models.TableSaleItem{
			SaleID:       saleID,
			StoreID:      storeID,
			Position:     i,
			ProductCode:  it.ProductCode,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			WeightKg:     it.WeightKg,
			UnitPrice:    it.Pricing.UnitPrice,
			PricePerGram: it.Pricing.PricePerGram,
			Subtotal:     it.Subtotal,
		})
	}
	return out
}
