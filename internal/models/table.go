package models

import (
	"time"
)

// TableStatus represents the occupancy status of a table.
type TableStatus string

const (
	TableStatusFree         TableStatus = "free"
	TableStatusOccupied     TableStatus = "occupied"
	TableStatusAwaitingBill TableStatus = "awaiting_bill"
	TableStatusCleaning     TableStatus = "cleaning"
)

// tableTransitions lists every allowed status change.
var tableTransitions = map[TableStatus][]TableStatus{
	TableStatusFree:         {TableStatusOccupied},
	TableStatusOccupied:     {TableStatusAwaitingBill, TableStatusFree, TableStatusCleaning},
	TableStatusAwaitingBill: {TableStatusOccupied, TableStatusFree, TableStatusCleaning},
	TableStatusCleaning:     {TableStatusFree},
}

// Valid reports whether s is a known status.
func (s TableStatus) Valid() bool {
	_, ok := tableTransitions[s]
	return ok
}

// CanTransition reports whether a table in status s may move to next.
func (s TableStatus) CanTransition(next TableStatus) bool {
	for _, allowed := range tableTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsSale reports whether a table in this status carries an active sale.
func (s TableStatus) HoldsSale() bool {
	return s == TableStatusOccupied || s == TableStatusAwaitingBill
}

// Table is a physical table in one store.
type Table struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	StoreID uint `gorm:"not null;index:idx_store_table_number,unique,priority:1" json:"store_id"`

	// Number is the display identifier, unique within a store.
	Number   int         `gorm:"not null;index:idx_store_table_number,unique,priority:2" json:"number"`
	Name     string      `gorm:"size:100;not null" json:"name"`
	Capacity int         `gorm:"not null;default:4" json:"capacity"`
	Status   TableStatus `gorm:"size:20;not null;default:'free';index" json:"status"`
	IsActive bool        `gorm:"not null;default:true" json:"is_active"`

	// ActiveSaleID is set while the table holds an open sale.
	ActiveSaleID *uint      `gorm:"index" json:"active_sale_id,omitempty"`
	ActiveSale   *TableSale `gorm:"foreignKey:ActiveSaleID" json:"active_sale,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFree returns true if the table can be claimed or deleted.
func (t *Table) IsFree() bool {
	return t.Status == TableStatusFree
}
