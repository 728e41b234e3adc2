package models

import "time"

// Operator is a staff member allowed to open and finalize table sales.
type Operator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreID   uint      `gorm:"not null;index:idx_store_operator_name,unique,priority:1" json:"store_id"`
	Name      string    `gorm:"size:100;not null;index:idx_store_operator_name,unique,priority:2" json:"name"`
	PINHash   string    `gorm:"size:255;not null" json:"-"` // bcrypt, never exposed
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All returns every model managed by AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Operator{}, &Product{}, &TableSale{}, &Table{}, &TableSaleItem{},
	}
}
