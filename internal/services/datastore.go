package services

import (
	"context"

	"github.com/diewo77/tablesales/internal/models"
)

// Datastore persists tables and sales for the table-sales core.
// Implementations return ErrNotFound for unknown rows and ConflictError
// when a conditional update finds the row in an unexpected state.
type Datastore interface {
	ListTables(ctx context.Context, storeID uint) ([]models.Table, error)
	GetTable(ctx context.Context, storeID, id uint) (*models.Table, error)
	CreateTable(ctx context.Context, t *models.Table) error
	// DeleteTable removes a table only while it is free.
	DeleteTable(ctx context.Context, storeID, id uint) error
	// UpdateTableStatus moves a table from one status to another,
	// failing with ErrInvalidTransition if it is no longer in from.
	UpdateTableStatus(ctx context.Context, storeID, id uint, from, to models.TableStatus) error

	// OpenSale inserts sale and claims its table. Only a free table can be
	// claimed; otherwise ErrAlreadyOccupied is returned and nothing is written.
	OpenSale(ctx context.Context, sale *models.TableSale) error
	GetSale(ctx context.Context, storeID, id uint) (*models.TableSale, error)
	// SaveSaleItems makes items the stored item list of the sale: existing
	// rows with the same product code are overwritten and rows for codes
	// not in items are removed.
	SaveSaleItems(ctx context.Context, saleID uint, items []models.TableSaleItem) error
	// UpdateSale closes an open sale with totals. A closed sale that its
	// table still points at gets its totals rewritten; any other closed
	// sale yields ErrSaleNotOpen.
	UpdateSale(ctx context.Context, saleID uint, totals models.SaleTotals) error
	// ReleaseTable detaches saleID from its table and sets status.
	ReleaseTable(ctx context.Context, storeID, tableID, saleID uint, status models.TableStatus) error

	// Transaction runs fn against a Datastore bound to one transaction.
	Transaction(ctx context.Context, fn func(tx Datastore) error) error
}

// ProductCatalog is the read-only product source for one store.
type ProductCatalog interface {
	// Search matches term against product name or code, active products only.
	Search(ctx context.Context, term string) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	ByCategory(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, code string) (*models.Product, error)
}
