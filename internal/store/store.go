// Package store implements the table-sales datastore and product catalog on GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is a services.Datastore backed by a *gorm.DB.
type GormStore struct{ DB *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

var _ services.Datastore = (*GormStore)(nil)

func (s *GormStore) ListTables(ctx context.Context, storeID uint) ([]models.Table, error) {
	var tables []models.Table
	err := s.DB.WithContext(ctx).
		Preload("ActiveSale").
		Where("store_id = ?", storeID).
		Order("number").
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *GormStore) GetTable(ctx context.Context, storeID, id uint) (*models.Table, error) {
	var t models.Table
	err := s.DB.WithContext(ctx).Preload("ActiveSale").Where("store_id = ?", storeID).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get table %d: %w", id, err)
	}
	return &t, nil
}

func (s *GormStore) CreateTable(ctx context.Context, t *models.Table) error {
	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Table{}).Where("store_id = ? AND number = ?", t.StoreID, t.Number).Count(&count).Error; err != nil {
		return fmt.Errorf("check table number: %w", err)
	}
	if count > 0 {
		return services.ErrDuplicateNumber
	}
	if err := db.Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ErrDuplicateNumber
		}
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteTable(ctx context.Context, storeID, id uint) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND store_id = ? AND status = ?", id, storeID, string(models.TableStatusFree)).
		Delete(&models.Table{})
	if res.Error != nil {
		return fmt.Errorf("delete table %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTable(ctx, storeID, id); err != nil {
			return err
		}
		return services.ErrTableNotFree
	}
	return nil
}

func (s *GormStore) UpdateTableStatus(ctx context.Context, storeID, id uint, from, to models.TableStatus) error {
	res := s.DB.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND store_id = ? AND status = ?", id, storeID, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("update table %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTable(ctx, storeID, id); err != nil {
			return err
		}
		return services.ErrInvalidTransition
	}
	return nil
}

// OpenSale inserts the sale and claims its table in one transaction. The
// claim is a conditional update on status so two terminals racing for the
// same table cannot both win.
func (s *GormStore) OpenSale(ctx context.Context, sale *models.TableSale) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		res := tx.Model(&models.Table{}).
			Where("id = ? AND store_id = ? AND status = ?", sale.TableID, sale.StoreID, string(models.TableStatusFree)).
			Updates(map[string]any{
				"status":         string(models.TableStatusOccupied),
				"active_sale_id": sale.ID,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("claim table %d: %w", sale.TableID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Table{}).Where("id = ? AND store_id = ?", sale.TableID, sale.StoreID).Count(&count).Error; err != nil {
				return fmt.Errorf("check table %d: %w", sale.TableID, err)
			}
			if count == 0 {
				return services.ErrNotFound
			}
			return services.ErrAlreadyOccupied
		}
		return nil
	})
}

func (s *GormStore) GetSale(ctx context.Context, storeID, id uint) (*models.TableSale, error) {
	var sale models.TableSale
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("store_id = ?", storeID).
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return &sale, nil
}

// SaveSaleItems makes items the complete item list of the sale. Rows
// already stored under the same (sale_id, product_code) are overwritten
// and rows for codes missing from items are removed.
func (s *GormStore) SaveSaleItems(ctx context.Context, saleID uint, items []models.TableSaleItem) error {
	db := s.DB.WithContext(ctx)
	codes := make([]string, 0, len(items))
	for i := range items {
		items[i].SaleID = saleID
		codes = append(codes, items[i].ProductCode)
	}
	if len(items) > 0 {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sale_id"}, {Name: "product_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_name", "quantity", "weight_kg", "unit_price",
				"price_per_gram", "subtotal", "position",
			}),
		}).Create(&items).Error
		if err != nil {
			return fmt.Errorf("save sale items for sale %d: %w", saleID, err)
		}
	}
	stale := db.Where("sale_id = ?", saleID)
	if len(codes) > 0 {
		stale = stale.Where("product_code NOT IN ?", codes)
	}
	if err := stale.Delete(&models.TableSaleItem{}).Error; err != nil {
		return fmt.Errorf("prune sale items for sale %d: %w", saleID, err)
	}
	return nil
}

// UpdateSale closes the sale if it is still open. A closed sale that its
// table still points at was left by an interrupted finalize; its totals
// are rewritten so the retry can complete.
func (s *GormStore) UpdateSale(ctx context.Context, saleID uint, totals models.SaleTotals) error {
	db := s.DB.WithContext(ctx)
	held := db.Model(&models.Table{}).Select("active_sale_id").Where("active_sale_id = ?", saleID)
	res := db.Model(&models.TableSale{}).
		Where("id = ? AND (status = ? OR id IN (?))", saleID, string(models.SaleStatusOpen), held).
		Updates(map[string]any{
			"status":         string(models.SaleStatusClosed),
			"subtotal":       totals.Subtotal,
			"total_amount":   totals.TotalAmount,
			"payment_method": string(totals.PaymentMethod),
			"change_due":     totals.ChangeDue,
			"closed_at":      totals.ClosedAt,
			"updated_at":     totals.ClosedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update sale %d: %w", saleID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.TableSale{}).Where("id = ?", saleID).Count(&count).Error; err != nil {
			return fmt.Errorf("check sale %d: %w", saleID, err)
		}
		if count == 0 {
			return services.ErrNotFound
		}
		return services.ErrSaleNotOpen
	}
	return nil
}

// ReleaseTable detaches saleID from its table. The table must belong to
// storeID and still point at that sale.
func (s *GormStore) ReleaseTable(ctx context.Context, storeID, tableID, saleID uint, status models.TableStatus) error {
	res := s.DB.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND store_id = ? AND active_sale_id = ?", tableID, storeID, saleID).
		Updates(map[string]any{
			"status":         string(status),
			"active_sale_id": nil,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("release table %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrInvalidTransition
	}
	return nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx services.Datastore) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}
