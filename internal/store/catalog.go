package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"gorm.io/gorm"
)

// GormCatalog reads the active products of one store.
type GormCatalog struct {
	DB      *gorm.DB
	StoreID uint
}

func NewGormCatalog(db *gorm.DB, storeID uint) *GormCatalog {
	return &GormCatalog{DB: db, StoreID: storeID}
}

var _ services.ProductCatalog = (*GormCatalog)(nil)

func (c *GormCatalog) active(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx).Where("store_id = ? AND is_active = ?", c.StoreID, true).Order("name")
}

// Search matches term case-insensitively against name and code.
// An empty term lists everything.
func (c *GormCatalog) Search(ctx context.Context, term string) ([]models.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.ListAll(ctx)
	}
	like := "%" + term + "%"
	var products []models.Product
	if err := c.active(ctx).Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (c *GormCatalog) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.active(ctx).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (c *GormCatalog) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	if err := c.active(ctx).Where("category = ?", category).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products in %s: %w", category, err)
	}
	return products, nil
}

// Get returns the product with code, including inactive ones so callers
// can tell an unknown code from a disabled product.
func (c *GormCatalog) Get(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := c.DB.WithContext(ctx).Where("store_id = ? AND code = ?", c.StoreID, code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", code, err)
	}
	return &p, nil
}
