package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/tablesales/internal/auth"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultOperatorPIN is the PIN of the seeded operator. Change it after first login.
const DefaultOperatorPIN = "0000"

func price(s string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(s)) }

func demoProducts(storeID uint) []models.Product {
	return []models.Product{
		{StoreID: storeID, Code: "ACAI-KG", Name: "Açaí Self-Service (kg)", Category: "acai", IsWeighable: true, PricePerGram: price("0.0799")},
		{StoreID: storeID, Code: "ACAI-300", Name: "Açaí 300ml", Category: "acai", UnitPrice: price("14.90")},
		{StoreID: storeID, Code: "ACAI-500", Name: "Açaí 500ml", Category: "acai", UnitPrice: price("21.90")},
		{StoreID: storeID, Code: "SORV-KG", Name: "Sorvete Self-Service (kg)", Category: "sorvetes", IsWeighable: true, PricePerGram: price("0.0699")},
		{StoreID: storeID, Code: "AGUA-500", Name: "Água Mineral 500ml", Category: "bebidas", UnitPrice: price("4.00")},
		{StoreID: storeID, Code: "REFRI-LATA", Name: "Refrigerante Lata", Category: "bebidas", UnitPrice: price("6.00")},
		{StoreID: storeID, Code: "GRANOLA", Name: "Granola Extra", Category: "complementos", UnitPrice: price("2.50")},
		{StoreID: storeID, Code: "BROWNIE", Name: "Brownie", Category: "sobremesas", UnitPrice: price("9.50")},
	}
}

// Seed inserts a default operator, a few tables and demo products for storeID.
// Existing rows are left untouched, so Seed can run on every start.
func Seed(db *gorm.DB, storeID uint) error {
	var op models.Operator
	err := db.Where("store_id = ? AND name = ?", storeID, "Operador").First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := auth.HashPIN(DefaultOperatorPIN)
		if err != nil {
			return fmt.Errorf("hash pin: %w", err)
		}
		op = models.Operator{StoreID: storeID, Name: "Operador", PINHash: hash, IsActive: true}
		if err := db.Create(&op).Error; err != nil {
			return fmt.Errorf("seed operator: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}

	for n := 1; n <= 6; n++ {
		var existing models.Table
		err := db.Where("store_id = ? AND number = ?", storeID, n).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed table %d: %w", n, err)
		}
		t := models.Table{StoreID: storeID, Number: n, Name: fmt.Sprintf("Mesa %d", n), Capacity: 4, Status: models.TableStatusFree, IsActive: true}
		if err := db.Create(&t).Error; err != nil {
			return fmt.Errorf("seed table %d: %w", n, err)
		}
	}

	for _, p := range demoProducts(storeID) {
		var existing models.Product
		err := db.Where("store_id = ? AND code = ?", storeID, p.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed product %s: %w", p.Code, err)
		}
		p.IsActive = true
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("seed product %s: %w", p.Code, err)
		}
	}
	return nil
}
