package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"github.com/diewo77/tablesales/internal/store"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// failingStore delegates to a real store and fails one operation. With
// noTx set, Transaction runs fn directly so earlier writes survive a failure.
type failingStore struct {
	services.Datastore
	failOp string
	noTx   bool
}

var errInjected = errors.New("injected failure")

func (f *failingStore) UpdateSale(ctx context.Context, saleID uint, totals models.SaleTotals) error {
	if f.failOp == "UpdateSale" {
		return errInjected
	}
	return f.Datastore.UpdateSale(ctx, saleID, totals)
}

func (f *failingStore) ReleaseTable(ctx context.Context, storeID, tableID, saleID uint, status models.TableStatus) error {
	if f.failOp == "ReleaseTable" {
		return errInjected
	}
	return f.Datastore.ReleaseTable(ctx, storeID, tableID, saleID, status)
}

func (f *failingStore) Transaction(ctx context.Context, fn func(tx services.Datastore) error) error {
	if f.noTx {
		return fn(f)
	}
	return f.Datastore.Transaction(ctx, func(tx services.Datastore) error {
		return fn(&failingStore{Datastore: tx, failOp: f.failOp})
	})
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	p := models.Product{StoreID: 1, Code: "A1", Name: "Açaí 300ml", IsActive: true, UnitPrice: decimal.NewNullDecimal(decimal.NewFromInt(15))}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return db
}

func TestFinalizeRollsBackOnGorm(t *testing.T) {
	for _, op := range []string{"UpdateSale", "ReleaseTable"} {
		t.Run(op, func(t *testing.T) {
			db := setupTestDB(t)
			fs := &failingStore{Datastore: store.NewGormStore(db), failOp: op}
			m := services.NewSessionManager(
				services.NewTableRegistry(fs, 1, nil, nil),
				services.NewSaleService(fs, 1, false, nil, nil),
				store.NewGormCatalog(db, 1),
				nil,
			)
			ctx := context.Background()
			tbl, err := m.CreateTable(ctx, services.TableInput{Number: 1, Name: "Mesa 1", Capacity: 4})
			if err != nil {
				t.Fatalf("create table: %v", err)
			}
			s, err := m.OpenSale(ctx, tbl.ID, services.OpenSaleInput{OperatorName: "Ana"})
			if err != nil {
				t.Fatalf("open sale: %v", err)
			}
			if _, err := m.AddProduct(ctx, tbl.ID, services.AddItemInput{Code: "A1", Quantity: 2}); err != nil {
				t.Fatalf("add: %v", err)
			}

			_, err = m.Finalize(ctx, tbl.ID, services.FinalizeInput{PaymentMethod: models.PaymentCash})
			var pe *services.PersistenceError
			if !errors.As(err, &pe) || !errors.Is(err, errInjected) {
				t.Fatalf("expected PersistenceError wrapping injected failure got %v", err)
			}

			var items int64
			db.Model(&models.TableSaleItem{}).Count(&items)
			if items != 0 {
				t.Fatalf("expected item insert rolled back, found %d", items)
			}
			var sale models.TableSale
			db.First(&sale, s.Sale().ID)
			if !sale.IsOpen() {
				t.Fatalf("expected sale to stay open got %s", sale.Status)
			}
			if s.ItemCount() != 1 || !s.Sale().IsOpen() {
				t.Fatalf("expected in-memory state untouched")
			}

			// retry once the store recovers
			fs.failOp = ""
			res, err := m.Finalize(ctx, tbl.ID, services.FinalizeInput{PaymentMethod: models.PaymentCash})
			if err != nil {
				t.Fatalf("retry finalize: %v", err)
			}
			if !res.Sale.TotalAmount.Equal(decimal.NewFromInt(30)) {
				t.Fatalf("expected total 30 got %s", res.Sale.TotalAmount)
			}
			db.Model(&models.TableSaleItem{}).Count(&items)
			if items != 1 {
				t.Fatalf("expected 1 stored item got %d", items)
			}
		})
	}
}

func TestFinalizeRetryWithoutTransaction(t *testing.T) {
	db := setupTestDB(t)
	fs := &failingStore{Datastore: store.NewGormStore(db), failOp: "ReleaseTable", noTx: true}
	m := services.NewSessionManager(
		services.NewTableRegistry(fs, 1, nil, nil),
		services.NewSaleService(fs, 1, false, nil, nil),
		store.NewGormCatalog(db, 1),
		nil,
	)
	ctx := context.Background()
	tbl, err := m.CreateTable(ctx, services.TableInput{Number: 1, Name: "Mesa 1", Capacity: 4})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	s, err := m.OpenSale(ctx, tbl.ID, services.OpenSaleInput{OperatorName: "Ana"})
	if err != nil {
		t.Fatalf("open sale: %v", err)
	}
	if _, err := m.AddProduct(ctx, tbl.ID, services.AddItemInput{Code: "A1", Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := m.Finalize(ctx, tbl.ID, services.FinalizeInput{PaymentMethod: models.PaymentCash}); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure got %v", err)
	}
	var stranded models.Table
	db.First(&stranded, tbl.ID)
	if stranded.ActiveSaleID == nil {
		t.Fatalf("expected table to still point at the sale")
	}

	// edit the cart before retrying
	if found, err := s.UpdateCartQuantity("A1", 3); err != nil || !found {
		t.Fatalf("update quantity: %v %v", found, err)
	}
	fs.failOp = ""
	res, err := m.Finalize(ctx, tbl.ID, services.FinalizeInput{PaymentMethod: models.PaymentCash})
	if err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if !res.Sale.TotalAmount.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("expected total 45 got %s", res.Sale.TotalAmount)
	}

	var sale models.TableSale
	db.Preload("Items").First(&sale, res.Sale.ID)
	sum := decimal.Zero
	for _, it := range sale.Items {
		sum = sum.Add(it.Subtotal)
	}
	if len(sale.Items) != 1 || !sale.TotalAmount.Equal(sum) {
		t.Fatalf("sale total %s != sum of stored items %s", sale.TotalAmount, sum)
	}

	var released models.Table
	db.First(&released, tbl.ID)
	if released.Status != models.TableStatusFree || released.ActiveSaleID != nil {
		t.Fatalf("expected free table got %s %v", released.Status, released.ActiveSaleID)
	}
	if _, err := m.OpenSale(ctx, tbl.ID, services.OpenSaleInput{}); err != nil {
		t.Fatalf("open again: %v", err)
	}
}
