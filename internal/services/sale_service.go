package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diewo77/tablesales/internal/cart"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/metrics"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultOperatorName is recorded when a sale is opened without an operator.
const DefaultOperatorName = "Operador"

type OpenSaleInput struct {
	OperatorName  string
	CustomerName  string
	CustomerCount int
}

type FinalizeInput struct {
	PaymentMethod models.PaymentMethod
	ChangeDue     decimal.NullDecimal
}

// FinalizedSale is the outcome of a successful finalize.
type FinalizedSale struct {
	Sale        *models.TableSale
	TableStatus models.TableStatus
}

// SaleService opens sales on tables and persists them when they close.
type SaleService struct {
	Store   Datastore
	StoreID uint
	// CleaningOnClose sends tables to cleaning instead of free after finalize.
	CleaningOnClose bool
	Log             *zap.Logger
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

func NewSaleService(store Datastore, storeID uint, cleaningOnClose bool, log *zap.Logger, m *metrics.Metrics) *SaleService {
	return &SaleService{Store: store, StoreID: storeID, CleaningOnClose: cleaningOnClose, Log: logging.OrNop(log), Metrics: m, Now: time.Now}
}

// Open creates a sale on a free table and marks the table occupied.
func (s *SaleService) Open(ctx context.Context, tableID uint, in OpenSaleInput) (*models.TableSale, error) {
	v := validation.Violations{}
	if in.CustomerCount == 0 {
		in.CustomerCount = 1
	}
	validation.MinInt("customer_count", in.CustomerCount, 1, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OperatorName) == "" {
		in.OperatorName = DefaultOperatorName
	}

	t, err := s.Store.GetTable(ctx, s.StoreID, tableID)
	if err != nil {
		return nil, persist("get_table", err)
	}
	if !t.IsFree() {
		return nil, ErrAlreadyOccupied
	}
	sale := &models.TableSale{
		StoreID:       s.StoreID,
		TableID:       tableID,
		OperatorName:  in.OperatorName,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerCount: in.CustomerCount,
		Status:        models.SaleStatusOpen,
		OpenedAt:      s.Now(),
	}
	if err := s.Store.OpenSale(ctx, sale); err != nil {
		return nil, persist("open_sale", err)
	}
	s.Metrics.SaleOpened()
	s.Metrics.TableTransition(string(models.TableStatusFree), string(models.TableStatusOccupied))
	s.Log.Info("sale opened",
		zap.Uint("store_id", s.StoreID),
		zap.Uint("table_id", tableID),
		zap.Uint("sale_id", sale.ID),
		zap.String("operator", sale.OperatorName))
	return sale, nil
}

// Get loads a sale of this store.
func (s *SaleService) Get(ctx context.Context, id uint) (*models.TableSale, error) {
	sale, err := s.Store.GetSale(ctx, s.StoreID, id)
	if err != nil {
		return nil, persist("get_sale", err)
	}
	return sale, nil
}

// releaseStatus is the table status set once a sale closes.
func (s *SaleService) releaseStatus() models.TableStatus {
	if s.CleaningOnClose {
		return models.TableStatusCleaning
	}
	return models.TableStatusFree
}

func (s *SaleService) validateFinalize(sale *models.TableSale, c *cart.Cart, in FinalizeInput) error {
	if !sale.IsOpen() {
		return ErrSaleNotOpen
	}
	v := validation.Violations{}
	if c == nil || c.IsEmpty() {
		v["items"] = "required"
	}
	if in.PaymentMethod == "" {
		v["payment_method"] = "required"
	} else if !in.PaymentMethod.Valid() {
		v["payment_method"] = "invalid_choice"
	}
	if in.ChangeDue.Valid {
		if in.PaymentMethod != models.PaymentCash {
			v["change_due"] = "cash_only"
		} else {
			validation.NonNegativeDecimal("change_due", in.ChangeDue.Decimal, v)
		}
	}
	return invalid(v)
}

// Finalize persists the cart as sale items, closes the sale and releases
// its table. The three writes share one transaction. Each write is also
// safe to repeat: the item save replaces what an earlier attempt stored,
// and a sale closed by an attempt that failed before the release is
// closed again with the current totals.
// On failure the sale stays open and the cart is left untouched; on
// success the cart is cleared and sale reflects the closed state.
func (s *SaleService) Finalize(ctx context.Context, sale *models.TableSale, c *cart.Cart, in FinalizeInput) (*FinalizedSale, error) {
	if err := s.validateFinalize(sale, c, in); err != nil {
		return nil, err
	}
	// Once writes start the operation runs to completion.
	ctx = context.WithoutCancel(ctx)
	start := s.Now()

	items := c.Snapshot(s.StoreID, sale.ID)
	subtotal := c.Total()
	totals := models.SaleTotals{
		Subtotal:      subtotal,
		TotalAmount:   subtotal,
		PaymentMethod: in.PaymentMethod,
		ChangeDue:     in.ChangeDue,
		ClosedAt:      s.Now(),
	}
	release := s.releaseStatus()
	var prior models.TableStatus

	err := s.Store.Transaction(ctx, func(tx Datastore) error {
		tbl, err := tx.GetTable(ctx, s.StoreID, sale.TableID)
		if err != nil {
			return persist("get_table", err)
		}
		prior = tbl.Status
		if err := tx.SaveSaleItems(ctx, sale.ID, items); err != nil {
			return persist("save_sale_items", err)
		}
		if err := tx.UpdateSale(ctx, sale.ID, totals); err != nil {
			return persist("update_sale", err)
		}
		if err := tx.ReleaseTable(ctx, s.StoreID, sale.TableID, sale.ID, release); err != nil {
			return persist("release_table", err)
		}
		return nil
	})
	elapsed := s.Now().Sub(start)
	if err != nil {
		err = persist("finalize", err)
		s.Metrics.SaleFinalized(string(in.PaymentMethod), outcome(err), elapsed)
		s.Log.Error("finalize failed",
			zap.Uint("store_id", s.StoreID),
			zap.Uint("table_id", sale.TableID),
			zap.Uint("sale_id", sale.ID),
			zap.Error(err))
		return nil, err
	}

	pm := in.PaymentMethod
	closedAt := totals.ClosedAt
	sale.Status = models.SaleStatusClosed
	sale.Subtotal = totals.Subtotal
	sale.TotalAmount = totals.TotalAmount
	sale.PaymentMethod = &pm
	sale.ChangeDue = in.ChangeDue
	sale.ClosedAt = &closedAt
	sale.UpdatedAt = closedAt
	sale.Items = items
	c.Clear()

	s.Metrics.SaleFinalized(string(pm), "ok", elapsed)
	s.Metrics.TableTransition(string(prior), string(release))
	s.Log.Info("sale finalized",
		zap.Uint("store_id", s.StoreID),
		zap.Uint("table_id", sale.TableID),
		zap.Uint("sale_id", sale.ID),
		zap.Int("items", len(items)),
		zap.String("total", sale.TotalAmount.StringFixed(2)),
		zap.String("payment_method", string(pm)))
	return &FinalizedSale{Sale: sale, TableStatus: release}, nil
}

func outcome(err error) string {
	var ce *ConflictError
	switch {
	case errors.As(err, &ce):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "persistence_failed"
}
