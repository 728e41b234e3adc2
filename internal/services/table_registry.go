package services

import (
	"context"

	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/metrics"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/validation"
	"go.uber.org/zap"
)

// DefaultCapacity is used when a table is created without a capacity.
const DefaultCapacity = 4

type TableInput struct {
	Number   int
	Name     string
	Capacity int
}

// TableRegistry manages the tables of one store.
type TableRegistry struct {
	Store   Datastore
	StoreID uint
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewTableRegistry(store Datastore, storeID uint, log *zap.Logger, m *metrics.Metrics) *TableRegistry {
	return &TableRegistry{Store: store, StoreID: storeID, Log: logging.OrNop(log), Metrics: m}
}

// List returns the store's tables ordered by number with their active sale loaded.
func (r *TableRegistry) List(ctx context.Context) ([]models.Table, error) {
	tables, err := r.Store.ListTables(ctx, r.StoreID)
	if err != nil {
		return nil, persist("list_tables", err)
	}
	return tables, nil
}

func (r *TableRegistry) Get(ctx context.Context, id uint) (*models.Table, error) {
	t, err := r.Store.GetTable(ctx, r.StoreID, id)
	if err != nil {
		return nil, persist("get_table", err)
	}
	return t, nil
}

func (r *TableRegistry) Create(ctx context.Context, in TableInput) (*models.Table, error) {
	v := validation.Violations{}
	validation.RequiredInt("number", in.Number, v)
	validation.Required("name", in.Name, v)
	validation.MinInt("capacity", in.Capacity, 1, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	t := &models.Table{
		StoreID:  r.StoreID,
		Number:   in.Number,
		Name:     in.Name,
		Capacity: in.Capacity,
		Status:   models.TableStatusFree,
		IsActive: true,
	}
	if err := r.Store.CreateTable(ctx, t); err != nil {
		return nil, persist("create_table", err)
	}
	r.Log.Info("table created", zap.Uint("store_id", r.StoreID), zap.Uint("table_id", t.ID), zap.Int("number", t.Number))
	return t, nil
}

// Delete removes a free table. Occupied, billing or cleaning tables are refused.
func (r *TableRegistry) Delete(ctx context.Context, id uint) error {
	t, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsFree() {
		return ErrTableNotFree
	}
	if err := r.Store.DeleteTable(ctx, r.StoreID, id); err != nil {
		return persist("delete_table", err)
	}
	r.Log.Info("table deleted", zap.Uint("store_id", r.StoreID), zap.Uint("table_id", id))
	return nil
}

// MarkAwaitingBill flags an occupied table as waiting for its bill.
func (r *TableRegistry) MarkAwaitingBill(ctx context.Context, id uint) (*models.Table, error) {
	return r.move(ctx, id, models.TableStatusOccupied, models.TableStatusAwaitingBill)
}

// ResumeService puts a table waiting for its bill back to ordering.
func (r *TableRegistry) ResumeService(ctx context.Context, id uint) (*models.Table, error) {
	return r.move(ctx, id, models.TableStatusAwaitingBill, models.TableStatusOccupied)
}

// MarkClean frees a table left in cleaning after its sale closed.
func (r *TableRegistry) MarkClean(ctx context.Context, id uint) (*models.Table, error) {
	return r.move(ctx, id, models.TableStatusCleaning, models.TableStatusFree)
}

// ChangeStatus applies the operator-driven transition that ends in to.
// Transitions owned by the sale lifecycle are not reachable from here.
func (r *TableRegistry) ChangeStatus(ctx context.Context, id uint, to models.TableStatus) (*models.Table, error) {
	switch to {
	case models.TableStatusAwaitingBill:
		return r.MarkAwaitingBill(ctx, id)
	case models.TableStatusOccupied:
		return r.ResumeService(ctx, id)
	case models.TableStatusFree:
		return r.MarkClean(ctx, id)
	}
	return nil, &ValidationError{Violations: validation.Violations{"status": "invalid_choice"}}
}

func (r *TableRegistry) move(ctx context.Context, id uint, from, to models.TableStatus) (*models.Table, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != from || !from.CanTransition(to) {
		return nil, ErrInvalidTransition
	}
	if err := r.Store.UpdateTableStatus(ctx, r.StoreID, id, from, to); err != nil {
		return nil, persist("update_table_status", err)
	}
	t.Status = to
	r.Metrics.TableTransition(string(from), string(to))
	r.Log.Info("table status changed", zap.Uint("table_id", id), zap.String("from", string(from)), zap.String("to", string(to)))
	return t, nil
}
