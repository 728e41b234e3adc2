package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/tablesales/internal/models"
)

func newRegistry(t *testing.T) (*TableRegistry, *memStore) {
	t.Helper()
	ms := newMemStore()
	return NewTableRegistry(ms, 1, nil, nil), ms
}

func TestRegistryCreateValidation(t *testing.T) {
	r, ms := newRegistry(t)
	tests := []struct {
		name  string
		in    TableInput
		field string
	}{
		{"missing number", TableInput{Name: "Mesa", Capacity: 4}, "number"},
		{"missing name", TableInput{Number: 1, Name: " ", Capacity: 4}, "name"},
		{"zero capacity", TableInput{Number: 1, Name: "Mesa", Capacity: 0}, "capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(context.Background(), tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError got %v", err)
			}
			if _, ok := ve.Violations[tt.field]; !ok {
				t.Fatalf("expected violation on %s got %v", tt.field, ve.Violations)
			}
		})
	}
	if len(ms.tables) != 0 {
		t.Fatalf("expected no table to be stored")
	}
}

func TestRegistryCreateAndList(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	for _, n := range []int{2, 1} {
		if _, err := r.Create(ctx, TableInput{Number: n, Name: "Mesa", Capacity: DefaultCapacity}); err != nil {
			t.Fatalf("create %d: %v", n, err)
		}
	}
	if _, err := r.Create(ctx, TableInput{Number: 1, Name: "Dup", Capacity: 2}); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected duplicate number got %v", err)
	}
	tables, err := r.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tables) != 2 || tables[0].Number != 1 {
		t.Fatalf("unexpected tables %+v", tables)
	}
	if tables[0].Status != models.TableStatusFree {
		t.Fatalf("expected new table to be free got %s", tables[0].Status)
	}
}

func TestRegistryListPersistenceFailure(t *testing.T) {
	r, ms := newRegistry(t)
	ms.fail["ListTables"] = true
	_, err := r.List(context.Background())
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "list_tables" {
		t.Fatalf("expected PersistenceError got %v", err)
	}
	if !errors.Is(err, errFail) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestRegistryDeleteOnlyFree(t *testing.T) {
	r, ms := newRegistry(t)
	ctx := context.Background()
	tbl, _ := r.Create(ctx, TableInput{Number: 1, Name: "Mesa 1", Capacity: 4})

	for _, st := range []models.TableStatus{models.TableStatusOccupied, models.TableStatusAwaitingBill, models.TableStatusCleaning} {
		ms.tables[tbl.ID].Status = st
		if err := r.Delete(ctx, tbl.ID); !errors.Is(err, ErrTableNotFree) {
			t.Fatalf("%s: expected table_not_free got %v", st, err)
		}
	}
	ms.tables[tbl.ID].Status = models.TableStatusFree
	if err := r.Delete(ctx, tbl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Delete(ctx, tbl.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestRegistryStatusTransitions(t *testing.T) {
	r, ms := newRegistry(t)
	ctx := context.Background()
	tbl, _ := r.Create(ctx, TableInput{Number: 1, Name: "Mesa 1", Capacity: 4})

	// operator transitions are refused from free
	for _, to := range []models.TableStatus{models.TableStatusAwaitingBill, models.TableStatusOccupied, models.TableStatusFree} {
		if _, err := r.ChangeStatus(ctx, tbl.ID, to); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("free -> %s: expected invalid_transition got %v", to, err)
		}
	}

	ms.tables[tbl.ID].Status = models.TableStatusOccupied
	got, err := r.MarkAwaitingBill(ctx, tbl.ID)
	if err != nil || got.Status != models.TableStatusAwaitingBill {
		t.Fatalf("mark awaiting bill: %v %v", got, err)
	}
	got, err = r.ResumeService(ctx, tbl.ID)
	if err != nil || got.Status != models.TableStatusOccupied {
		t.Fatalf("resume: %v %v", got, err)
	}
	if _, err := r.MarkClean(ctx, tbl.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("occupied -> free by hand should be refused, got %v", err)
	}

	ms.tables[tbl.ID].Status = models.TableStatusCleaning
	got, err = r.ChangeStatus(ctx, tbl.ID, models.TableStatusFree)
	if err != nil || got.Status != models.TableStatusFree {
		t.Fatalf("mark clean: %v %v", got, err)
	}

	if _, err := r.ChangeStatus(ctx, tbl.ID, models.TableStatusCleaning); err == nil {
		t.Fatalf("expected cleaning to be refused as a manual target")
	}
}

func TestTableStatusTransitionTable(t *testing.T) {
	all := []models.TableStatus{models.TableStatusFree, models.TableStatusOccupied, models.TableStatusAwaitingBill, models.TableStatusCleaning}
	allowed := map[[2]models.TableStatus]bool{
		{models.TableStatusFree, models.TableStatusOccupied}:         true,
		{models.TableStatusOccupied, models.TableStatusAwaitingBill}: true,
		{models.TableStatusOccupied, models.TableStatusFree}:         true,
		{models.TableStatusOccupied, models.TableStatusCleaning}:     true,
		{models.TableStatusAwaitingBill, models.TableStatusOccupied}: true,
		{models.TableStatusAwaitingBill, models.TableStatusFree}:     true,
		{models.TableStatusAwaitingBill, models.TableStatusCleaning}: true,
		{models.TableStatusCleaning, models.TableStatusFree}:         true,
	}
	for _, from := range all {
		for _, to := range all {
			if got := from.CanTransition(to); got != allowed[[2]models.TableStatus{from, to}] {
				t.Fatalf("%s -> %s: expected %v got %v", from, to, !got, got)
			}
		}
	}
}
