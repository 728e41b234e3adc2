package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/diewo77/tablesales/internal/models"
)

// memStore is a non-transactional Datastore: Transaction just runs fn, so a
// failure halfway leaves earlier writes in place. fail makes the named
// operation return errFail.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	tables map[uint]*models.Table
	sales  map[uint]*models.TableSale
	items  map[uint][]models.TableSaleItem
	fail   map[string]bool
	calls  []string
}

var errFail = errors.New("connection reset")

func newMemStore() *memStore {
	return &memStore{
		tables: map[uint]*models.Table{},
		sales:  map[uint]*models.TableSale{},
		items:  map[uint][]models.TableSaleItem{},
		fail:   map[string]bool{},
	}
}

func (m *memStore) call(op string) error {
	m.calls = append(m.calls, op)
	if m.fail[op] {
		return errFail
	}
	return nil
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) ListTables(_ context.Context, storeID uint) ([]models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListTables"); err != nil {
		return nil, err
	}
	var out []models.Table
	for _, t := range m.tables {
		if t.StoreID == storeID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *memStore) GetTable(_ context.Context, storeID, id uint) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetTable"); err != nil {
		return nil, err
	}
	t, ok := m.tables[id]
	if !ok || t.StoreID != storeID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) CreateTable(_ context.Context, t *models.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateTable"); err != nil {
		return err
	}
	for _, other := range m.tables {
		if other.StoreID == t.StoreID && other.Number == t.Number {
			return ErrDuplicateNumber
		}
	}
	t.ID = m.id()
	cp := *t
	m.tables[t.ID] = &cp
	return nil
}

func (m *memStore) DeleteTable(_ context.Context, storeID, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteTable"); err != nil {
		return err
	}
	t, ok := m.tables[id]
	if !ok || t.StoreID != storeID {
		return ErrNotFound
	}
	if !t.IsFree() {
		return ErrTableNotFree
	}
	delete(m.tables, id)
	return nil
}

func (m *memStore) UpdateTableStatus(_ context.Context, storeID, id uint, from, to models.TableStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateTableStatus"); err != nil {
		return err
	}
	t, ok := m.tables[id]
	if !ok || t.StoreID != storeID {
		return ErrNotFound
	}
	if t.Status != from {
		return ErrInvalidTransition
	}
	t.Status = to
	return nil
}

func (m *memStore) OpenSale(_ context.Context, sale *models.TableSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("OpenSale"); err != nil {
		return err
	}
	t, ok := m.tables[sale.TableID]
	if !ok || t.StoreID != sale.StoreID {
		return ErrNotFound
	}
	if t.Status != models.TableStatusFree {
		return ErrAlreadyOccupied
	}
	sale.ID = m.id()
	cp := *sale
	m.sales[sale.ID] = &cp
	t.Status = models.TableStatusOccupied
	t.ActiveSaleID = &cp.ID
	return nil
}

func (m *memStore) GetSale(_ context.Context, storeID, id uint) (*models.TableSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetSale"); err != nil {
		return nil, err
	}
	s, ok := m.sales[id]
	if !ok || s.StoreID != storeID {
		return nil, ErrNotFound
	}
	cp := *s
	cp.Items = append([]models.TableSaleItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *memStore) SaveSaleItems(_ context.Context, saleID uint, items []models.TableSaleItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SaveSaleItems"); err != nil {
		return err
	}
	stored := make([]models.TableSaleItem, 0, len(items))
	for _, it := range items {
		it.SaleID = saleID
		it.ID = m.id()
		for _, have := range m.items[saleID] {
			if have.ProductCode == it.ProductCode {
				it.ID = have.ID
				break
			}
		}
		stored = append(stored, it)
	}
	m.items[saleID] = stored
	return nil
}

func (m *memStore) UpdateSale(_ context.Context, saleID uint, totals models.SaleTotals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateSale"); err != nil {
		return err
	}
	s, ok := m.sales[saleID]
	if !ok {
		return ErrNotFound
	}
	if !s.IsOpen() && !m.held(saleID) {
		return ErrSaleNotOpen
	}
	pm := totals.PaymentMethod
	closedAt := totals.ClosedAt
	s.Status = models.SaleStatusClosed
	s.Subtotal = totals.Subtotal
	s.TotalAmount = totals.TotalAmount
	s.PaymentMethod = &pm
	s.ChangeDue = totals.ChangeDue
	s.ClosedAt = &closedAt
	return nil
}

func (m *memStore) held(saleID uint) bool {
	for _, t := range m.tables {
		if t.ActiveSaleID != nil && *t.ActiveSaleID == saleID {
			return true
		}
	}
	return false
}

func (m *memStore) ReleaseTable(_ context.Context, storeID, tableID, saleID uint, status models.TableStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ReleaseTable"); err != nil {
		return err
	}
	t, ok := m.tables[tableID]
	if !ok || t.StoreID != storeID || t.ActiveSaleID == nil || *t.ActiveSaleID != saleID {
		return ErrInvalidTransition
	}
	t.Status = status
	t.ActiveSaleID = nil
	return nil
}

func (m *memStore) Transaction(_ context.Context, fn func(tx Datastore) error) error {
	return fn(m)
}

// memCatalog serves a fixed product list.
type memCatalog struct{ products []models.Product }

func (c *memCatalog) Search(_ context.Context, term string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range c.products {
		if p.IsActive && (strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) || strings.EqualFold(p.Code, term)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *memCatalog) ListAll(ctx context.Context) ([]models.Product, error) {
	return c.Search(ctx, "")
}

func (c *memCatalog) ByCategory(_ context.Context, category string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range c.products {
		if p.IsActive && p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *memCatalog) Get(_ context.Context, code string) (*models.Product, error) {
	for i := range c.products {
		if c.products[i].Code == code {
			p := c.products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}
