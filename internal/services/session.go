package services

import (
	"context"
	"errors"
	"sync"

	"github.com/diewo77/tablesales/internal/cart"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/pricing"
	"github.com/diewo77/tablesales/internal/scale"
	"github.com/diewo77/tablesales/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Session is the in-progress sale of one table together with its cart.
// Methods are safe for concurrent use; calls on one session serialize.
type Session struct {
	mu      sync.Mutex
	tableID uint
	sale    *models.TableSale
	cart    *cart.Cart
	payment models.PaymentMethod
	sales   *SaleService
}

func newSession(sale *models.TableSale, sales *SaleService) *Session {
	return &Session{tableID: sale.TableID, sale: sale, cart: cart.New(), sales: sales}
}

// SessionView is a point-in-time copy of a session.
type SessionView struct {
	TableID       uint                 `json:"table_id"`
	Sale          models.TableSale     `json:"sale"`
	Items         []cart.LineItem      `json:"items"`
	Total         decimal.Decimal      `json:"total"`
	ItemCount     int                  `json:"item_count"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		TableID:       s.tableID,
		Sale:          *s.sale,
		Items:         s.cart.Items(),
		Total:         s.cart.Total(),
		ItemCount:     s.cart.ItemCount(),
		PaymentMethod: s.payment,
	}
}

func (s *Session) TableID() uint { return s.tableID }

// Sale returns a copy of the session's sale.
func (s *Session) Sale() models.TableSale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sale
}

// AddToCart adds a product line. weightKg is only meaningful for weighable
// products; pass pricing.NoWeight otherwise.
func (s *Session) AddToCart(p *models.Product, quantity int, weightKg decimal.NullDecimal) (cart.LineItem, error) {
	if p == nil {
		return cart.LineItem{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sale.IsOpen() {
		return cart.LineItem{}, ErrSaleNotOpen
	}
	if !p.IsActive {
		return cart.LineItem{}, &ValidationError{Violations: validation.Violations{"code": "inactive"}}
	}
	return *s.cart.AddItem(p, quantity, weightKg), nil
}

// AddWeighed reads a weight from r and adds one weighing of p.
// A cancelled reading adds nothing and returns scale.ErrCancelled.
func (s *Session) AddWeighed(ctx context.Context, p *models.Product, r scale.Reader) (cart.LineItem, error) {
	grams, err := r.ReadGrams(ctx)
	if err != nil {
		return cart.LineItem{}, err
	}
	v := validation.Violations{}
	validation.PositiveDecimal("weight_grams", grams, v)
	if err := invalid(v); err != nil {
		return cart.LineItem{}, err
	}
	return s.AddToCart(p, 1, pricing.Weight(pricing.GramsToKg(grams)))
}

// UpdateCartQuantity sets a line quantity; zero or less removes the line.
func (s *Session) UpdateCartQuantity(code string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sale.IsOpen() {
		return false, ErrSaleNotOpen
	}
	return s.cart.UpdateQuantity(code, quantity), nil
}

func (s *Session) RemoveFromCart(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sale.IsOpen() {
		return false, ErrSaleNotOpen
	}
	return s.cart.RemoveItem(code), nil
}

func (s *Session) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *Session) Items() []cart.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// SetPaymentMethod records the method selected while the sale is open.
func (s *Session) SetPaymentMethod(m models.PaymentMethod) error {
	if !m.Valid() {
		return &ValidationError{Violations: validation.Violations{"payment_method": "invalid_choice"}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sale.IsOpen() {
		return ErrSaleNotOpen
	}
	s.payment = m
	return nil
}

// FinalizeSale closes the sale. An empty payment method falls back to the
// one selected with SetPaymentMethod.
func (s *Session) FinalizeSale(ctx context.Context, in FinalizeInput) (*FinalizedSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.PaymentMethod == "" {
		in.PaymentMethod = s.payment
	}
	return s.sales.Finalize(ctx, s.sale, s.cart, in)
}

// Cancel discards the unsaved cart. The sale stays open on its table.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.payment = ""
}

// SessionManager keeps at most one Session per table in memory and is the
// entry point used by the HTTP layer.
type SessionManager struct {
	Tables  *TableRegistry
	Sales   *SaleService
	Catalog ProductCatalog
	Log     *zap.Logger

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewSessionManager(tables *TableRegistry, sales *SaleService, catalog ProductCatalog, log *zap.Logger) *SessionManager {
	return &SessionManager{
		Tables:   tables,
		Sales:    sales,
		Catalog:  catalog,
		Log:      logging.OrNop(log),
		sessions: map[uint]*Session{},
	}
}

func (m *SessionManager) ListTables(ctx context.Context) ([]models.Table, error) {
	return m.Tables.List(ctx)
}

func (m *SessionManager) CreateTable(ctx context.Context, in TableInput) (*models.Table, error) {
	return m.Tables.Create(ctx, in)
}

func (m *SessionManager) DeleteTable(ctx context.Context, id uint) error {
	if err := m.Tables.Delete(ctx, id); err != nil {
		return err
	}
	m.drop(id)
	return nil
}

func (m *SessionManager) ChangeTableStatus(ctx context.Context, id uint, to models.TableStatus) (*models.Table, error) {
	return m.Tables.ChangeStatus(ctx, id, to)
}

// OpenSale opens a sale on a free table and starts an empty session for it.
func (m *SessionManager) OpenSale(ctx context.Context, tableID uint, in OpenSaleInput) (*Session, error) {
	sale, err := m.Sales.Open(ctx, tableID, in)
	if err != nil {
		return nil, err
	}
	s := newSession(sale, m.Sales)
	m.mu.Lock()
	m.sessions[tableID] = s
	m.mu.Unlock()
	return s, nil
}

// Session returns the in-memory session of a table, if any.
func (m *SessionManager) Session(tableID uint) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tableID]
	return s, ok
}

// Resume returns the session of a table holding an open sale. When the
// process has no session for it (restart, another terminal) the sale is
// reloaded and the session starts with an empty cart.
func (m *SessionManager) Resume(ctx context.Context, tableID uint) (*Session, error) {
	if s, ok := m.Session(tableID); ok && s.Sale().IsOpen() {
		return s, nil
	}
	t, err := m.Tables.Get(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !t.Status.HoldsSale() || t.ActiveSaleID == nil {
		m.drop(tableID)
		return nil, ErrSaleNotOpen
	}
	sale, err := m.Sales.Get(ctx, *t.ActiveSaleID)
	if err != nil {
		return nil, err
	}
	if !sale.IsOpen() {
		return nil, ErrSaleNotOpen
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[tableID]; ok && s.Sale().ID == sale.ID {
		return s, nil
	}
	s := newSession(sale, m.Sales)
	m.sessions[tableID] = s
	m.Log.Info("sale resumed", zap.Uint("table_id", tableID), zap.Uint("sale_id", sale.ID))
	return s, nil
}

type AddItemInput struct {
	Code     string
	Quantity int
	// WeightGrams is set for weighable products.
	WeightGrams decimal.NullDecimal
	// Cancelled reports that the operator dismissed the weighing.
	Cancelled bool
}

// AddProduct looks up a product by code and adds it to the table's cart.
// Weighable products require a weight reading.
func (m *SessionManager) AddProduct(ctx context.Context, tableID uint, in AddItemInput) (cart.LineItem, error) {
	v := validation.Violations{}
	validation.Required("code", in.Code, v)
	if err := invalid(v); err != nil {
		return cart.LineItem{}, err
	}
	s, err := m.Resume(ctx, tableID)
	if err != nil {
		return cart.LineItem{}, err
	}
	p, err := m.Catalog.Get(ctx, in.Code)
	if err != nil {
		return cart.LineItem{}, persist("get_product", err)
	}
	if p.IsWeighable {
		if in.Cancelled {
			return s.AddWeighed(ctx, p, scale.Reading{Cancelled: true})
		}
		if !in.WeightGrams.Valid {
			return cart.LineItem{}, &ValidationError{Violations: validation.Violations{"weight_grams": "required"}}
		}
		return s.AddWeighed(ctx, p, scale.Reading{Grams: in.WeightGrams.Decimal})
	}
	return s.AddToCart(p, in.Quantity, pricing.NoWeight)
}

// Finalize closes the table's sale and forgets its session.
func (m *SessionManager) Finalize(ctx context.Context, tableID uint, in FinalizeInput) (*FinalizedSale, error) {
	s, err := m.Resume(ctx, tableID)
	if err != nil {
		return nil, err
	}
	res, err := s.FinalizeSale(ctx, in)
	if err != nil {
		return nil, err
	}
	m.drop(tableID)
	return res, nil
}

// Cancel discards the cart of the table's open sale.
func (m *SessionManager) Cancel(ctx context.Context, tableID uint) error {
	s, err := m.Resume(ctx, tableID)
	if err != nil {
		return err
	}
	s.Cancel()
	return nil
}

func (m *SessionManager) drop(tableID uint) {
	m.mu.Lock()
	delete(m.sessions, tableID)
	m.mu.Unlock()
}

// IsCancelled reports whether err is a dismissed weighing.
func IsCancelled(err error) bool { return errors.Is(err, scale.ErrCancelled) }
