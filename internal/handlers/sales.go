package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/tablesales/internal/auth"
	"github.com/diewo77/tablesales/internal/httpx"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleHandler drives the sale and cart of one table.
type SaleHandler struct {
	Manager *services.SessionManager
	Log     *zap.Logger
}

func NewSaleHandler(m *services.SessionManager, log *zap.Logger) *SaleHandler {
	return &SaleHandler{Manager: m, Log: logging.OrNop(log)}
}

// Open starts a sale on a free table. The logged-in operator is recorded on it.
func (h *SaleHandler) Open(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var input struct {
		CustomerName  string `json:"customer_name"`
		CustomerCount int    `json:"customer_count"`
	}
	if !decodeBody(w, r, &input, true) {
		return
	}
	in := services.OpenSaleInput{
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerCount: input.CustomerCount,
	}
	if op, ok := auth.OperatorFromContext(r.Context()); ok {
		in.OperatorName = op.Name
	}
	s, err := h.Manager.OpenSale(r.Context(), id, in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s.View())
}

// Get returns the table's open sale with its cart.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, s.View())
}

func (h *SaleHandler) Cart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	v := s.View()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      v.Items,
		"total":      v.Total,
		"item_count": v.ItemCount,
	})
}

// AddItem adds a product by code. Weighable products take weight_grams, or
// cancelled when the operator dismissed the scale.
func (h *SaleHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var input struct {
		Code        string              `json:"code"`
		Quantity    int                 `json:"quantity"`
		WeightGrams decimal.NullDecimal `json:"weight_grams"`
		Cancelled   bool                `json:"cancelled"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	item, err := h.Manager.AddProduct(r.Context(), id, services.AddItemInput{
		Code:        strings.TrimSpace(input.Code),
		Quantity:    input.Quantity,
		WeightGrams: input.WeightGrams,
		Cancelled:   input.Cancelled,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	resp := map[string]any{"item": item}
	if s, ok := h.Manager.Session(id); ok {
		resp["cart"] = s.View()
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

// UpdateItem sets a line quantity; zero or less removes the line.
func (h *SaleHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var input struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	found, err := s.UpdateCartQuantity(r.PathValue("code"), input.Quantity)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !found {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, s.View())
}

func (h *SaleHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := s.RemoveFromCart(r.PathValue("code")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s.View())
}

// SetPayment records the payment method chosen before the bill is closed.
// Finalize falls back to it when its body names no method.
func (h *SaleHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var input struct {
		PaymentMethod models.PaymentMethod `json:"payment_method"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	if err := s.SetPaymentMethod(input.PaymentMethod); err != nil {
		writeError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s.View())
}

// Cancel discards the cart. The sale stays open on its table.
func (h *SaleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	if err := h.Manager.Cancel(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaleHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var input struct {
		PaymentMethod models.PaymentMethod `json:"payment_method"`
		ChangeDue     decimal.NullDecimal  `json:"change_due"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	res, err := h.Manager.Finalize(r.Context(), id, services.FinalizeInput{
		PaymentMethod: input.PaymentMethod,
		ChangeDue:     input.ChangeDue,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sale":         res.Sale,
		"table_status": res.TableStatus,
	})
}

func (h *SaleHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	id, ok := tableID(w, r)
	if !ok {
		return nil, false
	}
	s, err := h.Manager.Resume(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return nil, false
	}
	return s, true
}
