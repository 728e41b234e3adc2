package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/tablesales/internal/httpx"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"go.uber.org/zap"
)

type TableHandler struct {
	Manager *services.SessionManager
	Log     *zap.Logger
}

func NewTableHandler(m *services.SessionManager, log *zap.Logger) *TableHandler {
	return &TableHandler{Manager: m, Log: logging.OrNop(log)}
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Manager.ListTables(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if tables == nil {
		tables = []models.Table{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": tables, "total": len(tables)})
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Number   int    `json:"number"`
		Name     string `json:"name"`
		Capacity *int   `json:"capacity"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	in := services.TableInput{
		Number:   input.Number,
		Name:     strings.TrimSpace(input.Name),
		Capacity: services.DefaultCapacity,
	}
	if input.Capacity != nil {
		in.Capacity = *input.Capacity
	}
	t, err := h.Manager.CreateTable(r.Context(), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	if err := h.Manager.DeleteTable(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus applies an operator transition: awaiting_bill, occupied
// (back from the bill) or free (after cleaning).
func (h *TableHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var input struct {
		Status models.TableStatus `json:"status"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	t, err := h.Manager.ChangeTableStatus(r.Context(), id, input.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}
