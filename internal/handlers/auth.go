package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/tablesales/internal/auth"
	"github.com/diewo77/tablesales/internal/httpx"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthHandler logs operators in with their name and PIN.
type AuthHandler struct {
	DB       *gorm.DB
	StoreID  uint
	Sessions *auth.Sessions
	Log      *zap.Logger
}

func NewAuthHandler(db *gorm.DB, storeID uint, sessions *auth.Sessions, log *zap.Logger) *AuthHandler {
	return &AuthHandler{DB: db, StoreID: storeID, Sessions: sessions, Log: logging.OrNop(log)}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
		PIN  string `json:"pin"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	v := validation.Violations{}
	validation.Required("name", input.Name, v)
	validation.Required("pin", input.PIN, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var op models.Operator
	err := h.DB.WithContext(r.Context()).
		Where("store_id = ? AND name = ? AND is_active = ?", h.StoreID, input.Name, true).
		First(&op).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.Log.Error("load operator", zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "persistence_failed", nil)
		return
	}
	if err != nil || !auth.CheckPIN(op.PINHash, input.PIN) {
		h.Log.Info("login refused", zap.String("operator", input.Name))
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	h.Sessions.CreateSession(w, auth.Operator{ID: op.ID, Name: op.Name})
	h.Log.Info("operator logged in", zap.Uint("operator_id", op.ID))
	httpx.JSON(w, http.StatusOK, map[string]any{"id": op.ID, "name": op.Name})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.Sessions.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
