package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/diewo77/tablesales/internal/httpx"
	"github.com/diewo77/tablesales/internal/services"
	"go.uber.org/zap"
)

// writeError maps a service error to its HTTP status and JSON body.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *services.ValidationError
	var ce *services.ConflictError
	var pe *services.PersistenceError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", ve.Violations)
	case errors.As(err, &ce):
		httpx.JSONError(w, http.StatusConflict, ce.Reason, nil)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case services.IsCancelled(err):
		httpx.JSONError(w, http.StatusBadRequest, "scale_cancelled", nil)
	case errors.As(err, &pe):
		log.Error("persistence failed", zap.String("op", pe.Op), zap.Error(pe.Err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "persistence_failed", nil)
	default:
		log.Error("unexpected error", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// pathID reads a positive numeric path value.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// tableID answers 400 and returns false when the {id} segment is not a table id.
func tableID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
	}
	return id, ok
}

// decodeBody decodes a JSON body. With optional set an empty body is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	err := httpx.DecodeJSON(r, dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
	return false
}
