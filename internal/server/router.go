package server

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/tablesales/internal/auth"
	"github.com/diewo77/tablesales/internal/config"
	"github.com/diewo77/tablesales/internal/db"
	"github.com/diewo77/tablesales/internal/handlers"
	"github.com/diewo77/tablesales/internal/httpx"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/metrics"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the router needs. Metrics and Gatherer may be nil,
// in which case /metrics is not served.
type Deps struct {
	DB            *gorm.DB
	StoreID       uint
	SessionSecret string
	Categories    []config.Category
	Manager       *services.SessionManager
	Catalog       services.ProductCatalog
	Log           *zap.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	log := logging.OrNop(d.Log)
	mux := http.NewServeMux()

	// Sessions of removed or disabled operators stop working on the next request.
	sessions := auth.NewSessions(d.SessionSecret, func(ctx context.Context, id uint) bool {
		var count int64
		if err := d.DB.WithContext(ctx).Model(&models.Operator{}).
			Where("id = ? AND store_id = ? AND is_active = ?", id, d.StoreID, true).
			Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})
	protect := func(h http.HandlerFunc) http.Handler { return sessions.RequireAuth(h) }

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Ping(d.DB); err != nil {
			log.Warn("health check failed", zap.Error(err))
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.HandlerFor(d.Gatherer))
	}

	// Auth endpoints
	ah := handlers.NewAuthHandler(d.DB, d.StoreID, sessions, log)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)

	// Tables
	th := handlers.NewTableHandler(d.Manager, log)
	mux.Handle("GET /tables", protect(th.List))
	mux.Handle("POST /tables", protect(th.Create))
	mux.Handle("DELETE /tables/{id}", protect(th.Delete))
	mux.Handle("POST /tables/{id}/status", protect(th.ChangeStatus))

	// Sale and cart of one table
	sh := handlers.NewSaleHandler(d.Manager, log)
	mux.Handle("POST /tables/{id}/sale", protect(sh.Open))
	mux.Handle("GET /tables/{id}/sale", protect(sh.Get))
	mux.Handle("GET /tables/{id}/cart", protect(sh.Cart))
	mux.Handle("DELETE /tables/{id}/cart", protect(sh.Cancel))
	mux.Handle("POST /tables/{id}/cart/items", protect(sh.AddItem))
	mux.Handle("PATCH /tables/{id}/cart/items/{code}", protect(sh.UpdateItem))
	mux.Handle("DELETE /tables/{id}/cart/items/{code}", protect(sh.RemoveItem))
	mux.Handle("PUT /tables/{id}/payment", protect(sh.SetPayment))
	mux.Handle("POST /tables/{id}/finalize", protect(sh.Finalize))

	// Catalog
	ph := handlers.NewProductHandler(d.Catalog, d.Categories, log)
	mux.Handle("GET /products", protect(ph.List))
	mux.Handle("GET /categories", protect(ph.ListCategories))

	return withRecover(log, withLogging(log, d.Metrics, sessions.Middleware(mux)))
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(log *zap.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		m.ObserveRequest(r.Method, rec.status, elapsed)
		log.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic serving request", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
