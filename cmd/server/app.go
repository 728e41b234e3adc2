package main

import (
	"net/http"

	"github.com/diewo77/tablesales/internal/config"
	"github.com/diewo77/tablesales/internal/metrics"
	"github.com/diewo77/tablesales/internal/pricing"
	"github.com/diewo77/tablesales/internal/server"
	"github.com/diewo77/tablesales/internal/services"
	"github.com/diewo77/tablesales/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newApp wires the store, services and HTTP routes for one store.
func newApp(cfg *config.Config, db *gorm.DB, log *zap.Logger) http.Handler {
	var m *metrics.Metrics
	var gatherer prometheus.Gatherer
	if cfg.App.MetricsEnabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		gatherer = prometheus.DefaultGatherer
	}

	// Incomplete catalog data prices a line at zero instead of failing the sale.
	pricing.SetFallbackObserver(func(code, reason string) {
		log.Warn("pricing fallback", zap.String("product_code", code), zap.String("reason", reason))
		m.PricingFallback(reason)
	})

	storeID := cfg.Store.ID
	st := store.NewGormStore(db)
	catalog := store.NewGormCatalog(db, storeID)
	manager := services.NewSessionManager(
		services.NewTableRegistry(st, storeID, log, m),
		services.NewSaleService(st, storeID, cfg.Store.CleaningOnClose, log, m),
		catalog,
		log,
	)

	return server.New(server.Deps{
		DB:            db,
		StoreID:       storeID,
		SessionSecret: cfg.App.SessionSecret,
		Categories:    cfg.Store.Categories,
		Manager:       manager,
		Catalog:       catalog,
		Log:           log,
		Metrics:       m,
		Gatherer:      gatherer,
	})
}
