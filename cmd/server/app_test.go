package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/tablesales/internal/config"
	"github.com/diewo77/tablesales/internal/db"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewAppServesHealthAndHidesMetrics(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file:TestNewApp?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb, "", false, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := &config.Config{
		App:   config.AppConfig{SessionSecret: "s", MetricsEnabled: false},
		Store: config.StoreConfig{ID: 1, Categories: config.DefaultCategories},
	}
	h := newApp(cfg, gdb, zap.NewNop())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("metrics disabled: expected 404 got %d", w.Code)
	}
}
