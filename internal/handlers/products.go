package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/tablesales/internal/config"
	"github.com/diewo77/tablesales/internal/httpx"
	"github.com/diewo77/tablesales/internal/logging"
	"github.com/diewo77/tablesales/internal/models"
	"github.com/diewo77/tablesales/internal/services"
	"go.uber.org/zap"
)

// ProductHandler serves the read-only catalog used to fill carts.
type ProductHandler struct {
	Catalog    services.ProductCatalog
	Categories []config.Category
	Log        *zap.Logger
}

func NewProductHandler(catalog services.ProductCatalog, categories []config.Category, log *zap.Logger) *ProductHandler {
	return &ProductHandler{Catalog: catalog, Categories: categories, Log: logging.OrNop(log)}
}

// List returns active products. q matches name or code, category narrows
// to one category; both may be combined.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	var products []models.Product
	var err error
	switch {
	case q != "":
		products, err = h.Catalog.Search(r.Context(), q)
		if err == nil && category != "" {
			products = inCategory(products, category)
		}
	case category != "":
		products, err = h.Catalog.ByCategory(r.Context(), category)
	default:
		products, err = h.Catalog.ListAll(r.Context())
	}
	if err != nil {
		h.Log.Error("list products", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	cats := h.Categories
	if cats == nil {
		cats = []config.Category{}
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func inCategory(products []models.Product, category string) []models.Product {
	out := products[:0]
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
