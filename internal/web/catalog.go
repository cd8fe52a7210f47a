package web

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
)

type catalogPage struct {
	PageData
	Items    []model.Item
	Category string
	Query    string
}

// CatalogPage handles GET /, the public browse grid.
func (s *Server) CatalogPage(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = model.CategoryAll
	}
	query := r.URL.Query().Get("q")

	pd := s.page(w, r, "Catalog")
	items, err := catalog.LoadAll(r.Context(), s.Items)
	if err != nil {
		slog.Error("failed to load items", "error", err)
		pd.Error = "The catalog could not be loaded."
	}

	s.Templates.Render(w, "catalog.html", &catalogPage{
		PageData: pd,
		Items:    catalog.Filter(items, category, query),
		Category: category,
		Query:    query,
	})
}

// ItemPage handles GET /items/{id}, the public detail view.
func (s *Server) ItemPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.notFound(w, r)
		return
	}

	items, err := catalog.LoadAll(r.Context(), s.Items)
	if err != nil {
		slog.Error("failed to load items", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	item := catalog.Find(items, id)
	if item == nil {
		s.notFound(w, r)
		return
	}

	pd := s.page(w, r, item.Name)
	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item *model.Item
	}{
		PageData: pd,
		Item:     item,
	})
}

// ImageGet handles GET /images/{folder}/{name}.
func (s *Server) ImageGet(w http.ResponseWriter, r *http.Request) {
	path, err := s.Items.ImagePath(r.PathValue("folder"), r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to read image", "path", path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", imaging.ContentType(data))
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
