package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

// ItemsHandler handles catalog item endpoints.
type ItemsHandler struct {
	Items *store.Items
}

// itemResponse is an item with its images addressed over HTTP.
type itemResponse struct {
	model.Item
	ImageURLs []string `json:"image_urls"`
}

func newItemResponse(item model.Item) itemResponse {
	names := make([]string, 0, len(item.Images))
	urls := make([]string, 0, len(item.Images))
	for _, img := range item.Images {
		name := filepath.Base(img)
		names = append(names, name)
		urls = append(urls, "/api/items/"+item.Folder+"/images/"+name)
	}
	item.Images = names
	return itemResponse{Item: item, ImageURLs: urls}
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string][]string{
		"categories": model.Categories,
		"conditions": model.Conditions,
	})
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := catalog.LoadAll(r.Context(), h.Items)
	if err != nil {
		slog.Error("failed to load items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	q := r.URL.Query()
	items = catalog.Filter(items, q.Get("category"), q.Get("q"))

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, newItemResponse(item))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Items.Get(r.Context(), id)
	if err != nil {
		itemError(w, err, "get item")
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(*item))
}

// Create handles POST /api/items as a multipart form of item fields plus
// one or more "images" files.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxImages*imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "request too large or invalid multipart form")
		return
	}

	fields, err := model.ParseItemForm(r.MultipartForm.Value)
	if err != nil {
		itemError(w, err, "create item")
		return
	}
	// Field errors are reported before any image work.
	if err := fields.Validate(); err != nil {
		itemError(w, err, "create item")
		return
	}

	images, err := imaging.ReadUploads(r.MultipartForm.File["images"])
	if err != nil {
		itemError(w, err, "create item")
		return
	}

	item, err := h.Items.Create(r.Context(), fields, images)
	if err != nil {
		itemError(w, err, "create item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item created", "user", claims.Username, "item", item.Name, "id", item.ID)
	jsonResponse(w, http.StatusCreated, newItemResponse(*item))
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var fields model.ItemFields
	if err := decodeJSON(r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.Update(r.Context(), id, fields)
	if err != nil {
		itemError(w, err, "update item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item updated", "user", claims.Username, "item", item.Name, "id", item.ID)
	jsonResponse(w, http.StatusOK, newItemResponse(*item))
}

// Delete handles DELETE /api/items/{id}. Deleting a missing item succeeds.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Items.Delete(r.Context(), id); err != nil {
		itemError(w, err, "delete item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item deleted", "user", claims.Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// GetImage handles GET /api/items/{id}/images/{name}.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	path, err := h.Items.ImagePath(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image path")
		return
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}
	if err != nil {
		slog.Error("failed to read image", "path", path, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}

	// Legacy files may hold PNG data behind a .jpg name.
	w.Header().Set("Content-Type", imaging.ContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
