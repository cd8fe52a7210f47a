package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
)

type itemFormPage struct {
	PageData
	Item       *model.Item
	Fields     model.ItemFields
	FieldError string
	FinalPrice float64
	Action     string
}

func (s *Server) renderItemForm(w http.ResponseWriter, r *http.Request, status int, data *itemFormPage) {
	data.FinalPrice = model.FinalPrice(data.Fields.Price, data.Fields.DiscountPercentage)
	if data.Fields.Condition == "" {
		data.Fields.Condition = model.ConditionBrandNew
	}
	s.Templates.RenderStatus(w, status, "item_form.html", data)
}

// AdminPage handles GET /admin, the listing management table.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	pd := s.page(w, r, "Manage listings")
	items, err := catalog.LoadAll(r.Context(), s.Items)
	if err != nil {
		slog.Error("failed to load items", "error", err)
		pd.Error = "The catalog could not be loaded."
	}

	s.Templates.Render(w, "admin_items.html", &catalogPage{
		PageData: pd,
		Items:    catalog.FilterBySearch(items, query),
		Category: model.CategoryAll,
		Query:    query,
	})
}

// ItemNewPage handles GET /admin/items/new.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request) {
	s.renderItemForm(w, r, http.StatusOK, &itemFormPage{
		PageData: s.page(w, r, "Add listing"),
		Action:   "/admin/items",
	})
}

// ItemCreateSubmit handles POST /admin/items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	form := &itemFormPage{PageData: s.page(w, r, "Add listing"), Action: "/admin/items"}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxImages*imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		form.Error = "The upload is too large or malformed."
		s.renderItemForm(w, r, http.StatusBadRequest, form)
		return
	}

	fields, err := model.ParseItemForm(r.MultipartForm.Value)
	form.Fields = fields
	if err == nil {
		err = fields.Validate()
		form.Fields = fields
	}

	var images [][]byte
	if err == nil {
		images, err = imaging.ReadUploads(r.MultipartForm.File["images"])
	}

	if err == nil {
		var item *model.Item
		item, err = s.Items.Create(r.Context(), fields, images)
		if err == nil {
			slog.Info("item created", "user", claims.Username, "item", item.Name, "id", item.ID)
			setFlash(w, true, fmt.Sprintf("Listing %q added.", item.Name))
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
	}

	s.formError(w, r, form, err, "create item")
}

// ItemEditPage handles GET /admin/items/{id}.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.notFound(w, r)
		return
	}

	item, err := s.Items.Get(r.Context(), id)
	if errors.Is(err, model.ErrItemNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to get item", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	form := &itemFormPage{
		PageData: s.page(w, r, "Edit "+item.Name),
		Item:     item,
		Fields:   item.Fields(),
		Action:   fmt.Sprintf("/admin/items/%d", id),
	}
	if !model.StorableCategory(item.Category) {
		form.FieldError = "category"
		form.Error = fmt.Sprintf("Category %q is not a listing category. Pick one before saving.", item.Category)
	}
	s.renderItemForm(w, r, http.StatusOK, form)
}

// ItemUpdateSubmit handles POST /admin/items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.notFound(w, r)
		return
	}

	form := &itemFormPage{
		PageData: s.page(w, r, "Edit listing"),
		Action:   fmt.Sprintf("/admin/items/%d", id),
	}
	// Shown alongside a failed edit.
	form.Item, _ = s.Items.Get(r.Context(), id)

	if err := r.ParseForm(); err != nil {
		form.Error = "The form could not be read."
		s.renderItemForm(w, r, http.StatusBadRequest, form)
		return
	}

	fields, err := model.ParseItemForm(r.PostForm)
	form.Fields = fields
	if err == nil {
		var item *model.Item
		item, err = s.Items.Update(r.Context(), id, fields)
		if err == nil {
			slog.Info("item updated", "user", claims.Username, "item", item.Name, "id", id)
			setFlash(w, true, fmt.Sprintf("Listing %q updated.", item.Name))
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
	}

	if errors.Is(err, model.ErrItemNotFound) {
		setFlash(w, false, "That listing no longer exists.")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.formError(w, r, form, err, "update item")
}

// ItemDeleteSubmit handles POST /admin/items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.notFound(w, r)
		return
	}

	if err := s.Items.Delete(r.Context(), id); err != nil {
		slog.Error("failed to delete item", "id", id, "error", err)
		setFlash(w, false, "The listing could not be deleted.")
	} else {
		slog.Info("item deleted", "user", claims.Username, "id", id)
		setFlash(w, true, "Listing deleted.")
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// formError re-renders the item form with a field error, or reports an
// unexpected failure.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, form *itemFormPage, err error, action string) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		form.FieldError = ve.Field
		form.Error = ve.Error()
		s.renderItemForm(w, r, http.StatusBadRequest, form)
		return
	}

	slog.Error("failed to "+action, "error", err)
	form.Error = "The listing could not be saved."
	s.renderItemForm(w, r, http.StatusInternalServerError, form)
}
