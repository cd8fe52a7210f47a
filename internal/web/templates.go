package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
	webembed "github.com/erazemk/vitrina/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleEditor:
				return "Editor"
			default:
				return role
			}
		},
		"money": func(v float64, currency string) string {
			return decimal.NewFromFloat(v).StringFixed(2) + " " + currency
		},
		"percent": func(v float64) string {
			return decimal.NewFromFloat(v).String() + "%"
		},
		"imageURL": func(folder, path string) string {
			return "/images/" + folder + "/" + filepath.Base(path)
		},
		"categories": func() []string { return model.Categories },
		"conditions": func() []string { return model.Conditions },
		"storable":   model.StorableCategory,
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs, err := webembed.TemplatesFS()
	if err != nil {
		return nil, err
	}

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"catalog.html",
		"item_detail.html",
		"admin_items.html",
		"item_form.html",
		"settings.html",
		"not_found.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with an explicit status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title    string
	User     *auth.Claims
	Currency string
	Error    string
	Success  string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Items     *store.Items
	Templates *Templates
	JWTSecret string
}

// page builds the base page data for a request, consuming any flash message.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	currency, err := store.GetCurrency(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to read currency", "error", err)
	}

	pd := PageData{Title: title, User: s.currentUser(r), Currency: currency}
	pd.Success, pd.Error = readFlash(w, r)
	return pd
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.Templates.RenderStatus(w, http.StatusNotFound, "not_found.html", s.page(w, r, "Not found"))
}
