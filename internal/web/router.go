package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/vitrina/internal/store"
	webembed "github.com/erazemk/vitrina/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, items *store.Items, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Items:     items,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	static, err := webembed.StaticFS()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Public catalog.
	mux.HandleFunc("GET /{$}", s.CatalogPage)
	mux.HandleFunc("GET /items/{id}", s.ItemPage)
	mux.HandleFunc("GET /images/{folder}/{name}", s.ImageGet)

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Admin console.
	mux.Handle("GET /admin", cookieAuth(http.HandlerFunc(s.AdminPage)))
	mux.Handle("GET /admin/items/new", cookieAuth(http.HandlerFunc(s.ItemNewPage)))
	mux.Handle("POST /admin/items", cookieAuth(http.HandlerFunc(s.ItemCreateSubmit)))
	mux.Handle("GET /admin/items/{id}", cookieAuth(http.HandlerFunc(s.ItemEditPage)))
	mux.Handle("POST /admin/items/{id}", cookieAuth(http.HandlerFunc(s.ItemUpdateSubmit)))
	mux.Handle("POST /admin/items/{id}/delete", cookieAuth(http.HandlerFunc(s.ItemDeleteSubmit)))
	mux.Handle("GET /admin/settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /admin/settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))

	mux.HandleFunc("/", s.notFound)

	return mux, nil
}
