package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const (
	tokenCookie = "token"
	flashCookie = "flash"
)

// CookieAuthMiddleware validates JWT from cookie, checks token revocation,
// requires at least the editor role and adds claims to context.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(tokenCookie)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			claims, err := validateCookie(r.Context(), secret, db, cookie.Value)
			if err != nil {
				clearCookie(w, tokenCookie)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !model.RoleAtLeast(claims.Role, model.RoleEditor) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateCookie(ctx context.Context, secret string, db *sql.DB, token string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		return nil, err
	}

	revoked, err := store.IsTokenRevoked(ctx, db, claims.ID)
	if err != nil {
		slog.Error("failed to check token revocation", "error", err)
		return nil, err
	}
	if revoked {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// currentUser returns the signed-in user on public pages, or nil.
func (s *Server) currentUser(r *http.Request) *auth.Claims {
	if claims := GetWebClaims(r.Context()); claims != nil {
		return claims
	}
	cookie, err := r.Cookie(tokenCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := validateCookie(r.Context(), s.JWTSecret, s.DB, cookie.Value)
	if err != nil {
		return nil
	}
	return claims
}

// clearCookie removes a cookie with consistent attributes.
func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// setFlash stores a one-shot message shown on the next rendered page.
func setFlash(w http.ResponseWriter, ok bool, message string) {
	kind := "err"
	if ok {
		kind = "ok"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// readFlash returns and clears the pending flash message.
func readFlash(w http.ResponseWriter, r *http.Request) (success, failure string) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return "", ""
	}
	clearCookie(w, flashCookie)

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", ""
	}
	kind, message, _ := strings.Cut(value, ":")
	if kind == "ok" {
		return message, ""
	}
	return "", message
}
