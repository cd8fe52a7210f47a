package web

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

// SettingsPage handles GET /admin/settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "Settings")
	s.Templates.Render(w, "settings.html", &pd)
}

// SettingsSubmit handles POST /admin/settings. The "action" field selects
// between changing the own password and (admins only) the shop currency.
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	switch r.FormValue("action") {
	case "currency":
		s.currencySubmit(w, r)
	default:
		s.passwordSubmit(w, r)
	}
}

func (s *Server) passwordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	pd := s.page(w, r, "Settings")
	fail := func(message string) {
		pd.Error = message
		s.Templates.RenderStatus(w, http.StatusBadRequest, "settings.html", &pd)
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirmPassword := r.FormValue("confirm_password")

	if currentPassword == "" || newPassword == "" {
		fail("Enter your current and new password.")
		return
	}
	if newPassword != confirmPassword {
		fail("The new passwords do not match.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		fail("The new password must be at least 8 characters.")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		slog.Error("failed to get user", "user", claims.Username, "error", err)
		fail("Your account could not be loaded.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		fail("The current password is incorrect.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		fail("The password could not be saved.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		slog.Error("failed to update password", "user", claims.Username, "error", err)
		fail("The password could not be saved.")
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	setFlash(w, true, "Password changed.")
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

func (s *Server) currencySubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	currency := strings.TrimSpace(r.FormValue("currency"))
	if currency == "" || len(currency) > 8 {
		setFlash(w, false, "Enter a currency label of at most 8 characters.")
		http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
		return
	}

	if err := store.SetSetting(r.Context(), s.DB, store.SettingCurrency, currency); err != nil {
		slog.Error("failed to store currency", "error", err)
		setFlash(w, false, "The currency could not be saved.")
	} else {
		slog.Info("currency changed", "user", claims.Username, "currency", currency)
		setFlash(w, true, "Currency set to "+currency+".")
	}
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}
