package main

import (
	"errors"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil, func(string) string { return "" }, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.itemsDir != "items" || cfg.dbPath != "vitrina.sqlite3" || cfg.addr != ":8080" || cfg.adminUser != "Admin" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	env := map[string]string{"VITRINA_ITEMS": "/srv/items", "VITRINA_ADDR": ":9000"}
	cfg, err := parseConfig([]string{"-a", ":7000", "-normalize-images"}, func(k string) string { return env[k] }, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.itemsDir != "/srv/items" {
		t.Errorf("expected env items dir, got %q", cfg.itemsDir)
	}
	if cfg.addr != ":7000" {
		t.Errorf("flag should override env, got %q", cfg.addr)
	}
	if !cfg.normalizeImages {
		t.Error("expected normalize-images")
	}
}

func TestParseConfigErrors(t *testing.T) {
	noEnv := func(string) string { return "" }

	if _, err := parseConfig([]string{"-h"}, noEnv, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected ErrHelp, got %v", err)
	}
	if _, err := parseConfig([]string{"extra"}, noEnv, io.Discard); err == nil {
		t.Error("expected error for positional argument")
	}
	if _, err := parseConfig([]string{"-import", "m.yaml", "-normalize-images"}, noEnv, io.Discard); err == nil {
		t.Error("expected error for combined one-shot modes")
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generatePassword(16)
	if len(a) != 16 || a == b {
		t.Errorf("expected two distinct 16 character passwords, got %q and %q", a, b)
	}
}

func TestInitDatabaseCreatesAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitrina.sqlite3")
	database, password, err := initDatabase(path, "Owner")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if strings.TrimSpace(password) == "" {
		t.Fatal("expected generated password")
	}
	user, err := store.GetUserByUsername(t.Context(), database, "Owner")
	if err != nil || user == nil {
		t.Fatalf("admin not created: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("expected admin role, got %q", user.Role)
	}
}
