package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/erazemk/vitrina/internal/api"
	"github.com/erazemk/vitrina/internal/db"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/importer"
	"github.com/erazemk/vitrina/internal/store"
	"github.com/erazemk/vitrina/internal/web"
)

func main() {
	// A missing .env is fine; the environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("vitrina failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config) error {
	ctx := context.Background()

	items, err := store.NewItems(cfg.itemsDir)
	if err != nil {
		return err
	}
	slog.Info("item store ready", "path", cfg.itemsDir)

	// One-shot maintenance modes only touch the item store.
	switch {
	case cfg.importPath != "":
		res, err := importer.Import(ctx, items, cfg.importPath)
		if err != nil {
			return err
		}
		slog.Info("import finished", "created", len(res.Created), "skipped", res.Failed)
		return nil
	case cfg.normalizeImages:
		n, err := items.RewriteImages(ctx, func(_ string, data []byte) ([]byte, error) {
			return imaging.NormalizeStored(data)
		})
		if err != nil {
			return err
		}
		slog.Info("images normalized", "rewritten", n)
		return nil
	}

	if _, err := os.Stat(cfg.dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.dbPath, cfg.adminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.dbPath, cfg.adminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.dbPath)

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(database, items, jwtSecret)
	webRouter, err := web.NewRouter(database, items, jwtSecret)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
