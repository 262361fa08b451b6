// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Shared wiring for CLI command handlers.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/config"
	"github.com/jeranaias/reconcile-tui/internal/session"
)

// App bundles the pieces every command handler needs.
type App struct {
	Config    *config.Config
	Store     authstore.Store
	Client    *api.Client
	Validator *session.Validator
}

// NewApp loads configuration and wires up the backend client stack.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	store, err := authstore.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	client := api.NewClient(cfg.Backend.URL, store).WithTimeout(cfg.Timeout())
	validator := session.NewValidator(store, client)

	return &App{
		Config:    cfg,
		Store:     store,
		Client:    client,
		Validator: validator,
	}, nil
}

// fatalf prints an error and exits non-zero.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
