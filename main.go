// reconcile - terminal client for AI document reconciliation.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/cli"
	"github.com/jeranaias/reconcile-tui/internal/config"
	"github.com/jeranaias/reconcile-tui/internal/session"
	"github.com/jeranaias/reconcile-tui/internal/storage"
	"github.com/jeranaias/reconcile-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI()
	case cli.CmdLogin:
		cli.HandleLogin(args)
	case cli.CmdLogout:
		cli.HandleLogout(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdReports:
		cli.HandleReports(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdEmails:
		cli.HandleEmails(args)
	case cli.CmdAnalytics:
		cli.HandleAnalytics(args)
	case cli.CmdRefreshWatch:
		cli.HandleRefreshWatch(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI()
	}
}

// runTUI starts the full-screen interface.
func runTUI() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := authstore.NewFileStore(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.Backend.URL, store).WithTimeout(cfg.Timeout())
	validator := session.NewValidator(store, client)

	var cache *storage.Cache
	if cfg.Storage.Enabled {
		cache, err = storage.Open(cfg.Storage.Dir)
		if err != nil {
			// The cache is an accelerator, not a requirement.
			log.Printf("local report cache unavailable: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Request logs would corrupt the alternate screen; keep them out of
	// the way while the TUI owns the terminal.
	logFile, err := os.OpenFile(dir+"/reconcile.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err == nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	app := ui.NewApp(cfg, store, client, validator, cache)

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Pick up config edits (theme, panel state) without a restart.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		err := config.Watch(watchCtx, func(next *config.Config) {
			p.Send(ui.ConfigReloadedMsg{Config: next})
		})
		if err != nil && watchCtx.Err() == nil {
			log.Printf("config watch stopped: %v", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running reconcile: %v\n", err)
		os.Exit(1)
	}
}
