// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the reconcile terminal interface.
//
// Navigation is gate-driven: whenever a view activates, the auth gate
// runs once and yields a single decision (stay, go to sign-in, go to the
// report list). There are no timers; an expired session surfaces on the
// next request or activation.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/config"
	"github.com/jeranaias/reconcile-tui/internal/gate"
	"github.com/jeranaias/reconcile-tui/internal/model"
	"github.com/jeranaias/reconcile-tui/internal/report"
	"github.com/jeranaias/reconcile-tui/internal/session"
	"github.com/jeranaias/reconcile-tui/internal/storage"
)

// view identifies the active screen.
type view int

const (
	viewSignIn view = iota
	viewReports
	viewChat
)

// gateView maps a UI view to its gate classification.
func (v view) gateView() gate.View {
	if v == viewSignIn {
		return gate.ViewSignIn
	}
	return gate.ViewProtected
}

// =============================================================================
// MESSAGES
// =============================================================================

// gateResultMsg carries one completed gate pass.
type gateResultMsg struct {
	target view
	result gate.Result
}

// openChatMsg asks the app to open the chat view for a report.
type openChatMsg struct {
	inline   *model.Report
	reportID string
}

// closeChatMsg returns from the chat view to the report list.
type closeChatMsg struct{}

// ConfigReloadedMsg delivers a config file change detected while the
// TUI is running. Only the UI section applies live; backend and storage
// settings take effect on the next start.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// APP MODEL
// =============================================================================

// App is the root Bubble Tea model.
type App struct {
	theme *Theme

	width  int
	height int

	cfg       *config.Config
	store     authstore.Store
	client    *api.Client
	validator *session.Validator
	gate      *gate.Gate
	cache     *storage.Cache

	current view
	session *model.Session

	signin  signinModel
	reports reportsModel
	chat    chatModel
}

// NewApp wires the root model from the shared client stack. cache may be
// nil when the local report cache is disabled.
func NewApp(cfg *config.Config, store authstore.Store, client *api.Client, validator *session.Validator, cache *storage.Cache) *App {
	theme := NewTheme()
	g := gate.New(store, validator)
	lister := report.NewLister(client)

	return &App{
		theme:     theme,
		cfg:       cfg,
		store:     store,
		client:    client,
		validator: validator,
		gate:      g,
		cache:     cache,
		current:   viewReports,
		signin:    newSigninModel(theme, cfg, store, client),
		reports:   newReportsModel(theme, lister, cache),
		chat:      newChatModel(theme, cfg, client, cache),
	}
}

// Init runs the first gate pass for the default (protected) view.
func (a *App) Init() tea.Cmd {
	return a.authorize(a.current, "")
}

// authorize runs one gate pass off the UI goroutine.
func (a *App) authorize(target view, addr string) tea.Cmd {
	g := a.gate
	return func() tea.Msg {
		res := g.Authorize(context.Background(), target.gateView(), addr)
		return gateResultMsg{target: target, result: res}
	}
}

// Update handles messages and updates the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.signin.setSize(msg.Width, msg.Height)
		a.reports.setSize(msg.Width, msg.Height)
		a.chat.setSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case gateResultMsg:
		return a.applyGateResult(msg)

	case openChatMsg:
		a.current = viewChat
		return a, a.chat.open(msg.inline, msg.reportID)

	case closeChatMsg:
		a.chat.close()
		a.current = viewReports
		return a, tea.Batch(
			a.authorize(viewReports, ""),
			a.reports.refresh(),
		)

	case ConfigReloadedMsg:
		a.cfg.UI = msg.Config.UI
		return a, nil

	case signInDoneMsg:
		// A credential landed (or the flow failed); the gate decides.
		return a, a.authorize(viewSignIn, msg.addr)
	}

	return a.route(msg)
}

// applyGateResult applies the single navigation decision of a gate pass.
func (a *App) applyGateResult(msg gateResultMsg) (tea.Model, tea.Cmd) {
	a.session = msg.result.Session

	switch msg.result.Decision {
	case gate.ToSignIn:
		a.current = viewSignIn
		return a, a.signin.start()

	case gate.ToHome:
		a.current = viewReports
		return a, a.reports.refresh()

	default: // Stay
		a.current = msg.target
		if a.current == viewReports {
			return a, a.reports.refresh()
		}
		if a.current == viewSignIn {
			return a, a.signin.start()
		}
		return a, nil
	}
}

// route forwards a message to the active view.
func (a *App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.current {
	case viewSignIn:
		a.signin, cmd = a.signin.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewChat:
		a.chat, cmd = a.chat.update(msg)
	}
	return a, cmd
}

// View renders the active view with a shared status bar.
func (a *App) View() string {
	var body string
	switch a.current {
	case viewSignIn:
		body = a.signin.view()
	case viewReports:
		body = a.reports.view()
	case viewChat:
		body = a.chat.view()
	}
	return body + "\n" + a.statusBar()
}

// statusBar renders the one-line footer.
func (a *App) statusBar() string {
	who := "not signed in"
	if a.session != nil {
		who = a.session.Identity.DisplayName()
	}
	return a.theme.StatusBar.Render(" reconcile | " + who)
}
