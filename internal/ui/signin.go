// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// signin.go - Sign-in view for the reconcile TUI.
//
// Shows the third-party authorization URL and waits for the loopback
// redirect to deliver the credential. The view never decides whether the
// user is signed in; it reports completion and lets the gate re-run.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/callback"
	"github.com/jeranaias/reconcile-tui/internal/config"
)

// signInWait caps how long the view waits for the browser redirect.
const signInWait = 5 * time.Minute

// loginInfoMsg carries the fetched authorization URL.
type loginInfoMsg struct {
	url string
	err error
}

// signInDoneMsg signals that the callback flow finished. addr carries any
// redirect address for the gate to extract; empty when the listener
// already stored the credential.
type signInDoneMsg struct {
	addr string
	err  error
}

// signinModel is the sign-in view.
type signinModel struct {
	theme  *Theme
	cfg    *config.Config
	store  authstore.Store
	client *api.Client

	spinner spinner.Model
	authURL string
	waiting bool
	err     error

	width  int
	height int
}

func newSigninModel(theme *Theme, cfg *config.Config, store authstore.Store, client *api.Client) signinModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return signinModel{
		theme:   theme,
		cfg:     cfg,
		store:   store,
		client:  client,
		spinner: sp,
	}
}

func (m *signinModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// start fetches the authorization URL. Called on every activation; a
// fresh URL is fetched each time because the state parameter is
// single-use.
func (m *signinModel) start() tea.Cmd {
	client := m.client
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		info, err := client.LoginURL(ctx)
		if err != nil {
			return loginInfoMsg{err: err}
		}
		return loginInfoMsg{url: info.AuthorizationURL}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

// listen runs the loopback callback listener until a credential arrives.
func (m *signinModel) listen() tea.Cmd {
	store := m.store
	addr := m.cfg.Backend.CallbackAddr
	return func() tea.Msg {
		listener := callback.NewListener(store, addr)
		ctx, cancel := context.WithTimeout(context.Background(), signInWait)
		defer cancel()
		_, err := listener.Wait(ctx)
		return signInDoneMsg{err: err}
	}
}

func (m signinModel) update(msg tea.Msg) (signinModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginInfoMsg:
		if msg.err != nil {
			m.err = msg.err
			m.waiting = false
			return m, nil
		}
		m.authURL = msg.url
		m.waiting = true
		m.err = nil
		return m, m.listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "r" && m.err != nil {
			return m, m.start()
		}
	}
	return m, nil
}

func (m signinModel) view() string {
	t := m.theme
	out := t.Title.Render("Sign in to reconcile") + "\n\n"

	if m.err != nil {
		out += t.Bad.Render("Could not start sign-in: "+m.err.Error()) + "\n\n"
		out += t.Help.Render("press r to retry, ctrl+c to quit")
		return out
	}

	if m.authURL == "" {
		return out + m.spinner.View() + t.Dim.Render(" contacting backend...")
	}

	out += t.Normal.Render("Open this URL in your browser:") + "\n\n"
	out += "  " + t.Good.Render(m.authURL) + "\n\n"
	if m.waiting {
		out += m.spinner.View() + t.Dim.Render(" waiting for the redirect on "+m.cfg.Backend.CallbackAddr+"...")
	}
	return out
}
