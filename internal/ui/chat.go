// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Per-report chat view for the reconcile TUI.
//
// One synchronizer per opened report. Closing the view tears the
// synchronizer down; replies that race the teardown are discarded by the
// synchronizer's generation guard, so a reopened view never absorbs a
// stale reply.
package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/config"
	"github.com/jeranaias/reconcile-tui/internal/conversation"
	"github.com/jeranaias/reconcile-tui/internal/model"
	"github.com/jeranaias/reconcile-tui/internal/storage"
)

// chatOpenedMsg delivers the resolved report (or the failure to get it).
type chatOpenedMsg struct {
	report *model.Report
	err    error
}

// sendDoneMsg signals that one send finished; the transcript already
// holds the outcome.
type sendDoneMsg struct {
	err error
}

// chatModel is the per-report chat view.
type chatModel struct {
	theme  *Theme
	cfg    *config.Config
	client *api.Client
	cache  *storage.Cache

	sync     *conversation.Sync
	report   *model.Report
	renderer *glamour.TermRenderer

	viewport  viewport.Model
	input     textinput.Model
	panelOpen bool
	sending   bool
	openErr   error

	width  int
	height int
}

func newChatModel(theme *Theme, cfg *config.Config, client *api.Client, cache *storage.Cache) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about this report..."
	ti.CharLimit = 4000

	vp := viewport.New(80, 20)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	return chatModel{
		theme:     theme,
		cfg:       cfg,
		client:    client,
		cache:     cache,
		renderer:  renderer,
		viewport:  vp,
		input:     ti,
		panelOpen: cfg.UI.PanelExpanded,
	}
}

func (m *chatModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	vh := h - 6
	if vh < 3 {
		vh = 3
	}
	m.viewport.Height = vh
	m.input.Width = w - 4
}

// open binds a fresh synchronizer to the report. An inline report from
// the list view costs no extra fetch.
func (m *chatModel) open(inline *model.Report, reportID string) tea.Cmd {
	m.sync = conversation.New(m.client)
	m.report = nil
	m.openErr = nil
	m.sending = false
	m.input.SetValue("")
	m.input.Focus()

	sync := m.sync
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rpt, err := sync.Resolve(ctx, inline, reportID)
		return chatOpenedMsg{report: rpt, err: err}
	}
}

// close tears down the synchronizer; in-flight results are discarded.
func (m *chatModel) close() {
	if m.sync != nil {
		m.sync.Close()
	}
	m.report = nil
}

// send posts one user turn off the UI goroutine.
func (m *chatModel) send(text string) tea.Cmd {
	sync := m.sync
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		err := sync.Send(ctx, text)
		return sendDoneMsg{err: err}
	}
}

func (m chatModel) update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case chatOpenedMsg:
		if msg.err != nil {
			m.openErr = msg.err
			return m, nil
		}
		m.report = msg.report
		m.refreshTranscript()
		return m, nil

	case transcriptTickMsg:
		m.refreshTranscript()
		return m, nil

	case sendDoneMsg:
		m.sending = false
		if msg.err != nil {
			// The explanatory assistant message is already appended.
			log.Printf("chat send failed: %v", msg.err)
		}
		m.refreshTranscript()
		m.persistTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return closeChatMsg{} }

		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.sending || m.sync == nil || m.report == nil {
				return m, nil
			}
			m.input.SetValue("")
			m.sending = true
			cmd := m.send(text)
			// Optimistic append happens inside Send, but the user turn
			// should be visible before the reply arrives.
			return m, tea.Batch(cmd, m.deferredRefresh())

		case "ctrl+p":
			m.panelOpen = !m.panelOpen
			m.cfg.UI.PanelExpanded = m.panelOpen
			if err := config.Save(m.cfg); err != nil {
				log.Printf("could not persist panel state: %v", err)
			}
			return m, nil

		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// deferredRefresh repaints the transcript shortly after a send starts so
// the optimistic user turn shows immediately.
func (m *chatModel) deferredRefresh() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return transcriptTickMsg{}
	})
}

// transcriptTickMsg triggers one transcript repaint.
type transcriptTickMsg struct{}

// refreshTranscript re-renders the viewport from the synchronizer.
func (m *chatModel) refreshTranscript() {
	if m.sync == nil {
		return
	}
	var b strings.Builder
	for _, msg := range m.sync.Messages() {
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(m.theme.UserMsg.Render("you") + "\n")
			b.WriteString(msg.Content + "\n\n")
		case model.RoleAssistant:
			b.WriteString(m.theme.Assistant.Render("assistant") + "\n")
			b.WriteString(m.renderMarkdown(msg.Content) + "\n")
		default:
			b.WriteString(m.theme.Dim.Render(msg.Content) + "\n\n")
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// persistTranscript mirrors the transcript into the local cache.
func (m *chatModel) persistTranscript() {
	if m.cache == nil || m.sync == nil || m.report == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.cache.SaveTranscript(ctx, m.report.ID, m.sync.Messages()); err != nil {
		log.Printf("transcript cache write failed: %v", err)
	}
}

// renderMarkdown renders assistant markdown, falling back to plain text.
func (m *chatModel) renderMarkdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func (m chatModel) view() string {
	t := m.theme

	if m.openErr != nil {
		return t.Bad.Render("could not open report: "+m.openErr.Error()) + "\n\n" +
			t.Help.Render("esc back")
	}
	if m.report == nil {
		return t.Dim.Render("loading report...")
	}

	header := t.Title.Render("Report "+m.report.ID) + "\n"

	panel := ""
	if m.panelOpen && len(m.report.Discrepancies) > 0 {
		var b strings.Builder
		b.WriteString(t.Header.Render(fmt.Sprintf("Discrepancies (%d)", len(m.report.Discrepancies))))
		for _, d := range m.report.Discrepancies {
			b.WriteString("\n" + t.Warn.Render("- ") + t.Normal.Render(d.Name))
			if d.Details != "" {
				b.WriteString("\n  " + t.Dim.Render(d.Details))
			}
		}
		panel = t.Panel.Render(b.String()) + "\n"
	}

	inputLine := "> " + m.input.View()
	if m.sending {
		inputLine = t.Dim.Render("sending...")
	}

	help := t.Help.Render("enter send | ctrl+p discrepancies | esc back")
	return header + panel + m.viewport.View() + "\n" + inputLine + "\n" + help
}
