// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// reports.go - Report list view for the reconcile TUI.
//
// The list paints instantly from the local cache, then replaces itself
// with the server's answer. A failed fetch shows the cached list plus an
// error line instead of a stuck spinner; the server is authoritative the
// moment it responds.
package ui

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reconcile-tui/internal/model"
	"github.com/jeranaias/reconcile-tui/internal/report"
	"github.com/jeranaias/reconcile-tui/internal/storage"
	"github.com/jeranaias/reconcile-tui/internal/util"
)

// reportsLoadedMsg delivers a report list, from the cache or the server.
type reportsLoadedMsg struct {
	summaries []model.ReportSummary
	fromCache bool
	err       error
}

// reportFetchedMsg delivers one full report for chat hand-off.
type reportFetchedMsg struct {
	report *model.Report
	err    error
}

// reportsModel is the report list view.
type reportsModel struct {
	theme  *Theme
	lister *report.Lister
	cache  *storage.Cache

	summaries []model.ReportSummary
	cursor    int
	loading   bool
	fromCache bool
	loadErr   error
	openErr   error

	width  int
	height int
}

func newReportsModel(theme *Theme, lister *report.Lister, cache *storage.Cache) reportsModel {
	return reportsModel{theme: theme, lister: lister, cache: cache}
}

func (m *reportsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// refresh paints from the cache and fetches from the server.
func (m *reportsModel) refresh() tea.Cmd {
	m.loading = true
	m.openErr = nil

	cmds := []tea.Cmd{m.fetch()}
	if m.cache != nil {
		cache := m.cache
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			cached, err := cache.LoadSummaries(ctx)
			if err != nil || len(cached) == 0 {
				return nil
			}
			return reportsLoadedMsg{summaries: cached, fromCache: true}
		})
	}
	return tea.Batch(cmds...)
}

// fetch asks the server for the report list.
func (m *reportsModel) fetch() tea.Cmd {
	lister := m.lister
	cache := m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		summaries, err := lister.List(ctx)
		if err == nil && cache != nil {
			if saveErr := cache.SaveSummaries(ctx, summaries); saveErr != nil {
				log.Printf("report cache write failed: %v", saveErr)
			}
		}
		return reportsLoadedMsg{summaries: summaries, err: err}
	}
}

// open fetches the selected report and hands it to the chat view.
func (m *reportsModel) open() tea.Cmd {
	if m.cursor >= len(m.summaries) {
		return nil
	}
	id := m.summaries[m.cursor].ID
	lister := m.lister
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rpt, err := lister.Fetch(ctx, id)
		if err != nil {
			return reportFetchedMsg{err: err}
		}
		return reportFetchedMsg{report: rpt}
	}
}

func (m reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadedMsg:
		if msg.fromCache {
			// The cache never overrides a server answer that already
			// arrived.
			if m.loading && len(m.summaries) == 0 {
				m.summaries = msg.summaries
				m.fromCache = true
			}
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.err
		if msg.err == nil {
			m.summaries = msg.summaries
			m.fromCache = false
		}
		m.clampCursor()
		return m, nil

	case reportFetchedMsg:
		if msg.err != nil {
			m.openErr = msg.err
			return m, nil
		}
		rpt := msg.report
		return m, func() tea.Msg { return openChatMsg{inline: rpt} }

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.summaries)-1 {
				m.cursor++
			}
		case "enter":
			return m, m.open()
		case "r":
			return m, m.refresh()
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *reportsModel) clampCursor() {
	if m.cursor >= len(m.summaries) {
		m.cursor = len(m.summaries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m reportsModel) view() string {
	t := m.theme
	out := t.Title.Render("Comparison reports") + "\n"

	switch {
	case m.loading && len(m.summaries) == 0:
		out += t.Dim.Render("loading...") + "\n"
	case m.loadErr != nil && len(m.summaries) == 0:
		out += t.Bad.Render("could not load reports: "+m.loadErr.Error()) + "\n"
	case len(m.summaries) == 0:
		out += t.Dim.Render("No reports yet. Forward an invoice and purchase order to get started.") + "\n"
	}

	if m.loadErr != nil && len(m.summaries) > 0 {
		out += t.Warn.Render("backend unreachable; showing cached list") + "\n"
	} else if m.fromCache && m.loading {
		out += t.Dim.Render("cached list, refreshing...") + "\n"
	}

	width := m.width - 8
	if width < 20 {
		width = 60
	}
	for i, s := range m.summaries {
		line := util.TruncateWidth(util.FirstLine(s.Summary), width)
		prefix := "  "
		style := t.Normal
		if i == m.cursor {
			prefix = t.Selected.String()
			style = t.Header
		}
		out += "\n" + prefix + style.Render(line)
		detail := s.ID
		if s.DiscrepancyCount > 0 {
			detail += fmt.Sprintf("  %d discrepancies", s.DiscrepancyCount)
		}
		out += "\n   " + t.Dim.Render(detail)
	}

	if m.openErr != nil {
		out += "\n\n" + t.Bad.Render("could not open report: "+m.openErr.Error())
	}

	out += "\n\n" + t.Help.Render("enter open | r refresh | j/k move | q quit")
	return out
}
