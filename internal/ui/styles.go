// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss theme for the reconcile TUI.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the resolved styles for the running terminal.
type Theme struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Dim       lipgloss.Style
	Good      lipgloss.Style
	Warn      lipgloss.Style
	Bad       lipgloss.Style
	UserMsg   lipgloss.Style
	Assistant lipgloss.Style
	Panel     lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
}

// NewTheme builds the theme, adapting a few colors to the terminal
// background.
func NewTheme() *Theme {
	dark := termenv.HasDarkBackground()

	normal := lipgloss.Color("255")
	dim := lipgloss.Color("242")
	if !dark {
		normal = lipgloss.Color("235")
		dim = lipgloss.Color("245")
	}

	return &Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(normal),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			SetString("> "),
		Normal: lipgloss.NewStyle().
			Foreground(normal),
		Dim: lipgloss.NewStyle().
			Foreground(dim),
		Good: lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")),
		Warn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
		Bad: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		UserMsg: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82")),
		Assistant: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(dim),
		Help: lipgloss.NewStyle().
			Foreground(dim),
	}
}
