// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat_cmd.go - Interactive per-report chat command for reconcile.
//
// Handles the "reconcile chat <report-id>" command which opens an
// interactive REPL for asking the assistant about one comparison report.
//
// Command: chat
// Short:   Chat about a comparison report
//
// Examples:
//   reconcile chat 6617f2a1      Chat about report 6617f2a1
//
// Interactive Commands (during chat):
//   /report, /r         Re-print the report summary and discrepancies
//   /history            Show the transcript so far
//   /help, /h           Show available commands
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/reconcile-tui/internal/config"
	"github.com/jeranaias/reconcile-tui/internal/conversation"
	"github.com/jeranaias/reconcile-tui/internal/model"
	"github.com/jeranaias/reconcile-tui/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput provides input history and line editing for the chat REPL.
type chatInput struct {
	line        *liner.State
	historyFile string
}

// newChatInput creates line-edited input with persistent history.
func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	in := &chatInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// read reads one line of input, recording non-empty lines in history.
func (c *chatInput) read(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// close saves history and restores the terminal.
func (c *chatInput) close() {
	if f, err := os.Create(c.historyFile); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the interactive per-report chat.
func HandleChat(args Args) {
	if args.ReportID == "" {
		fatalf("usage: reconcile chat <report-id>")
	}

	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}
	ctx := context.Background()

	// Refuse to open a chat without a live session; the backend would
	// reject the first send anyway.
	sess, err := app.Validator.Validate(ctx)
	if err != nil {
		fatalf("could not verify session: %v", err)
	}
	if sess == nil {
		fatalf("not signed in; run 'reconcile login' first")
	}

	sync := conversation.New(app.Client)
	defer sync.Close()

	rpt, err := sync.Resolve(ctx, nil, args.ReportID)
	if err != nil {
		fatalf("could not load report %s: %v", args.ReportID, err)
	}

	renderer := newMarkdownRenderer()
	printReport(renderer, rpt)
	printTranscript(renderer, sync.Messages())

	input := newChatInput()
	defer input.close()

	var cache *storage.Cache
	if app.Config.Storage.Enabled {
		if c, err := storage.Open(app.Config.Storage.Dir); err == nil {
			cache = c
			defer cache.Close()
		}
	}

	for {
		text, err := input.read(promptText())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				break
			}
			fatalf("input error: %v", err)
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "/") {
			if quit := handleChatCommand(renderer, sync, rpt, trimmed); quit {
				break
			}
			continue
		}

		if err := sync.Send(ctx, trimmed); err != nil {
			// The failure explanation is already in the transcript.
			log.Printf("send failed: %v", err)
		}
		printLastAssistant(renderer, sync.Messages())

		if cache != nil {
			if err := cache.SaveTranscript(ctx, rpt.ID, sync.Messages()); err != nil {
				log.Printf("transcript cache write failed: %v", err)
			}
		}
	}
}

// handleChatCommand processes a slash command; returns true to exit.
func handleChatCommand(renderer *glamour.TermRenderer, sync *conversation.Sync, rpt *model.Report, cmd string) bool {
	switch strings.ToLower(strings.Fields(cmd)[0]) {
	case "/quit", "/q", "/exit":
		return true
	case "/report", "/r":
		printReport(renderer, rpt)
	case "/history":
		printTranscript(renderer, sync.Messages())
	case "/help", "/h":
		fmt.Println(dimStyle.Render("  /report  re-print the report    /history  show transcript"))
		fmt.Println(dimStyle.Render("  /quit    exit chat               /help     this help"))
	default:
		fmt.Println(dimStyle.Render("Unknown command. Try /help."))
	}
	return false
}

// =============================================================================
// RENDERING
// =============================================================================

// newMarkdownRenderer builds a glamour renderer, or nil when the terminal
// cannot support it. Plain text is the fallback.
func newMarkdownRenderer() *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders md to the terminal, falling back to plain text.
func renderMarkdown(renderer *glamour.TermRenderer, md string) string {
	if renderer == nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// printReport prints the report summary and its discrepancies.
func printReport(renderer *glamour.TermRenderer, rpt *model.Report) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Report %s", rpt.ID)))
	if rpt.VendorID != "" {
		fmt.Println(dimStyle.Render("vendor " + rpt.VendorID))
	}
	fmt.Println()
	fmt.Print(renderMarkdown(renderer, rpt.Summary))
	if len(rpt.Discrepancies) > 0 {
		fmt.Println(sectionStyle.Render(fmt.Sprintf("Discrepancies (%d)", len(rpt.Discrepancies))))
		for _, d := range rpt.Discrepancies {
			fmt.Printf("  %s %s\n", warnStyle.Render("-"), valueStyle.Render(d.Name))
			if d.Details != "" {
				fmt.Printf("    %s\n", dimStyle.Render(d.Details))
			}
		}
		fmt.Println()
	}
}

// printTranscript prints the whole transcript.
func printTranscript(renderer *glamour.TermRenderer, messages []model.Message) {
	for _, m := range messages {
		printMessage(renderer, m)
	}
}

// printLastAssistant prints the trailing assistant message, if any.
func printLastAssistant(renderer *glamour.TermRenderer, messages []model.Message) {
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != model.RoleAssistant {
		return
	}
	printMessage(renderer, last)
}

// printMessage prints one transcript message with its role tag.
func printMessage(renderer *glamour.TermRenderer, m model.Message) {
	switch m.Role {
	case model.RoleUser:
		fmt.Printf("%s %s\n", goodStyle.Render("you:"), m.Content)
	case model.RoleAssistant:
		fmt.Printf("%s\n%s", titleStyle.Render("assistant:"), renderMarkdown(renderer, m.Content))
	default:
		fmt.Println(dimStyle.Render(m.Content))
	}
}

// promptText is the REPL prompt.
func promptText() string {
	return "> "
}
