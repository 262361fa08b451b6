// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for reconcile.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdReports
	CmdChat
	CmdEmails
	CmdAnalytics
	CmdRefreshWatch
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool

	// Command-specific
	ReportID string
	Token    bool // login --token: paste a credential instead of browser flow
	Skip     int  // emails --skip
	Limit    int  // emails --limit

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `reconcile - terminal client for AI document reconciliation

Reconcile talks to the invoice / purchase-order verification backend.

It provides:
  - Google sign-in from the terminal (loopback callback or pasted token)
  - Comparison report browsing with a local offline cache
  - Per-report AI conversations about detected discrepancies
  - Mailbox watch status and analytics

Usage:
  reconcile                    Start TUI (default)
  reconcile login              Sign in via browser
    --token                    Paste a credential instead of browser flow
  reconcile logout             Sign out and clear the stored credential
  reconcile status, s          Show session and mailbox watch status
  reconcile reports            List comparison reports
  reconcile chat <report-id>   Chat about one report
  reconcile emails             List processed emails
    --skip N --limit N         Pagination (default: 0, 20)
  reconcile analytics          Show sender analytics
  reconcile refresh-watch      Renew the mailbox watch
  reconcile version            Show version information
  reconcile help               Show this help

Global Flags:
  --json                       Output in JSON format
  --quiet, -q                  Suppress non-essential output
  --verbose, -v                Verbose output

Environment:
  RECONCILE_BACKEND_URL        Override the backend URL
  RECONCILE_TIMEOUT_SECS       Override the request timeout
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "login", "signin":
		parseLoginArgs(&parsedArgs, remaining)
		return CmdLogin, parsedArgs

	case "logout", "signout":
		return CmdLogout, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "reports", "list":
		return CmdReports, parsedArgs

	case "chat":
		if len(remaining) > 0 {
			parsedArgs.ReportID = remaining[0]
		}
		return CmdChat, parsedArgs

	case "emails", "mail":
		parseEmailArgs(&parsedArgs, remaining)
		return CmdEmails, parsedArgs

	case "analytics":
		return CmdAnalytics, parsedArgs

	case "refresh-watch", "watch":
		return CmdRefreshWatch, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	parsed.Limit = 20

	var remaining []string
	for _, arg := range args {
		switch arg {
		case "--quiet", "-q":
			parsed.Quiet = true
		case "--verbose", "-v":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

// parseLoginArgs parses login-specific flags.
func parseLoginArgs(parsed *Args, args []string) {
	for _, arg := range args {
		if arg == "--token" || arg == "-t" {
			parsed.Token = true
		}
	}
}

// parseEmailArgs parses pagination flags for the emails command.
func parseEmailArgs(parsed *Args, args []string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--skip":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%d", &parsed.Skip)
				i++
			}
		case "--limit":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%d", &parsed.Limit)
				i++
			}
		}
	}
}

// HandleHelp prints usage information.
func HandleHelp() {
	fmt.Print(usageText)
}

// HandleVersion prints version information.
func HandleVersion(args Args) {
	if args.JSON {
		fmt.Printf("{\"version\":%q,\"commit\":%q,\"build_date\":%q}\n", Version, GitCommit, BuildDate)
		return
	}
	fmt.Printf("reconcile %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}
