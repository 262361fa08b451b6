// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// reports_cmd.go - Report listing command for reconcile.
//
// Command: reports
// Short:   List comparison reports
//
// Examples:
//   reconcile reports             List reports (cached list on failure)
//   reconcile reports --json      Reports in JSON format
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jeranaias/reconcile-tui/internal/model"
	"github.com/jeranaias/reconcile-tui/internal/report"
	"github.com/jeranaias/reconcile-tui/internal/storage"
	"github.com/jeranaias/reconcile-tui/internal/util"
)

// summaryColumnWidth caps the summary column in the list output.
const summaryColumnWidth = 60

// HandleReports lists the user's comparison reports.
func HandleReports(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}
	ctx := context.Background()

	lister := report.NewLister(app.Client)
	summaries, err := lister.List(ctx)

	if app.Config.Storage.Enabled {
		if cache, openErr := storage.Open(app.Config.Storage.Dir); openErr == nil {
			defer cache.Close()
			if err == nil {
				if saveErr := cache.SaveSummaries(ctx, summaries); saveErr != nil {
					log.Printf("report cache write failed: %v", saveErr)
				}
			} else {
				// Fall back to the cached list when the backend is down.
				if cached, loadErr := cache.LoadSummaries(ctx); loadErr == nil && len(cached) > 0 {
					fmt.Println(warnStyle.Render("Backend unreachable; showing cached reports."))
					fmt.Println()
					summaries = cached
					err = nil
				}
			}
		}
	}

	if err != nil {
		fatalf("could not list reports: %v", err)
	}

	if args.JSON {
		data, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(data))
		return
	}

	printReportTable(summaries)
}

// printReportTable renders the report list as a plain aligned table.
func printReportTable(summaries []model.ReportSummary) {
	if len(summaries) == 0 {
		fmt.Println(dimStyle.Render("No reports yet. Forward an invoice and purchase order to get started."))
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%d comparison report(s)", len(summaries))))
	fmt.Println()
	for _, s := range summaries {
		summary := util.TruncateWidth(util.FirstLine(s.Summary), summaryColumnWidth)
		fmt.Printf("  %s  %s\n", valueStyle.Render(s.ID), summary)
		detail := fmt.Sprintf("vendor %s", s.VendorID)
		if s.VendorID == "" {
			detail = "vendor unknown"
		}
		if s.DiscrepancyCount > 0 {
			detail += fmt.Sprintf(", %d discrepancies", s.DiscrepancyCount)
		}
		if !s.CreatedAt.IsZero() {
			detail += ", " + s.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s\n\n", dimStyle.Render(detail))
	}
	fmt.Println(dimStyle.Render("Chat about a report with 'reconcile chat <report-id>'."))
}
