// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// mail_cmd.go - Mailbox commands for reconcile.
//
// Command: emails
// Short:   List processed emails
//
// Command: analytics
// Short:   Show sender analytics
//
// Command: refresh-watch
// Short:   Renew the mailbox watch before it expires
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/reconcile-tui/internal/util"
)

// subjectColumnWidth caps the subject column in the email list.
const subjectColumnWidth = 70

// HandleEmails lists a page of the user's processed emails.
func HandleEmails(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}

	page, err := app.Client.Emails(context.Background(), args.Skip, args.Limit)
	if err != nil {
		fatalf("could not list emails: %v", err)
	}

	if args.JSON {
		data, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(page.Emails) == 0 {
		fmt.Println(dimStyle.Render("No emails processed yet."))
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Emails %d-%d of %d",
		page.Skip+1, page.Skip+len(page.Emails), page.Total)))
	fmt.Println()
	for _, e := range page.Emails {
		subject := util.TruncateWidth(e.Subject, subjectColumnWidth)
		marker := " "
		if e.HasAttachments {
			marker = warnStyle.Render("@")
		}
		fmt.Printf("  %s %s\n", marker, valueStyle.Render(subject))
		fmt.Printf("    %s\n", dimStyle.Render(fmt.Sprintf("%s  %s", e.From, e.Date)))
	}

	if page.Skip+len(page.Emails) < page.Total {
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf(
			"More available: reconcile emails --skip %d", page.Skip+page.Limit)))
	}
}

// HandleAnalytics shows mailbox analytics.
func HandleAnalytics(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}

	a, err := app.Client.UserAnalytics(context.Background())
	if err != nil {
		fatalf("could not fetch analytics: %v", err)
	}

	if args.JSON {
		data, _ := json.MarshalIndent(a, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println(titleStyle.Render("Mailbox analytics"))
	fmt.Println()
	fmt.Printf("%s %s\n", labelStyle.Render("Total"), valueStyle.Render(fmt.Sprintf("%d emails", a.TotalEmails)))
	fmt.Printf("%s %s\n", labelStyle.Render("Important"), valueStyle.Render(fmt.Sprintf("%d", a.ImportantEmails)))
	fmt.Printf("%s %s\n", labelStyle.Render("Attachments"), valueStyle.Render(fmt.Sprintf("%d", a.EmailsWithAttachments)))

	if len(a.TopSenders) > 0 {
		fmt.Println()
		fmt.Println(sectionStyle.Render("Top senders"))
		for _, s := range a.TopSenders {
			fmt.Printf("  %s %s\n",
				valueStyle.Render(s.Domain),
				dimStyle.Render(fmt.Sprintf("(%d)", s.EmailCount)))
		}
	}
}

// HandleRefreshWatch renews the mailbox watch.
func HandleRefreshWatch(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}

	if err := app.Client.RefreshWatch(context.Background()); err != nil {
		fatalf("could not refresh the mailbox watch: %v", err)
	}
	if !args.Quiet {
		fmt.Println("Mailbox watch renewed.")
	}
}
