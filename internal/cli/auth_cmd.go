// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Sign-in, sign-out and status commands for reconcile.
//
// Command: login
// Short:   Sign in to the verification backend with Google
//
// Examples:
//   reconcile login               Browser flow (loopback callback)
//   reconcile login --token       Paste a credential directly
//
// The browser flow asks the backend for an authorization URL, prints it,
// and listens on a loopback port for the redirect carrying the
// credential. The --token flow reads a credential from the terminal with
// echo disabled, for machines where no browser can reach us back.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/reconcile-tui/internal/callback"
	"github.com/jeranaias/reconcile-tui/internal/model"
)

// loginWait caps how long we wait for the browser redirect.
const loginWait = 5 * time.Minute

// HandleLogin signs the user in.
func HandleLogin(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}
	ctx := context.Background()

	if args.Token {
		loginWithToken(ctx, app)
		return
	}

	info, err := app.Client.LoginURL(ctx)
	if err != nil {
		fatalf("could not start sign-in: %v", err)
	}

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println()
	fmt.Printf("  %s\n", info.AuthorizationURL)
	fmt.Println()
	fmt.Printf("Waiting for the redirect on http://%s/auth/callback ...\n", app.Config.Backend.CallbackAddr)

	listener := callback.NewListener(app.Store, app.Config.Backend.CallbackAddr)
	waitCtx, cancel := context.WithTimeout(ctx, loginWait)
	defer cancel()
	if _, err := listener.Wait(waitCtx); err != nil {
		fatalf("sign-in did not complete: %v", err)
	}

	confirmSignIn(ctx, app)
}

// loginWithToken reads a credential from the terminal with echo disabled.
func loginWithToken(ctx context.Context, app *App) {
	fmt.Print("Paste credential (input hidden): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fatalf("could not read credential: %v", err)
	}
	credential := strings.TrimSpace(string(raw))
	if credential == "" {
		fatalf("no credential entered")
	}
	if err := app.Store.Set(credential); err != nil {
		fatalf("%v", err)
	}
	confirmSignIn(ctx, app)
}

// confirmSignIn validates the freshly stored credential and reports the
// outcome. The credential is not trusted until the backend vouches for
// it.
func confirmSignIn(ctx context.Context, app *App) {
	sess, err := app.Validator.Validate(ctx)
	if err != nil {
		fatalf("sign-in could not be verified: %v", err)
	}
	if sess == nil {
		fatalf("the backend rejected the credential; please sign in again")
	}
	fmt.Printf("Signed in as %s.\n", sess.Identity.DisplayName())
}

// HandleLogout signs the user out.
func HandleLogout(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}
	app.Validator.Logout(context.Background())
	if !args.Quiet {
		fmt.Println("Signed out.")
	}
}

// HandleStatus shows the current session and mailbox watch state.
func HandleStatus(args Args) {
	app, err := NewApp()
	if err != nil {
		fatalf("%v", err)
	}

	sess, verr := app.Validator.Validate(context.Background())

	if args.JSON {
		printStatusJSON(sess, verr)
		return
	}

	fmt.Println(titleStyle.Render("reconcile status"))
	fmt.Println()

	if sess == nil {
		fmt.Printf("%s %s\n", labelStyle.Render("Session"), badStyle.Render("not signed in"))
		if verr != nil {
			fmt.Printf("%s %s\n", labelStyle.Render("Reason"), dimStyle.Render(verr.Error()))
		}
		fmt.Println()
		fmt.Println(dimStyle.Render("Run 'reconcile login' to sign in."))
		return
	}

	fmt.Printf("%s %s\n", labelStyle.Render("Session"), goodStyle.Render("signed in"))
	fmt.Printf("%s %s\n", labelStyle.Render("Account"), valueStyle.Render(sess.Identity.DisplayName()))
	if !sess.LastLogin.IsZero() {
		fmt.Printf("%s %s\n", labelStyle.Render("Last login"), valueStyle.Render(sess.LastLogin.Format(time.RFC1123)))
	}

	fmt.Println()
	fmt.Println(sectionStyle.Render("Mailbox watch"))
	if sess.WatchActive {
		fmt.Printf("%s %s\n", labelStyle.Render("Watch"), goodStyle.Render("active"))
		if !sess.WatchExpiry.IsZero() {
			fmt.Printf("%s %s\n", labelStyle.Render("Expires"), valueStyle.Render(sess.WatchExpiry.Format(time.RFC1123)))
		}
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("Watch"), warnStyle.Render("inactive"))
		fmt.Printf("%s %s\n", labelStyle.Render("Hint"), dimStyle.Render("run 'reconcile refresh-watch' to renew"))
	}
	if !sess.LastSync.IsZero() {
		fmt.Printf("%s %s\n", labelStyle.Render("Last sync"), valueStyle.Render(sess.LastSync.Format(time.RFC1123)))
	}
	fmt.Printf("%s %s\n", labelStyle.Render("Emails"), valueStyle.Render(fmt.Sprintf("%d processed", sess.EmailCount)))
}

// printStatusJSON emits status as one JSON object for scripting.
func printStatusJSON(sess *model.Session, verr error) {
	out := map[string]any{
		"authenticated": sess != nil,
	}
	if verr != nil {
		out["error"] = verr.Error()
	}
	if sess != nil {
		out["email"] = sess.Identity.Email
		out["name"] = sess.Identity.Name
		out["watch_active"] = sess.WatchActive
		out["email_count"] = sess.EmailCount
		if !sess.WatchExpiry.IsZero() {
			out["watch_expires"] = sess.WatchExpiry.Format(time.RFC3339)
		}
		if !sess.LastSync.IsZero() {
			out["last_sync"] = sess.LastSync.Format(time.RFC3339)
		}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
