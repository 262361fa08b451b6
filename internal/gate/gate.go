// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides, per view activation, whether the user may stay on
// a view or must be redirected.
//
// The gate runs when a view becomes active or its identifying path
// changes - never continuously. One activation produces exactly one
// navigation decision: first any credential delivered in the activation
// address is extracted and stored, then the session is validated
// (always, even right after extraction - the credential is not trusted
// until the backend vouches for it), and finally the (session, view)
// pair maps to a decision.
package gate

import (
	"context"

	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/callback"
	"github.com/jeranaias/reconcile-tui/internal/model"
	"github.com/jeranaias/reconcile-tui/internal/session"
)

// =============================================================================
// VIEWS AND DECISIONS
// =============================================================================

// View classifies the activating view for navigation policy.
type View int

const (
	// ViewSignIn is the sign-in entry view.
	ViewSignIn View = iota
	// ViewSignUp is the sign-up entry view.
	ViewSignUp
	// ViewProtected is any view that requires an authenticated session.
	ViewProtected
)

// String returns a short name for the view kind.
func (v View) String() string {
	switch v {
	case ViewSignIn:
		return "signin"
	case ViewSignUp:
		return "signup"
	default:
		return "protected"
	}
}

// isAuthEntry reports whether the view exists to let the user
// authenticate.
func (v View) isAuthEntry() bool {
	return v == ViewSignIn || v == ViewSignUp
}

// Decision is the single navigation outcome of one gate pass.
type Decision int

const (
	// Stay keeps the user on the current view.
	Stay Decision = iota
	// ToSignIn redirects an unauthenticated user off a protected view.
	ToSignIn
	// ToHome redirects an authenticated user off the sign-in/sign-up
	// views to the main protected view.
	ToHome
)

// String returns a short name for the decision.
func (d Decision) String() string {
	switch d {
	case ToSignIn:
		return "to-signin"
	case ToHome:
		return "to-home"
	default:
		return "stay"
	}
}

// =============================================================================
// GATE
// =============================================================================

// Result is everything one gate pass produced.
type Result struct {
	Decision Decision
	// Session is the validated session, or nil when unauthenticated.
	Session *model.Session
	// CleanedAddr is the activation address with any credential
	// parameter stripped; equal to the input when none was present.
	CleanedAddr string
	// Err carries a validation failure that was folded into
	// "unauthenticated" (for logging; the Decision already accounts
	// for it).
	Err error
}

// Gate coordinates the callback extractor and the session validator for
// protected and auth-entry views.
type Gate struct {
	store     authstore.Store
	validator *session.Validator
}

// New creates a gate. Duplicate in-flight validations from rapid
// re-activations are absorbed by the validator's single-outstanding
// guard, so activating twice is safe.
func New(store authstore.Store, validator *session.Validator) *Gate {
	return &Gate{store: store, validator: validator}
}

// Authorize runs one gate pass for the given view activation.
func (g *Gate) Authorize(ctx context.Context, view View, addr string) Result {
	res := Result{CleanedAddr: addr}

	// Step 1: consume any credential delivered in the address.
	if credential, cleaned, ok := callback.Extract(addr); ok {
		res.CleanedAddr = cleaned
		if err := g.store.Set(credential); err != nil {
			// A credential we cannot persist is a credential we do
			// not have; fall through to validation against whatever
			// is stored.
			res.Err = err
		}
	}

	// Step 2: validate regardless of whether a credential was just
	// extracted.
	sess, err := g.validator.Validate(ctx)
	if err != nil {
		res.Err = err
	}
	res.Session = sess

	// Step 3: exactly one navigation decision.
	res.Decision = decide(sess != nil, view)
	return res
}

// decide maps (authenticated, view) to the navigation decision table.
func decide(authenticated bool, view View) Decision {
	switch {
	case !authenticated && view.isAuthEntry():
		return Stay
	case !authenticated:
		return ToSignIn
	case authenticated && view.isAuthEntry():
		return ToHome
	default:
		return Stay
	}
}
