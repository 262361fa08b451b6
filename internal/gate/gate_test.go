// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/session"
)

// newGate wires a gate against a test backend.
func newGate(t *testing.T, handler http.HandlerFunc) (*Gate, *authstore.MemStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := authstore.NewMemStore()
	client := api.NewClient(srv.URL, store)
	return New(store, session.NewValidator(store, client)), store
}

func authenticatedBackend(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": true,
		"email":         "alice@example.com",
	})
}

func TestDecisionTable(t *testing.T) {
	cases := []struct {
		name          string
		authenticated bool
		view          View
		want          Decision
	}{
		{"unauthenticated stays on signin", false, ViewSignIn, Stay},
		{"unauthenticated stays on signup", false, ViewSignUp, Stay},
		{"unauthenticated leaves protected", false, ViewProtected, ToSignIn},
		{"authenticated leaves signin", true, ViewSignIn, ToHome},
		{"authenticated leaves signup", true, ViewSignUp, ToHome},
		{"authenticated stays on protected", true, ViewProtected, Stay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decide(tc.authenticated, tc.view); got != tc.want {
				t.Fatalf("decide(%v, %v) = %v, want %v", tc.authenticated, tc.view, got, tc.want)
			}
		})
	}
}

func TestAuthorizeExtractsAndValidates(t *testing.T) {
	g, store := newGate(t, authenticatedBackend)

	res := g.Authorize(context.Background(), ViewSignIn,
		"http://localhost:3000/auth/callback?token=fresh-cred")

	if cred, ok := store.Get(); !ok || cred != "fresh-cred" {
		t.Fatalf("credential not stored: %q, %v", cred, ok)
	}
	if res.CleanedAddr != "http://localhost:3000/auth/callback" {
		t.Fatalf("credential left in address: %q", res.CleanedAddr)
	}
	if res.Session == nil {
		t.Fatal("expected a validated session")
	}
	if res.Decision != ToHome {
		t.Fatalf("authenticated user on signin should go home, got %v", res.Decision)
	}
}

// A delivered credential is not trusted until the backend vouches for it.
func TestAuthorizeValidatesExtractedCredential(t *testing.T) {
	g, store := newGate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	res := g.Authorize(context.Background(), ViewProtected,
		"http://localhost:3000/reports?token=forged")

	if res.Session != nil {
		t.Fatal("rejected credential must not produce a session")
	}
	if res.Decision != ToSignIn {
		t.Fatalf("expected redirect to signin, got %v", res.Decision)
	}
	if _, ok := store.Get(); ok {
		t.Fatal("rejected credential should have been cleared")
	}
}

func TestAuthorizeWithoutCredential(t *testing.T) {
	g, _ := newGate(t, authenticatedBackend)

	res := g.Authorize(context.Background(), ViewProtected, "http://localhost:3000/reports")
	if res.Decision != ToSignIn {
		t.Fatalf("no credential on protected view should redirect, got %v", res.Decision)
	}
	if res.CleanedAddr != "http://localhost:3000/reports" {
		t.Fatalf("address should be unchanged, got %q", res.CleanedAddr)
	}
}
