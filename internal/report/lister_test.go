// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
)

func newLister(t *testing.T, handler http.HandlerFunc) *Lister {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := authstore.NewMemStore()
	store.Set("cred")
	return NewLister(api.NewClient(srv.URL, store))
}

func TestListSuccess(t *testing.T) {
	l := newLister(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "rep-1", "summary": "totals differ"},
			{"id": "rep-2", "summary": "all matched"},
		})
	})

	summaries, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "rep-1" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
	if l.Err() != nil {
		t.Fatalf("Err should be nil after success, got %v", l.Err())
	}
}

// A failed fetch yields an empty list plus a recorded error, never a nil
// slice or a panic.
func TestListFailureYieldsEmptyList(t *testing.T) {
	l := newLister(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	summaries, err := l.List(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if summaries == nil {
		t.Fatal("failure must still yield a non-nil slice")
	}
	if len(summaries) != 0 {
		t.Fatalf("failure must yield an empty list, got %d", len(summaries))
	}
	if l.Err() == nil {
		t.Fatal("error should be recorded for display")
	}
}

func TestListEmptyBackend(t *testing.T) {
	l := newLister(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{})
	})

	summaries, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if summaries == nil || len(summaries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", summaries)
	}
}

func TestErrClearsOnRecovery(t *testing.T) {
	fail := true
	l := newLister(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]any{})
	})

	l.List(context.Background())
	if l.Err() == nil {
		t.Fatal("expected recorded error")
	}

	fail = false
	if _, err := l.List(context.Background()); err != nil {
		t.Fatalf("List failed after recovery: %v", err)
	}
	if l.Err() != nil {
		t.Fatal("recorded error should clear on the next success")
	}
}
