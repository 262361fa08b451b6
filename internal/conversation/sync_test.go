// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/model"
)

// newSync wires a synchronizer against a test backend.
func newSync(t *testing.T, handler http.HandlerFunc) *Sync {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := authstore.NewMemStore()
	store.Set("cred")
	return New(api.NewClient(srv.URL, store))
}

func testReport(messages ...model.Message) *model.Report {
	return &model.Report{
		ID:       "rep-1",
		Summary:  "Invoice and PO compared.",
		Messages: messages,
	}
}

func TestResolveInlineSkipsNetwork(t *testing.T) {
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("inline resolution must not hit the network")
	})

	rpt, err := s.Resolve(context.Background(), testReport(), "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rpt.ID != "rep-1" {
		t.Fatalf("unexpected report %+v", rpt)
	}
}

func TestResolveSeedsWelcomeOnce(t *testing.T) {
	s := newSync(t, nil)

	rpt, err := s.Resolve(context.Background(), testReport(), "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(rpt.Messages) != 1 {
		t.Fatalf("expected exactly one seeded message, got %d", len(rpt.Messages))
	}
	if rpt.Messages[0].Role != model.RoleAssistant {
		t.Fatal("welcome message must be from the assistant")
	}
}

func TestResolveKeepsExistingHistory(t *testing.T) {
	s := newSync(t, nil)

	existing := testReport(
		model.NewUserMessage("why was this flagged?"),
		model.NewAssistantMessage("the totals differ"),
	)
	rpt, err := s.Resolve(context.Background(), existing, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(rpt.Messages) != 2 {
		t.Fatalf("history must not be reseeded, got %d messages", len(rpt.Messages))
	}
	if rpt.Messages[0].Content != "why was this flagged?" {
		t.Fatal("history order changed")
	}
}

func TestSendEmptyIsNoOp(t *testing.T) {
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty sends must not hit the network")
	})
	s.Resolve(context.Background(), testReport(), "")
	before := len(s.Messages())

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := s.Send(context.Background(), text); err != nil {
			t.Fatalf("Send(%q) = %v", text, err)
		}
	}
	if got := len(s.Messages()); got != before {
		t.Fatalf("transcript changed on empty send: %d -> %d", before, got)
	}
}

func TestSendWithoutReport(t *testing.T) {
	s := newSync(t, nil)
	if err := s.Send(context.Background(), "hello"); !errors.Is(err, ErrNoReport) {
		t.Fatalf("expected ErrNoReport, got %v", err)
	}
}

func TestSendAppendsUserThenReply(t *testing.T) {
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "the totals differ by $12"})
	})
	s.Resolve(context.Background(), testReport(), "")
	before := len(s.Messages())

	if err := s.Send(context.Background(), "why flagged?"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != before+2 {
		t.Fatalf("expected +2 messages, got %d -> %d", before, len(msgs))
	}
	if msgs[len(msgs)-2].Role != model.RoleUser || msgs[len(msgs)-2].Content != "why flagged?" {
		t.Fatalf("user turn missing: %+v", msgs[len(msgs)-2])
	}
	if msgs[len(msgs)-1].Role != model.RoleAssistant || msgs[len(msgs)-1].Content != "the totals differ by $12" {
		t.Fatalf("reply missing: %+v", msgs[len(msgs)-1])
	}
}

func TestSendEmptyReplyGetsAck(t *testing.T) {
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": ""})
	})
	s.Resolve(context.Background(), testReport(), "")

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	msgs := s.Messages()
	if msgs[len(msgs)-1].Content != ackText {
		t.Fatalf("expected ack, got %q", msgs[len(msgs)-1].Content)
	}
}

// A failed send keeps the user's turn and pairs it with an explanation;
// nothing is rolled back.
func TestSendFailureNeverRollsBack(t *testing.T) {
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	s.Resolve(context.Background(), testReport(), "")
	before := len(s.Messages())

	if err := s.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected send error")
	}

	msgs := s.Messages()
	if len(msgs) != before+2 {
		t.Fatalf("expected user turn plus explanation, got %d -> %d", before, len(msgs))
	}
	if msgs[len(msgs)-2].Role != model.RoleUser {
		t.Fatal("user turn was rolled back")
	}
	if msgs[len(msgs)-1].Content != sendFailText {
		t.Fatalf("expected failure explanation, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestSendAuthLapseExplanation(t *testing.T) {
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	s.Resolve(context.Background(), testReport(), "")

	if err := s.Send(context.Background(), "hello"); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	msgs := s.Messages()
	if !strings.Contains(msgs[len(msgs)-1].Content, "session has expired") {
		t.Fatalf("expected auth lapse explanation, got %q", msgs[len(msgs)-1].Content)
	}
}

// Results that complete after Close are discarded instead of applied.
func TestCloseDiscardsLateResults(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := newSync(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		json.NewEncoder(w).Encode(map[string]string{"response": "late reply"})
	})
	s.Resolve(context.Background(), testReport(), "")

	done := make(chan error, 1)
	go func() {
		done <- s.Send(context.Background(), "hello")
	}()

	// Tear down only once the send is in flight.
	<-started
	s.Close()
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if msgs := s.Messages(); msgs != nil {
		t.Fatalf("closed synchronizer should hold no transcript, got %d messages", len(msgs))
	}
}

func TestCloseThenResolveSeedsAgain(t *testing.T) {
	s := newSync(t, nil)

	s.Resolve(context.Background(), testReport(), "")
	s.Close()

	rpt, err := s.Resolve(context.Background(), testReport(), "")
	if err != nil {
		t.Fatalf("Resolve after Close failed: %v", err)
	}
	if len(rpt.Messages) != 1 {
		t.Fatalf("fresh resolution should seed once, got %d", len(rpt.Messages))
	}
}
