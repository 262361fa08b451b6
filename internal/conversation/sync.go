// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation keeps one report's transcript in step with the
// backend.
//
// The synchronizer owns the triple (summary, discrepancies, messages) for
// a single report. The transcript only ever grows: a failed send leaves
// the user's turn visible and pairs it with an explanatory assistant
// message instead of rolling anything back. Messages are appended in the
// order operations complete; concurrent sends are independent and may
// finish out of order (see the correlation IDs on each send).
package conversation

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/model"
)

// Canned assistant content. The welcome message seeds an empty transcript
// exactly once per resolved report.
const (
	welcomeText = "Hello! I've reviewed this comparison report. Ask me anything " +
		"about the summary or the discrepancies I found."
	ackText       = "Got it."
	sendFailText  = "Sorry, I couldn't process that message. Please check your connection and try again."
	authLapseText = "Your session has expired. Please sign in again to continue this conversation."
)

// ErrNoReport is returned by Send when no report has been resolved yet.
var ErrNoReport = errors.New("no report resolved")

// =============================================================================
// SYNCHRONIZER
// =============================================================================

// Sync synchronizes one report's conversation with the backend.
type Sync struct {
	client *api.Client

	mu     sync.Mutex
	report *model.Report
	seeded bool

	// gen guards against a torn-down view absorbing late results:
	// Close bumps it, and any operation started under an older value
	// discards its outcome instead of applying it.
	gen int
}

// New creates a synchronizer bound to the backend client.
func New(client *api.Client) *Sync {
	return &Sync{client: client}
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve binds the synchronizer to a report.
//
// An inline report (handed off in memory by the comparison step or the
// report list) wins and costs no network call. Otherwise the report is
// fetched by id. On fetch failure the synchronizer stays unbound and the
// error is returned; callers show an empty state rather than fabricated
// data.
func (s *Sync) Resolve(ctx context.Context, inline *model.Report, id string) (*model.Report, error) {
	if inline != nil {
		s.adopt(s.snapshotGen(), inline)
		return inline, nil
	}
	if id == "" {
		return nil, api.ErrNotFound
	}

	gen := s.snapshotGen()
	report, err := s.client.Report(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.adopt(gen, report) {
		// View torn down while the fetch was in flight; drop it.
		return nil, context.Canceled
	}
	return report, nil
}

// adopt installs a resolved report and seeds the welcome message when its
// history is empty. Returns false when the synchronizer was closed after
// the operation started.
func (s *Sync) adopt(gen int, report *model.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}

	s.report = report
	if !s.seeded && !report.HasConversation() {
		report.AddMessage(model.NewAssistantMessage(welcomeText))
	}
	// Seeding happens at most once per resolved report, even if the
	// adopted history was non-empty.
	s.seeded = true
	return true
}

// =============================================================================
// SENDING
// =============================================================================

// Send posts one user turn.
//
// Empty (after trimming) input and an unresolved report are both no-ops
// for the transcript. Otherwise the user's message is appended
// immediately, the turn is posted, and exactly one assistant message
// follows: the backend's reply, a generic acknowledgment when the reply
// field is empty, or an error explanation on failure. The transcript is
// never rolled back.
func (s *Sync) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.report == nil || s.report.ID == "" {
		s.mu.Unlock()
		return ErrNoReport
	}
	reportID := s.report.ID
	gen := s.gen
	// Optimistic append: the user sees their turn before the network
	// round-trip.
	s.report.AddMessage(model.NewUserMessage(text))
	s.mu.Unlock()

	// Correlation ID ties a reply back to its send in the logs. Replies
	// are applied first-come-first-served; out-of-order completion of
	// concurrent sends is accepted.
	sendID := uuid.NewString()
	log.Printf("conversation send %s: report=%s chars=%d", sendID, reportID, len(text))

	reply, err := s.client.SendMessage(ctx, reportID, text)
	if err != nil {
		log.Printf("conversation send %s failed: %v", sendID, err)
		s.appendAssistant(gen, failureText(err))
		return err
	}

	if reply == "" {
		reply = ackText
	}
	s.appendAssistant(gen, reply)
	return nil
}

// appendAssistant appends one assistant message unless the view was torn
// down after the operation started.
func (s *Sync) appendAssistant(gen int, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.report == nil {
		return
	}
	s.report.AddMessage(model.NewAssistantMessage(content))
}

// failureText picks the assistant-style explanation for a failed send.
func failureText(err error) string {
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrMissingCredential) {
		return authLapseText
	}
	return sendFailText
}

// =============================================================================
// ACCESS AND TEARDOWN
// =============================================================================

// Report returns the resolved report, or nil.
func (s *Sync) Report() *model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Messages returns a snapshot of the transcript in order.
func (s *Sync) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return nil
	}
	out := make([]model.Message, len(s.report.Messages))
	copy(out, s.report.Messages)
	return out
}

// Close tears the synchronizer down. Results of operations still in
// flight are discarded rather than applied.
func (s *Sync) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.report = nil
	s.seeded = false
}

// snapshotGen reads the current generation.
func (s *Sync) snapshotGen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
