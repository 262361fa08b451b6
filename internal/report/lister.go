// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report provides the navigational report list.
package report

import (
	"context"
	"sync"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/model"
)

// Lister fetches the authenticated user's existing reports once per
// list-view activation. It never retries on its own, and a failure
// produces an empty list plus a recorded error state instead of a panic
// or a stuck loading view.
type Lister struct {
	client *api.Client

	mu      sync.Mutex
	lastErr error
}

// NewLister creates a lister over the backend client.
func NewLister(client *api.Client) *Lister {
	return &Lister{client: client}
}

// List fetches the user's report summaries. On failure it returns an
// empty (non-nil) slice and records the error; Err exposes it for
// display until the next successful fetch.
func (l *Lister) List(ctx context.Context) ([]model.ReportSummary, error) {
	summaries, err := l.client.Reports(ctx)

	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()

	if err != nil {
		return []model.ReportSummary{}, err
	}
	if summaries == nil {
		summaries = []model.ReportSummary{}
	}
	return summaries, nil
}

// Err returns the error recorded by the most recent List, or nil.
func (l *Lister) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Fetch loads one full report for hand-off to the conversation view.
// Selecting a list item uses this once; the resulting report is passed
// inline so the conversation view does not refetch it.
func (l *Lister) Fetch(ctx context.Context, id string) (*model.Report, error) {
	return l.client.Report(ctx, id)
}
