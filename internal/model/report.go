// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// DISCREPANCY TYPE
// =============================================================================

// Discrepancy is one backend-identified mismatch between a purchase order
// and its invoice. Immutable once produced.
type Discrepancy struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// =============================================================================
// REPORT TYPE
// =============================================================================

// Report is a single document-comparison result together with its attached
// conversation. A report arrives either inline from the comparison step or
// by id from GET /reports/{id}; once resolved it is the source of truth for
// its view and only ever grows by appended messages.
type Report struct {
	ID            string        `json:"id,omitempty"`
	VendorID      string        `json:"vendor_id,omitempty"`
	Summary       string        `json:"summary"`
	Discrepancies []Discrepancy `json:"discrepancy"`
	Messages      []Message     `json:"messages"`
}

// AddMessage appends a message to the report's conversation.
// Messages are append-only; there is no removal or reordering.
func (r *Report) AddMessage(msg Message) {
	r.Messages = append(r.Messages, msg)
}

// MessageCount returns the number of conversation turns.
func (r *Report) MessageCount() int {
	return len(r.Messages)
}

// HasConversation returns true if the report carries any messages.
func (r *Report) HasConversation() bool {
	return len(r.Messages) > 0
}

// =============================================================================
// REPORT SUMMARY TYPE
// =============================================================================

// ReportSummary is the backend's list projection of a report, used by the
// navigational report list. Owned and returned by the backend.
type ReportSummary struct {
	ID               string    `json:"id"`
	VendorID         string    `json:"vendor_id,omitempty"`
	Summary          string    `json:"summary"`
	DiscrepancyCount int       `json:"discrepancy_count,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Preview returns a one-line preview of the summary for list display.
func (s ReportSummary) Preview(maxLen int) string {
	runes := []rune(s.Summary)
	if len(runes) <= maxLen {
		return s.Summary
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
