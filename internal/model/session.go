// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// IDENTITY TYPE
// =============================================================================

// Identity is the backend's description of the signed-in user.
// Owned by the backend; the client never mutates it.
type Identity struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// DisplayName returns the best available human-readable name.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.GivenName != "" {
		return i.GivenName
	}
	return i.Email
}

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is the validated, in-memory representation of who is signed in.
// It is derived, never stored: every value comes from the most recent
// successful GET /auth/me and is recomputed on each validation pass. A
// Session is either fully valid or absent; it is never partially trusted.
type Session struct {
	Authenticated bool      `json:"authenticated"`
	Identity      Identity  `json:"identity"`
	LastLogin     time.Time `json:"last_login,omitempty"`

	// Mailbox watch status, mirrored from the backend's user record.
	WatchActive bool      `json:"watch_active"`
	WatchExpiry time.Time `json:"watch_expires,omitempty"`
	LastSync    time.Time `json:"last_sync,omitempty"`
	EmailCount  int       `json:"email_count"`
}
