// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session derives the current authenticated session from the
// stored credential.
//
// The validator is the single writer of session state. Its policy is
// fail-closed: a session is only ever reported when the most recent
// GET /auth/me succeeded. A 401, a transport failure, or any unexpected
// status all collapse to "not authenticated" and clear the credential, so
// a doubtful credential can never masquerade as a live session.
//
// State machine:
//
//	Unauthenticated --(credential found)--> Validating --(2xx)--> Authenticated
//	Validating --(401 or error)--> Unauthenticated
//	Authenticated --(logout)--> Unauthenticated
//
// Expiry is detected reactively on the next validation; there is no timer
// and no distinct "expired" state.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/reconcile-tui/internal/api"
	"github.com/jeranaias/reconcile-tui/internal/authstore"
	"github.com/jeranaias/reconcile-tui/internal/model"
)

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks whether the stored credential still maps to a real
// user. Safe for concurrent use: overlapping Validate calls share one
// outstanding backend request instead of racing duplicates.
type Validator struct {
	store  authstore.Store
	client *api.Client

	mu       sync.Mutex
	inflight *inflightCall
}

// inflightCall is one outstanding validation shared by all callers that
// arrive while it is running.
type inflightCall struct {
	done    chan struct{}
	session *model.Session
	err     error
}

// NewValidator creates a validator over the given store and client.
func NewValidator(store authstore.Store, client *api.Client) *Validator {
	return &Validator{store: store, client: client}
}

// Validate returns the current session, or nil when there is none.
//
// A nil session with a nil error means "definitely unauthenticated, and
// nothing went wrong finding that out" (no credential, or a clean 401).
// A nil session with a non-nil error means the pass failed for another
// reason (network, 5xx); the caller may log it, but must still treat the
// user as signed out.
func (v *Validator) Validate(ctx context.Context) (*model.Session, error) {
	// No credential: answer locally, no network call.
	if _, ok := v.store.Get(); !ok {
		return nil, nil
	}

	v.mu.Lock()
	if call := v.inflight; call != nil {
		// Reuse the outstanding request rather than starting a duplicate.
		v.mu.Unlock()
		select {
		case <-call.done:
			return call.session, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	v.inflight = call
	v.mu.Unlock()

	call.session, call.err = v.validate(ctx)
	close(call.done)

	v.mu.Lock()
	v.inflight = nil
	v.mu.Unlock()

	return call.session, call.err
}

// validate performs one validation pass against the backend.
func (v *Validator) validate(ctx context.Context) (*model.Session, error) {
	sess, err := v.client.Me(ctx)
	if err == nil {
		if !sess.Authenticated {
			// The backend answered 2xx but disowned the session.
			v.clear()
			return nil, nil
		}
		return sess, nil
	}

	switch {
	case errors.Is(err, api.ErrMissingCredential):
		// Cleared between our check and the call. Already signed out.
		return nil, nil
	case errors.Is(err, api.ErrUnauthorized):
		// Gateway already cleared the credential.
		return nil, nil
	default:
		// Fail-closed: an unreachable or erroring backend means we
		// cannot vouch for the credential, so drop it.
		v.clear()
		return nil, err
	}
}

// Logout ends the session: best-effort server-side revoke, unconditional
// local clear.
func (v *Validator) Logout(ctx context.Context) {
	if err := v.client.Logout(ctx); err != nil {
		log.Printf("server-side logout failed (credential cleared locally anyway): %v", err)
	}
	v.clear()
}

// clear drops the stored credential.
func (v *Validator) clear() {
	if err := v.store.Clear(); err != nil {
		log.Printf("failed to clear credential: %v", err)
	}
}
