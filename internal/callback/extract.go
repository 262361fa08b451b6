// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package callback consumes the credential the backend hands off at the
// end of its OAuth redirect flow.
//
// The backend finishes GET /auth/callback by redirecting to the client
// with a one-time credential in a query parameter. Extract pulls that
// credential out of an address and returns the address with the parameter
// removed, so the credential never lingers anywhere visible. The Listener
// is the terminal-client counterpart of a browser landing page: a one-shot
// loopback HTTP server that receives the redirect, stores the credential,
// and shuts down.
package callback

import (
	"net/url"
	"strings"
)

// TokenParam is the query parameter the backend uses to deliver the
// credential on redirect.
const TokenParam = "token"

// Extract pulls a newly issued credential out of rawAddr.
//
// When the parameter is present it returns the credential, the address
// with the parameter stripped, and true. When absent (including on a
// second pass over an already-cleaned address) it returns rawAddr
// unchanged and false - Extract is idempotent.
func Extract(rawAddr string) (credential, cleaned string, ok bool) {
	u, err := url.Parse(rawAddr)
	if err != nil {
		return "", rawAddr, false
	}

	q := u.Query()
	credential = strings.TrimSpace(q.Get(TokenParam))
	if credential == "" {
		return "", rawAddr, false
	}

	q.Del(TokenParam)
	u.RawQuery = q.Encode()
	return credential, u.String(), true
}
