// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jeranaias/reconcile-tui/internal/authstore"
)

// shutdownGrace is how long the listener waits for the "you may close this
// tab" response to flush before tearing the server down.
const shutdownGrace = 2 * time.Second

// landingPage is served to the browser once the credential is captured.
const landingPage = `<!DOCTYPE html>
<html><head><title>reconcile</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20%">
<h2>Signed in</h2>
<p>You may close this tab and return to the terminal.</p>
</body></html>
`

// ErrNoCredential is returned when the redirect arrived without a usable
// credential in it.
var ErrNoCredential = errors.New("callback carried no credential")

// Listener is a one-shot loopback server that waits for the backend's
// OAuth redirect, extracts the credential, and persists it.
type Listener struct {
	store authstore.Store
	addr  string
}

// NewListener creates a listener that will bind to addr (for example
// "127.0.0.1:8123") and store any received credential in store.
func NewListener(store authstore.Store, addr string) *Listener {
	return &Listener{store: store, addr: addr}
}

// Wait blocks until one redirect is received or ctx is done. On success
// the credential has been stored before Wait returns it.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return "", fmt.Errorf("failed to bind callback listener: %w", err)
	}

	type result struct {
		credential string
		err        error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		credential, _, ok := Extract(r.URL.String())
		if !ok {
			http.Error(w, "missing credential", http.StatusBadRequest)
			done <- result{err: ErrNoCredential}
			return
		}
		if err := l.store.Set(credential); err != nil {
			http.Error(w, "failed to store credential", http.StatusInternalServerError)
			done <- result{err: err}
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, landingPage)
		done <- result{credential: credential}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-done:
		return res.credential, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
