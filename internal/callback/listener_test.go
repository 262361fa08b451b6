// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package callback

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/reconcile-tui/internal/authstore"
)

// freeAddr reserves a loopback port for the listener under test.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestListenerStoresCredential(t *testing.T) {
	store := authstore.NewMemStore()
	addr := freeAddr(t)
	listener := NewListener(store, addr)

	type result struct {
		credential string
		err        error
	}
	done := make(chan result, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cred, err := listener.Wait(ctx)
		done <- result{credential: cred, err: err}
	}()

	// Give the listener a moment to bind, then play the backend redirect.
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/auth/callback?token=fresh-cred", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("could not reach listener: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	res := <-done
	if res.err != nil {
		t.Fatalf("Wait failed: %v", res.err)
	}
	if res.credential != "fresh-cred" {
		t.Fatalf("unexpected credential %q", res.credential)
	}
	if cred, ok := store.Get(); !ok || cred != "fresh-cred" {
		t.Fatalf("credential not stored: %q, %v", cred, ok)
	}
	if !strings.Contains(string(body), "close this tab") {
		t.Fatal("expected landing page in response")
	}
}

func TestListenerRejectsMissingCredential(t *testing.T) {
	store := authstore.NewMemStore()
	addr := freeAddr(t)
	listener := NewListener(store, addr)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := listener.Wait(ctx)
		done <- err
	}()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/auth/callback", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("could not reach listener: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	if waitErr := <-done; waitErr != ErrNoCredential {
		t.Fatalf("expected ErrNoCredential, got %v", waitErr)
	}
	if _, ok := store.Get(); ok {
		t.Fatal("nothing should be stored on a bad redirect")
	}
}

func TestListenerHonorsContext(t *testing.T) {
	listener := NewListener(authstore.NewMemStore(), freeAddr(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := listener.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
