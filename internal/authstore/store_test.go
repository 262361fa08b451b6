// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authstore

import (
	"os"
	"path/filepath"
	"testing"
)

// stores returns both implementations behind the Store interface; every
// behavior test runs against each.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return map[string]Store{
		"file": fs,
		"mem":  NewMemStore(),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok := s.Get(); ok {
				t.Fatal("fresh store should be empty")
			}
			if err := s.Set("cred-123"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, ok := s.Get()
			if !ok || got != "cred-123" {
				t.Fatalf("Get = %q, %v", got, ok)
			}
		})
	}
}

func TestLastWriterWins(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set("first")
			s.Set("second")
			got, _ := s.Get()
			if got != "second" {
				t.Fatalf("expected last write, got %q", got)
			}
		})
	}
}

func TestClearIsIdempotent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set("cred")
			if err := s.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if _, ok := s.Get(); ok {
				t.Fatal("credential survived Clear")
			}
			// Clearing an empty slot is a no-op.
			if err := s.Clear(); err != nil {
				t.Fatalf("second Clear failed: %v", err)
			}
		})
	}
}

func TestEmptyCredentialRejected(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(""); err == nil {
				t.Fatal("expected error for empty credential")
			}
			if err := s.Set("   "); err == nil {
				t.Fatal("expected error for whitespace credential")
			}
		})
	}
}

func TestFileStorePermissions(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := fs.Set("secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, credentialFile))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("credential file mode = %o, want 0600", perm)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, _ := NewFileStore(dir)
	first.Set("persisted")

	second, _ := NewFileStore(dir)
	got, ok := second.Get()
	if !ok || got != "persisted" {
		t.Fatalf("credential did not survive reopen: %q, %v", got, ok)
	}
}
