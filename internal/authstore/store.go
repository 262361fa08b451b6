// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authstore persists the bearer credential across runs.
//
// The store is a dumb, durable slot: it holds at most one credential at a
// time and performs no validation. Presence of a credential means
// "possibly authenticated"; absence means "definitely unauthenticated".
// Validity is decided elsewhere (internal/session).
package authstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/reconcile-tui/internal/util"
)

// credentialFile is the fixed name of the credential slot inside the
// config directory.
const credentialFile = "credential"

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the credential slot contract. Implementations must be safe for
// concurrent use; last writer wins, and Clear is idempotent.
type Store interface {
	// Set replaces the stored credential. Empty credentials are rejected.
	Set(credential string) error

	// Get returns the stored credential and true, or "" and false when
	// no credential is present.
	Get() (string, bool)

	// Clear removes the stored credential. Clearing an empty slot is a
	// no-op, not an error.
	Clear() error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore persists the credential in a single 0600 file under the given
// directory. Writes are atomic (temp file + rename).
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, credentialFile)}, nil
}

// Set replaces the stored credential.
func (s *FileStore) Set(credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return fmt.Errorf("refusing to store empty credential")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := util.AtomicWriteFile(s.path, []byte(credential), 0600); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// Get returns the stored credential, if any.
func (s *FileStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	credential := strings.TrimSpace(string(data))
	if credential == "" {
		return "", false
	}
	return credential, true
}

// Clear removes the stored credential.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemStore is an in-memory Store used in tests and anywhere durability is
// not wanted.
type MemStore struct {
	mu         sync.Mutex
	credential string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Set replaces the stored credential.
func (s *MemStore) Set(credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return fmt.Errorf("refusing to store empty credential")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	return nil
}

// Get returns the stored credential, if any.
func (s *MemStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, s.credential != ""
}

// Clear removes the stored credential.
func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	return nil
}
