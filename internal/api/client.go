// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the authenticated HTTP client for the document
// reconciliation backend.
//
// Every authenticated request flows through a single choke point (do) so
// that authorization failures behave uniformly: a 401 from any endpoint
// clears the stored credential and surfaces ErrUnauthorized, and a request
// without a stored credential fails locally before any network call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/reconcile-tui/internal/authstore"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the default backend base URL.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// sendBurst and sendPerSecond bound how fast conversation turns may
	// be posted; the backend relays each turn to an LLM, so a runaway
	// loop would be expensive.
	sendBurst     = 3
	sendPerSecond = 1
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared transport serves all backend requests.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// =============================================================================
// ERRORS
// =============================================================================

// Error variables for the failure classes every caller must distinguish.
var (
	// ErrMissingCredential indicates no credential is stored. The request
	// was rejected locally; no network call was made.
	ErrMissingCredential = errors.New("no credential stored")

	// ErrUnauthorized indicates the backend rejected the credential (401).
	// The stored credential has already been cleared when this is returned.
	ErrUnauthorized = errors.New("authentication expired")

	// ErrNotFound indicates the requested resource does not exist (404).
	ErrNotFound = errors.New("not found")
)

// APIError represents a non-2xx response that is not a 401 or 404.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// errorBody is the backend's error envelope (FastAPI-style detail field).
type errorBody struct {
	Detail string `json:"detail"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the reconciliation backend. All authenticated calls read
// the bearer credential from the store at call time, so a credential set
// or cleared elsewhere is picked up immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      authstore.Store
	sendLimit  *rate.Limiter
}

// NewClient creates a backend client bound to a credential store.
func NewClient(baseURL string, store authstore.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		store:     store,
		sendLimit: rate.NewLimiter(sendPerSecond, sendBurst),
	}
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST CHOKE POINT
// =============================================================================

// do issues one authenticated request and decodes the 2xx response body
// into out (when out is non-nil).
//
// Failure mapping:
//   - no stored credential: ErrMissingCredential, no network call
//   - 401: credential cleared, ErrUnauthorized
//   - 404: ErrNotFound
//   - other non-2xx: *APIError with the status and backend detail
//   - transport failure: wrapped error
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	credential, ok := c.store.Get()
	if !ok {
		return ErrMissingCredential
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Drop the Authorization header immediately after the
	// request so it can never reach a log.
	req.Header.Del("Authorization")

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Fail-closed: the credential is dead, drop it everywhere.
		if err := c.store.Clear(); err != nil {
			log.Printf("failed to clear credential after 401: %v", err)
		}
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{Status: resp.StatusCode, Message: parseDetail(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// doUnauthenticated issues a request that carries no credential
// (the /auth/login bootstrap).
func (c *Client) doUnauthenticated(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: parseDetail(data)}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads the response body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return data, nil
}

// parseDetail extracts the backend's error detail, falling back to the raw
// body truncated for display.
func parseDetail(data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// logRequest logs an API request without exposing sensitive data.
// Headers (auth) and bodies (document data) are never logged.
func logRequest(req *http.Request) {
	log.Printf("API request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only, never the body.
func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API response: %d (%v)", resp.StatusCode, duration)
}
