// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jeranaias/reconcile-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// LoginInfo is the response of GET /auth/login: where to send the user to
// authenticate with the third-party provider.
type LoginInfo struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// meResponse is the flat wire shape of GET /auth/me. It is converted into
// a model.Session at this boundary; nothing downstream sees raw JSON.
type meResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	LastLogin     string `json:"last_login"`
	WatchActive   bool   `json:"watch_active"`
	WatchExpires  string `json:"watch_expires"`
	LastSync      string `json:"last_sync"`
	EmailCount    int    `json:"email_count"`
}

// sendMessageRequest is the body of POST /message/{id}.
type sendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// sendMessageResponse is the reply envelope of POST /message/{id}.
type sendMessageResponse struct {
	Response string `json:"response"`
}

// Email is one stored mailbox message, as listed by GET /user/emails.
type Email struct {
	MessageID      string `json:"message_id"`
	From           string `json:"from"`
	Subject        string `json:"subject"`
	Date           string `json:"date"`
	Snippet        string `json:"snippet"`
	HasAttachments bool   `json:"has_attachments"`
}

// EmailPage is a paginated slice of the user's mailbox.
type EmailPage struct {
	Emails []Email `json:"emails"`
	Total  int     `json:"total"`
	Skip   int     `json:"skip"`
	Limit  int     `json:"limit"`
}

// SenderStat aggregates mail volume for one sender domain.
type SenderStat struct {
	Domain     string `json:"domain"`
	EmailCount int    `json:"email_count"`
}

// Analytics summarizes the user's mailbox activity.
type Analytics struct {
	TotalEmails           int          `json:"total_emails"`
	ImportantEmails       int          `json:"important_emails"`
	EmailsWithAttachments int          `json:"emails_with_attachments"`
	TopSenders            []SenderStat `json:"top_senders"`
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// LoginURL fetches the third-party authorization URL from the backend.
// This is the only unauthenticated call the client makes.
func (c *Client) LoginURL(ctx context.Context) (*LoginInfo, error) {
	var info LoginInfo
	if err := c.doUnauthenticated(ctx, http.MethodGet, "/auth/login", &info); err != nil {
		return nil, err
	}
	if _, err := url.Parse(info.AuthorizationURL); err != nil || info.AuthorizationURL == "" {
		return nil, fmt.Errorf("backend returned an unusable authorization URL")
	}
	return &info, nil
}

// Me validates the stored credential against the backend and returns the
// resulting session. A 401 clears the credential (see do).
func (c *Client) Me(ctx context.Context) (*model.Session, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &model.Session{
		Authenticated: resp.Authenticated,
		Identity: model.Identity{
			Email:      resp.Email,
			Name:       resp.Name,
			Picture:    resp.Picture,
			GivenName:  resp.GivenName,
			FamilyName: resp.FamilyName,
		},
		LastLogin:   parseBackendTime(resp.LastLogin),
		WatchActive: resp.WatchActive,
		WatchExpiry: parseBackendTime(resp.WatchExpires),
		LastSync:    parseBackendTime(resp.LastSync),
		EmailCount:  resp.EmailCount,
	}, nil
}

// Logout tells the backend to drop the session. Best-effort: callers clear
// the local credential regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// Reports lists the user's existing comparison reports.
func (c *Client) Reports(ctx context.Context) ([]model.ReportSummary, error) {
	var summaries []model.ReportSummary
	if err := c.do(ctx, http.MethodGet, "/reports", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Report fetches one full report, including its message history.
func (c *Client) Report(ctx context.Context, id string) (*model.Report, error) {
	if id == "" {
		return nil, fmt.Errorf("report id is required: %w", ErrNotFound)
	}
	var report model.Report
	if err := c.do(ctx, http.MethodGet, "/reports/"+url.PathEscape(id), nil, &report); err != nil {
		return nil, err
	}
	if report.ID == "" {
		report.ID = id
	}
	return &report, nil
}

// SendMessage posts one user turn to a report's conversation and returns
// the assistant's reply text. Sends are throttled client-side; the wait is
// bounded by ctx.
func (c *Client) SendMessage(ctx context.Context, reportID, content string) (string, error) {
	if err := c.sendLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("send throttled: %w", err)
	}

	req := sendMessageRequest{Role: model.RoleUser.String(), Content: content}
	var resp sendMessageResponse
	if err := c.do(ctx, http.MethodPost, "/message/"+url.PathEscape(reportID), req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// =============================================================================
// MAILBOX ENDPOINTS
// =============================================================================

// Emails fetches a page of the user's stored mailbox messages.
func (c *Client) Emails(ctx context.Context, skip, limit int) (*EmailPage, error) {
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/user/emails?skip=%d&limit=%d", skip, limit)
	var page EmailPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RefreshWatch asks the backend to renew the mailbox watch before it
// expires.
func (c *Client) RefreshWatch(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user/refresh-watch", nil, nil)
}

// UserAnalytics fetches mailbox analytics for the signed-in user.
func (c *Client) UserAnalytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := c.do(ctx, http.MethodGet, "/user/analytics", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// backendTimeFormats covers the timestamp shapes the backend emits
// (RFC3339 and bare ISO without zone).
var backendTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseBackendTime parses a backend timestamp, returning the zero time for
// empty or unparseable values. Timestamps are display-only, so a malformed
// one degrades to "unknown" rather than failing the whole response.
func parseBackendTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range backendTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
