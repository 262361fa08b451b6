// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage caches the last-seen report list and transcripts
// locally so the reports view can render instantly while offline.
//
// The cache is strictly secondary: server data always wins, a failed
// cache write is logged and swallowed, and a cold or corrupted cache
// just means an empty first paint.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/reconcile-tui/internal/model"
)

// cacheFile is the sqlite database filename inside the config directory.
const cacheFile = "cache.db"

const schema = `
CREATE TABLE IF NOT EXISTS report_summaries (
	id                TEXT PRIMARY KEY,
	vendor_id         TEXT,
	summary           TEXT NOT NULL,
	discrepancy_count INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT
);
CREATE TABLE IF NOT EXISTS transcripts (
	report_id TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	role      TEXT NOT NULL,
	content   TEXT NOT NULL,
	PRIMARY KEY (report_id, seq)
);
`

// Cache is the local report cache.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache under dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// REPORT SUMMARIES
// =============================================================================

// SaveSummaries replaces the cached report list with the given one.
func (c *Cache) SaveSummaries(ctx context.Context, summaries []model.ReportSummary) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_summaries`); err != nil {
		return err
	}
	for _, s := range summaries {
		var createdAt string
		if !s.CreatedAt.IsZero() {
			createdAt = s.CreatedAt.Format(time.RFC3339)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO report_summaries (id, vendor_id, summary, discrepancy_count, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.VendorID, s.Summary, s.DiscrepancyCount, createdAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSummaries returns the cached report list, most recent first.
func (c *Cache) LoadSummaries(ctx context.Context) ([]model.ReportSummary, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, vendor_id, summary, discrepancy_count, created_at
		 FROM report_summaries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.ReportSummary
	for rows.Next() {
		var s model.ReportSummary
		var createdAt string
		if err := rows.Scan(&s.ID, &s.VendorID, &s.Summary, &s.DiscrepancyCount, &createdAt); err != nil {
			return nil, err
		}
		if createdAt != "" {
			if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
				s.CreatedAt = t
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// SaveTranscript replaces the cached transcript for one report.
func (c *Cache) SaveTranscript(ctx context.Context, reportID string, messages []model.Message) error {
	if reportID == "" {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcripts WHERE report_id = ?`, reportID); err != nil {
		return err
	}
	for i, m := range messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transcripts (report_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			reportID, i, m.Role.String(), m.Content)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadTranscript returns the cached transcript for one report in original
// order.
func (c *Cache) LoadTranscript(ctx context.Context, reportID string) ([]model.Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT role, content FROM transcripts WHERE report_id = ? ORDER BY seq`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		messages = append(messages, model.Message{Role: model.Role(role), Content: content})
	}
	return messages, rows.Err()
}
