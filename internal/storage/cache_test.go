// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/reconcile-tui/internal/model"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSummariesRoundTrip(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	in := []model.ReportSummary{
		{ID: "rep-1", VendorID: "v-9", Summary: "totals differ", DiscrepancyCount: 2,
			CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)},
		{ID: "rep-2", Summary: "all matched"},
	}
	require.NoError(t, c.SaveSummaries(ctx, in))

	out, err := c.LoadSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Newest first; rep-2 has no timestamp and sorts last.
	require.Equal(t, "rep-1", out[0].ID)
	require.Equal(t, "v-9", out[0].VendorID)
	require.Equal(t, 2, out[0].DiscrepancyCount)
	require.True(t, out[0].CreatedAt.Equal(in[0].CreatedAt))
	require.True(t, out[1].CreatedAt.IsZero())
}

func TestSaveSummariesReplaces(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveSummaries(ctx, []model.ReportSummary{{ID: "old"}}))
	require.NoError(t, c.SaveSummaries(ctx, []model.ReportSummary{{ID: "new"}}))

	out, err := c.LoadSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "new", out[0].ID)
}

func TestTranscriptRoundTrip(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	in := []model.Message{
		model.NewAssistantMessage("welcome"),
		model.NewUserMessage("why flagged?"),
		model.NewAssistantMessage("the totals differ"),
	}
	require.NoError(t, c.SaveTranscript(ctx, "rep-1", in))

	out, err := c.LoadTranscript(ctx, "rep-1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		require.Equal(t, in[i].Role, out[i].Role)
		require.Equal(t, in[i].Content, out[i].Content)
	}
}

func TestTranscriptsAreIsolatedPerReport(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveTranscript(ctx, "rep-1", []model.Message{model.NewUserMessage("a")}))
	require.NoError(t, c.SaveTranscript(ctx, "rep-2", []model.Message{model.NewUserMessage("b")}))

	out, err := c.LoadTranscript(ctx, "rep-1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].Content)
}

func TestLoadMissingIsEmptyNotError(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	summaries, err := c.LoadSummaries(ctx)
	require.NoError(t, err)
	require.Empty(t, summaries)

	msgs, err := c.LoadTranscript(ctx, "nope")
	require.NoError(t, err)
	require.Empty(t, msgs)
}
