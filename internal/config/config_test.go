// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	require.Equal(t, 30, cfg.Backend.TimeoutSecs)
	require.True(t, cfg.Storage.Enabled)
	require.False(t, cfg.UI.PanelExpanded)
	require.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
url = "https://verify.example.com"
timeout_secs = 10

[ui]
panel_expanded = true
theme = "light"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "https://verify.example.com", cfg.Backend.URL)
	require.Equal(t, 10, cfg.Backend.TimeoutSecs)
	require.True(t, cfg.UI.PanelExpanded)
	require.Equal(t, "light", cfg.UI.Theme)
	// Unset fields fall back to defaults.
	require.Equal(t, "127.0.0.1:8765", cfg.Backend.CallbackAddr)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"backend": {"url": "http://other:9000"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://other:9000", cfg.Backend.URL)
	require.Equal(t, 30, cfg.Backend.TimeoutSecs)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.Backend.URL = "not a url" }},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSecs = 0 }},
		{"huge timeout", func(c *Config) { c.Backend.TimeoutSecs = 9999 }},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RECONCILE_BACKEND_URL", "http://env:1234")
	t.Setenv("RECONCILE_TIMEOUT_SECS", "5")
	t.Setenv("RECONCILE_NO_CACHE", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	require.Equal(t, "http://env:1234", cfg.Backend.URL)
	require.Equal(t, 5, cfg.Backend.TimeoutSecs)
	require.False(t, cfg.Storage.Enabled)
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.UI.PanelExpanded = true
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.True(t, loaded.UI.PanelExpanded)
}

func TestTimeoutDuration(t *testing.T) {
	cfg := Default()
	cfg.Backend.TimeoutSecs = 7
	require.Equal(t, "7s", cfg.Timeout().String())
}
