// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package callback

import "testing"

func TestExtract(t *testing.T) {
	cases := []struct {
		name       string
		addr       string
		wantCred   string
		wantClean  string
		wantOK     bool
	}{
		{
			name:      "token present",
			addr:      "http://localhost:3000/auth/callback?token=abc123",
			wantCred:  "abc123",
			wantClean: "http://localhost:3000/auth/callback",
			wantOK:    true,
		},
		{
			name:      "token among other params",
			addr:      "http://localhost:3000/reports?tab=open&token=xyz",
			wantCred:  "xyz",
			wantClean: "http://localhost:3000/reports?tab=open",
			wantOK:    true,
		},
		{
			name:      "no token",
			addr:      "http://localhost:3000/reports",
			wantClean: "http://localhost:3000/reports",
		},
		{
			name:      "empty token value",
			addr:      "http://localhost:3000/auth/callback?token=",
			wantClean: "http://localhost:3000/auth/callback?token=",
		},
		{
			name:      "empty address",
			addr:      "",
			wantClean: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cred, clean, ok := Extract(tc.addr)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if cred != tc.wantCred {
				t.Fatalf("credential = %q, want %q", cred, tc.wantCred)
			}
			if clean != tc.wantClean {
				t.Fatalf("cleaned = %q, want %q", clean, tc.wantClean)
			}
		})
	}
}

// Extracting from an already-cleaned address must be a no-op, so a gate
// pass that runs twice cannot double-consume.
func TestExtractIdempotent(t *testing.T) {
	_, clean, ok := Extract("http://localhost:3000/auth/callback?token=abc")
	if !ok {
		t.Fatal("first extraction should succeed")
	}
	cred, clean2, ok2 := Extract(clean)
	if ok2 || cred != "" {
		t.Fatalf("second extraction should find nothing, got %q", cred)
	}
	if clean2 != clean {
		t.Fatalf("cleaned address changed: %q -> %q", clean, clean2)
	}
}
