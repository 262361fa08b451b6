// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures exchanged with the document
// reconciliation backend: reports, discrepancies, conversation messages,
// and the validated session.
//
// All backend-owned types (Report, Discrepancy, Identity) are treated as
// read-only by the client. The single exception is a Report's message
// sequence, which grows by appending conversation turns and is never
// reordered or truncated.
package model
