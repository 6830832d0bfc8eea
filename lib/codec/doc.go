// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides deterministic CBOR encoding for project
// snapshots.
//
// Snapshots are the engine's backup/restore format: the same logical
// record set always encodes to identical bytes (RFC 8949 Core
// Deterministic Encoding), so exported archives can be compared and
// deduplicated byte-for-byte. ID value types serialize as text
// strings via their TextMarshaler implementations.
package codec
