// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for netbridge packages.
//
// [RequireReceive], [RequireNoReceive], [RequireSend] and
// [RequireClosed] encapsulate the timeout safety valve pattern (select
// with time.After fallback) so individual tests never call time.After
// themselves. Socket tests lean on them heavily: every inbound event
// and every accepted connection is observed through a channel.
//
// [UniqueID] generates monotonically increasing identifiers so that
// payloads sent by different subtests are distinguishable on a shared
// listener.
//
// All helpers call t.Fatalf on failure rather than returning errors.
//
// This package has no netbridge-internal dependencies.
package testutil
