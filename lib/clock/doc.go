// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock.
//
// Code that stamps records with the current time takes a [Clock]
// instead of calling time.Now directly. Production wiring uses
// [Real]; tests use [Fake] and move time explicitly with Advance so
// timestamps are exact.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	writer := capture.NewWriter(file, capture.CompressionZstd, c)
//	c.Advance(time.Second)
package clock
