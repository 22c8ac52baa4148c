// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small socket helpers shared by the listener
// and sender code: classifying connection-teardown errors
// ([IsExpectedCloseError], [IsClosed]) and extracting bound ports from
// addresses ([Port]).
package netutil
