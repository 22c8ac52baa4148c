// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for netbridge binaries:
// reporting an error that ends the process, before or without a
// structured logger.
package process
