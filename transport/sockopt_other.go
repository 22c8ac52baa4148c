// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package transport

import "errors"

func setSocketOptions(_ uintptr, reusePort bool, receiveBuffer int) error {
	if reusePort || receiveBuffer > 0 {
		return errors.New("transport: socket options are not supported on this platform")
	}
	return nil
}
