// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package transport

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func setSocketOptions(fd uintptr, reusePort bool, receiveBuffer int) error {
	if reusePort {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return fmt.Errorf("transport: setting SO_REUSEPORT: %w", err)
		}
	}
	if receiveBuffer > 0 {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBuffer); err != nil {
			return fmt.Errorf("transport: setting SO_RCVBUF: %w", err)
		}
	}
	return nil
}
