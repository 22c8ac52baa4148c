// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net"
	"strings"
	"syscall"
)

// ListenOptions are socket options applied to the bridge's listeners
// before bind.
type ListenOptions struct {
	// ReusePort sets SO_REUSEPORT on both the TCP listener and the UDP
	// socket, letting several processes bind the same port.
	ReusePort bool

	// ReceiveBufferBytes sets SO_RCVBUF on the UDP socket. Zero keeps
	// the kernel default.
	ReceiveBufferBytes int
}

// ListenConfig returns a net.ListenConfig that applies the options.
func (o ListenOptions) ListenConfig() *net.ListenConfig {
	if !o.ReusePort && o.ReceiveBufferBytes == 0 {
		return &net.ListenConfig{}
	}
	return &net.ListenConfig{
		Control: func(network, _ string, rawConn syscall.RawConn) error {
			var optionError error
			err := rawConn.Control(func(fd uintptr) {
				optionError = setSocketOptions(fd, o.ReusePort, o.receiveBuffer(network))
			})
			if err != nil {
				return err
			}
			return optionError
		},
	}
}

// receiveBuffer returns the SO_RCVBUF size for network, or zero when
// none applies.
func (o ListenOptions) receiveBuffer(network string) int {
	if !strings.HasPrefix(network, "udp") {
		return 0
	}
	return o.ReceiveBufferBytes
}
