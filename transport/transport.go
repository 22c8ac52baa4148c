// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"
	"time"
)

// Compile-time interface check.
var _ Dialer = (*TCPDialer)(nil)

// Dialer opens outbound stream connections. The Connector uses it for
// TCP senders; tests substitute dialers that fail or stall.
type Dialer interface {
	// DialContext opens a connection to address ("host:port").
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// TCPDialer opens TCP connections.
type TCPDialer struct {
	// Timeout bounds connection establishment. Zero means only the
	// operating system's connect timeout applies.
	Timeout time.Duration
}

// DialContext opens a TCP connection to address.
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
}
