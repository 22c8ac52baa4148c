// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
)

// ErrConnectFailed matches every [*ConnectError] via errors.Is.
var ErrConnectFailed = errors.New("connect failed")

// ConnectError reports an outbound TCP connection that could not be
// established.
type ConnectError struct {
	// Address is the "host:port" that was dialed.
	Address string

	// Err is the dial error.
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("transport: connect to %s failed: %v", e.Address, e.Err)
}

// Unwrap exposes both ErrConnectFailed and the underlying dial error.
func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnectFailed, e.Err}
}

// ConnectFailurePolicy decides what a TCP sender does when its
// connection cannot be established.
type ConnectFailurePolicy string

const (
	// ConnectFailureSurface resolves the connect future with a
	// *ConnectError that every send returns.
	ConnectFailureSurface ConnectFailurePolicy = "surface"

	// ConnectFailureHang never resolves the connect future on failure.
	// Sends block until their context is done, reproducing the legacy
	// behavior of a connect promise that never rejects.
	ConnectFailureHang ConnectFailurePolicy = "hang"
)

// ParseConnectFailurePolicy parses "surface" or "hang". The empty string
// selects ConnectFailureSurface.
func ParseConnectFailurePolicy(name string) (ConnectFailurePolicy, error) {
	switch policy := ConnectFailurePolicy(strings.ToLower(name)); policy {
	case "":
		return ConnectFailureSurface, nil
	case ConnectFailureSurface, ConnectFailureHang:
		return policy, nil
	default:
		return "", fmt.Errorf("transport: unknown connect failure policy %q", name)
	}
}

// Future is the pending result of one outbound connect. It is resolved
// at most once, to either a connection or an error.
type Future struct {
	once       sync.Once
	done       chan struct{}
	connection net.Conn
	err        error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve records the outcome. Later calls are ignored.
func (f *Future) resolve(connection net.Conn, err error) {
	f.once.Do(func() {
		f.connection = connection
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved or ctx is done. A resolved
// future wins over a done context.
func (f *Future) Wait(ctx context.Context) (net.Conn, error) {
	select {
	case <-f.done:
		return f.connection, f.err
	default:
	}
	select {
	case <-f.done:
		return f.connection, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
