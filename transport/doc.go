// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport creates outbound senders and configures the
// sockets the bridge listens on.
//
// [Connector] is the output factory. Connect takes a protocol name
// (matched case-insensitively against TCP and UDP), a host and a port,
// and returns a [Sender]: a function that serializes one value with the
// connector's [codec.Policy] and transmits it. Every Connect call owns
// its own connection or socket; nothing is pooled or shared between
// senders, even for the same destination. An unknown protocol name is
// logged and yields a sender that does nothing.
//
// A TCP sender dials as soon as it is created. The dial result lands
// in a [Future], resolved exactly once, and every send waits on it
// before writing, so values sent before the connection is up are
// written in call order once it is. What happens when the dial fails is
// governed by [ConnectFailurePolicy]: under [ConnectFailureSurface]
// (the default) sends return a [*ConnectError] matching
// [ErrConnectFailed]; under [ConnectFailureHang] the future is never
// resolved and sends block until their context ends. There is no
// reconnection.
//
// A UDP sender owns an unconnected socket created when the sender is.
// Each send is one datagram. Individual send failures are logged at
// Debug and otherwise dropped; UDP gives no delivery signal anyway.
//
// [ListenOptions] builds the net.ListenConfig used for the bridge's
// listeners, applying SO_REUSEPORT and SO_RCVBUF through
// golang.org/x/sys/unix where the platform supports them.
package transport
