// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"net"

	"github.com/bureau-foundation/netbridge/lib/codec"
	"github.com/bureau-foundation/netbridge/transport"
)

// Event is one unit of inbound data: a TCP read chunk or a UDP
// datagram.
type Event struct {
	// Protocol is the socket the bytes arrived on.
	Protocol transport.Protocol

	// Payload is the data. Each event owns its slice.
	Payload []byte

	// Source is the remote address, when known.
	Source net.Addr
}

// BufferData makes an Event a codec.BufferShape, so an event handed to
// a sender is transmitted as its raw payload.
func (e Event) BufferData() []byte {
	return e.Payload
}

// MarshalJSON encodes the payload as {"type":"Buffer","data":[...]}.
func (e Event) MarshalJSON() ([]byte, error) {
	return codec.Buffer{Data: e.Payload}.MarshalJSON()
}
