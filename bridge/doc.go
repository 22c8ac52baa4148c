// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge turns inbound TCP and UDP traffic into events and
// exposes the network plugin contract.
//
// [Bridge] owns one TCP listener and one UDP socket. Start binds both
// and begins reading in background goroutines: each accepted TCP
// connection gets its own reader, and every chunk it reads becomes one
// [Event]; every UDP datagram becomes exactly one Event. There is no
// framing. A TCP message split across segments arrives as several
// events, and several writes may arrive as one.
//
// Events are published through a [Router]. Consumers subscribe by
// protocol name ("tcp" or "udp", any case) and are called synchronously
// on the reader goroutine, so events from one connection or from the UDP
// socket reach a consumer in arrival order. Nothing is ordered across
// connections or across protocols.
//
// [Plugin] is the surface a host uses: Type, Input and Output. Open
// builds a Bridge and a transport.Connector from a config.Config and
// starts listening.
package bridge
