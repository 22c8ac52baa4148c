// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Netbridge listens on one TCP port and one UDP port and forwards what
// arrives to configured destinations.
//
// Each --route (or routes entry in the config file) sends every inbound
// event of one protocol, byte for byte, to a TCP or UDP destination:
//
//	netbridge --route tcp=udp://127.0.0.1:9000 --route udp=tcp://collector:7000
//
// With --capture, every inbound event on both protocols is also
// recorded to a capture file. Replay mode sends the payloads of a
// capture file to one destination and exits:
//
//	netbridge --replay events.capture --replay-to udp://127.0.0.1:9000
//
// Flags override values from the config file named by --config or by
// the NETBRIDGE_CONFIG environment variable.
package main
