// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"strings"
)

// Protocol is one of the two transports the bridge speaks.
type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// Protocols lists every supported protocol in a fixed order.
var Protocols = []Protocol{TCP, UDP}

// ErrUnknownProtocol is returned by ParseProtocol for names outside
// {TCP, UDP}.
var ErrUnknownProtocol = errors.New("unknown protocol")

// ParseProtocol matches name case-insensitively against TCP and UDP.
// Surrounding whitespace is not trimmed: " tcp" is not a protocol.
func ParseProtocol(name string) (Protocol, error) {
	switch protocol := Protocol(strings.ToUpper(name)); protocol {
	case TCP, UDP:
		return protocol, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownProtocol, name)
	}
}

// String returns "TCP" or "UDP".
func (p Protocol) String() string {
	return string(p)
}
