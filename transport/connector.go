// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/bureau-foundation/netbridge/lib/codec"
	"github.com/bureau-foundation/netbridge/lib/metrics"
)

// Sender serializes value and transmits it to the destination the
// sender was created for.
type Sender func(ctx context.Context, value any) error

// noopSender is returned for unknown protocols. It produces no traffic.
func noopSender(context.Context, any) error { return nil }

// Connector creates senders. The zero value is usable: it dials with a
// TCPDialer, surfaces connect failures, encodes structured values as
// JSON and logs to slog.Default().
type Connector struct {
	// Dialer opens TCP connections. Nil means &TCPDialer{}.
	Dialer Dialer

	// ConnectFailure selects surface or hang semantics for failed TCP
	// connects.
	ConnectFailure ConnectFailurePolicy

	// Policy converts values to bytes.
	Policy codec.Policy

	// UDPNetwork is the network used for UDP sockets and address
	// resolution. Empty means "udp4".
	UDPNetwork string

	// Metrics, if non-nil, counts sends and connect failures.
	Metrics *metrics.Metrics

	// Logger receives the bad-protocol error and Debug-level send
	// failures. Nil means slog.Default().
	Logger *slog.Logger
}

func (c *Connector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Connector) dialer() Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return &TCPDialer{}
}

func (c *Connector) udpNetwork() string {
	if c.UDPNetwork != "" {
		return c.UDPNetwork
	}
	return "udp4"
}

// Connect returns a sender for (protocolName, host, port). Each call
// creates an independent connection or socket. An unknown protocol is
// logged at Error and yields a sender that does nothing.
func (c *Connector) Connect(protocolName, host string, port int) Sender {
	protocol, err := ParseProtocol(protocolName)
	if err != nil {
		c.logger().Error("bad output protocol", "protocol", protocolName)
		return noopSender
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	if protocol == TCP {
		return c.connectTCP(address)
	}
	return c.connectUDP(address)
}

// connectTCP starts dialing immediately. Sends wait for the dial
// outcome; writes on one sender never interleave.
func (c *Connector) connectTCP(address string) Sender {
	future := newFuture()
	go c.dial(address, future)

	var writeMutex sync.Mutex
	return func(ctx context.Context, value any) error {
		data, err := c.Policy.Encode(value)
		if err != nil {
			return err
		}

		connection, err := future.Wait(ctx)
		if err != nil {
			return err
		}

		writeMutex.Lock()
		defer writeMutex.Unlock()
		if _, err := connection.Write(data); err != nil {
			return fmt.Errorf("transport: writing to %s: %w", address, err)
		}
		c.Metrics.OutboundSend(string(TCP), len(data))
		return nil
	}
}

func (c *Connector) dial(address string, future *Future) {
	connection, err := c.dialer().DialContext(context.Background(), address)
	if err == nil {
		future.resolve(connection, nil)
		return
	}

	c.Metrics.ConnectFailure()
	if c.ConnectFailure == ConnectFailureHang {
		c.logger().Debug("outbound connect failed, sender left pending",
			"address", address,
			"error", err,
		)
		return
	}
	future.resolve(nil, &ConnectError{Address: address, Err: err})
}

// connectUDP creates the socket synchronously. Send failures are not
// surfaced to the caller.
func (c *Connector) connectUDP(address string) Sender {
	network := c.udpNetwork()
	socket, err := net.ListenUDP(network, nil)
	if err != nil {
		socketError := fmt.Errorf("transport: creating %s socket: %w", network, err)
		c.logger().Error("creating UDP socket failed", "address", address, "error", err)
		return func(context.Context, any) error { return socketError }
	}

	return func(ctx context.Context, value any) error {
		data, err := c.Policy.Encode(value)
		if err != nil {
			return err
		}

		destination, err := net.ResolveUDPAddr(network, address)
		if err != nil {
			c.logger().Debug("resolving UDP destination failed", "address", address, "error", err)
			return nil
		}
		if _, err := socket.WriteToUDP(data, destination); err != nil {
			c.logger().Debug("UDP send failed", "address", address, "error", err)
			return nil
		}
		c.Metrics.OutboundSend(string(UDP), len(data))
		return nil
	}
}
