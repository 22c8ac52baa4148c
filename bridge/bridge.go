// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/netbridge/lib/metrics"
	"github.com/bureau-foundation/netbridge/lib/netutil"
	"github.com/bureau-foundation/netbridge/transport"
)

const (
	// DefaultReadBufferSize is the largest TCP chunk delivered as one
	// event when ReadBufferSize is zero.
	DefaultReadBufferSize = 64 * 1024

	// udpBufferSize holds the largest possible UDP payload, so no
	// datagram is ever truncated.
	udpBufferSize = 65536

	// Bounds of the pause between failed accepts. Errors such as EMFILE
	// persist until a descriptor frees up.
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// InboundErrorPolicy decides what happens to errors on accepted TCP
// connections.
type InboundErrorPolicy string

const (
	// InboundErrorsSilent drops connection errors without logging them.
	// This is the default.
	InboundErrorsSilent InboundErrorPolicy = "silent"

	// InboundErrorsLog logs connection errors at Warn, and resets or
	// broken pipes at Debug.
	InboundErrorsLog InboundErrorPolicy = "log"
)

// ParseInboundErrorPolicy parses "silent" or "log". The empty string
// selects InboundErrorsSilent.
func ParseInboundErrorPolicy(name string) (InboundErrorPolicy, error) {
	switch policy := InboundErrorPolicy(strings.ToLower(name)); policy {
	case "":
		return InboundErrorsSilent, nil
	case InboundErrorsSilent, InboundErrorsLog:
		return policy, nil
	default:
		return "", fmt.Errorf("bridge: unknown inbound error policy %q", name)
	}
}

// ListenerState is Unbound until Start binds the socket, then Bound.
// A listener is never rebound.
type ListenerState int

const (
	Unbound ListenerState = iota
	Bound
)

func (s ListenerState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	default:
		return fmt.Sprintf("ListenerState(%d)", int(s))
	}
}

// Listener describes one of the bridge's two sockets.
type Listener struct {
	Protocol transport.Protocol

	// Port is the configured port before Start and the bound port
	// after, which differs when the configured port is 0.
	Port int

	State ListenerState
}

// BindError reports a listener that could not be bound.
type BindError struct {
	Protocol transport.Protocol
	Port     int
	Err      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bridge: binding %s port %d: %v", e.Protocol, e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Bridge owns the inbound TCP listener and UDP socket.
type Bridge struct {
	// TCPPort and UDPPort are the ports to bind. 0 picks an ephemeral
	// port.
	TCPPort int
	UDPPort int

	// BindAddress is the host to bind. Empty binds all interfaces.
	BindAddress string

	// ReadBufferSize is the largest TCP chunk delivered as one event.
	// Zero means DefaultReadBufferSize.
	ReadBufferSize int

	// UDPNetwork is the network for the UDP socket. Empty means "udp4".
	UDPNetwork string

	// Listen carries socket options for both sockets.
	Listen transport.ListenOptions

	// InboundErrors selects whether TCP connection errors are logged.
	InboundErrors InboundErrorPolicy

	// Metrics, if non-nil, counts events and connections.
	Metrics *metrics.Metrics

	// Logger receives lifecycle and error output. Nil means
	// slog.Default().
	Logger *slog.Logger

	routerOnce sync.Once
	router     *Router

	mu          sync.Mutex
	started     bool
	closing     chan struct{}
	closeOnce   sync.Once
	tcpListener net.Listener
	udpSocket   net.PacketConn
	connections map[net.Conn]struct{}
	readers     sync.WaitGroup
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Bridge) readBufferSize() int {
	if b.ReadBufferSize > 0 {
		return b.ReadBufferSize
	}
	return DefaultReadBufferSize
}

func (b *Bridge) udpNetwork() string {
	if b.UDPNetwork != "" {
		return b.UDPNetwork
	}
	return "udp4"
}

// Router returns the bridge's router, creating it on first use.
func (b *Bridge) Router() *Router {
	b.routerOnce.Do(func() {
		b.router = &Router{Logger: b.Logger}
	})
	return b.router
}

// Subscribe registers consumer for protocolName. See Router.Subscribe.
func (b *Bridge) Subscribe(protocolName string, consumer Consumer) (*Subscription, bool) {
	return b.Router().Subscribe(protocolName, consumer)
}

// Start binds the TCP listener and the UDP socket and starts reading
// from both. If either bind fails, nothing is left bound and the error
// is a *BindError. Cancelling ctx closes the bridge.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("bridge: already started")
	}

	listenConfig := b.Listen.ListenConfig()

	tcpAddress := net.JoinHostPort(b.BindAddress, strconv.Itoa(b.TCPPort))
	listener, err := listenConfig.Listen(ctx, "tcp", tcpAddress)
	if err != nil {
		return &BindError{Protocol: transport.TCP, Port: b.TCPPort, Err: err}
	}

	udpAddress := net.JoinHostPort(b.BindAddress, strconv.Itoa(b.UDPPort))
	socket, err := listenConfig.ListenPacket(ctx, b.udpNetwork(), udpAddress)
	if err != nil {
		listener.Close()
		return &BindError{Protocol: transport.UDP, Port: b.UDPPort, Err: err}
	}

	b.started = true
	b.tcpListener = listener
	b.udpSocket = socket
	b.closing = make(chan struct{})
	b.connections = make(map[net.Conn]struct{})

	b.logger().Info("TCP server is listening", "port", netutil.Port(listener.Addr()))
	b.logger().Info("UDP server is listening", "port", netutil.Port(socket.LocalAddr()))

	b.readers.Add(2)
	go func() {
		defer b.readers.Done()
		b.acceptLoop()
	}()
	go func() {
		defer b.readers.Done()
		b.readDatagrams()
	}()

	closing := b.closing
	go func() {
		select {
		case <-ctx.Done():
			b.Close()
		case <-closing:
		}
	}()

	return nil
}

// Listeners returns the TCP and UDP listeners, in that order.
func (b *Bridge) Listeners() []Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return []Listener{
			{Protocol: transport.TCP, Port: b.TCPPort, State: Unbound},
			{Protocol: transport.UDP, Port: b.UDPPort, State: Unbound},
		}
	}
	return []Listener{
		{Protocol: transport.TCP, Port: netutil.Port(b.tcpListener.Addr()), State: Bound},
		{Protocol: transport.UDP, Port: netutil.Port(b.udpSocket.LocalAddr()), State: Bound},
	}
}

// TCPAddr returns the bound TCP address, or nil before Start.
func (b *Bridge) TCPAddr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tcpListener == nil {
		return nil
	}
	return b.tcpListener.Addr()
}

// UDPAddr returns the bound UDP address, or nil before Start.
func (b *Bridge) UDPAddr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.udpSocket == nil {
		return nil
	}
	return b.udpSocket.LocalAddr()
}

// Close closes both sockets and every accepted connection, then waits
// for the reader goroutines to return. It is safe to call more than
// once and before Start.
//
// Consumers run on the reader goroutines, so a consumer must not call
// Close directly: Close would wait for the goroutine it is running on.
// A consumer that wants to shut the bridge down calls go b.Close().
func (b *Bridge) Close() error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	var closeError error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		close(b.closing)
		closeError = errors.Join(b.tcpListener.Close(), b.udpSocket.Close())
		for connection := range b.connections {
			connection.Close()
		}
		b.mu.Unlock()
	})
	b.readers.Wait()
	return closeError
}

func (b *Bridge) isClosing() bool {
	select {
	case <-b.closing:
		return true
	default:
		return false
	}
}

func (b *Bridge) publish(event Event) {
	b.Metrics.InboundEvent(string(event.Protocol), len(event.Payload))
	b.Router().Publish(event)
}

func (b *Bridge) acceptLoop() {
	var delay time.Duration
	for {
		connection, err := b.tcpListener.Accept()
		if err != nil {
			if b.isClosing() || netutil.IsClosed(err) {
				return
			}
			delay = nextAcceptDelay(delay)
			b.logger().Error("accept failed", "error", err, "retry_in", delay)
			select {
			case <-b.closing:
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		b.Metrics.ConnectionAccepted()
		if !b.track(connection) {
			connection.Close()
			return
		}
		b.readers.Add(1)
		go func() {
			defer b.readers.Done()
			b.readConnection(connection)
		}()
	}
}

// nextAcceptDelay doubles the previous pause, starting at
// minAcceptDelay and capped at maxAcceptDelay.
func nextAcceptDelay(previous time.Duration) time.Duration {
	if previous <= 0 {
		return minAcceptDelay
	}
	return min(previous*2, maxAcceptDelay)
}

// track records an accepted connection so Close can reach it. It
// returns false once the bridge is closing.
func (b *Bridge) track(connection net.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosing() {
		return false
	}
	b.connections[connection] = struct{}{}
	return true
}

func (b *Bridge) untrack(connection net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.connections, connection)
}

// readConnection publishes every chunk read from connection until it
// ends.
func (b *Bridge) readConnection(connection net.Conn) {
	defer b.untrack(connection)
	defer connection.Close()

	source := connection.RemoteAddr()
	buffer := make([]byte, b.readBufferSize())
	for {
		count, err := connection.Read(buffer)
		if count > 0 {
			payload := make([]byte, count)
			copy(payload, buffer[:count])
			b.publish(Event{Protocol: transport.TCP, Payload: payload, Source: source})
		}
		if err != nil {
			b.connectionError(source, err)
			return
		}
	}
}

func (b *Bridge) connectionError(source net.Addr, err error) {
	if errors.Is(err, io.EOF) || b.isClosing() {
		return
	}
	b.Metrics.ConnectionError()
	if b.InboundErrors != InboundErrorsLog {
		return
	}
	if netutil.IsExpectedCloseError(err) {
		b.logger().Debug("inbound connection closed", "remote_addr", source.String(), "error", err)
		return
	}
	b.logger().Warn("inbound connection error", "remote_addr", source.String(), "error", err)
}

// readDatagrams publishes one event per datagram until the socket is
// closed.
func (b *Bridge) readDatagrams() {
	buffer := make([]byte, udpBufferSize)
	for {
		count, source, err := b.udpSocket.ReadFrom(buffer)
		if err != nil {
			if b.isClosing() || netutil.IsClosed(err) {
				return
			}
			if b.InboundErrors == InboundErrorsLog {
				b.logger().Warn("UDP read failed", "error", err)
			}
			continue
		}
		payload := make([]byte, count)
		copy(payload, buffer[:count])
		b.publish(Event{Protocol: transport.UDP, Payload: payload, Source: source})
	}
}
