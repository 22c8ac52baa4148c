// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/bureau-foundation/netbridge/transport"
)

// Consumer receives events. It runs on the goroutine that read the
// event and should not block for long: a slow consumer delays every
// later event from the same connection.
type Consumer func(Event)

// Subscription is one consumer registered for one protocol.
type Subscription struct {
	router   *Router
	protocol transport.Protocol
	consumer Consumer
	once     sync.Once
}

// Protocol returns the protocol the subscription listens to.
func (s *Subscription) Protocol() transport.Protocol {
	return s.protocol
}

// Unsubscribe stops delivery to the consumer. An event already being
// published may still reach it. Calling Unsubscribe again does nothing.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.router.remove(s)
	})
}

// Router fans events out to subscribers by protocol. The zero value is
// ready to use. Subscribe, Unsubscribe and Publish may be called
// concurrently, including from inside a consumer.
type Router struct {
	// Logger receives bad-protocol errors. Nil means slog.Default().
	Logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[transport.Protocol][]*Subscription
}

func (r *Router) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Subscribe registers consumer for every event on protocolName, matched
// case-insensitively against "TCP" and "UDP". An unknown name is logged
// at Error and returns (nil, false); the consumer is never called.
func (r *Router) Subscribe(protocolName string, consumer Consumer) (*Subscription, bool) {
	protocol, err := transport.ParseProtocol(protocolName)
	if err != nil {
		r.logger().Error("bad input protocol", "protocol", protocolName)
		return nil, false
	}
	if consumer == nil {
		r.logger().Error("nil input consumer", "protocol", protocolName)
		return nil, false
	}

	subscription := &Subscription{
		router:   r,
		protocol: protocol,
		consumer: consumer,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscribers == nil {
		r.subscribers = make(map[transport.Protocol][]*Subscription)
	}
	// Copy on write: Publish iterates a snapshot without holding the
	// lock.
	current := r.subscribers[protocol]
	next := make([]*Subscription, len(current), len(current)+1)
	copy(next, current)
	r.subscribers[protocol] = append(next, subscription)
	return subscription, true
}

func (r *Router) remove(target *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.subscribers[target.protocol]
	index := slices.Index(current, target)
	if index < 0 {
		return
	}
	r.subscribers[target.protocol] = slices.Delete(slices.Clone(current), index, index+1)
}

// Publish delivers event to every subscriber of event.Protocol, in
// subscription order.
func (r *Router) Publish(event Event) {
	r.mu.RLock()
	snapshot := r.subscribers[event.Protocol]
	r.mu.RUnlock()

	for _, subscription := range snapshot {
		subscription.consumer(event)
	}
}

// Count returns the number of subscribers for protocol.
func (r *Router) Count(protocol transport.Protocol) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[protocol])
}
