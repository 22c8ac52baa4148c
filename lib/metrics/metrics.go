// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus counters netbridge exports.
//
// A nil *Metrics is valid and records nothing, so components take an
// optional *Metrics without branching at every call site. The command
// registers a Metrics on its own registry and serves it over HTTP when
// --metrics-listen is set.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "netbridge"

// Metrics holds every counter. Protocol labels are "TCP" or "UDP".
type Metrics struct {
	inboundEvents    *prometheus.CounterVec
	inboundBytes     *prometheus.CounterVec
	tcpConnections   prometheus.Counter
	connectionErrors prometheus.Counter
	outboundSends    *prometheus.CounterVec
	outboundBytes    *prometheus.CounterVec
	connectFailures  prometheus.Counter
}

// New creates the counters and registers them with registerer.
// Registration failures (duplicate registration) are returned.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound events published to subscribers.",
		}, []string{"protocol"}),
		inboundBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_bytes_total",
			Help:      "Payload bytes received by the listeners.",
		}, []string{"protocol"}),
		tcpConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tcp_connections_total",
			Help:      "Inbound TCP connections accepted.",
		}),
		connectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_connection_errors_total",
			Help:      "Inbound TCP connections that ended with an error other than a normal close.",
		}),
		outboundSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_sends_total",
			Help:      "Values written by outbound senders.",
		}, []string{"protocol"}),
		outboundBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_bytes_total",
			Help:      "Bytes written by outbound senders.",
		}, []string{"protocol"}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Outbound TCP connection attempts that failed.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.inboundEvents, m.inboundBytes, m.tcpConnections, m.connectionErrors,
		m.outboundSends, m.outboundBytes, m.connectFailures,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// InboundEvent counts one published event of size bytes.
func (m *Metrics) InboundEvent(protocol string, size int) {
	if m == nil {
		return
	}
	m.inboundEvents.WithLabelValues(protocol).Inc()
	m.inboundBytes.WithLabelValues(protocol).Add(float64(size))
}

// ConnectionAccepted counts one accepted inbound TCP connection.
func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.tcpConnections.Inc()
}

// ConnectionError counts one inbound connection that failed abnormally.
// It is recorded regardless of whether the error is logged.
func (m *Metrics) ConnectionError() {
	if m == nil {
		return
	}
	m.connectionErrors.Inc()
}

// OutboundSend counts one value of size bytes written by a sender.
func (m *Metrics) OutboundSend(protocol string, size int) {
	if m == nil {
		return
	}
	m.outboundSends.WithLabelValues(protocol).Inc()
	m.outboundBytes.WithLabelValues(protocol).Add(float64(size))
}

// ConnectFailure counts one failed outbound TCP connect.
func (m *Metrics) ConnectFailure() {
	if m == nil {
		return
	}
	m.connectFailures.Inc()
}
