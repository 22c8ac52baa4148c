// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/netbridge/lib/codec"
	"github.com/bureau-foundation/netbridge/lib/config"
	"github.com/bureau-foundation/netbridge/lib/metrics"
	"github.com/bureau-foundation/netbridge/transport"
)

// PluginType is the identifier a host uses to select this plugin.
const PluginType = "net"

// InputOptions selects the inbound protocol for Plugin.Input.
type InputOptions struct {
	// Protocol is "tcp" or "udp", in any case.
	Protocol string
}

// OutputOptions names the destination for Plugin.Output.
type OutputOptions struct {
	// Protocol is "tcp" or "udp", in any case.
	Protocol string
	Host     string
	Port     int
}

// Plugin is the host-facing contract: a running Bridge for input and a
// transport.Connector for output.
type Plugin struct {
	bridge    *Bridge
	connector *transport.Connector
}

// Open builds a Bridge and a Connector from cfg and starts listening.
// A nil cfg means config.Default(). Open fails if a policy name in cfg
// is unknown or if either socket cannot be bound.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Plugin, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	inboundErrors, err := ParseInboundErrorPolicy(cfg.InboundErrors)
	if err != nil {
		return nil, err
	}
	connectFailure, err := transport.ParseConnectFailurePolicy(cfg.ConnectFailure)
	if err != nil {
		return nil, err
	}
	encoding, err := codec.ParseStructuredEncoding(cfg.StructuredEncoding)
	if err != nil {
		return nil, err
	}
	connectTimeout, err := cfg.ConnectTimeoutDuration()
	if err != nil {
		return nil, err
	}

	bridge := &Bridge{
		TCPPort:        cfg.TCPPort,
		UDPPort:        cfg.UDPPort,
		BindAddress:    cfg.BindAddress,
		ReadBufferSize: cfg.ReadBufferSize,
		Listen: transport.ListenOptions{
			ReusePort:          cfg.ReusePort,
			ReceiveBufferBytes: cfg.ReceiveBufferBytes,
		},
		InboundErrors: inboundErrors,
		Metrics:       m,
		Logger:        logger,
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, err
	}

	return &Plugin{
		bridge: bridge,
		connector: &transport.Connector{
			Dialer:         &transport.TCPDialer{Timeout: connectTimeout},
			ConnectFailure: connectFailure,
			Policy:         codec.Policy{Structured: encoding},
			Metrics:        m,
			Logger:         logger,
		},
	}, nil
}

// Type returns PluginType.
func (p *Plugin) Type() string {
	return PluginType
}

// Input subscribes consumer to inbound events on options.Protocol. It
// returns nil, after logging, if the protocol is unknown.
func (p *Plugin) Input(options InputOptions, consumer Consumer) *Subscription {
	subscription, _ := p.bridge.Subscribe(options.Protocol, consumer)
	return subscription
}

// Output returns a sender for the destination. An unknown protocol
// yields a sender that does nothing.
func (p *Plugin) Output(options OutputOptions) transport.Sender {
	return p.connector.Connect(options.Protocol, options.Host, options.Port)
}

// Bridge returns the underlying bridge.
func (p *Plugin) Bridge() *Bridge {
	return p.bridge
}

// Close closes the bridge's sockets. Senders already returned by Output
// keep their connections.
func (p *Plugin) Close() error {
	return p.bridge.Close()
}
