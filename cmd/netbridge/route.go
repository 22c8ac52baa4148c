// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/bureau-foundation/netbridge/lib/config"
	"github.com/bureau-foundation/netbridge/transport"
)

// parseRoute parses "input=proto://host:port".
func parseRoute(routeFlag string) (config.RouteConfig, error) {
	input, destination, found := strings.Cut(routeFlag, "=")
	if !found {
		return config.RouteConfig{}, fmt.Errorf("route %q: want input=proto://host:port", routeFlag)
	}
	if _, err := transport.ParseProtocol(input); err != nil {
		return config.RouteConfig{}, fmt.Errorf("route %q: input: %w", routeFlag, err)
	}
	output, err := parseDestination(destination)
	if err != nil {
		return config.RouteConfig{}, fmt.Errorf("route %q: %w", routeFlag, err)
	}
	return config.RouteConfig{Input: input, Output: output}, nil
}

// parseDestination parses "proto://host:port".
func parseDestination(destination string) (config.OutputConfig, error) {
	parsed, err := url.Parse(destination)
	if err != nil {
		return config.OutputConfig{}, fmt.Errorf("destination %q: %w", destination, err)
	}
	if _, err := transport.ParseProtocol(parsed.Scheme); err != nil {
		return config.OutputConfig{}, fmt.Errorf("destination %q: %w", destination, err)
	}
	if parsed.Hostname() == "" || parsed.Port() == "" {
		return config.OutputConfig{}, fmt.Errorf("destination %q: want proto://host:port", destination)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return config.OutputConfig{}, fmt.Errorf("destination %q: unexpected path %q", destination, parsed.Path)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil || port < 1 || port > 65535 {
		return config.OutputConfig{}, fmt.Errorf("destination %q: bad port %q", destination, parsed.Port())
	}
	return config.OutputConfig{
		Protocol: parsed.Scheme,
		Host:     parsed.Hostname(),
		Port:     port,
	}, nil
}

func formatDestination(output config.OutputConfig) string {
	return strings.ToLower(output.Protocol) + "://" + net.JoinHostPort(output.Host, strconv.Itoa(output.Port))
}
