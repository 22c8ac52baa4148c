// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/capture"
	"github.com/bureau-foundation/netbridge/lib/clock"
	"github.com/bureau-foundation/netbridge/lib/config"
	"github.com/bureau-foundation/netbridge/lib/metrics"
	"github.com/bureau-foundation/netbridge/lib/process"
	"github.com/bureau-foundation/netbridge/lib/version"
	"github.com/bureau-foundation/netbridge/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// usageError marks a command-line mistake. The process exits with
// status 2 for these.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return 2 }

// options holds the command-line flags.
type options struct {
	configPath         string
	tcpPort            int
	udpPort            int
	routes             []string
	capturePath        string
	captureCompression string
	metricsListen      string
	logFormat          string
	verbose            bool
	replayPath         string
	replayTo           string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("netbridge", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .json, .jsonc or .toml; default: $"+config.EnvConfig+")")
	flagSet.IntVar(&opts.tcpPort, "tcp-port", config.DefaultPort, "TCP listen port (0 picks a free port)")
	flagSet.IntVar(&opts.udpPort, "udp-port", config.DefaultPort, "UDP listen port (0 picks a free port)")
	flagSet.StringArrayVar(&opts.routes, "route", nil, "forward inbound events: input=proto://host:port (repeatable)")
	flagSet.StringVar(&opts.capturePath, "capture", "", "record every inbound event to this file")
	flagSet.StringVar(&opts.captureCompression, "capture-compression", "zstd", "capture payload compression: none, lz4 or zstd")
	flagSet.StringVar(&opts.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9100)")
	flagSet.StringVar(&opts.logFormat, "log-format", "auto", "log format: auto, text or json")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flagSet.StringVar(&opts.replayPath, "replay", "", "send the payloads of a capture file and exit")
	flagSet.StringVar(&opts.replayTo, "replay-to", "", "replay destination: proto://host:port")
	flagSet.Bool("version", false, "print version information")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

func run(args []string) error {
	var opts options
	flagSet := newFlagSet(&opts)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return &usageError{err: err}
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		version.Fprint(os.Stdout, "netbridge")
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return &usageError{err: fmt.Errorf("unexpected argument: %s", rest[0])}
	}

	logger, err := newLogger(os.Stderr, opts.logFormat, opts.verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg, err := loadConfig(flagSet, &opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.replayPath != "" {
		return runReplay(ctx, cfg, opts.replayPath, opts.replayTo, logger)
	}
	return runBridge(ctx, cfg, logger)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(flagSet *pflag.FlagSet, opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case os.Getenv(config.EnvConfig) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("tcp-port") {
		cfg.TCPPort = opts.tcpPort
	}
	if flagSet.Changed("udp-port") {
		cfg.UDPPort = opts.udpPort
	}
	for _, routeFlag := range opts.routes {
		route, err := parseRoute(routeFlag)
		if err != nil {
			return nil, err
		}
		cfg.Routes = append(cfg.Routes, route)
	}
	if flagSet.Changed("capture") {
		cfg.Capture.Path = opts.capturePath
	}
	if flagSet.Changed("capture-compression") {
		cfg.Capture.Compression = opts.captureCompression
	}
	if flagSet.Changed("metrics-listen") {
		cfg.Metrics.Listen = opts.metricsListen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runBridge runs the bridge until ctx is done.
func runBridge(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var bridgeMetrics *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		var err error
		bridgeMetrics, err = metrics.New(registry)
		if err != nil {
			return err
		}
		shutdown, err := serveMetrics(cfg.Metrics.Listen, registry, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	plugin, err := bridge.Open(ctx, cfg, logger, bridgeMetrics)
	if err != nil {
		return err
	}
	defer plugin.Close()

	if cfg.Capture.Path != "" {
		closeCapture, err := startCapture(plugin, cfg.Capture, logger)
		if err != nil {
			return err
		}
		defer closeCapture()
	}

	wireRoutes(ctx, plugin, cfg.Routes, logger)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// routeQueueSize bounds the events buffered for one route while its
// destination is connecting or slow.
const routeQueueSize = 1024

// wireRoutes subscribes one sender per route to its input protocol.
// Events are forwarded as their raw payload by a goroutine per route,
// so a destination that is still connecting or has stalled holds up
// only its own route. Events arriving while a route's queue is full are
// dropped. The goroutines exit when ctx is done.
func wireRoutes(ctx context.Context, plugin *bridge.Plugin, routes []config.RouteConfig, logger *slog.Logger) {
	for _, route := range routes {
		send := plugin.Output(bridge.OutputOptions{
			Protocol: route.Output.Protocol,
			Host:     route.Output.Host,
			Port:     route.Output.Port,
		})
		routeLogger := logger.With(
			"input", route.Input,
			"output", formatDestination(route.Output),
		)
		queue := make(chan bridge.Event, routeQueueSize)
		subscription := plugin.Input(bridge.InputOptions{Protocol: route.Input}, func(event bridge.Event) {
			select {
			case queue <- event:
			default:
				routeLogger.Warn("route queue full, dropping event", "bytes", len(event.Payload))
			}
		})
		if subscription == nil {
			continue
		}
		go forward(ctx, queue, send, routeLogger)
		routeLogger.Info("route active")
	}
}

// forward sends queued events in order until ctx is done.
func forward(ctx context.Context, queue <-chan bridge.Event, send transport.Sender, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-queue:
			if err := send(ctx, event); err != nil && ctx.Err() == nil {
				logger.Warn("route send failed", "error", err)
			}
		}
	}
}

// startCapture records every inbound event on both protocols. The
// returned function closes the capture file.
func startCapture(plugin *bridge.Plugin, captureConfig config.CaptureConfig, logger *slog.Logger) (func(), error) {
	compression, err := capture.ParseCompression(captureConfig.Compression)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(captureConfig.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}

	writer := capture.NewWriter(file, compression, clock.Real())
	var subscriptions []*bridge.Subscription
	for _, protocol := range transport.Protocols {
		subscription := plugin.Input(bridge.InputOptions{Protocol: protocol.String()}, func(event bridge.Event) {
			source := ""
			if event.Source != nil {
				source = event.Source.String()
			}
			if err := writer.Write(event.Protocol.String(), source, event.Payload); err != nil {
				logger.Error("capture write failed", "error", err)
			}
		})
		subscriptions = append(subscriptions, subscription)
	}
	logger.Info("capturing inbound events",
		"path", captureConfig.Path,
		"compression", compression.String(),
	)

	return func() {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
		if err := file.Close(); err != nil {
			logger.Error("closing capture file", "error", err)
		}
	}, nil
}

// serveMetrics serves /metrics on address. The returned function stops
// the server.
func serveMetrics(address string, registry *prometheus.Registry, logger *slog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", listener.Addr().String())

	return func() {
		shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownContext)
	}, nil
}

// runReplay sends every payload in the capture file at path to
// destination, in file order.
func runReplay(ctx context.Context, cfg *config.Config, path, destination string, logger *slog.Logger) error {
	if destination == "" {
		return errors.New("--replay requires --replay-to")
	}
	output, err := parseDestination(destination)
	if err != nil {
		return err
	}
	connectTimeout, err := cfg.ConnectTimeoutDuration()
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening capture file: %w", err)
	}
	defer file.Close()

	connector := &transport.Connector{
		Dialer:         &transport.TCPDialer{Timeout: connectTimeout},
		ConnectFailure: transport.ConnectFailureSurface,
		Logger:         logger,
	}
	send := connector.Connect(output.Protocol, output.Host, output.Port)

	count, err := replay(ctx, capture.NewReader(file), send)
	if err != nil {
		return fmt.Errorf("replaying %s after %d records: %w", path, count, err)
	}
	logger.Info("replay complete", "records", count, "destination", destination)
	return nil
}

// replay sends each record's payload through send until the reader is
// exhausted.
func replay(ctx context.Context, reader *capture.Reader, send transport.Sender) (int, error) {
	count := 0
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err := send(ctx, record.Payload); err != nil {
			return count, err
		}
		count++
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `netbridge - TCP/UDP event bridge

Listens on a TCP port and a UDP port, turns inbound traffic into events,
and forwards them to the destinations named by routes.

Usage:
  netbridge [flags]
  netbridge --replay FILE --replay-to proto://host:port

Examples:
  # Forward TCP traffic on port 7070 to a local UDP collector
  netbridge --route tcp=udp://127.0.0.1:9000

  # Record everything that arrives, with metrics on :9100
  netbridge --capture events.capture --metrics-listen 127.0.0.1:9100

  # Send a capture file's payloads to a TCP service
  netbridge --replay events.capture --replay-to tcp://127.0.0.1:7000

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
