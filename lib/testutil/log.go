// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

// LogBuffer collects slog text output from concurrent goroutines so
// tests can assert on what a component logged.
//
//	logs := testutil.NewLogBuffer()
//	connector := &transport.Connector{Logger: logs.Logger()}
//	...
//	if !logs.Contains("bad output protocol") { ... }
type LogBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewLogBuffer returns an empty LogBuffer.
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// Write implements io.Writer.
func (b *LogBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(data)
}

// Logger returns a Debug-level text logger writing into the buffer.
func (b *LogBuffer) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// Contains reports whether any logged output contains substring.
func (b *LogBuffer) Contains(substring string) bool {
	return strings.Contains(b.String(), substring)
}

// Lines returns the logged lines that contain substring.
func (b *LogBuffer) Lines(substring string) []string {
	var matched []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line != "" && strings.Contains(line, substring) {
			matched = append(matched, line)
		}
	}
	return matched
}
