// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type usageError struct{}

func (usageError) Error() string { return "bad usage" }
func (usageError) ExitCode() int { return 2 }

func TestExitCode(t *testing.T) {
	if got := ExitCode(errors.New("plain")); got != 1 {
		t.Errorf("ExitCode(plain) = %d, want 1", got)
	}
	if got := ExitCode(fmt.Errorf("parsing flags: %w", usageError{})); got != 2 {
		t.Errorf("ExitCode(wrapped usage error) = %d, want 2", got)
	}
}

func TestReport(t *testing.T) {
	var output bytes.Buffer
	Report(&output, errors.New("bridge: binding TCP port 7070: address already in use"))
	if want := "error: bridge: binding TCP port 7070: address already in use\n"; output.String() != want {
		t.Errorf("Report wrote %q, want %q", output.String(), want)
	}
}
