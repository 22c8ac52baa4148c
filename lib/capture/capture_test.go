// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/netbridge/lib/clock"
	"github.com/bureau-foundation/netbridge/lib/codec"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			fake := clock.Fake(epoch)
			var file bytes.Buffer
			writer := NewWriter(&file, compression, fake)

			compressible := []byte(strings.Repeat("telemetry frame ", 256))
			if err := writer.Write("TCP", "127.0.0.1:50000", compressible); err != nil {
				t.Fatalf("Write: %v", err)
			}
			fake.Advance(time.Second)
			if err := writer.Write("UDP", "127.0.0.1:50001", []byte("ok")); err != nil {
				t.Fatalf("Write: %v", err)
			}
			fake.Advance(time.Second)
			if err := writer.Write("UDP", "", nil); err != nil {
				t.Fatalf("Write: %v", err)
			}

			reader := NewReader(&file)
			first, err := reader.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if first.Protocol != "TCP" || first.Source != "127.0.0.1:50000" {
				t.Errorf("first record = %s from %q, want TCP from 127.0.0.1:50000", first.Protocol, first.Source)
			}
			if !bytes.Equal(first.Payload, compressible) {
				t.Errorf("first payload differs after round trip (%d bytes, want %d)", len(first.Payload), len(compressible))
			}
			if !first.Time.Equal(epoch) {
				t.Errorf("first time = %v, want %v", first.Time, epoch)
			}

			second, err := reader.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if second.Protocol != "UDP" || string(second.Payload) != "ok" {
				t.Errorf("second record = %s %q, want UDP \"ok\"", second.Protocol, second.Payload)
			}
			if !second.Time.Equal(epoch.Add(time.Second)) {
				t.Errorf("second time = %v, want %v", second.Time, epoch.Add(time.Second))
			}

			third, err := reader.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if len(third.Payload) != 0 || third.Source != "" {
				t.Errorf("third record = %q from %q, want empty payload and source", third.Payload, third.Source)
			}

			if _, err := reader.Next(); !errors.Is(err, io.EOF) {
				t.Errorf("Next after last record: err = %v, want io.EOF", err)
			}
		})
	}
}

func TestCompressionStoredForm(t *testing.T) {
	compressible := []byte(strings.Repeat("a", 4096))

	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, tag, err := compress(compressible, compression)
		if err != nil {
			t.Fatalf("compress(%s): %v", compression, err)
		}
		if tag != compression {
			t.Errorf("compress(%s) tag = %s, want %s", compression, tag, compression)
		}
		if len(stored) >= len(compressible) {
			t.Errorf("compress(%s) stored %d bytes, want fewer than %d", compression, len(stored), len(compressible))
		}
	}

	// Four bytes never shrink under either algorithm.
	short := []byte{0x01, 0x02, 0x03, 0x04}
	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, tag, err := compress(short, compression)
		if err != nil {
			t.Fatalf("compress(%s): %v", compression, err)
		}
		if tag != CompressionNone {
			t.Errorf("compress(%s) of short input tag = %s, want none", compression, tag)
		}
		if !bytes.Equal(stored, short) {
			t.Errorf("compress(%s) of short input changed the bytes", compression)
		}
	}
}

func TestReaderDetectsCorruption(t *testing.T) {
	var file bytes.Buffer
	if err := codec.NewEncoder(&file).Encode(envelope{
		Protocol:    "UDP",
		Compression: CompressionNone,
		Size:        5,
		Data:        []byte("hello"),
		Digest:      [32]byte{1},
	}); err != nil {
		t.Fatalf("encoding envelope: %v", err)
	}

	_, err := NewReader(&file).Next()
	if !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("Next: err = %v, want ErrDigestMismatch", err)
	}
}

func TestReaderDetectsSizeMismatch(t *testing.T) {
	var file bytes.Buffer
	if err := codec.NewEncoder(&file).Encode(envelope{
		Protocol:    "TCP",
		Compression: CompressionNone,
		Size:        9,
		Data:        []byte("hello"),
	}); err != nil {
		t.Fatalf("encoding envelope: %v", err)
	}

	_, err := NewReader(&file).Next()
	if err == nil || !strings.Contains(err.Error(), "record says 9") {
		t.Errorf("Next: err = %v, want size mismatch", err)
	}
}

func TestReaderRejectsOutOfRangeSize(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for _, size := range []int{-1, MaxPayloadSize + 1} {
			var file bytes.Buffer
			if err := codec.NewEncoder(&file).Encode(envelope{
				Protocol:    "UDP",
				Compression: compression,
				Size:        size,
				Data:        []byte("hello"),
			}); err != nil {
				t.Fatalf("encoding envelope: %v", err)
			}

			_, err := NewReader(&file).Next()
			if err == nil || !strings.Contains(err.Error(), "out of range") {
				t.Errorf("%s record with size %d: err = %v, want out of range", compression, size, err)
			}
		}
	}
}

func TestWriterRejectsOversizedPayload(t *testing.T) {
	var file bytes.Buffer
	writer := NewWriter(&file, CompressionNone, clock.Fake(epoch))
	if err := writer.Write("TCP", "", make([]byte, MaxPayloadSize+1)); err == nil {
		t.Fatal("Write accepted a payload above MaxPayloadSize")
	}
	if file.Len() != 0 {
		t.Errorf("rejected payload wrote %d bytes", file.Len())
	}
}

func TestReaderTruncatedFile(t *testing.T) {
	var file bytes.Buffer
	writer := NewWriter(&file, CompressionNone, clock.Fake(epoch))
	if err := writer.Write("TCP", "", []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	truncated := file.Bytes()[:file.Len()-3]

	_, err := NewReader(bytes.NewReader(truncated)).Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Next on truncated record: err = %v, want a decode error", err)
	}
}

func TestWriterConcurrentWrites(t *testing.T) {
	var file bytes.Buffer
	writer := NewWriter(&file, CompressionZstd, clock.Fake(epoch))

	const writers = 8
	const perWriter = 50
	var group sync.WaitGroup
	for i := range writers {
		group.Add(1)
		go func() {
			defer group.Done()
			payload := bytes.Repeat([]byte{byte(i)}, 128)
			for range perWriter {
				if err := writer.Write("UDP", "", payload); err != nil {
					t.Errorf("Write: %v", err)
					return
				}
			}
		}()
	}
	group.Wait()

	reader := NewReader(&file)
	count := 0
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next after %d records: %v", count, err)
		}
		if len(record.Payload) != 128 {
			t.Fatalf("record %d payload is %d bytes, want 128", count, len(record.Payload))
		}
		count++
	}
	if count != writers*perWriter {
		t.Errorf("read %d records, want %d", count, writers*perWriter)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name    string
		want    Compression
		wantErr bool
	}{
		{"none", CompressionNone, false},
		{"lz4", CompressionLZ4, false},
		{"zstd", CompressionZstd, false},
		{"", CompressionZstd, false},
		{"gzip", 0, true},
	}
	for _, test := range tests {
		got, err := ParseCompression(test.name)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", test.name, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseCompression(%q) = %s, want %s", test.name, got, test.want)
		}
	}
	if got := Compression(9).String(); got != "unknown(9)" {
		t.Errorf("Compression(9).String() = %q", got)
	}
}
