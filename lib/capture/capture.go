// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/netbridge/lib/clock"
	"github.com/bureau-foundation/netbridge/lib/codec"
)

// ErrDigestMismatch is returned by Reader.Next when a payload does not
// match its recorded digest.
var ErrDigestMismatch = errors.New("capture: payload digest mismatch")

// MaxPayloadSize is the largest payload a record may hold. Readers
// reject records claiming more before allocating.
const MaxPayloadSize = 64 << 20

// Record is one captured event.
type Record struct {
	// Protocol is "TCP" or "UDP".
	Protocol string

	// Time is when the writer recorded the event.
	Time time.Time

	// Source is the remote address the bytes came from, if known.
	Source string

	// Payload is the event's bytes.
	Payload []byte
}

// envelope is the on-disk form of a record.
type envelope struct {
	Protocol    string      `cbor:"protocol"`
	Time        int64       `cbor:"time"`
	Source      string      `cbor:"source,omitempty"`
	Compression Compression `cbor:"compression"`
	Size        int         `cbor:"size"`
	Data        []byte      `cbor:"data"`
	Digest      [32]byte    `cbor:"digest"`
}

// Writer appends records to an io.Writer.
type Writer struct {
	mu          sync.Mutex
	encoder     *codec.Encoder
	compression Compression
	clock       clock.Clock
}

// NewWriter returns a Writer that stamps records with c and compresses
// payloads with compression.
func NewWriter(w io.Writer, compression Compression, c clock.Clock) *Writer {
	return &Writer{
		encoder:     codec.NewEncoder(w),
		compression: compression,
		clock:       c,
	}
}

// Write appends one record. The record's Time is set from the writer's
// clock.
func (w *Writer) Write(protocol, source string, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("capture: payload of %d bytes exceeds %d", len(payload), MaxPayloadSize)
	}
	stored, compression, err := compress(payload, w.compression)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	err = w.encoder.Encode(envelope{
		Protocol:    protocol,
		Time:        w.clock.Now().UnixNano(),
		Source:      source,
		Compression: compression,
		Size:        len(payload),
		Data:        stored,
		Digest:      blake3.Sum256(payload),
	})
	if err != nil {
		return fmt.Errorf("capture: writing record: %w", err)
	}
	return nil
}

// Reader reads records in file order.
type Reader struct {
	decoder *codec.Decoder
	count   int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{decoder: codec.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var stored envelope
	if err := r.decoder.Decode(&stored); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: reading record %d: %w", r.count, err)
	}

	if stored.Size < 0 || stored.Size > MaxPayloadSize {
		return Record{}, fmt.Errorf("capture: record %d: size %d out of range 0-%d", r.count, stored.Size, MaxPayloadSize)
	}
	payload, err := decompress(stored.Data, stored.Compression, stored.Size)
	if err != nil {
		return Record{}, fmt.Errorf("record %d: %w", r.count, err)
	}
	if blake3.Sum256(payload) != stored.Digest {
		return Record{}, fmt.Errorf("record %d: %w", r.count, ErrDigestMismatch)
	}
	r.count++

	return Record{
		Protocol: stored.Protocol,
		Time:     time.Unix(0, stored.Time),
		Source:   stored.Source,
		Payload:  payload,
	}, nil
}
