// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec decides how outbound values become bytes on the wire.
//
// Every value handed to a sender is classified exactly once into a
// [Payload], a tagged union over three kinds:
//
//   - [KindText]: a Go string. Its bytes are transmitted unchanged, with
//     no quoting and no re-encoding.
//   - [KindRawBytes]: a Buffer-shaped value. This covers [Buffer], any
//     [BufferShape] implementation, a []byte, and the decoded-JSON form
//     map[string]any{"type": "Buffer", "data": [...]}. The data bytes
//     are transmitted raw.
//   - [KindStructured]: everything else. Encoded as JSON by default, or
//     as CBOR when the [Encoder] is configured for it.
//
// The order matters: a Buffer-shaped map is also a map and would
// otherwise fall into the structured branch. Callers that already know
// the kind construct a Payload directly with [Text], [Raw] or
// [Structured]; [Classify] passes a Payload through untouched.
//
// JSON output matches what JavaScript's JSON.stringify produces for the
// same data: no HTML escaping and no trailing newline. Map keys are
// sorted (encoding/json behavior), which differs from insertion order.
//
// CBOR output uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same CBOR modes back the capture file format (see lib/capture), so
// [Marshal], [Unmarshal], [NewEncoder] and [NewDecoder] are exported for
// stream use:
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
//
// This package has no netbridge-internal dependencies.
package codec
