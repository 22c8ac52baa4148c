// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies which branch of the serialization policy a payload
// takes.
type Kind uint8

const (
	// KindStructured values are encoded as JSON or CBOR.
	KindStructured Kind = iota

	// KindText values are transmitted as their string bytes.
	KindText

	// KindRawBytes values are transmitted byte for byte.
	KindRawBytes
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindText:
		return "text"
	case KindRawBytes:
		return "raw"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Payload is an outbound value after classification. Exactly one of
// Text, Bytes or Value is meaningful, selected by Kind.
type Payload struct {
	Kind  Kind
	Text  string
	Bytes []byte
	Value any
}

// Text returns a text payload.
func Text(s string) Payload {
	return Payload{Kind: KindText, Text: s}
}

// Raw returns a raw-bytes payload.
func Raw(data []byte) Payload {
	return Payload{Kind: KindRawBytes, Bytes: data}
}

// Structured returns a payload that is always serialized, even when v
// is a string or Buffer-shaped.
func Structured(v any) Payload {
	return Payload{Kind: KindStructured, Value: v}
}

// Classify applies the serialization precedence to an arbitrary value:
// strings are text, Buffer-shaped values are raw bytes, everything else
// is structured. A Payload is returned unchanged.
func Classify(value any) Payload {
	switch v := value.(type) {
	case Payload:
		return v
	case *Payload:
		if v != nil {
			return *v
		}
		return Structured(nil)
	case string:
		return Text(v)
	case []byte:
		return Raw(v)
	case map[string]any:
		if data, ok := bufferMapData(v); ok {
			return Raw(data)
		}
		return Structured(v)
	case BufferShape:
		if isNilPointer(v) {
			return Structured(nil)
		}
		return Raw(v.BufferData())
	}
	if data, ok := structBufferData(value); ok {
		return Raw(data)
	}
	return Structured(value)
}

func isNilPointer(v any) bool {
	value := reflect.ValueOf(v)
	return value.Kind() == reflect.Pointer && value.IsNil()
}

// StructuredEncoding selects the wire encoding for structured payloads.
type StructuredEncoding string

const (
	// StructuredJSON encodes structured payloads as JSON text. This is
	// the default.
	StructuredJSON StructuredEncoding = "json"

	// StructuredCBOR encodes structured payloads as deterministic CBOR.
	StructuredCBOR StructuredEncoding = "cbor"
)

// ParseStructuredEncoding parses "json" or "cbor", case-insensitively.
// The empty string selects JSON.
func ParseStructuredEncoding(name string) (StructuredEncoding, error) {
	switch StructuredEncoding(strings.ToLower(name)) {
	case "", StructuredJSON:
		return StructuredJSON, nil
	case StructuredCBOR:
		return StructuredCBOR, nil
	default:
		return "", fmt.Errorf("codec: unknown structured encoding %q", name)
	}
}

// Policy converts outbound values to bytes. The zero Policy encodes
// structured payloads as JSON.
type Policy struct {
	Structured StructuredEncoding
}

// Encode classifies value and returns the bytes to transmit.
func (p Policy) Encode(value any) ([]byte, error) {
	return p.EncodePayload(Classify(value))
}

// EncodePayload returns the bytes to transmit for an already
// classified payload.
func (p Policy) EncodePayload(payload Payload) ([]byte, error) {
	switch payload.Kind {
	case KindText:
		return []byte(payload.Text), nil
	case KindRawBytes:
		return payload.Bytes, nil
	case KindStructured:
		if p.Structured == StructuredCBOR {
			data, err := Marshal(payload.Value)
			if err != nil {
				return nil, fmt.Errorf("codec: encoding structured payload as CBOR: %w", err)
			}
			return data, nil
		}
		data, err := marshalJSON(payload.Value)
		if err != nil {
			return nil, fmt.Errorf("codec: encoding structured payload as JSON: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("codec: unknown payload kind %s", payload.Kind)
	}
}

// Encode encodes value with the default (JSON) policy.
func Encode(value any) ([]byte, error) {
	return Policy{}.Encode(value)
}

// marshalJSON encodes v without HTML escaping and without the trailing
// newline json.Encoder appends.
func marshalJSON(v any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}
