// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// bufferTypeName is the discriminator value of the Buffer JSON shape.
const bufferTypeName = "Buffer"

// BufferShape is implemented by values that carry a literal byte
// sequence and should be transmitted raw rather than serialized.
type BufferShape interface {
	BufferData() []byte
}

// Buffer is a byte sequence whose JSON form is
// {"type":"Buffer","data":[104,105]}. This is the shape inbound events
// take when rendered as JSON, and the shape an outbound value must have
// to bypass structured encoding when it arrives as decoded JSON.
type Buffer struct {
	Data []byte
}

// BufferData returns the raw bytes.
func (b Buffer) BufferData() []byte {
	return b.Data
}

type bufferJSON struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

// MarshalJSON renders the buffer as a type-tagged array of byte values.
// encoding/json would otherwise base64-encode a []byte.
func (b Buffer) MarshalJSON() ([]byte, error) {
	values := make([]int, len(b.Data))
	for i, octet := range b.Data {
		values[i] = int(octet)
	}
	return json.Marshal(bufferJSON{Type: bufferTypeName, Data: values})
}

// UnmarshalJSON accepts only the Buffer shape.
func (b *Buffer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type string `json:"type"`
		Data []any  `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != bufferTypeName {
		return fmt.Errorf("codec: expected type %q, got %q", bufferTypeName, raw.Type)
	}
	b.Data = coerceBytes(raw.Data)
	return nil
}

// bufferMapData reports whether m has the Buffer shape ("type" equal to
// "Buffer" and an array under "data") and returns the bytes.
func bufferMapData(m map[string]any) ([]byte, bool) {
	if typeName, _ := m["type"].(string); typeName != bufferTypeName {
		return nil, false
	}
	switch data := m["data"].(type) {
	case []byte:
		return data, true
	case []any:
		return coerceBytes(data), true
	case nil:
		return nil, false
	default:
		value := reflect.ValueOf(data)
		if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
			return nil, false
		}
		elements := make([]any, value.Len())
		for i := range elements {
			elements[i] = value.Index(i).Interface()
		}
		return coerceBytes(elements), true
	}
}

// structBufferData applies bufferMapData to a struct (or pointer to
// one) whose JSON encoding would have the Buffer shape: exported fields
// serialized under the names "type" and "data".
func structBufferData(value any) ([]byte, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	fields := make(map[string]any, 2)
	structType := v.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fieldValue := v.Field(i)
		switch name {
		case "type":
			if fieldValue.Kind() == reflect.String {
				fields[name] = fieldValue.String()
			}
		case "data":
			fields[name] = fieldValue.Interface()
		}
	}
	return bufferMapData(fields)
}

func coerceBytes(elements []any) []byte {
	result := make([]byte, len(elements))
	for i, element := range elements {
		result[i] = toOctet(element)
	}
	return result
}

// toOctet converts a single array element to a byte with modulo-256
// wrapping. Values that are not numeric become zero.
func toOctet(element any) byte {
	switch v := element.(type) {
	case float64:
		return floatOctet(v)
	case float32:
		return floatOctet(float64(v))
	case int:
		return byte(v)
	case int8:
		return byte(v)
	case int16:
		return byte(v)
	case int32:
		return byte(v)
	case int64:
		return byte(v)
	case uint:
		return byte(v)
	case uint8:
		return v
	case uint16:
		return byte(v)
	case uint32:
		return byte(v)
	case uint64:
		return byte(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		if integer, err := v.Int64(); err == nil {
			return byte(integer)
		}
		if float, err := v.Float64(); err == nil {
			return floatOctet(float)
		}
		return 0
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		float, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		return floatOctet(float)
	default:
		return 0
	}
}

func floatOctet(v float64) byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	remainder := math.Mod(math.Trunc(v), 256)
	if remainder < 0 {
		remainder += 256
	}
	return byte(remainder)
}
