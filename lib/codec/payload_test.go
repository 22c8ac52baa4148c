// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"string", "hello", KindText},
		{"empty string", "", KindText},
		{"byte slice", []byte{1, 2}, KindRawBytes},
		{"buffer", Buffer{Data: []byte("hi")}, KindRawBytes},
		{"buffer pointer", &Buffer{Data: []byte("hi")}, KindRawBytes},
		{"nil buffer pointer", (*Buffer)(nil), KindStructured},
		{"buffer-shaped map", map[string]any{"type": "Buffer", "data": []any{104.0, 105.0}}, KindRawBytes},
		{"buffer type without data", map[string]any{"type": "Buffer"}, KindStructured},
		{"buffer type with scalar data", map[string]any{"type": "Buffer", "data": 7}, KindStructured},
		{"other type tag", map[string]any{"type": "buffer", "data": []any{1.0}}, KindStructured},
		{"plain map", map[string]any{"a": 1}, KindStructured},
		{"number", 42, KindStructured},
		{"bool", true, KindStructured},
		{"nil", nil, KindStructured},
		{"array", []any{"a", 1}, KindStructured},
		{"payload passthrough", Structured("quoted"), KindStructured},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.value).Kind; got != test.want {
				t.Errorf("Classify(%#v).Kind = %s, want %s", test.value, got, test.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []byte
	}{
		{"text is not quoted", "héllo <world>", []byte("héllo <world>")},
		{"buffer map is raw", map[string]any{"type": "Buffer", "data": []any{104.0, 105.0}}, []byte{0x68, 0x69}},
		{"plain object is JSON", map[string]any{"a": 1}, []byte(`{"a":1}`)},
		{"number", 3.5, []byte("3.5")},
		{"bool", false, []byte("false")},
		{"nil", nil, []byte("null")},
		{"array", []any{1, "two", nil}, []byte(`[1,"two",null]`)},
		{"html is not escaped", map[string]any{"html": "<b>&</b>"}, []byte(`{"html":"<b>&</b>"}`)},
		{"nested buffer keeps its shape", map[string]any{"b": Buffer{Data: []byte{1, 2}}}, []byte(`{"b":{"type":"Buffer","data":[1,2]}}`)},
		{"explicit structured string", Structured("hi"), []byte(`"hi"`)},
		{"explicit raw", Raw([]byte{0}), []byte{0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Encode(test.value)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, test.want) {
				t.Errorf("Encode(%#v) = %q, want %q", test.value, got, test.want)
			}
		})
	}
}

func TestEncodeUnsupportedValue(t *testing.T) {
	if _, err := Encode(map[string]any{"f": func() {}}); err == nil {
		t.Fatal("expected error encoding a func value")
	}
}

func TestBufferElementCoercion(t *testing.T) {
	value := map[string]any{
		"type": "Buffer",
		"data": []any{256.0, -1.0, 3.9, "65", "x", true, nil, json.Number("258")},
	}
	got, err := Encode(value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0, 255, 3, 65, 0, 1, 0, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("coerced bytes = %v, want %v", got, want)
	}
}

func TestBufferMapWithTypedSlice(t *testing.T) {
	got, err := Encode(map[string]any{"type": "Buffer", "data": []int{1, 2, 300}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := []byte{1, 2, 44}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBufferShapedStruct(t *testing.T) {
	type tagged struct {
		Type string `json:"type"`
		Data []int  `json:"data,omitempty"`
	}
	type untagged struct {
		Type string
		Data []int
	}
	type ignored struct {
		Type string `json:"type"`
		Data []int  `json:"-"`
	}

	tests := []struct {
		name  string
		value any
		want  []byte
	}{
		{"tagged struct", tagged{Type: "Buffer", Data: []int{104, 105}}, []byte("hi")},
		{"tagged pointer", &tagged{Type: "Buffer", Data: []int{104, 105}}, []byte("hi")},
		{"wrapping elements", tagged{Type: "Buffer", Data: []int{-1, 256}}, []byte{255, 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := Classify(test.value)
			if payload.Kind != KindRawBytes {
				t.Fatalf("Kind = %s, want raw bytes", payload.Kind)
			}
			got, err := Encode(test.value)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, test.want) {
				t.Errorf("Encode = %v, want %v", got, test.want)
			}
		})
	}

	for name, value := range map[string]any{
		"other type":      tagged{Type: "Other", Data: []int{1}},
		"untagged fields": untagged{Type: "Buffer", Data: []int{1}},
		"data ignored":    ignored{Type: "Buffer", Data: []int{1}},
		"nil pointer":     (*tagged)(nil),
	} {
		if got := Classify(value).Kind; got != KindStructured {
			t.Errorf("%s: Kind = %s, want structured", name, got)
		}
	}
}

func TestBufferJSONRoundtrip(t *testing.T) {
	original := Buffer{Data: []byte("hi")}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"type":"Buffer","data":[104,105]}` {
		t.Fatalf("json = %s", data)
	}

	var decoded Buffer
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.Data, original.Data) {
		t.Errorf("decoded %v, want %v", decoded.Data, original.Data)
	}

	if err := json.Unmarshal([]byte(`{"type":"Other","data":[]}`), &decoded); err == nil {
		t.Error("expected error for non-Buffer type tag")
	}
}

func TestCBORPolicy(t *testing.T) {
	policy := Policy{Structured: StructuredCBOR}

	structured, err := policy.Encode(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded map[string]any
	if err := Unmarshal(structured, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["a"] != uint64(1) {
		t.Errorf("decoded = %#v", decoded)
	}

	// Text and raw payloads are unaffected by the structured encoding.
	text, err := policy.Encode("plain")
	if err != nil {
		t.Fatalf("Encode text: %v", err)
	}
	if string(text) != "plain" {
		t.Errorf("text = %q", text)
	}
}

func TestParseStructuredEncoding(t *testing.T) {
	for input, want := range map[string]StructuredEncoding{"": StructuredJSON, "JSON": StructuredJSON, "cbor": StructuredCBOR} {
		got, err := ParseStructuredEncoding(input)
		if err != nil || got != want {
			t.Errorf("ParseStructuredEncoding(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseStructuredEncoding("xml"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
