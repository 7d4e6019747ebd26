/*
 * Copyright 2026 The DocVault Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ValueKind is the kind of the payload a Value carries.
type ValueKind int

// Below are the kinds of Value.
const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindTime
	KindLink
	KindLinks
	KindOpaque
)

// kindKeys are the keys of the self-describing JSON form of each kind.
var kindKeys = map[ValueKind]string{
	KindText:   "text",
	KindNumber: "num",
	KindBool:   "bool",
	KindTime:   "time",
	KindLink:   "link",
	KindLinks:  "links",
	KindOpaque: "json",
}

// String returns the name of the kind.
func (k ValueKind) String() string {
	if k == KindNull {
		return "null"
	}
	if key, ok := kindKeys[k]; ok {
		return key
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// Value is a typed field value. The zero Value is null.
//
// Values are immutable: constructors copy their inputs and accessors return
// copies of slices.
type Value struct {
	kind   ValueKind
	text   string
	num    float64
	b      bool
	t      time.Time
	links  []ID
	opaque []byte
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a number value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Time returns a time value normalized to UTC.
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t.UTC()}
}

// Link returns a single link value.
func Link(id ID) Value {
	return Value{kind: KindLink, text: id.String()}
}

// Links returns an ordered multi link value.
func Links(ids ...ID) Value {
	return Value{kind: KindLinks, links: slices.Clone(ids)}
}

// Opaque returns a structured value stored as canonical JSON. Object keys are
// sorted and insignificant whitespace is removed.
func Opaque(raw []byte) (Value, error) {
	canonical, err := canonicalJSON(raw)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindOpaque, opaque: canonical}, nil
}

// OpaqueOf encodes v as JSON and returns it as a structured value.
func OpaqueOf(v any) (Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("marshal structured value: %w", err)
	}
	return Opaque(raw)
}

// Kind returns the kind of this value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull returns whether this value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsEmpty returns whether this value counts as absent for required checks:
// null, empty text, empty link or an empty link list.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindText, KindLink:
		return v.text == ""
	case KindLinks:
		return len(v.links) == 0
	default:
		return false
	}
}

// AsText returns the payload of a text value.
func (v Value) AsText() string {
	return v.text
}

// AsNumber returns the payload of a number value.
func (v Value) AsNumber() float64 {
	return v.num
}

// AsBool returns the payload of a boolean value.
func (v Value) AsBool() bool {
	return v.b
}

// AsTime returns the payload of a time value.
func (v Value) AsTime() time.Time {
	return v.t
}

// AsLink returns the target of a link value.
func (v Value) AsLink() ID {
	return ID(v.text)
}

// AsLinks returns a copy of the targets of a multi link value.
func (v Value) AsLinks() []ID {
	return slices.Clone(v.links)
}

// AsOpaque returns a copy of the canonical JSON of a structured value.
func (v Value) AsOpaque() json.RawMessage {
	return bytes.Clone(v.opaque)
}

// Equal returns whether the two values have the same kind and payload.
// Structured values are compared as blobs.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindText, KindLink:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindLinks:
		return slices.Equal(v.links, o.links)
	case KindOpaque:
		return bytes.Equal(v.opaque, o.opaque)
	default:
		return false
	}
}

// String returns a human readable form of the value.
func (v Value) String() string {
	switch v.kind {
	case KindText, KindLink:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindLinks:
		return JoinIDs(v.links)
	case KindOpaque:
		return string(v.opaque)
	default:
		return ""
	}
}

// Plain returns the value as a plain Go value suitable for JSON or YAML
// rendering: string, float64, bool, []string, json.RawMessage or nil.
func (v Value) Plain() any {
	switch v.kind {
	case KindText, KindLink:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindLinks:
		strs := make([]string, 0, len(v.links))
		for _, id := range v.links {
			strs = append(strs, id.String())
		}
		return strs
	case KindOpaque:
		return json.RawMessage(bytes.Clone(v.opaque))
	default:
		return nil
	}
}

// MarshalJSON encodes the value in its self-describing form, e.g.
// {"text":"Jane"} or {"links":["a","b"]}. Null encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindText, KindLink:
		payload = v.text
	case KindNumber:
		payload = v.num
	case KindBool:
		payload = v.b
	case KindTime:
		payload = v.t.Format(time.RFC3339Nano)
	case KindLinks:
		links := v.links
		if links == nil {
			links = []ID{}
		}
		payload = links
	case KindOpaque:
		payload = json.RawMessage(v.opaque)
	default:
		return nil, fmt.Errorf("marshal value of %s: %w", v.kind, ErrInvalidValue)
	}

	return json.Marshal(map[string]any{kindKeys[v.kind]: payload})
}

// UnmarshalJSON decodes the self-describing form written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Null()
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("unmarshal value with %d keys: %w", len(tagged), ErrInvalidValue)
	}

	for key, raw := range tagged {
		decoded, err := decodeTagged(key, raw)
		if err != nil {
			return err
		}
		*v = decoded
	}
	return nil
}

func decodeTagged(key string, raw json.RawMessage) (Value, error) {
	switch key {
	case "text", "link":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("unmarshal %s value: %w", key, err)
		}
		if key == "link" {
			return Link(ID(s)), nil
		}
		return Text(s), nil
	case "num":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, fmt.Errorf("unmarshal number value: %w", err)
		}
		return Number(f), nil
	case "bool":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("unmarshal bool value: %w", err)
		}
		return Bool(b), nil
	case "time":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("unmarshal time value: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Value{}, fmt.Errorf("parse time value: %w", err)
		}
		return Time(t), nil
	case "links":
		var ids []ID
		if err := json.Unmarshal(raw, &ids); err != nil {
			return Value{}, fmt.Errorf("unmarshal links value: %w", err)
		}
		return Links(ids...), nil
	case "json":
		return Opaque(raw)
	default:
		return Value{}, fmt.Errorf("unmarshal value of kind %q: %w", key, ErrInvalidValue)
	}
}

// canonicalJSON re-encodes raw with sorted object keys and no insignificant
// whitespace. Numbers keep their literal text.
func canonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode structured value: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode structured value: %w", ErrInvalidValue)
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode structured value: %w", err)
	}

	return []byte(strings.TrimSuffix(buf.String(), "\n")), nil
}
