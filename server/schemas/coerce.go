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

package schemas

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/docvault/docvault/api/types"
)

// DateLayout is the accepted format of date fields.
const DateLayout = "2006-01-02"

// expectedKind returns the value kind a field of the given type holds.
func expectedKind(t types.FieldType) types.ValueKind {
	switch t {
	case types.FieldText, types.FieldSelect:
		return types.KindText
	case types.FieldNumber, types.FieldComputed:
		return types.KindNumber
	case types.FieldBoolean:
		return types.KindBool
	case types.FieldDate, types.FieldDatetime:
		return types.KindTime
	case types.FieldLink:
		return types.KindLink
	case types.FieldLinkMultiple:
		return types.KindLinks
	case types.FieldJSON:
		return types.KindOpaque
	default:
		return types.KindNull
	}
}

// Coerce converts a raw input value to the typed value of the field. Raw
// values are what encoding/json decodes into an interface, typed Values, or
// common Go scalars. A nil result means the field is cleared.
func Coerce(field *types.FieldDef, raw any) (types.Value, error) {
	if raw == nil {
		return types.Null(), nil
	}
	if v, ok := raw.(types.Value); ok {
		return checkTyped(field, v)
	}

	switch field.Type {
	case types.FieldText:
		s, err := asString(raw)
		if err != nil || s == "" {
			return types.Null(), err
		}
		return types.Text(s), nil
	case types.FieldSelect:
		s, err := asString(raw)
		if err != nil || s == "" {
			return types.Null(), err
		}
		return checkTyped(field, types.Text(s))
	case types.FieldNumber:
		f, ok, err := asNumber(raw)
		if err != nil || !ok {
			return types.Null(), err
		}
		return types.Number(f), nil
	case types.FieldBoolean:
		b, err := asBool(raw)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(b), nil
	case types.FieldDate, types.FieldDatetime:
		return asTime(field.Type, raw)
	case types.FieldLink:
		s, err := asString(raw)
		if err != nil || s == "" {
			return types.Null(), err
		}
		return checkTyped(field, types.Link(types.ID(s)))
	case types.FieldLinkMultiple:
		ids, err := asIDs(raw)
		if err != nil || len(ids) == 0 {
			return types.Null(), err
		}
		return checkTyped(field, types.Links(ids...))
	case types.FieldJSON:
		if msg, ok := raw.(json.RawMessage); ok {
			if string(msg) == "null" {
				return types.Null(), nil
			}
			return types.Opaque(msg)
		}
		return types.OpaqueOf(raw)
	default:
		return types.Null(), fmt.Errorf("%s fields do not accept input", field.Type)
	}
}

// checkTyped checks a typed value against the field: its kind, select
// membership and link ids.
func checkTyped(field *types.FieldDef, v types.Value) (types.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	if want := expectedKind(field.Type); v.Kind() != want {
		return types.Null(), fmt.Errorf("expected %s value, got %s", want, v.Kind())
	}

	switch field.Type {
	case types.FieldText, types.FieldSelect:
		if v.AsText() == "" {
			return types.Null(), nil
		}
		if field.Type == types.FieldSelect && !slices.Contains(field.Options, v.AsText()) {
			return types.Null(), fmt.Errorf("%q is not one of [%s]", v.AsText(), strings.Join(field.Options, ", "))
		}
	case types.FieldNumber, types.FieldComputed:
		if math.IsNaN(v.AsNumber()) || math.IsInf(v.AsNumber(), 0) {
			return types.Null(), fmt.Errorf("%v is not a finite number", v.AsNumber())
		}
	case types.FieldDate:
		t := v.AsTime()
		y, m, d := t.Date()
		return types.Time(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
	case types.FieldLink:
		if v.IsEmpty() {
			return types.Null(), nil
		}
		if err := v.AsLink().Validate(); err != nil {
			return types.Null(), err
		}
	case types.FieldLinkMultiple:
		ids := v.AsLinks()
		if len(ids) == 0 {
			return types.Null(), nil
		}
		seen := make(map[types.ID]bool, len(ids))
		for _, id := range ids {
			if err := id.Validate(); err != nil {
				return types.Null(), err
			}
			if seen[id] {
				return types.Null(), fmt.Errorf("%q is listed more than once", id)
			}
			seen[id] = true
		}
	}

	return v, nil
}

func asString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case types.ID:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected string, got %T", raw)
	}
}

// asNumber returns false when the input is an empty string.
func asNumber(raw any) (float64, bool, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", v.String())
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", v)
		}
		f = parsed
	default:
		return 0, false, fmt.Errorf("expected number, got %T", raw)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%v is not a finite number", f)
	}
	return f, true, nil
}

func asBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", v)
	default:
		f, ok, err := asNumber(raw)
		if err != nil || !ok {
			return false, fmt.Errorf("expected boolean, got %T", raw)
		}
		switch f {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, fmt.Errorf("%v is not a boolean", f)
	}
}

func asTime(fieldType types.FieldType, raw any) (types.Value, error) {
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v
	case string:
		if v == "" {
			return types.Null(), nil
		}
		layout := time.RFC3339
		if fieldType == types.FieldDate {
			layout = DateLayout
		}
		parsed, err := time.Parse(layout, v)
		if err != nil {
			return types.Null(), fmt.Errorf("%q does not match %s", v, layout)
		}
		t = parsed
	default:
		return types.Null(), fmt.Errorf("expected string, got %T", raw)
	}

	if fieldType == types.FieldDate {
		y, m, d := t.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return types.Time(t), nil
}

func asIDs(raw any) ([]types.ID, error) {
	switch v := raw.(type) {
	case []types.ID:
		return v, nil
	case []string:
		ids := make([]types.ID, 0, len(v))
		for _, s := range v {
			ids = append(ids, types.ID(s))
		}
		return ids, nil
	case []any:
		ids := make([]types.ID, 0, len(v))
		for i, item := range v {
			s, err := asString(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			ids = append(ids, types.ID(s))
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("expected list of ids, got %T", raw)
	}
}
