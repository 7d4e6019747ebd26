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
	"maps"
	"slices"

	"github.com/docvault/docvault/api/types"
)

// Mode selects the rules Validate applies.
type Mode int

const (
	// ModeCreate fills defaults for absent fields.
	ModeCreate Mode = iota

	// ModeUpdate merges the input over the existing values and refuses
	// changes to read-only fields.
	ModeUpdate

	// ModeRestore replaces the values with a historical snapshot. Read-only
	// fields may change and computed fields keep their snapshot values.
	ModeRestore
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	case ModeRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Input converts typed values into the input form of Validate.
func Input(values types.Values) map[string]any {
	input := make(map[string]any, len(values))
	for k, v := range values {
		input[k] = v
	}
	return input
}

// Validate checks the input against the doctype and returns the resulting
// field values. existing is only read in ModeUpdate. Every violation is
// reported in a single *ValidationError.
func Validate(
	doctype *types.Doctype,
	existing types.Values,
	input map[string]any,
	mode Mode,
) (types.Values, error) {
	var vs violations

	result := types.Values{}
	if mode == ModeUpdate {
		result = existing.Clone()
		// Fields removed from the doctype are not carried over.
		for name := range result {
			if doctype.Field(name) == nil {
				delete(result, name)
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(input)) {
		field := doctype.Field(name)
		if field == nil {
			vs.add(name, ErrUnknownField, "%q does not declare it", doctype.Name)
			continue
		}

		if !field.Type.IsInput() && !(mode == ModeRestore && field.Type == types.FieldComputed) {
			if input[name] != nil {
				vs.add(name, ErrInvalidFieldValue, "%s fields do not accept input", field.Type)
			}
			continue
		}

		v, err := Coerce(field, input[name])
		if err != nil {
			vs.add(name, ErrInvalidFieldValue, "%s", err.Error())
			continue
		}

		if mode == ModeUpdate && field.ReadOnly && !v.Equal(existingValue(existing, name)) {
			vs.add(name, ErrReadOnlyFieldModified, "stored value is %q", existingValue(existing, name).String())
			continue
		}

		if v.IsNull() {
			delete(result, name)
		} else {
			result[name] = v
		}
	}

	if mode == ModeCreate {
		for _, field := range doctype.Fields {
			if _, ok := input[field.Name]; ok || !field.HasDefault() || !field.Type.IsInput() {
				continue
			}
			v, err := defaultValue(field)
			if err != nil {
				vs.add(field.Name, ErrInvalidFieldValue, "default: %s", err.Error())
				continue
			}
			if !v.IsNull() {
				result[field.Name] = v
			}
		}
	}

	if mode != ModeRestore {
		for _, field := range doctype.FieldsOf(types.FieldComputed) {
			v, err := compute(field, result)
			if err != nil {
				vs.add(field.Name, ErrInvalidFieldValue, "%s", err.Error())
				continue
			}
			result[field.Name] = v
		}
	}

	for _, field := range doctype.Fields {
		if field.Required && existingValue(result, field.Name).IsEmpty() {
			vs.add(field.Name, ErrMissingRequiredField, "a value is required")
		}
	}

	if err := vs.errorOf(ErrValidation, doctype.Name); err != nil {
		return nil, err
	}
	return result, nil
}

func existingValue(values types.Values, name string) types.Value {
	if values == nil {
		return types.Null()
	}
	return values[name]
}

// defaultValue decodes the default of the field.
func defaultValue(field *types.FieldDef) (types.Value, error) {
	if field.Type == types.FieldJSON {
		return types.Opaque(field.Default)
	}

	var raw any
	if err := json.Unmarshal(field.Default, &raw); err != nil {
		return types.Null(), err
	}
	return Coerce(field, raw)
}

// compute evaluates the formula of a computed field over the values.
func compute(field *types.FieldDef, values types.Values) (types.Value, error) {
	formula, err := ParseFormula(field.Formula)
	if err != nil {
		return types.Null(), err
	}

	v, err := formula.Eval(values)
	if err != nil {
		return types.Null(), err
	}
	return types.Number(v), nil
}
