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
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Values is the field-value map of a document. Null values are never stored:
// a cleared field is absent from the map.
type Values map[string]Value

// Clone returns a shallow copy of the map. Values themselves are immutable.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Keys returns the field names in ascending order.
func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v))
}

// Equal returns whether both maps hold the same fields with equal values.
func (v Values) Equal(o Values) bool {
	if len(v) != len(o) {
		return false
	}
	for k, val := range v {
		other, ok := o[k]
		if !ok || !val.Equal(other) {
			return false
		}
	}
	return true
}

// Plain returns the map with every value converted by Value.Plain.
func (v Values) Plain() map[string]any {
	plain := make(map[string]any, len(v))
	for k, val := range v {
		plain[k] = val.Plain()
	}
	return plain
}

// Canonical returns the deterministic serialization of the map: keys sorted,
// values in their self-describing form, no insignificant whitespace. Equal
// maps always produce identical bytes.
func (v Values) Canonical() ([]byte, error) {
	if v == nil {
		v = Values{}
	}
	data, err := json.Marshal(map[string]Value(v))
	if err != nil {
		return nil, fmt.Errorf("marshal values: %w", err)
	}
	return data, nil
}

// DecodeValues parses the output of Values.Canonical.
func DecodeValues(data []byte) (Values, error) {
	values := Values{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	for k, val := range values {
		if val.IsNull() {
			delete(values, k)
		}
	}
	return values, nil
}
