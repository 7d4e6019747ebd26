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

package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/docvault/docvault/api/types"
)

func valueGen() *rapid.Generator[types.Value] {
	return rapid.Custom(func(t *rapid.T) types.Value {
		switch rapid.IntRange(0, 7).Draw(t, "kind") {
		case 0:
			return types.Null()
		case 1:
			return types.Text(rapid.String().Draw(t, "text"))
		case 2:
			return types.Number(rapid.Float64Range(-1e12, 1e12).Draw(t, "num"))
		case 3:
			return types.Bool(rapid.Bool().Draw(t, "bool"))
		case 4:
			sec := rapid.Int64Range(0, 4_000_000_000).Draw(t, "sec")
			nsec := rapid.Int64Range(0, 999_999_999).Draw(t, "nsec")
			return types.Time(time.Unix(sec, nsec))
		case 5:
			return types.Link(types.ID(rapid.StringMatching(`[a-v0-9]{20}`).Draw(t, "link")))
		case 6:
			ids := rapid.SliceOf(rapid.StringMatching(`[a-v0-9]{20}`)).Draw(t, "links")
			links := make([]types.ID, 0, len(ids))
			for _, id := range ids {
				links = append(links, types.ID(id))
			}
			return types.Links(links...)
		default:
			v, err := types.OpaqueOf(map[string]any{
				"b": rapid.String().Draw(t, "b"),
				"a": rapid.IntRange(-100, 100).Draw(t, "a"),
			})
			if err != nil {
				t.Fatalf("opaque: %v", err)
			}
			return v
		}
	})
}

func valuesGen() *rapid.Generator[types.Values] {
	return rapid.Custom(func(t *rapid.T) types.Values {
		m := rapid.MapOf(rapid.StringMatching(`[a-z][a-z0-9_]{0,8}`), valueGen()).Draw(t, "values")
		values := types.Values{}
		for k, v := range m {
			if !v.IsNull() {
				values[k] = v
			}
		}
		return values
	})
}

func TestValue(t *testing.T) {
	t.Run("self describing json test", func(t *testing.T) {
		data, err := json.Marshal(types.Text("Jane"))
		require.NoError(t, err)
		assert.Equal(t, `{"text":"Jane"}`, string(data))

		data, err = json.Marshal(types.Number(3))
		require.NoError(t, err)
		assert.Equal(t, `{"num":3}`, string(data))

		data, err = json.Marshal(types.Links("a", "b"))
		require.NoError(t, err)
		assert.Equal(t, `{"links":["a","b"]}`, string(data))

		data, err = json.Marshal(types.Null())
		require.NoError(t, err)
		assert.Equal(t, `null`, string(data))
	})

	t.Run("opaque canonical test", func(t *testing.T) {
		v1, err := types.Opaque([]byte(`{ "b": [1, 2], "a": {"y": 1, "x": "<"} }`))
		require.NoError(t, err)
		v2, err := types.Opaque([]byte(`{"a":{"x":"<","y":1},"b":[1,2]}`))
		require.NoError(t, err)

		assert.True(t, v1.Equal(v2))
		assert.Equal(t, `{"a":{"x":"<","y":1},"b":[1,2]}`, string(v1.AsOpaque()))

		_, err = types.Opaque([]byte(`{"a":1} {"b":2}`))
		assert.ErrorIs(t, err, types.ErrInvalidValue)
	})

	t.Run("equal test", func(t *testing.T) {
		assert.True(t, types.Text("a").Equal(types.Text("a")))
		assert.False(t, types.Text("a").Equal(types.Link("a")))
		assert.False(t, types.Links("a", "b").Equal(types.Links("b", "a")))
		assert.True(t, types.Time(time.Date(2026, 1, 2, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))).
			Equal(types.Time(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))))
		assert.True(t, types.Null().Equal(types.Value{}))
	})

	t.Run("empty test", func(t *testing.T) {
		assert.True(t, types.Null().IsEmpty())
		assert.True(t, types.Text("").IsEmpty())
		assert.True(t, types.Links().IsEmpty())
		assert.False(t, types.Number(0).IsEmpty())
		assert.False(t, types.Bool(false).IsEmpty())
	})

	t.Run("invalid json test", func(t *testing.T) {
		var v types.Value
		assert.ErrorIs(t, json.Unmarshal([]byte(`{"text":"a","num":1}`), &v), types.ErrInvalidValue)
		assert.ErrorIs(t, json.Unmarshal([]byte(`{"color":"red"}`), &v), types.ErrInvalidValue)
	})
}

func TestValuesCanonical(t *testing.T) {
	t.Run("sorted keys test", func(t *testing.T) {
		values := types.Values{"number": types.Text("ORD-1"), "customer": types.Link("c1")}
		data, err := values.Canonical()
		require.NoError(t, err)
		assert.Equal(t, `{"customer":{"link":"c1"},"number":{"text":"ORD-1"}}`, string(data))
	})

	t.Run("round trip property test", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			values := valuesGen().Draw(t, "values")

			first, err := values.Canonical()
			if err != nil {
				t.Fatalf("canonical: %v", err)
			}

			decoded, err := types.DecodeValues(first)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !decoded.Equal(values) {
				t.Fatalf("decoded values differ: %v != %v", decoded, values)
			}

			second, err := decoded.Canonical()
			if err != nil {
				t.Fatalf("canonical: %v", err)
			}
			if string(first) != string(second) {
				t.Fatalf("canonical form is not stable: %s != %s", first, second)
			}
		})
	})
}
