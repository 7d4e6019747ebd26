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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/docvault/docvault/api/types"
)

func TestFormula(t *testing.T) {
	t.Run("precedence test", func(t *testing.T) {
		for src, expected := range map[string]float64{
			"1 + 2 * 3":     7,
			"(1 + 2) * 3":   9,
			"10 - 4 - 3":    3,
			"12 / 3 / 2":    2,
			"-2 * -3":       6,
			"-(1 + 2)":      -3,
			"0.5 + .25":     0.75,
			"2 * (3 + 4)/7": 2,
		} {
			f, err := ParseFormula(src)
			require.NoError(t, err, src)
			v, err := f.Eval(nil)
			require.NoError(t, err, src)
			assert.InDelta(t, expected, v, 1e-9, src)
		}
	})

	t.Run("field reference test", func(t *testing.T) {
		f, err := ParseFormula("qty * rate + qty")
		require.NoError(t, err)
		assert.Equal(t, []string{"qty", "rate"}, f.Fields())
		assert.Equal(t, "qty * rate + qty", f.String())

		v, err := f.Eval(types.Values{"qty": types.Number(3), "rate": types.Number(2.5)})
		require.NoError(t, err)
		assert.Equal(t, 10.5, v)

		v, err = f.Eval(types.Values{"qty": types.Number(3), "rate": types.Text("n/a")})
		require.NoError(t, err)
		assert.Equal(t, 3.0, v)
	})

	t.Run("division by zero test", func(t *testing.T) {
		f, err := ParseFormula("total / qty")
		require.NoError(t, err)
		_, err = f.Eval(types.Values{"total": types.Number(1)})
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("invalid formula test", func(t *testing.T) {
		for _, src := range []string{
			"",
			"1 +",
			"(1 + 2",
			"1 + 2)",
			"qty ** 2",
			"qty % 2",
			"1..2",
			"qty rate",
		} {
			_, err := ParseFormula(src)
			assert.ErrorIs(t, err, ErrInvalidFormula, src)
		}
	})

	t.Run("sum property test", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			a := rapid.IntRange(-1000, 1000).Draw(t, "a")
			b := rapid.IntRange(-1000, 1000).Draw(t, "b")

			f, err := ParseFormula("a + b * 2 - a")
			if err != nil {
				t.Fatal(err)
			}
			v, err := f.Eval(types.Values{"a": types.Number(float64(a)), "b": types.Number(float64(b))})
			if err != nil {
				t.Fatal(err)
			}
			if v != float64(b*2) {
				t.Fatalf("got %v, want %v", v, b*2)
			}
		})
	})
}
