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

package versions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/docvault/docvault/api/types"
)

func TestComputeDiff(t *testing.T) {
	prev := types.Values{
		"name":  types.Text("Jane"),
		"limit": types.Number(10),
		"tags":  types.Text("a"),
	}
	next := types.Values{
		"name":  types.Text("Jane"),
		"limit": types.Number(20),
		"notes": types.Text("urgent"),
	}

	diff := ComputeDiff(prev, next)
	assert.Equal(t, types.Values{"notes": types.Text("urgent")}, diff.Added)
	assert.Equal(t, map[string]types.ValueChange{
		"limit": {Old: types.Number(10), New: types.Number(20)},
	}, diff.Modified)
	assert.Equal(t, types.Values{"tags": types.Text("a")}, diff.Removed)
	assert.Equal(t, "1 field added, 1 field modified, 1 field removed", diff.Summary())

	t.Run("opaque values are compared as blobs test", func(t *testing.T) {
		a, err := types.OpaqueOf(map[string]any{"x": 1, "y": []any{1, 2}})
		require.NoError(t, err)
		b, err := types.OpaqueOf(map[string]any{"y": []any{1, 2}, "x": 1})
		require.NoError(t, err)
		c, err := types.OpaqueOf(map[string]any{"x": 1, "y": []any{2, 1}})
		require.NoError(t, err)

		assert.True(t, ComputeDiff(types.Values{"meta": a}, types.Values{"meta": b}).IsEmpty())
		assert.Contains(t, ComputeDiff(types.Values{"meta": a}, types.Values{"meta": c}).Modified, "meta")
	})

	t.Run("self diff property test", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			values := drawValues(t)
			if !ComputeDiff(values, values.Clone()).IsEmpty() {
				t.Fatalf("diff of %v with itself is not empty", values)
			}
		})
	})

	t.Run("diff partitions keys property test", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			prev, next := drawValues(t), drawValues(t)
			diff := ComputeDiff(prev, next)

			for k := range next {
				_, added := diff.Added[k]
				if _, ok := prev[k]; ok == added {
					t.Fatalf("%q: added=%v but present in prev=%v", k, added, ok)
				}
			}
			for k := range diff.Removed {
				if _, ok := next[k]; ok {
					t.Fatalf("%q removed but present in next", k)
				}
			}
			for k, change := range diff.Modified {
				if change.Old.Equal(change.New) {
					t.Fatalf("%q modified without change", k)
				}
			}
		})
	})
}

func drawValues(t *rapid.T) types.Values {
	keys := rapid.SliceOfDistinct(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), rapid.ID[string]).
		Draw(t, "keys")

	values := types.Values{}
	for _, k := range keys {
		if rapid.Bool().Draw(t, k+"_kind") {
			values[k] = types.Number(float64(rapid.IntRange(0, 3).Draw(t, k)))
		} else {
			values[k] = types.Text(rapid.SampledFrom([]string{"x", "y", "z"}).Draw(t, k))
		}
	}
	return values
}

func TestUnified(t *testing.T) {
	t.Run("single change test", func(t *testing.T) {
		expected := "--- Version 1\n" +
			"+++ Version 2\n" +
			"@@ -1,3 +1,3 @@\n" +
			" a\n" +
			"-b\n" +
			"+B\n" +
			" c\n"
		assert.Equal(t, expected, unified("Version 1", "Version 2", "a\nb\nc\n", "a\nB\nc\n"))
	})

	t.Run("equal texts test", func(t *testing.T) {
		assert.Empty(t, unified("Version 1", "Version 1", "a\nb\n", "a\nb\n"))
	})

	t.Run("context lines test", func(t *testing.T) {
		a := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n"
		b := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n13\n"
		expected := "--- Version 1\n" +
			"+++ Version 2\n" +
			"@@ -10,3 +10,4 @@\n" +
			" 10\n" +
			" 11\n" +
			" 12\n" +
			"+13\n"
		if diff := cmp.Diff(expected, unified("Version 1", "Version 2", a, b)); diff != "" {
			t.Errorf("unified (-want +got):\n%s", diff)
		}
	})

	t.Run("distant changes make separate hunks test", func(t *testing.T) {
		a := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
		b := "one\n2\n3\n4\n5\n6\n7\n8\n9\nten\n"
		out := unified("Version 1", "Version 2", a, b)
		assert.Equal(t, 2, countPrefix(out, "@@ "))
		assert.Contains(t, out, "@@ -1,4 +1,4 @@\n-1\n+one\n 2\n 3\n 4\n")
		assert.Contains(t, out, "@@ -7,4 +7,4 @@\n 7\n 8\n 9\n-10\n+ten\n")
	})
}

func countPrefix(text, prefix string) int {
	n := 0
	for _, line := range splitLines(text) {
		if len(line) >= len(prefix) && line[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	return lines
}
