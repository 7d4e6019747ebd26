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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/docvault/docvault/api/types"
)

// contextLines is the number of unchanged lines around each hunk of a
// unified diff.
const contextLines = 3

// ComputeDiff returns the field level difference from prev to next. Values
// are compared by kind and payload; structured values are compared as blobs.
func ComputeDiff(prev, next types.Values) *types.Diff {
	diff := types.NewDiff()

	for k, v := range next {
		old, ok := prev[k]
		if !ok {
			diff.Added[k] = v
			continue
		}
		if !old.Equal(v) {
			diff.Modified[k] = types.ValueChange{Old: old, New: v}
		}
	}
	for k, v := range prev {
		if _, ok := next[k]; !ok {
			diff.Removed[k] = v
		}
	}

	return diff
}

// only returns the values restricted to the given fields. No fields means
// every field.
func only(values types.Values, fields []string) types.Values {
	if len(fields) == 0 {
		return values
	}

	filtered := types.Values{}
	for _, f := range fields {
		if v, ok := values[f]; ok {
			filtered[f] = v
		}
	}
	return filtered
}

// indented renders the values as indented JSON with sorted keys.
func indented(values types.Values) (string, error) {
	if values == nil {
		values = types.Values{}
	}
	data, err := json.MarshalIndent(map[string]types.Value(values), "", "  ")
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	return string(data) + "\n", nil
}

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// unified renders a line based unified diff of two texts. It returns an
// empty string when the texts are equal.
func unified(fromLabel, toLabel, a, b string) string {
	dmp := diffmatchpatch.New()
	charsA, charsB, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lineArray)

	var lines []diffLine
	for _, d := range diffs {
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			lines = append(lines, diffLine{op: d.Type, text: strings.TrimSuffix(text, "\n")})
		}
	}

	// oldBefore[i] and newBefore[i] count the lines of each side before i.
	oldBefore := make([]int, len(lines)+1)
	newBefore := make([]int, len(lines)+1)
	for i, l := range lines {
		oldBefore[i+1] = oldBefore[i]
		newBefore[i+1] = newBefore[i]
		if l.op != diffmatchpatch.DiffInsert {
			oldBefore[i+1]++
		}
		if l.op != diffmatchpatch.DiffDelete {
			newBefore[i+1]++
		}
	}

	sb := strings.Builder{}
	for i := 0; i < len(lines); {
		for i < len(lines) && lines[i].op == diffmatchpatch.DiffEqual {
			i++
		}
		if i == len(lines) {
			break
		}

		start := max(i-contextLines, 0)
		end := i
		for {
			for end < len(lines) && lines[end].op != diffmatchpatch.DiffEqual {
				end++
			}
			next := end
			for next < len(lines) && lines[next].op == diffmatchpatch.DiffEqual {
				next++
			}
			if next < len(lines) && next-end <= 2*contextLines {
				end = next
				continue
			}
			end = min(end+contextLines, len(lines))
			break
		}

		if sb.Len() == 0 {
			fmt.Fprintf(&sb, "--- %s\n+++ %s\n", fromLabel, toLabel)
		}
		writeHunk(&sb, lines[start:end], oldBefore[start], newBefore[start])
		i = end
	}

	return sb.String()
}

func writeHunk(sb *strings.Builder, lines []diffLine, oldBefore, newBefore int) {
	oldCount, newCount := 0, 0
	for _, l := range lines {
		if l.op != diffmatchpatch.DiffInsert {
			oldCount++
		}
		if l.op != diffmatchpatch.DiffDelete {
			newCount++
		}
	}

	fmt.Fprintf(sb, "@@ -%s +%s @@\n", hunkRange(oldBefore, oldCount), hunkRange(newBefore, newCount))
	for _, l := range lines {
		prefix := " "
		switch l.op {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		sb.WriteString(prefix)
		sb.WriteString(l.text)
		sb.WriteString("\n")
	}
}

func hunkRange(before, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", before)
	}
	return fmt.Sprintf("%d,%d", before+1, count)
}
