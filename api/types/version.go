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
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValueChange is the old and new value of a modified field.
type ValueChange struct {
	Old Value `json:"old"`
	New Value `json:"new"`
}

// Diff is the field level difference between two snapshots.
type Diff struct {
	Added    Values                 `json:"added"`
	Modified map[string]ValueChange `json:"modified"`
	Removed  Values                 `json:"removed"`
}

// NewDiff returns an empty diff.
func NewDiff() *Diff {
	return &Diff{
		Added:    Values{},
		Modified: map[string]ValueChange{},
		Removed:  Values{},
	}
}

// IsEmpty returns whether the diff has no changes.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// Fields returns the names of all changed fields in ascending order.
func (d *Diff) Fields() []string {
	var fields []string
	fields = append(fields, d.Added.Keys()...)
	for k := range d.Modified {
		fields = append(fields, k)
	}
	fields = append(fields, d.Removed.Keys()...)
	slices.Sort(fields)
	return fields
}

// Only returns a copy of the diff restricted to the given fields.
func (d *Diff) Only(fields ...string) *Diff {
	filtered := NewDiff()
	for _, f := range fields {
		if v, ok := d.Added[f]; ok {
			filtered.Added[f] = v
		}
		if c, ok := d.Modified[f]; ok {
			filtered.Modified[f] = c
		}
		if v, ok := d.Removed[f]; ok {
			filtered.Removed[f] = v
		}
	}
	return filtered
}

// Summary returns a short human readable description such as
// "1 field added, 2 fields modified".
func (d *Diff) Summary() string {
	var parts []string
	for _, c := range []struct {
		count int
		verb  string
	}{
		{len(d.Added), "added"},
		{len(d.Modified), "modified"},
		{len(d.Removed), "removed"},
	} {
		if c.count == 0 {
			continue
		}
		noun := "fields"
		if c.count == 1 {
			noun = "field"
		}
		parts = append(parts, fmt.Sprintf("%d %s %s", c.count, noun, c.verb))
	}

	if len(parts) == 0 {
		return "No changes"
	}
	return strings.Join(parts, ", ")
}

// VersionSummary is a version without its snapshot, used by listings.
type VersionSummary struct {
	Number         int64     `json:"number"`
	ChangedBy      string    `json:"changed_by"`
	ChangedAt      time.Time `json:"changed_at"`
	Comment        string    `json:"comment,omitempty"`
	ChangesSummary string    `json:"changes_summary"`
	IsCurrent      bool      `json:"is_current"`
}

// DocumentVersion is an immutable snapshot of a document.
type DocumentVersion struct {
	DocID     ID        `json:"doc_id"`
	Number    int64     `json:"number"`
	Snapshot  Values    `json:"snapshot"`
	Diff      *Diff     `json:"diff"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Comment   string    `json:"comment,omitempty"`
	DataHash  string    `json:"data_hash"`
	Signature string    `json:"signature"`

	// Verified is set when the version was read back through an integrity
	// check that passed.
	Verified bool `json:"verified"`
}

// DiffFormat selects how CompareVersions renders its result.
type DiffFormat string

// Below are the formats of CompareVersions.
const (
	DiffStructured DiffFormat = "structured"
	DiffUnified    DiffFormat = "unified"
)

// Comparison is the result of comparing two versions of a document.
type Comparison struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
	Diff *Diff `json:"diff"`

	// Unified is the line based diff text, set for DiffUnified.
	Unified string `json:"unified,omitempty"`
}

// IntegrityLog records the outcome of one integrity check of a version.
type IntegrityLog struct {
	DocID         ID        `json:"doc_id"`
	VersionNumber int64     `json:"version_number"`
	CheckedAt     time.Time `json:"checked_at"`
	CheckedBy     string    `json:"checked_by"`
	Passed        bool      `json:"passed"`
	ExpectedHash  string    `json:"expected_hash"`
	ActualHash    string    `json:"actual_hash"`
}
