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

package database

import (
	"bytes"
	"time"

	"github.com/docvault/docvault/api/types"
)

// VersionInfo is a stored version of a document.
type VersionInfo struct {
	DocID  types.ID
	Number int64

	// Snapshot is the canonical serialization of the field values. It is
	// stored as raw bytes so that integrity checks hash exactly what was
	// written.
	Snapshot []byte

	// Diff is the JSON encoded types.Diff against the previous version.
	Diff []byte

	ChangedBy string
	ChangedAt time.Time
	Comment   string
	DataHash  string
	Signature string
}

// DeepCopy creates a deep copy of this VersionInfo.
func (i *VersionInfo) DeepCopy() *VersionInfo {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Snapshot = bytes.Clone(i.Snapshot)
	clone.Diff = bytes.Clone(i.Diff)
	return &clone
}
