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
	"time"

	"github.com/docvault/docvault/api/types"
)

// IntegrityLogInfo records one integrity check of a version.
type IntegrityLogInfo struct {
	ID            types.ID
	DocID         types.ID
	VersionNumber int64
	CheckedAt     time.Time
	CheckedBy     string
	Passed        bool
	ExpectedHash  string
	ActualHash    string
}

// ToIntegrityLog converts the info to the public record.
func (i *IntegrityLogInfo) ToIntegrityLog() *types.IntegrityLog {
	return &types.IntegrityLog{
		DocID:         i.DocID,
		VersionNumber: i.VersionNumber,
		CheckedAt:     i.CheckedAt,
		CheckedBy:     i.CheckedBy,
		Passed:        i.Passed,
		ExpectedHash:  i.ExpectedHash,
		ActualHash:    i.ActualHash,
	}
}

// DeepCopy creates a deep copy of this IntegrityLogInfo.
func (i *IntegrityLogInfo) DeepCopy() *IntegrityLogInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}
