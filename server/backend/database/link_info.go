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

// LinkInfo is the single edge of a link field.
type LinkInfo struct {
	SourceID  types.ID
	Field     string
	TargetID  types.ID
	CreatedBy string
	CreatedAt time.Time
}

// DeepCopy creates a deep copy of this LinkInfo.
func (i *LinkInfo) DeepCopy() *LinkInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

// LinkMultipleInfo is one edge of a link-multiple field. Order is the
// position of the target in the field value, starting at 0.
type LinkMultipleInfo struct {
	SourceID  types.ID
	Field     string
	Order     int
	TargetID  types.ID
	CreatedAt time.Time
}

// DeepCopy creates a deep copy of this LinkMultipleInfo.
func (i *LinkMultipleInfo) DeepCopy() *LinkMultipleInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}
