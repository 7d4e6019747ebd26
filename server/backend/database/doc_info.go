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
	"slices"
	"time"

	"github.com/docvault/docvault/api/types"
)

// DocInfo is a structure representing information of a document.
type DocInfo struct {
	// ID is the unique ID of the document.
	ID types.ID

	// Doctype is the name of the doctype of the document.
	Doctype string

	// Name is the business facing key of the document.
	Name string

	// Values are the current field values.
	Values types.Values

	// ParentID and ParentField locate a table row in its parent.
	ParentID    types.ID
	ParentField string

	// CurrentVersion is the number of the newest version.
	CurrentVersion int64

	// UniqueKeys index the values of unique fields, see UniqueKey. They are
	// cleared when the document is deleted so that deleted documents never
	// block new values.
	UniqueKeys []string

	CreatedBy  string
	CreatedAt  time.Time
	ModifiedBy string
	ModifiedAt time.Time

	// IsDeleted is the soft-delete flag.
	IsDeleted bool
}

// UniqueKey returns the key under which a unique field value is indexed.
func UniqueKey(doctype, field string, canonical []byte) string {
	return doctype + "/" + field + "=" + string(canonical)
}

// ToDocument converts the info to the public document.
func (info *DocInfo) ToDocument() *types.Document {
	return &types.Document{
		ID:             info.ID,
		Doctype:        info.Doctype,
		Name:           info.Name,
		Values:         info.Values.Clone(),
		ParentID:       info.ParentID,
		ParentField:    info.ParentField,
		CurrentVersion: info.CurrentVersion,
		CreatedBy:      info.CreatedBy,
		CreatedAt:      info.CreatedAt,
		ModifiedBy:     info.ModifiedBy,
		ModifiedAt:     info.ModifiedAt,
		IsDeleted:      info.IsDeleted,
	}
}

// DeepCopy creates a deep copy of this DocInfo.
func (info *DocInfo) DeepCopy() *DocInfo {
	if info == nil {
		return nil
	}

	clone := *info
	clone.Values = info.Values.Clone()
	clone.UniqueKeys = slices.Clone(info.UniqueKeys)
	return &clone
}
