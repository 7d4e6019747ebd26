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
	"time"
)

// Document is a validated instance of a doctype.
type Document struct {
	// ID is the surrogate identity of the document.
	ID ID `json:"id"`

	// Doctype is the name of the doctype of the document.
	Doctype string `json:"doctype"`

	// Name is the business facing key of the document.
	Name string `json:"name"`

	// Values are the current field values.
	Values Values `json:"values"`

	// ParentID and ParentField are set only for rows of a table field.
	ParentID    ID     `json:"parent_id,omitempty"`
	ParentField string `json:"parent_field,omitempty"`

	// CurrentVersion is the number of the newest version of the document.
	CurrentVersion int64 `json:"current_version"`

	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedBy string    `json:"modified_by"`
	ModifiedAt time.Time `json:"modified_at"`

	IsDeleted bool `json:"is_deleted,omitempty"`
}

// IsChild returns whether the document is a row of a table field.
func (d *Document) IsChild() bool {
	return d.ParentID != ""
}

// DocumentReference is an incoming edge: the source document and the field
// of the source that points at the target.
type DocumentReference struct {
	Document *Document `json:"document"`
	Field    string    `json:"field"`
}

// Edge identifies one relationship edge by its source and field.
type Edge struct {
	SourceID ID     `json:"source_id"`
	Field    string `json:"field"`
	TargetID ID     `json:"target_id"`
}
