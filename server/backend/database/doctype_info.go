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

// DoctypeInfo is a structure representing information of a doctype.
type DoctypeInfo struct {
	// Name is the unique name of the doctype.
	Name string

	// Description is a free text describing the doctype.
	Description string

	// Fields are the field definitions in display order.
	Fields []*types.FieldDef

	// IsChild marks doctypes that only exist as table rows.
	IsChild bool

	// NameField is the field whose value names documents of the doctype.
	NameField string

	// CreatedAt is the time when the doctype is created.
	CreatedAt time.Time

	// UpdatedAt is the time when the doctype is updated.
	UpdatedAt time.Time
}

// NewDoctypeInfo returns the info of the given doctype.
func NewDoctypeInfo(doctype *types.Doctype) *DoctypeInfo {
	d := doctype.DeepCopy()
	return &DoctypeInfo{
		Name:        d.Name,
		Description: d.Description,
		Fields:      d.Fields,
		IsChild:     d.IsChild,
		NameField:   d.NameField,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ToDoctype converts the info to the public doctype.
func (i *DoctypeInfo) ToDoctype() *types.Doctype {
	d := &types.Doctype{
		Name:        i.Name,
		Description: i.Description,
		Fields:      i.Fields,
		IsChild:     i.IsChild,
		NameField:   i.NameField,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	return d.DeepCopy()
}

// DeepCopy returns a deep copy of the info.
func (i *DoctypeInfo) DeepCopy() *DoctypeInfo {
	if i == nil {
		return nil
	}
	return NewDoctypeInfo(i.ToDoctype())
}
