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

	"github.com/docvault/docvault/internal/validation"
)

// Doctype is a user defined record type: an ordered list of field
// definitions.
type Doctype struct {
	// Name is the unique and immutable name of this doctype, e.g. "Customer".
	Name string `json:"name" validate:"required,max=64,doctype_name"`

	// Description is an optional free text describing the doctype.
	Description string `json:"description,omitempty" validate:"max=1000"`

	// Fields are the field definitions in display order.
	Fields []*FieldDef `json:"fields" validate:"dive,required"`

	// IsChild marks doctypes whose documents only exist as rows of a table
	// field of another document.
	IsChild bool `json:"is_child,omitempty"`

	// NameField is the field whose value becomes the name of a document.
	NameField string `json:"name_field,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the shape of the doctype and its fields. Cross doctype
// rules such as link targets are checked by the schema registry.
func (d *Doctype) Validate() error {
	return validation.ValidateStruct(d)
}

// Field returns the definition of the given field, or nil.
func (d *Doctype) Field(name string) *FieldDef {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldsOf returns the fields of the given type in declaration order.
func (d *Doctype) FieldsOf(fieldTypes ...FieldType) []*FieldDef {
	var fields []*FieldDef
	for _, f := range d.Fields {
		for _, t := range fieldTypes {
			if f.Type == t {
				fields = append(fields, f)
				break
			}
		}
	}
	return fields
}

// DeepCopy returns a deep copy of this doctype.
func (d *Doctype) DeepCopy() *Doctype {
	if d == nil {
		return nil
	}

	clone := *d
	clone.Fields = make([]*FieldDef, 0, len(d.Fields))
	for _, f := range d.Fields {
		clone.Fields = append(clone.Fields, f.DeepCopy())
	}
	return &clone
}
