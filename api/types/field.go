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
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/docvault/docvault/internal/validation"
)

// FieldType is the declared type of a field.
type FieldType string

// Below are the field types a doctype can declare.
const (
	FieldText         FieldType = "text"
	FieldNumber       FieldType = "number"
	FieldBoolean      FieldType = "boolean"
	FieldDate         FieldType = "date"
	FieldDatetime     FieldType = "datetime"
	FieldSelect       FieldType = "select"
	FieldLink         FieldType = "link"
	FieldLinkMultiple FieldType = "link-multiple"
	FieldTable        FieldType = "table"
	FieldJSON         FieldType = "json"
	FieldComputed     FieldType = "computed"
)

// FieldTypes lists every known field type.
var FieldTypes = []FieldType{
	FieldText,
	FieldNumber,
	FieldBoolean,
	FieldDate,
	FieldDatetime,
	FieldSelect,
	FieldLink,
	FieldLinkMultiple,
	FieldTable,
	FieldJSON,
	FieldComputed,
}

// IsLink returns whether fields of this type create relationship edges.
func (t FieldType) IsLink() bool {
	return t == FieldLink || t == FieldLinkMultiple
}

// NeedsLinkDoctype returns whether fields of this type must name a target
// doctype.
func (t FieldType) NeedsLinkDoctype() bool {
	return t.IsLink() || t == FieldTable
}

// IsInput returns whether callers may set fields of this type directly.
func (t FieldType) IsInput() bool {
	return t != FieldTable && t != FieldComputed
}

// FieldDef defines a single field of a doctype.
type FieldDef struct {
	// Name is unique within the doctype.
	Name string `json:"name" yaml:"name" validate:"required,max=64,identifier"`

	// Type is the declared type of the field.
	Type FieldType `json:"type" yaml:"type" validate:"required,field_type"`

	// Label is a human readable name of the field.
	Label string `json:"label,omitempty" yaml:"label,omitempty" validate:"max=140"`

	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
	Unique   bool `json:"unique,omitempty" yaml:"unique,omitempty"`
	ReadOnly bool `json:"read_only,omitempty" yaml:"read_only,omitempty"`

	// Default is the raw JSON default applied on create when the field is
	// absent from the input.
	Default json.RawMessage `json:"default,omitempty" yaml:"-"`

	// LinkDoctype is the target doctype of link, link-multiple and table
	// fields.
	LinkDoctype string `json:"link_doctype,omitempty" yaml:"link_doctype,omitempty"`

	// Options are the allowed values of a select field.
	Options []string `json:"options,omitempty" yaml:"options,omitempty" validate:"dive,required"`

	// Formula is the arithmetic expression of a computed field.
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// HasDefault returns whether the field declares a default value.
func (f *FieldDef) HasDefault() bool {
	return len(f.Default) > 0 && string(f.Default) != "null"
}

// DeepCopy returns a deep copy of this field definition.
func (f *FieldDef) DeepCopy() *FieldDef {
	if f == nil {
		return nil
	}

	clone := *f
	clone.Default = slices.Clone(f.Default)
	clone.Options = slices.Clone(f.Options)
	return &clone
}

func init() {
	if err := validation.RegisterValidation("field_type", func(level validation.FieldLevel) bool {
		return slices.Contains(FieldTypes, FieldType(level.Field().String()))
	}); err != nil {
		fmt.Fprintln(os.Stderr, "field def: ", err)
		os.Exit(1)
	}

	if err := validation.RegisterTranslation("field_type", "{0} is not a known field type"); err != nil {
		fmt.Fprintln(os.Stderr, "field def: ", err)
		os.Exit(1)
	}
}
