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

package schemas

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/internal/validation"
	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/backend/database"
)

// checkDefinition validates the doctype and its fields. Link and table
// targets are resolved through the given reader.
func checkDefinition(ctx context.Context, r database.Reader, doctype *types.Doctype) error {
	var vs violations

	if err := doctype.Validate(); err != nil {
		var structErr *validation.StructError
		if !errors.As(err, &structErr) {
			return fmt.Errorf("validate doctype %q: %w", doctype.Name, err)
		}
		for _, v := range structErr.Violations {
			vs.add("", ErrInvalidFieldDef, "%s", v.Description)
		}
		return vs.errorOf(ErrInvalidFieldDef, doctype.Name)
	}

	seen := map[string]bool{}
	for i, field := range doctype.Fields {
		if seen[field.Name] {
			vs.add(field.Name, ErrInvalidFieldDef, "field name is used more than once")
			continue
		}
		seen[field.Name] = true

		if err := checkField(ctx, r, doctype, doctype.Fields[:i], field, &vs); err != nil {
			return err
		}
	}

	if doctype.NameField != "" {
		f := doctype.Field(doctype.NameField)
		if f == nil || (f.Type != types.FieldText && f.Type != types.FieldSelect) {
			vs.add(doctype.NameField, ErrInvalidFieldDef, "name field must be a text or select field")
		}
	}

	return vs.errorOf(ErrInvalidFieldDef, doctype.Name)
}

// checkField checks one field. preceding are the fields declared before it.
// Only storage failures are returned; rule violations are collected in vs.
func checkField(
	ctx context.Context,
	r database.Reader,
	doctype *types.Doctype,
	preceding []*types.FieldDef,
	field *types.FieldDef,
	vs *violations,
) error {
	name := field.Name

	if field.LinkDoctype != "" && !field.Type.NeedsLinkDoctype() {
		vs.add(name, ErrInvalidFieldDef, "link_doctype is only allowed on link, link-multiple and table fields")
	}
	if len(field.Options) > 0 && field.Type != types.FieldSelect {
		vs.add(name, ErrInvalidFieldDef, "options are only allowed on select fields")
	}
	if field.Formula != "" && field.Type != types.FieldComputed {
		vs.add(name, ErrInvalidFieldDef, "formula is only allowed on computed fields")
	}

	if !field.Type.IsInput() {
		if field.Required || field.Unique {
			vs.add(name, ErrInvalidFieldDef, "%s fields cannot be required or unique", field.Type)
		}
		if field.HasDefault() {
			vs.add(name, ErrInvalidFieldDef, "%s fields cannot have a default", field.Type)
		}
	}

	switch field.Type {
	case types.FieldLink, types.FieldLinkMultiple:
		if field.LinkDoctype == "" {
			vs.add(name, ErrInvalidFieldDef, "%s fields must set link_doctype", field.Type)
			break
		}
		if field.LinkDoctype == doctype.Name {
			break
		}
		if _, err := r.FindDoctypeInfo(ctx, field.LinkDoctype); err != nil {
			if !errors.Is(err, database.ErrDoctypeNotFound) {
				return err
			}
			vs.add(name, ErrInvalidFieldDef, "link_doctype %q does not exist", field.LinkDoctype)
		}
	case types.FieldTable:
		if doctype.IsChild {
			vs.add(name, ErrInvalidFieldDef, "child doctypes cannot have table fields")
		}
		if field.LinkDoctype == "" {
			vs.add(name, ErrInvalidFieldDef, "table fields must set link_doctype")
			break
		}
		if field.LinkDoctype == doctype.Name {
			vs.add(name, ErrInvalidFieldDef, "table fields cannot reference their own doctype")
			break
		}
		target, err := r.FindDoctypeInfo(ctx, field.LinkDoctype)
		if err != nil {
			if !errors.Is(err, database.ErrDoctypeNotFound) {
				return err
			}
			vs.add(name, ErrInvalidFieldDef, "link_doctype %q does not exist", field.LinkDoctype)
			break
		}
		if !target.IsChild {
			vs.add(name, ErrInvalidFieldDef, "link_doctype %q is not a child doctype", field.LinkDoctype)
		}
	case types.FieldSelect:
		if len(field.Options) == 0 {
			vs.add(name, ErrInvalidFieldDef, "select fields must list options")
		}
		for i, opt := range field.Options {
			if slices.Contains(field.Options[:i], opt) {
				vs.add(name, ErrInvalidFieldDef, "option %q is listed more than once", opt)
			}
		}
	case types.FieldComputed:
		checkFormula(preceding, field, vs)
	}

	if field.HasDefault() && field.Type.IsInput() {
		if err := checkDefault(field); err != nil {
			vs.add(name, ErrInvalidFieldDef, "default: %s", err.Error())
		}
	}

	return nil
}

// checkFormula checks that the formula parses and only references number
// fields or computed fields declared before the field.
func checkFormula(preceding []*types.FieldDef, field *types.FieldDef, vs *violations) {
	if field.Formula == "" {
		vs.add(field.Name, ErrInvalidFieldDef, "computed fields must set a formula")
		return
	}

	formula, err := ParseFormula(field.Formula)
	if err != nil {
		vs.add(field.Name, ErrInvalidFieldDef, "%s", err.Error())
		return
	}

	for _, ref := range formula.Fields() {
		idx := slices.IndexFunc(preceding, func(f *types.FieldDef) bool { return f.Name == ref })
		if idx < 0 {
			vs.add(field.Name, ErrInvalidFieldDef, "formula references %q which is not declared before it", ref)
			continue
		}
		if t := preceding[idx].Type; t != types.FieldNumber && t != types.FieldComputed {
			vs.add(field.Name, ErrInvalidFieldDef, "formula references %s field %q", t, ref)
		}
	}
}

func checkDefault(field *types.FieldDef) error {
	if !json.Valid(field.Default) {
		return fmt.Errorf("%s is not valid JSON", string(field.Default))
	}
	_, err := defaultValue(field)
	return err
}
