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

// Package schemas is the schema registry: it stores doctypes and validates
// field values against them.
package schemas

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/logging"
)

// CreateDoctype validates and stores a new doctype.
func CreateDoctype(
	ctx context.Context,
	be *backend.Backend,
	doctype *types.Doctype,
) (*types.Doctype, error) {
	doctype = doctype.DeepCopy()
	if err := checkDefinition(ctx, be.DB, doctype); err != nil {
		return nil, err
	}

	now := gotime.Now().UTC()
	doctype.CreatedAt = now
	doctype.UpdatedAt = now

	info := database.NewDoctypeInfo(doctype)
	if err := be.DB.CreateDoctypeInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("create doctype %q: %w", doctype.Name, err)
	}
	be.Cache.Doctype.Remove(doctype.Name)

	logging.From(ctx).Debugf("doctype %q created with %d fields", doctype.Name, len(doctype.Fields))
	return info.ToDoctype(), nil
}

// UpdateDoctype replaces the fields, the description and the name field of
// an existing doctype. The name and the child flag never change. Stored
// documents are not migrated.
func UpdateDoctype(
	ctx context.Context,
	be *backend.Backend,
	doctype *types.Doctype,
) (*types.Doctype, error) {
	stored, err := be.DB.FindDoctypeInfo(ctx, doctype.Name)
	if err != nil {
		return nil, fmt.Errorf("update doctype %q: %w", doctype.Name, err)
	}

	updated := doctype.DeepCopy()
	updated.IsChild = stored.IsChild
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = gotime.Now().UTC()
	if err := checkDefinition(ctx, be.DB, updated); err != nil {
		return nil, err
	}

	info := database.NewDoctypeInfo(updated)
	if err := be.DB.UpdateDoctypeInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("update doctype %q: %w", doctype.Name, err)
	}
	be.Cache.Doctype.Remove(doctype.Name)

	logging.From(ctx).Debugf("doctype %q updated with %d fields", doctype.Name, len(updated.Fields))
	return info.ToDoctype(), nil
}

// GetDoctype returns the doctype of the given name. Lookups are served from
// the doctype cache when possible.
func GetDoctype(
	ctx context.Context,
	be *backend.Backend,
	name string,
) (*types.Doctype, error) {
	if cached, ok := be.Cache.Doctype.Get(ctx, name); ok {
		be.Metrics.AddDoctypeCacheLookup(true)
		return cached.DeepCopy(), nil
	}
	be.Metrics.AddDoctypeCacheLookup(false)

	info, err := be.DB.FindDoctypeInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get doctype %q: %w", name, err)
	}

	doctype := info.ToDoctype()
	be.Cache.Doctype.Add(name, doctype.DeepCopy())
	return doctype, nil
}

// ListDoctypes returns every doctype ordered by name.
func ListDoctypes(
	ctx context.Context,
	be *backend.Backend,
) ([]*types.Doctype, error) {
	infos, err := be.DB.ListDoctypeInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctypes: %w", err)
	}

	doctypes := make([]*types.Doctype, 0, len(infos))
	for _, info := range infos {
		doctypes = append(doctypes, info.ToDoctype())
	}
	return doctypes, nil
}

// NameOf returns the name of a document: the value of the name field of the
// doctype when it is set, otherwise the document ID.
func NameOf(doctype *types.Doctype, id types.ID, values types.Values) string {
	if doctype.NameField != "" {
		if v, ok := values[doctype.NameField]; ok && !v.IsEmpty() {
			return v.String()
		}
	}
	return id.String()
}
