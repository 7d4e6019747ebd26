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
	"fmt"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

// uniqueKey returns the index key of a unique field value.
func uniqueKey(doctype string, field string, v types.Value) (string, error) {
	canonical, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("unique key of %q: %w", field, err)
	}
	return database.UniqueKey(doctype, field, canonical), nil
}

// CheckUnique returns the unique keys of the values after making sure no
// other live document of the doctype holds any of them. It must run in the
// transaction that stores the values.
func CheckUnique(
	ctx context.Context,
	r database.Reader,
	doctype *types.Doctype,
	docID types.ID,
	values types.Values,
) ([]string, error) {
	var vs violations
	var keys []string

	for _, field := range doctype.Fields {
		if !field.Unique {
			continue
		}
		v, ok := values[field.Name]
		if !ok || v.IsEmpty() {
			continue
		}

		key, err := uniqueKey(doctype.Name, field.Name, v)
		if err != nil {
			return nil, err
		}

		holder, err := r.FindDocInfoByUniqueKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check unique %q: %w", field.Name, err)
		}
		if holder != nil && holder.ID != docID && !holder.IsDeleted {
			vs.add(field.Name, ErrDuplicateValue, "%q is already used by %s", v.String(), holder.ID)
			continue
		}
		keys = append(keys, key)
	}

	if err := vs.errorOf(ErrValidation, doctype.Name); err != nil {
		return nil, err
	}
	return keys, nil
}
