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

// Package types provides the types shared by the engine, the stores and the
// CLI: doctypes, typed field values, documents, edges and versions.
package types

import (
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/docvault/docvault/pkg/errors"
)

// ErrInvalidID is returned when the given ID is not a valid xid.
var ErrInvalidID = errors.InvalidArgument("invalid ID").WithCode("ErrInvalidID")

// ID represents ID of a document. IDs are xids: 20 characters, sortable by
// creation time.
type ID string

// NewID returns a new unique ID.
func NewID() ID {
	return ID(xid.New().String())
}

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Validate returns error if this ID is invalid.
func (id ID) Validate() error {
	if _, err := xid.FromString(string(id)); err != nil {
		return fmt.Errorf("%q: %w", string(id), ErrInvalidID)
	}

	return nil
}

// JoinIDs joins the given IDs with comma.
func JoinIDs(ids []ID) string {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	return strings.Join(strs, ",")
}
