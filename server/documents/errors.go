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

package documents

import (
	"fmt"
	"strings"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
)

var (
	// ErrProtectedDeletion is matched by ProtectedDeletionError.
	ErrProtectedDeletion = errors.FailedPrecond("document is still referenced").WithCode("ErrProtectedDeletion")

	// ErrDoctypeMismatch is returned when a document is saved under another
	// doctype than the one it was created with.
	ErrDoctypeMismatch = errors.InvalidArgument("doctype mismatch").WithCode("ErrDoctypeMismatch")

	// ErrChildDoctype is returned when a child doctype is saved without a
	// parent.
	ErrChildDoctype = errors.InvalidArgument("child documents must be saved with a parent").
			WithCode("ErrChildDoctype")

	// ErrNotChildDoctype is returned when a parent is given for a doctype
	// that is not a child doctype.
	ErrNotChildDoctype = errors.InvalidArgument("only child documents can have a parent").
				WithCode("ErrNotChildDoctype")

	// ErrInvalidParent is returned when the parent of a child document is
	// missing, deleted, or has no matching table field.
	ErrInvalidParent = errors.InvalidArgument("invalid parent").WithCode("ErrInvalidParent")
)

// ProtectedDeletionError is returned when a document cannot be deleted
// because live documents outside of the deleted set still link to it.
type ProtectedDeletionError struct {
	DocumentID    types.ID
	BlockingEdges []types.Edge
}

func (e *ProtectedDeletionError) Error() string {
	edges := make([]string, 0, len(e.BlockingEdges))
	for _, edge := range e.BlockingEdges {
		edges = append(edges, fmt.Sprintf("%s.%s", edge.SourceID, edge.Field))
	}
	return fmt.Sprintf("%s: referenced by %s", ErrProtectedDeletion.Error(), strings.Join(edges, ", "))
}

func (e *ProtectedDeletionError) Unwrap() error {
	return ErrProtectedDeletion
}
