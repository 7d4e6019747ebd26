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

// Package documents is the document store: it creates, updates, deletes and
// reads documents. Every mutation runs in one transaction together with the
// edge reconciliation and the version append.
package documents

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/links"
	"github.com/docvault/docvault/server/logging"
	"github.com/docvault/docvault/server/schemas"
	"github.com/docvault/docvault/server/versions"
)

// Parent locates a child document in the table field of its parent.
type Parent struct {
	ID    types.ID
	Field string
}

// SaveDocument creates a document when id is empty and updates the
// document of the given id otherwise. Updates merge the input over the
// stored values. Every accepted save appends exactly one version.
func SaveDocument(
	ctx context.Context,
	be *backend.Backend,
	doctypeName string,
	id types.ID,
	input map[string]any,
	actor string,
) (*types.Document, error) {
	return save(ctx, be, doctypeName, id, nil, input, actor)
}

// SaveChildDocument is SaveDocument for the rows of a table field.
func SaveChildDocument(
	ctx context.Context,
	be *backend.Backend,
	doctypeName string,
	parent Parent,
	id types.ID,
	input map[string]any,
	actor string,
) (*types.Document, error) {
	return save(ctx, be, doctypeName, id, &parent, input, actor)
}

func save(
	ctx context.Context,
	be *backend.Backend,
	doctypeName string,
	id types.ID,
	parent *Parent,
	input map[string]any,
	actor string,
) (*types.Document, error) {
	doctype, err := schemas.GetDoctype(ctx, be, doctypeName)
	if err != nil {
		return nil, err
	}
	if doctype.IsChild && parent == nil {
		return nil, fmt.Errorf("save %s: %w", doctype.Name, ErrChildDoctype)
	}
	if !doctype.IsChild && parent != nil {
		return nil, fmt.Errorf("save %s: %w", doctype.Name, ErrNotChildDoctype)
	}

	isNew := id == ""
	if isNew {
		id = types.NewID()
	} else if err := id.Validate(); err != nil {
		return nil, err
	}

	var parentDoctype *types.Doctype
	if parent != nil {
		if parentDoctype, err = parentDoctypeOf(ctx, be, doctype, parent); err != nil {
			return nil, err
		}
	}

	be.Lockers.Lock(id)
	defer func() {
		if err := be.Lockers.Unlock(id); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	var saved *database.DocInfo
	if err := be.DB.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		if parent != nil {
			if err := checkParent(ctx, tx, parentDoctype, parent); err != nil {
				return err
			}
		}

		info := &database.DocInfo{ID: id, Doctype: doctype.Name}
		mode := schemas.ModeCreate
		if !isNew {
			stored, err := tx.LockDocInfo(ctx, id)
			if err != nil {
				return err
			}
			if err := checkStored(stored, doctype, parent); err != nil {
				return err
			}
			info = stored
			mode = schemas.ModeUpdate
		} else if parent != nil {
			info.ParentID = parent.ID
			info.ParentField = parent.Field
		}

		next, err := schemas.Validate(doctype, info.Values, input, mode)
		if err != nil {
			return err
		}

		if _, err := versions.Commit(ctx, be, tx, doctype, info, next, isNew, actor, ""); err != nil {
			return err
		}
		saved = info
		return nil
	}); err != nil {
		return nil, fmt.Errorf("save %s %s: %w", doctype.Name, id, err)
	}

	be.Metrics.AddVersionAppended(doctype.Name)
	logging.From(ctx).Debugf("%s %s saved as version %d by %s", doctype.Name, id, saved.CurrentVersion, actor)
	return saved.ToDocument(), nil
}

// parentDoctypeOf returns the doctype of the parent after making sure it has
// a table field of the child doctype under the given name.
func parentDoctypeOf(
	ctx context.Context,
	be *backend.Backend,
	child *types.Doctype,
	parent *Parent,
) (*types.Doctype, error) {
	parentInfo, err := be.DB.FindDocInfoByID(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("find parent %s: %w", parent.ID, err)
	}

	parentDoctype, err := schemas.GetDoctype(ctx, be, parentInfo.Doctype)
	if err != nil {
		return nil, err
	}

	field := parentDoctype.Field(parent.Field)
	if field == nil || field.Type != types.FieldTable || field.LinkDoctype != child.Name {
		return nil, fmt.Errorf(
			"%s has no table field %q of %s: %w",
			parentDoctype.Name, parent.Field, child.Name, ErrInvalidParent,
		)
	}
	return parentDoctype, nil
}

// checkParent re-reads the parent inside the transaction and locks it so
// that it cannot be deleted while the row is saved.
func checkParent(ctx context.Context, tx database.Tx, parentDoctype *types.Doctype, parent *Parent) error {
	info, err := tx.LockDocInfo(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("lock parent %s: %w", parent.ID, err)
	}
	if info.IsDeleted {
		return fmt.Errorf("parent %s is deleted: %w", parent.ID, ErrInvalidParent)
	}
	if info.Doctype != parentDoctype.Name {
		return fmt.Errorf("parent %s is a %s: %w", parent.ID, info.Doctype, ErrInvalidParent)
	}
	return nil
}

// checkStored makes sure the stored document can be updated through the
// given doctype and parent.
func checkStored(stored *database.DocInfo, doctype *types.Doctype, parent *Parent) error {
	if stored.IsDeleted {
		return fmt.Errorf("%s is deleted: %w", stored.ID, database.ErrDocumentNotFound)
	}
	if stored.Doctype != doctype.Name {
		return fmt.Errorf("%s is a %s: %w", stored.ID, stored.Doctype, ErrDoctypeMismatch)
	}
	if parent != nil && (stored.ParentID != parent.ID || stored.ParentField != parent.Field) {
		return fmt.Errorf("%s is not a row of %s.%s: %w", stored.ID, parent.ID, parent.Field, ErrInvalidParent)
	}
	return nil
}

// DeleteDocument soft-deletes the document and its child rows and removes
// their outgoing edges. The deletion is refused with a ProtectedDeletionError
// while live documents outside of that set link to any of them.
func DeleteDocument(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	actor string,
) error {
	be.Lockers.Lock(id)
	defer func() {
		if err := be.Lockers.Unlock(id); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	cascaded := 0
	if err := be.DB.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		info, err := tx.LockDocInfo(ctx, id)
		if err != nil {
			return err
		}
		if info.IsDeleted {
			return fmt.Errorf("%s is deleted: %w", id, database.ErrDocumentNotFound)
		}

		children, err := tx.FindChildDocInfos(ctx, id)
		if err != nil {
			return fmt.Errorf("find child documents: %w", err)
		}

		deleting := []*database.DocInfo{info}
		ids := []types.ID{id}
		for _, child := range children {
			if child.IsDeleted {
				continue
			}
			deleting = append(deleting, child)
			ids = append(ids, child.ID)
		}

		blocking, err := links.BlockingEdges(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(blocking) > 0 {
			return &ProtectedDeletionError{DocumentID: id, BlockingEdges: blocking}
		}

		now := gotime.Now().UTC()
		for _, doc := range deleting {
			n, err := links.Cascade(ctx, tx, doc.ID)
			if err != nil {
				return err
			}
			cascaded += n

			doc.IsDeleted = true
			doc.UniqueKeys = nil
			doc.ModifiedBy = actor
			doc.ModifiedAt = now
			if err := tx.UpdateDocInfo(ctx, doc); err != nil {
				return fmt.Errorf("soft-delete %s: %w", doc.ID, err)
			}
		}
		return nil
	}); err != nil {
		var protected *ProtectedDeletionError
		if errors.As(err, &protected) {
			be.Metrics.AddProtectedDeletion()
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}

	logging.From(ctx).Debugf("%s deleted by %s, %d edges removed", id, actor, cascaded)
	return nil
}

// GetDocument returns the live document of the given id.
func GetDocument(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.Document, error) {
	info, err := be.DB.FindDocInfoByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if info.IsDeleted {
		return nil, fmt.Errorf("get document %s: deleted: %w", id, database.ErrDocumentNotFound)
	}
	return info.ToDocument(), nil
}

// GetChildDocuments returns the live rows of every table field of the
// document, in creation order.
func GetChildDocuments(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) ([]*types.Document, error) {
	if _, err := be.DB.FindDocInfoByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get child documents of %s: %w", id, err)
	}

	infos, err := be.DB.FindChildDocInfos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get child documents of %s: %w", id, err)
	}

	docs := make([]*types.Document, 0, len(infos))
	for _, info := range infos {
		if info.IsDeleted {
			continue
		}
		docs = append(docs, info.ToDocument())
	}
	return docs, nil
}
