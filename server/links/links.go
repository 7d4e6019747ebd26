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

// Package links is the relationship registry: it keeps the edges derived
// from link and link-multiple fields in sync with the field values.
package links

import (
	"context"
	"fmt"
	"slices"
	gotime "time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
)

// ErrInvalidLinkTarget is returned when a link value points at a document
// that does not exist, is deleted, or has another doctype.
var ErrInvalidLinkTarget = errors.InvalidArgument("invalid link target").WithCode("ErrInvalidLinkTarget")

// Reconcile makes the edges of every link and link-multiple field of the
// source match the given values. Absent or empty values remove the edges.
// Targets are read through tx so the check and the write see the same state.
func Reconcile(
	ctx context.Context,
	tx database.Tx,
	sourceID types.ID,
	doctype *types.Doctype,
	values types.Values,
	actor string,
) error {
	now := gotime.Now().UTC()

	for _, field := range doctype.FieldsOf(types.FieldLink, types.FieldLinkMultiple) {
		v := values[field.Name]

		if field.Type == types.FieldLink {
			if err := reconcileLink(ctx, tx, sourceID, field, v, actor, now); err != nil {
				return err
			}
			continue
		}

		if err := reconcileLinkMultiple(ctx, tx, sourceID, field, v, now); err != nil {
			return err
		}
	}

	return clearStaleEdges(ctx, tx, sourceID, doctype)
}

// clearStaleEdges removes the edges of fields the doctype no longer declares
// as link or link-multiple fields.
func clearStaleEdges(ctx context.Context, tx database.Tx, sourceID types.ID, doctype *types.Doctype) error {
	edges, err := tx.FindOutgoingEdges(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("find outgoing edges of %s: %w", sourceID, err)
	}

	var stale []string
	for _, edge := range edges {
		if isLinkField(doctype, edge.Field) || slices.Contains(stale, edge.Field) {
			continue
		}
		stale = append(stale, edge.Field)
	}

	for _, field := range stale {
		if err := tx.DeleteLinkInfo(ctx, sourceID, field); err != nil {
			return fmt.Errorf("clear link %q: %w", field, err)
		}
		if err := tx.ReplaceLinkMultipleInfos(ctx, sourceID, field, nil); err != nil {
			return fmt.Errorf("clear links %q: %w", field, err)
		}
	}
	return nil
}

func isLinkField(doctype *types.Doctype, name string) bool {
	field := doctype.Field(name)
	return field != nil && (field.Type == types.FieldLink || field.Type == types.FieldLinkMultiple)
}

func reconcileLink(
	ctx context.Context,
	tx database.Tx,
	sourceID types.ID,
	field *types.FieldDef,
	v types.Value,
	actor string,
	now gotime.Time,
) error {
	if v.IsEmpty() {
		if err := tx.DeleteLinkInfo(ctx, sourceID, field.Name); err != nil {
			return fmt.Errorf("clear link %q: %w", field.Name, err)
		}
		return nil
	}

	targetID := v.AsLink()
	existing, err := tx.FindLinkInfo(ctx, sourceID, field.Name)
	if err != nil {
		return fmt.Errorf("find link %q: %w", field.Name, err)
	}
	if existing != nil && existing.TargetID == targetID {
		return nil
	}

	if err := checkTarget(ctx, tx, field, targetID); err != nil {
		return err
	}

	if err := tx.UpsertLinkInfo(ctx, &database.LinkInfo{
		SourceID:  sourceID,
		Field:     field.Name,
		TargetID:  targetID,
		CreatedBy: actor,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("upsert link %q: %w", field.Name, err)
	}
	return nil
}

func reconcileLinkMultiple(
	ctx context.Context,
	tx database.Tx,
	sourceID types.ID,
	field *types.FieldDef,
	v types.Value,
	now gotime.Time,
) error {
	targetIDs := v.AsLinks()
	existing, err := tx.FindLinkMultipleInfos(ctx, sourceID, field.Name)
	if err != nil {
		return fmt.Errorf("find links %q: %w", field.Name, err)
	}
	if sameTargets(existing, targetIDs) {
		return nil
	}

	for i, targetID := range targetIDs {
		if slices.Contains(targetIDs[:i], targetID) {
			return errors.WithMetadata(
				fmt.Errorf("%s: %q is listed more than once: %w", field.Name, targetID, ErrInvalidLinkTarget),
				map[string]string{"field": field.Name, "target_id": targetID.String()},
			)
		}
		if err := checkTarget(ctx, tx, field, targetID); err != nil {
			return err
		}
	}

	infos := make([]*database.LinkMultipleInfo, 0, len(targetIDs))
	for i, targetID := range targetIDs {
		infos = append(infos, &database.LinkMultipleInfo{
			SourceID:  sourceID,
			Field:     field.Name,
			Order:     i,
			TargetID:  targetID,
			CreatedAt: now,
		})
	}
	if err := tx.ReplaceLinkMultipleInfos(ctx, sourceID, field.Name, infos); err != nil {
		return fmt.Errorf("replace links %q: %w", field.Name, err)
	}
	return nil
}

func sameTargets(existing []*database.LinkMultipleInfo, targetIDs []types.ID) bool {
	if len(existing) != len(targetIDs) {
		return false
	}
	for i, info := range existing {
		if info.TargetID != targetIDs[i] {
			return false
		}
	}
	return true
}

// checkTarget makes sure the target exists, is live and has the doctype the
// field links to. The target stays locked until the transaction ends so that
// it cannot be deleted concurrently.
func checkTarget(ctx context.Context, tx database.Tx, field *types.FieldDef, targetID types.ID) error {
	reason := ""
	target, err := tx.LockDocInfo(ctx, targetID)
	switch {
	case errors.Is(err, database.ErrDocumentNotFound):
		reason = "target does not exist"
	case err != nil:
		return fmt.Errorf("find link target %s: %w", targetID, err)
	case target.IsDeleted:
		reason = "target is deleted"
	case target.Doctype != field.LinkDoctype:
		reason = fmt.Sprintf("target is a %s, not a %s", target.Doctype, field.LinkDoctype)
	default:
		return nil
	}

	return errors.WithMetadata(
		fmt.Errorf("%s: %s %s: %w", field.Name, targetID, reason, ErrInvalidLinkTarget),
		map[string]string{"field": field.Name, "target_id": targetID.String(), "reason": reason},
	)
}

// BlockingEdges returns the incoming edges of the given documents whose
// source is live and outside the set. Edges between members of the set never
// block their deletion, and neither do edges of a field the source doctype
// no longer declares as a link.
func BlockingEdges(ctx context.Context, r database.Reader, targetIDs []types.ID) ([]types.Edge, error) {
	var blocking []types.Edge
	doctypes := map[string]*types.Doctype{}
	for _, targetID := range targetIDs {
		edges, err := r.FindIncomingEdges(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("find incoming edges of %s: %w", targetID, err)
		}

		for _, edge := range edges {
			if slices.Contains(targetIDs, edge.SourceID) {
				continue
			}
			source, err := r.FindDocInfoByID(ctx, edge.SourceID)
			if errors.Is(err, database.ErrDocumentNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("find source %s: %w", edge.SourceID, err)
			}
			if source.IsDeleted {
				continue
			}

			doctype, ok := doctypes[source.Doctype]
			if !ok {
				info, err := r.FindDoctypeInfo(ctx, source.Doctype)
				if err != nil {
					return nil, fmt.Errorf("find doctype of %s: %w", edge.SourceID, err)
				}
				doctype = info.ToDoctype()
				doctypes[source.Doctype] = doctype
			}
			if !isLinkField(doctype, edge.Field) {
				continue
			}
			blocking = append(blocking, edge)
		}
	}
	return blocking, nil
}

// HasIncomingReferences returns whether another live document links to the
// given document. Run it in the transaction that deletes the document.
func HasIncomingReferences(ctx context.Context, r database.Reader, targetID types.ID) (bool, error) {
	edges, err := BlockingEdges(ctx, r, []types.ID{targetID})
	if err != nil {
		return false, err
	}
	return len(edges) > 0, nil
}

// Cascade removes every outgoing edge of the source and returns how many
// were removed.
func Cascade(ctx context.Context, tx database.Tx, sourceID types.ID) (int, error) {
	n, err := tx.DeleteOutgoingEdges(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("cascade edges of %s: %w", sourceID, err)
	}
	return n, nil
}

// GetLink returns the target of the link field, or nil when the field is
// empty or the target is deleted.
func GetLink(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	field string,
) (*types.Document, error) {
	if _, err := be.DB.FindDocInfoByID(ctx, docID); err != nil {
		return nil, fmt.Errorf("get link %q of %s: %w", field, docID, err)
	}

	info, err := be.DB.FindLinkInfo(ctx, docID, field)
	if err != nil {
		return nil, fmt.Errorf("get link %q of %s: %w", field, docID, err)
	}
	if info == nil {
		return nil, nil
	}

	target, err := be.DB.FindDocInfoByID(ctx, info.TargetID)
	if errors.Is(err, database.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get link %q of %s: %w", field, docID, err)
	}
	if target.IsDeleted {
		return nil, nil
	}
	return target.ToDocument(), nil
}

// GetLinkedDocuments returns the live targets of the link-multiple field in
// the order of the field value.
func GetLinkedDocuments(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	field string,
) ([]*types.Document, error) {
	if _, err := be.DB.FindDocInfoByID(ctx, docID); err != nil {
		return nil, fmt.Errorf("get linked documents %q of %s: %w", field, docID, err)
	}

	infos, err := be.DB.FindLinkMultipleInfos(ctx, docID, field)
	if err != nil {
		return nil, fmt.Errorf("get linked documents %q of %s: %w", field, docID, err)
	}

	ids := make([]types.ID, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.TargetID)
	}
	targets, err := be.DB.FindDocInfosByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get linked documents %q of %s: %w", field, docID, err)
	}

	docs := make([]*types.Document, 0, len(targets))
	for _, target := range targets {
		if target.IsDeleted {
			continue
		}
		docs = append(docs, target.ToDocument())
	}
	return docs, nil
}

// GetReferencingDocuments returns the live documents linking to the given
// document, with the field of each edge, ordered by source then field.
func GetReferencingDocuments(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) ([]*types.DocumentReference, error) {
	if _, err := be.DB.FindDocInfoByID(ctx, docID); err != nil {
		return nil, fmt.Errorf("get referencing documents of %s: %w", docID, err)
	}

	edges, err := be.DB.FindIncomingEdges(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get referencing documents of %s: %w", docID, err)
	}

	var refs []*types.DocumentReference
	for _, edge := range edges {
		if len(refs) > 0 {
			last := refs[len(refs)-1]
			if last.Document.ID == edge.SourceID && last.Field == edge.Field {
				continue
			}
		}

		source, err := be.DB.FindDocInfoByID(ctx, edge.SourceID)
		if errors.Is(err, database.ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get referencing documents of %s: %w", docID, err)
		}
		if source.IsDeleted {
			continue
		}
		refs = append(refs, &types.DocumentReference{Document: source.ToDocument(), Field: edge.Field})
	}
	return refs, nil
}
