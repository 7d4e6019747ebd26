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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// reader returns a read-only view of the latest committed state.
func (d *DB) reader() *tx {
	return &tx{txn: d.db.Txn(false)}
}

// RunTx runs fn in a write transaction. memdb allows a single writer at a
// time, so transactions are serialized.
func (d *DB) RunTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if err := fn(ctx, &tx{txn: txn}); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

// CreateDoctypeInfo inserts a new doctype.
func (d *DB) CreateDoctypeInfo(_ context.Context, info *database.DoctypeInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDoctypes, "id", info.Name)
	if err != nil {
		return fmt.Errorf("find doctype of %s: %w", info.Name, err)
	}
	if raw != nil {
		return fmt.Errorf("%s: %w", info.Name, database.ErrDoctypeAlreadyExists)
	}

	if err := txn.Insert(tblDoctypes, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert doctype of %s: %w", info.Name, err)
	}

	txn.Commit()
	return nil
}

// UpdateDoctypeInfo replaces the fields of an existing doctype.
func (d *DB) UpdateDoctypeInfo(_ context.Context, info *database.DoctypeInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDoctypes, "id", info.Name)
	if err != nil {
		return fmt.Errorf("find doctype of %s: %w", info.Name, err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", info.Name, database.ErrDoctypeNotFound)
	}

	if err := txn.Insert(tblDoctypes, info.DeepCopy()); err != nil {
		return fmt.Errorf("update doctype of %s: %w", info.Name, err)
	}

	txn.Commit()
	return nil
}

// ListDoctypeInfos returns every doctype ordered by name.
func (d *DB) ListDoctypeInfos(_ context.Context) ([]*database.DoctypeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblDoctypes, "id")
	if err != nil {
		return nil, fmt.Errorf("list doctypes: %w", err)
	}

	var infos []*database.DoctypeInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.DoctypeInfo).DeepCopy())
	}

	return infos, nil
}

// CreateIntegrityLogInfo appends an integrity check record.
func (d *DB) CreateIntegrityLogInfo(_ context.Context, info *database.IntegrityLogInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if info.ID == "" {
		info.ID = types.NewID()
	}
	if err := txn.Insert(tblIntegrityLogs, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert integrity log of %s: %w", info.DocID, err)
	}

	txn.Commit()
	return nil
}

// FindIntegrityLogInfos returns the integrity check records of the document,
// newest first.
func (d *DB) FindIntegrityLogInfos(_ context.Context, docID types.ID) ([]*database.IntegrityLogInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblIntegrityLogs, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("find integrity logs of %s: %w", docID, err)
	}

	var infos []*database.IntegrityLogInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.IntegrityLogInfo).DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CheckedAt.Equal(infos[j].CheckedAt) {
			return infos[i].CheckedAt.After(infos[j].CheckedAt)
		}
		return infos[i].ID > infos[j].ID
	})

	return infos, nil
}

// FindDoctypeInfo returns the doctype of the given name.
func (d *DB) FindDoctypeInfo(ctx context.Context, name string) (*database.DoctypeInfo, error) {
	return d.reader().FindDoctypeInfo(ctx, name)
}

// FindDocInfoByID returns the document of the given ID.
func (d *DB) FindDocInfoByID(ctx context.Context, id types.ID) (*database.DocInfo, error) {
	return d.reader().FindDocInfoByID(ctx, id)
}

// FindDocInfosByIDs returns the documents of the given IDs.
func (d *DB) FindDocInfosByIDs(ctx context.Context, ids []types.ID) ([]*database.DocInfo, error) {
	return d.reader().FindDocInfosByIDs(ctx, ids)
}

// FindChildDocInfos returns the table rows of the given parent.
func (d *DB) FindChildDocInfos(ctx context.Context, parentID types.ID) ([]*database.DocInfo, error) {
	return d.reader().FindChildDocInfos(ctx, parentID)
}

// FindDocInfoByUniqueKey returns the live document holding the key, or nil.
func (d *DB) FindDocInfoByUniqueKey(ctx context.Context, key string) (*database.DocInfo, error) {
	return d.reader().FindDocInfoByUniqueKey(ctx, key)
}

// FindLinkInfo returns the edge of the given link field, or nil.
func (d *DB) FindLinkInfo(ctx context.Context, sourceID types.ID, field string) (*database.LinkInfo, error) {
	return d.reader().FindLinkInfo(ctx, sourceID, field)
}

// FindLinkMultipleInfos returns the edges of the given link-multiple field.
func (d *DB) FindLinkMultipleInfos(
	ctx context.Context,
	sourceID types.ID,
	field string,
) ([]*database.LinkMultipleInfo, error) {
	return d.reader().FindLinkMultipleInfos(ctx, sourceID, field)
}

// FindOutgoingEdges returns every edge leaving the source.
func (d *DB) FindOutgoingEdges(ctx context.Context, sourceID types.ID) ([]types.Edge, error) {
	return d.reader().FindOutgoingEdges(ctx, sourceID)
}

// FindIncomingEdges returns every edge pointing at the target.
func (d *DB) FindIncomingEdges(ctx context.Context, targetID types.ID) ([]types.Edge, error) {
	return d.reader().FindIncomingEdges(ctx, targetID)
}

// FindVersionInfo returns the given version of the document.
func (d *DB) FindVersionInfo(ctx context.Context, docID types.ID, number int64) (*database.VersionInfo, error) {
	return d.reader().FindVersionInfo(ctx, docID, number)
}

// FindVersionInfos returns the versions of the document, newest first.
func (d *DB) FindVersionInfos(ctx context.Context, docID types.ID, limit int) ([]*database.VersionInfo, error) {
	return d.reader().FindVersionInfos(ctx, docID, limit)
}

// tx implements database.Tx on top of a memdb transaction. Read-only
// transactions are used for the Reader methods of DB.
type tx struct {
	txn *memdb.Txn
}

func (t *tx) FindDoctypeInfo(_ context.Context, name string) (*database.DoctypeInfo, error) {
	raw, err := t.txn.First(tblDoctypes, "id", name)
	if err != nil {
		return nil, fmt.Errorf("find doctype of %s: %w", name, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", name, database.ErrDoctypeNotFound)
	}

	return raw.(*database.DoctypeInfo).DeepCopy(), nil
}

func (t *tx) findDocInfo(id types.ID) (*database.DocInfo, error) {
	raw, err := t.txn.First(tblDocuments, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrDocumentNotFound)
	}

	return raw.(*database.DocInfo), nil
}

func (t *tx) FindDocInfoByID(_ context.Context, id types.ID) (*database.DocInfo, error) {
	info, err := t.findDocInfo(id)
	if err != nil {
		return nil, err
	}

	return info.DeepCopy(), nil
}

func (t *tx) FindDocInfosByIDs(_ context.Context, ids []types.ID) ([]*database.DocInfo, error) {
	var infos []*database.DocInfo
	for _, id := range ids {
		raw, err := t.txn.First(tblDocuments, "id", id.String())
		if err != nil {
			return nil, fmt.Errorf("find document of %s: %w", id, err)
		}
		if raw == nil {
			continue
		}
		infos = append(infos, raw.(*database.DocInfo).DeepCopy())
	}

	return infos, nil
}

func (t *tx) FindChildDocInfos(_ context.Context, parentID types.ID) ([]*database.DocInfo, error) {
	iter, err := t.txn.Get(tblDocuments, "parent_id", parentID.String())
	if err != nil {
		return nil, fmt.Errorf("find children of %s: %w", parentID, err)
	}

	var infos []*database.DocInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.DocInfo).DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})

	return infos, nil
}

func (t *tx) FindDocInfoByUniqueKey(_ context.Context, key string) (*database.DocInfo, error) {
	iter, err := t.txn.Get(tblDocuments, "unique_keys", key)
	if err != nil {
		return nil, fmt.Errorf("find document by unique key %s: %w", key, err)
	}

	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.DocInfo)
		if !info.IsDeleted {
			return info.DeepCopy(), nil
		}
	}

	return nil, nil
}

func (t *tx) FindLinkInfo(_ context.Context, sourceID types.ID, field string) (*database.LinkInfo, error) {
	raw, err := t.txn.First(tblLinks, "id", sourceID.String(), field)
	if err != nil {
		return nil, fmt.Errorf("find link %s.%s: %w", sourceID, field, err)
	}
	if raw == nil {
		return nil, nil
	}

	return raw.(*database.LinkInfo).DeepCopy(), nil
}

func (t *tx) FindLinkMultipleInfos(
	_ context.Context,
	sourceID types.ID,
	field string,
) ([]*database.LinkMultipleInfo, error) {
	iter, err := t.txn.Get(tblLinksMultiple, "source_id_field", sourceID.String(), field)
	if err != nil {
		return nil, fmt.Errorf("find links %s.%s: %w", sourceID, field, err)
	}

	var infos []*database.LinkMultipleInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.LinkMultipleInfo).DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Order < infos[j].Order
	})

	return infos, nil
}

func (t *tx) FindOutgoingEdges(_ context.Context, sourceID types.ID) ([]types.Edge, error) {
	return t.findEdges("source_id", sourceID)
}

func (t *tx) FindIncomingEdges(_ context.Context, targetID types.ID) ([]types.Edge, error) {
	return t.findEdges("target_id", targetID)
}

// findEdges collects the edges of both kinds matching the given index, ordered
// by source, field and position.
func (t *tx) findEdges(index string, id types.ID) ([]types.Edge, error) {
	type ordered struct {
		edge  types.Edge
		order int
	}
	var found []ordered

	iter, err := t.txn.Get(tblLinks, index, id.String())
	if err != nil {
		return nil, fmt.Errorf("find links by %s %s: %w", index, id, err)
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.LinkInfo)
		found = append(found, ordered{edge: types.Edge{
			SourceID: info.SourceID,
			Field:    info.Field,
			TargetID: info.TargetID,
		}})
	}

	iter, err = t.txn.Get(tblLinksMultiple, index, id.String())
	if err != nil {
		return nil, fmt.Errorf("find multiple links by %s %s: %w", index, id, err)
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.LinkMultipleInfo)
		found = append(found, ordered{edge: types.Edge{
			SourceID: info.SourceID,
			Field:    info.Field,
			TargetID: info.TargetID,
		}, order: info.Order})
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.edge.SourceID != b.edge.SourceID {
			return a.edge.SourceID < b.edge.SourceID
		}
		if a.edge.Field != b.edge.Field {
			return a.edge.Field < b.edge.Field
		}
		return a.order < b.order
	})

	edges := make([]types.Edge, 0, len(found))
	for _, o := range found {
		edges = append(edges, o.edge)
	}
	return edges, nil
}

func (t *tx) FindVersionInfo(_ context.Context, docID types.ID, number int64) (*database.VersionInfo, error) {
	raw, err := t.txn.First(tblVersions, "id", docID.String(), number)
	if err != nil {
		return nil, fmt.Errorf("find version %d of %s: %w", number, docID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("version %d of %s: %w", number, docID, database.ErrVersionNotFound)
	}

	return raw.(*database.VersionInfo).DeepCopy(), nil
}

func (t *tx) FindVersionInfos(_ context.Context, docID types.ID, limit int) ([]*database.VersionInfo, error) {
	iter, err := t.txn.Get(tblVersions, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("find versions of %s: %w", docID, err)
	}

	var infos []*database.VersionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.VersionInfo))
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Number > infos[j].Number
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}

	for i, info := range infos {
		infos[i] = info.DeepCopy()
	}
	return infos, nil
}

// LockDocInfo returns the document. The memdb writer lock is held for the
// whole transaction, so no row lock is needed.
func (t *tx) LockDocInfo(ctx context.Context, id types.ID) (*database.DocInfo, error) {
	return t.FindDocInfoByID(ctx, id)
}

func (t *tx) CreateDocInfo(_ context.Context, info *database.DocInfo) error {
	raw, err := t.txn.First(tblDocuments, "id", info.ID.String())
	if err != nil {
		return fmt.Errorf("find document of %s: %w", info.ID, err)
	}
	if raw != nil {
		return fmt.Errorf("%s: %w", info.ID, database.ErrDocumentAlreadyExists)
	}

	if err := t.checkUniqueKeys(info); err != nil {
		return err
	}

	if err := t.txn.Insert(tblDocuments, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert document of %s: %w", info.ID, err)
	}
	return nil
}

func (t *tx) UpdateDocInfo(_ context.Context, info *database.DocInfo) error {
	if _, err := t.findDocInfo(info.ID); err != nil {
		return err
	}
	if err := t.checkUniqueKeys(info); err != nil {
		return err
	}

	if err := t.txn.Insert(tblDocuments, info.DeepCopy()); err != nil {
		return fmt.Errorf("update document of %s: %w", info.ID, err)
	}
	return nil
}

// checkUniqueKeys fails when another document already holds one of the keys.
func (t *tx) checkUniqueKeys(info *database.DocInfo) error {
	for _, key := range info.UniqueKeys {
		iter, err := t.txn.Get(tblDocuments, "unique_keys", key)
		if err != nil {
			return fmt.Errorf("find unique key %s: %w", key, err)
		}
		for raw := iter.Next(); raw != nil; raw = iter.Next() {
			holder := raw.(*database.DocInfo)
			if holder.ID != info.ID && !holder.IsDeleted {
				return fmt.Errorf("unique key %s: %w", key, database.ErrConcurrentModification)
			}
		}
	}
	return nil
}

func (t *tx) UpsertLinkInfo(_ context.Context, info *database.LinkInfo) error {
	if err := t.txn.Insert(tblLinks, info.DeepCopy()); err != nil {
		return fmt.Errorf("upsert link %s.%s: %w", info.SourceID, info.Field, err)
	}
	return nil
}

func (t *tx) DeleteLinkInfo(_ context.Context, sourceID types.ID, field string) error {
	if _, err := t.txn.DeleteAll(tblLinks, "id", sourceID.String(), field); err != nil {
		return fmt.Errorf("delete link %s.%s: %w", sourceID, field, err)
	}
	return nil
}

func (t *tx) ReplaceLinkMultipleInfos(
	_ context.Context,
	sourceID types.ID,
	field string,
	infos []*database.LinkMultipleInfo,
) error {
	if _, err := t.txn.DeleteAll(tblLinksMultiple, "source_id_field", sourceID.String(), field); err != nil {
		return fmt.Errorf("delete links %s.%s: %w", sourceID, field, err)
	}

	for _, info := range infos {
		if err := t.txn.Insert(tblLinksMultiple, info.DeepCopy()); err != nil {
			return fmt.Errorf("insert links %s.%s: %w", sourceID, field, err)
		}
	}
	return nil
}

func (t *tx) DeleteOutgoingEdges(_ context.Context, sourceID types.ID) (int, error) {
	single, err := t.txn.DeleteAll(tblLinks, "source_id", sourceID.String())
	if err != nil {
		return 0, fmt.Errorf("delete links of %s: %w", sourceID, err)
	}

	multiple, err := t.txn.DeleteAll(tblLinksMultiple, "source_id", sourceID.String())
	if err != nil {
		return 0, fmt.Errorf("delete multiple links of %s: %w", sourceID, err)
	}

	return single + multiple, nil
}

func (t *tx) CreateVersionInfo(_ context.Context, info *database.VersionInfo) error {
	raw, err := t.txn.First(tblVersions, "id", info.DocID.String(), info.Number)
	if err != nil {
		return fmt.Errorf("find version %d of %s: %w", info.Number, info.DocID, err)
	}
	if raw != nil {
		return fmt.Errorf("version %d of %s: %w", info.Number, info.DocID, database.ErrConcurrentModification)
	}

	if info.ChangedAt.IsZero() {
		info.ChangedAt = time.Now()
	}
	if err := t.txn.Insert(tblVersions, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert version %d of %s: %w", info.Number, info.DocID, err)
	}
	return nil
}
