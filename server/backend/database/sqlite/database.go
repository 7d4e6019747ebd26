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

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

// CreateDoctypeInfo inserts a new doctype.
func (d *DB) CreateDoctypeInfo(ctx context.Context, info *database.DoctypeInfo) error {
	fields, err := json.Marshal(info.Fields)
	if err != nil {
		return fmt.Errorf("encode fields of %s: %w", info.Name, err)
	}

	if _, err := d.conn.ExecContext(
		ctx,
		`INSERT INTO doctypes (`+doctypeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.Name, info.Description, string(fields), info.IsChild, info.NameField,
		toNanos(info.CreatedAt), toNanos(info.UpdatedAt),
	); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%s: %w", info.Name, database.ErrDoctypeAlreadyExists)
		}
		return fmt.Errorf("insert doctype of %s: %w", info.Name, err)
	}
	return nil
}

// UpdateDoctypeInfo replaces the fields of an existing doctype.
func (d *DB) UpdateDoctypeInfo(ctx context.Context, info *database.DoctypeInfo) error {
	fields, err := json.Marshal(info.Fields)
	if err != nil {
		return fmt.Errorf("encode fields of %s: %w", info.Name, err)
	}

	res, err := d.conn.ExecContext(
		ctx,
		`UPDATE doctypes SET description = ?, fields = ?, is_child = ?, name_field = ?, updated_at = ?
		WHERE name = ?`,
		info.Description, string(fields), info.IsChild, info.NameField, toNanos(info.UpdatedAt), info.Name,
	)
	if err != nil {
		return fmt.Errorf("update doctype of %s: %w", info.Name, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update doctype of %s: %w", info.Name, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", info.Name, database.ErrDoctypeNotFound)
	}
	return nil
}

// ListDoctypeInfos returns every doctype ordered by name.
func (d *DB) ListDoctypeInfos(ctx context.Context) ([]*database.DoctypeInfo, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+doctypeColumns+` FROM doctypes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list doctypes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.DoctypeInfo
	for rows.Next() {
		info, err := scanDoctypeInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctypes: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// CreateIntegrityLogInfo appends an integrity check record.
func (d *DB) CreateIntegrityLogInfo(ctx context.Context, info *database.IntegrityLogInfo) error {
	if info.ID == "" {
		info.ID = types.NewID()
	}

	if _, err := d.conn.ExecContext(
		ctx,
		`INSERT INTO integrity_logs (`+integrityLogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID.String(), info.DocID.String(), info.VersionNumber, toNanos(info.CheckedAt),
		info.CheckedBy, info.Passed, info.ExpectedHash, info.ActualHash,
	); err != nil {
		return fmt.Errorf("insert integrity log of %s: %w", info.DocID, err)
	}
	return nil
}

// FindIntegrityLogInfos returns the integrity check records of the document,
// newest first.
func (d *DB) FindIntegrityLogInfos(ctx context.Context, docID types.ID) ([]*database.IntegrityLogInfo, error) {
	rows, err := d.conn.QueryContext(
		ctx,
		`SELECT `+integrityLogColumns+` FROM integrity_logs WHERE doc_id = ? ORDER BY checked_at DESC, id DESC`,
		docID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("find integrity logs of %s: %w", docID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.IntegrityLogInfo
	for rows.Next() {
		info, err := scanIntegrityLogInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integrity logs of %s: %w", docID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// tx implements database.Tx on a SQLite transaction.
type tx struct {
	store
}

// LockDocInfo returns the document. Transactions begin immediately, so the
// database write lock is already held.
func (t *tx) LockDocInfo(ctx context.Context, id types.ID) (*database.DocInfo, error) {
	return t.FindDocInfoByID(ctx, id)
}

func (t *tx) CreateDocInfo(ctx context.Context, info *database.DocInfo) error {
	values, uniqueKeys, err := encodeDocInfo(info)
	if err != nil {
		return err
	}

	if _, err := t.q.ExecContext(
		ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID.String(), info.Doctype, info.Name, values, info.ParentID.String(), info.ParentField,
		info.CurrentVersion, uniqueKeys, info.CreatedBy, toNanos(info.CreatedAt),
		info.ModifiedBy, toNanos(info.ModifiedAt), info.IsDeleted,
	); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%s: %w", info.ID, database.ErrDocumentAlreadyExists)
		}
		return fmt.Errorf("insert document of %s: %w", info.ID, err)
	}

	return t.replaceUniqueKeys(ctx, info)
}

func (t *tx) UpdateDocInfo(ctx context.Context, info *database.DocInfo) error {
	values, uniqueKeys, err := encodeDocInfo(info)
	if err != nil {
		return err
	}

	res, err := t.q.ExecContext(
		ctx,
		`UPDATE documents SET doctype = ?, name = ?, doc_values = ?, parent_id = ?, parent_field = ?,
		current_version = ?, unique_keys = ?, modified_by = ?, modified_at = ?, is_deleted = ?
		WHERE id = ?`,
		info.Doctype, info.Name, values, info.ParentID.String(), info.ParentField,
		info.CurrentVersion, uniqueKeys, info.ModifiedBy, toNanos(info.ModifiedAt), info.IsDeleted,
		info.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update document of %s: %w", info.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update document of %s: %w", info.ID, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", info.ID, database.ErrDocumentNotFound)
	}

	return t.replaceUniqueKeys(ctx, info)
}

func encodeDocInfo(info *database.DocInfo) (string, string, error) {
	values, err := info.Values.Canonical()
	if err != nil {
		return "", "", fmt.Errorf("encode values of %s: %w", info.ID, err)
	}

	keys := info.UniqueKeys
	if keys == nil {
		keys = []string{}
	}
	uniqueKeys, err := json.Marshal(keys)
	if err != nil {
		return "", "", fmt.Errorf("encode unique keys of %s: %w", info.ID, err)
	}

	return string(values), string(uniqueKeys), nil
}

// replaceUniqueKeys rewrites the lookup rows of the document's unique keys.
func (t *tx) replaceUniqueKeys(ctx context.Context, info *database.DocInfo) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM unique_keys WHERE doc_id = ?`, info.ID.String()); err != nil {
		return fmt.Errorf("delete unique keys of %s: %w", info.ID, err)
	}

	for _, key := range info.UniqueKeys {
		if _, err := t.q.ExecContext(
			ctx,
			`INSERT INTO unique_keys (unique_key, doc_id) VALUES (?, ?)`,
			key, info.ID.String(),
		); err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("unique key %s: %w", key, database.ErrConcurrentModification)
			}
			return fmt.Errorf("insert unique key of %s: %w", info.ID, err)
		}
	}
	return nil
}

func (t *tx) UpsertLinkInfo(ctx context.Context, info *database.LinkInfo) error {
	if _, err := t.q.ExecContext(
		ctx,
		`INSERT INTO document_links (source_id, field, target_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source_id, field) DO UPDATE SET
			target_id = excluded.target_id,
			created_by = excluded.created_by,
			created_at = excluded.created_at`,
		info.SourceID.String(), info.Field, info.TargetID.String(), info.CreatedBy, toNanos(info.CreatedAt),
	); err != nil {
		return fmt.Errorf("upsert link %s.%s: %w", info.SourceID, info.Field, err)
	}
	return nil
}

func (t *tx) DeleteLinkInfo(ctx context.Context, sourceID types.ID, field string) error {
	if _, err := t.q.ExecContext(
		ctx,
		`DELETE FROM document_links WHERE source_id = ? AND field = ?`,
		sourceID.String(), field,
	); err != nil {
		return fmt.Errorf("delete link %s.%s: %w", sourceID, field, err)
	}
	return nil
}

func (t *tx) ReplaceLinkMultipleInfos(
	ctx context.Context,
	sourceID types.ID,
	field string,
	infos []*database.LinkMultipleInfo,
) error {
	if _, err := t.q.ExecContext(
		ctx,
		`DELETE FROM document_links_multiple WHERE source_id = ? AND field = ?`,
		sourceID.String(), field,
	); err != nil {
		return fmt.Errorf("delete links %s.%s: %w", sourceID, field, err)
	}

	for _, info := range infos {
		if _, err := t.q.ExecContext(
			ctx,
			`INSERT INTO document_links_multiple (source_id, field, position, target_id, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			sourceID.String(), field, info.Order, info.TargetID.String(), toNanos(info.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert links %s.%s: %w", sourceID, field, err)
		}
	}
	return nil
}

func (t *tx) DeleteOutgoingEdges(ctx context.Context, sourceID types.ID) (int, error) {
	var removed int64
	for _, table := range []string{"document_links", "document_links_multiple"} {
		res, err := t.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE source_id = ?`, sourceID.String())
		if err != nil {
			return 0, fmt.Errorf("delete %s of %s: %w", table, sourceID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete %s of %s: %w", table, sourceID, err)
		}
		removed += n
	}
	return int(removed), nil
}

func (t *tx) CreateVersionInfo(ctx context.Context, info *database.VersionInfo) error {
	snapshot := info.Snapshot
	if snapshot == nil {
		snapshot = []byte{}
	}
	diff := info.Diff
	if diff == nil {
		diff = []byte{}
	}

	if _, err := t.q.ExecContext(
		ctx,
		`INSERT INTO document_versions (`+versionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.DocID.String(), info.Number, snapshot, diff, info.ChangedBy, toNanos(info.ChangedAt),
		info.Comment, info.DataHash, info.Signature,
	); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("version %d of %s: %w", info.Number, info.DocID, database.ErrConcurrentModification)
		}
		return fmt.Errorf("insert version %d of %s: %w", info.Number, info.DocID, err)
	}
	return nil
}
