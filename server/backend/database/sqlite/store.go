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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const (
	doctypeColumns = `name, description, fields, is_child, name_field, created_at, updated_at`

	documentColumns = `id, doctype, name, doc_values, parent_id, parent_field, current_version,
	unique_keys, created_by, created_at, modified_by, modified_at, is_deleted`

	versionColumns = `doc_id, number, snapshot, diff, changed_by, changed_at, comment, data_hash, signature`

	integrityLogColumns = `id, doc_id, version_number, checked_at, checked_by, passed, expected_hash, actual_hash`
)

// toNanos converts t to the stored representation. The zero time is stored
// as 0.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func scanDoctypeInfo(s scanner) (*database.DoctypeInfo, error) {
	var (
		info                 database.DoctypeInfo
		fields               string
		createdAt, updatedAt int64
	)
	if err := s.Scan(
		&info.Name, &info.Description, &fields, &info.IsChild, &info.NameField, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fields), &info.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", info.Name, err)
	}
	info.CreatedAt = fromNanos(createdAt)
	info.UpdatedAt = fromNanos(updatedAt)
	return &info, nil
}

func scanDocInfo(s scanner) (*database.DocInfo, error) {
	var (
		info                  database.DocInfo
		id, parentID          string
		values, uniqueKeys    string
		createdAt, modifiedAt int64
	)
	if err := s.Scan(
		&id, &info.Doctype, &info.Name, &values, &parentID, &info.ParentField, &info.CurrentVersion,
		&uniqueKeys, &info.CreatedBy, &createdAt, &info.ModifiedBy, &modifiedAt, &info.IsDeleted,
	); err != nil {
		return nil, err
	}

	decoded, err := types.DecodeValues([]byte(values))
	if err != nil {
		return nil, fmt.Errorf("decode values of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(uniqueKeys), &info.UniqueKeys); err != nil {
		return nil, fmt.Errorf("decode unique keys of %s: %w", id, err)
	}

	info.ID = types.ID(id)
	info.ParentID = types.ID(parentID)
	info.Values = decoded
	info.CreatedAt = fromNanos(createdAt)
	info.ModifiedAt = fromNanos(modifiedAt)
	return &info, nil
}

func scanVersionInfo(s scanner) (*database.VersionInfo, error) {
	var (
		info      database.VersionInfo
		docID     string
		changedAt int64
	)
	if err := s.Scan(
		&docID, &info.Number, &info.Snapshot, &info.Diff, &info.ChangedBy, &changedAt,
		&info.Comment, &info.DataHash, &info.Signature,
	); err != nil {
		return nil, err
	}

	info.DocID = types.ID(docID)
	info.ChangedAt = fromNanos(changedAt)
	return &info, nil
}

func scanIntegrityLogInfo(s scanner) (*database.IntegrityLogInfo, error) {
	var (
		info      database.IntegrityLogInfo
		id, docID string
		checkedAt int64
	)
	if err := s.Scan(
		&id, &docID, &info.VersionNumber, &checkedAt, &info.CheckedBy, &info.Passed,
		&info.ExpectedHash, &info.ActualHash,
	); err != nil {
		return nil, err
	}

	info.ID = types.ID(id)
	info.DocID = types.ID(docID)
	info.CheckedAt = fromNanos(checkedAt)
	return &info, nil
}

// store implements database.Reader on a querier.
type store struct {
	q querier
}

func (s *store) FindDoctypeInfo(ctx context.Context, name string) (*database.DoctypeInfo, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+doctypeColumns+` FROM doctypes WHERE name = ?`, name)
	info, err := scanDoctypeInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, database.ErrDoctypeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find doctype of %s: %w", name, err)
	}
	return info, nil
}

func (s *store) FindDocInfoByID(ctx context.Context, id types.ID) (*database.DocInfo, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id.String())
	info, err := scanDocInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, database.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", id, err)
	}
	return info, nil
}

func (s *store) FindDocInfosByIDs(ctx context.Context, ids []types.ID) ([]*database.DocInfo, error) {
	var infos []*database.DocInfo
	for _, id := range ids {
		info, err := s.FindDocInfoByID(ctx, id)
		if errors.Is(err, database.ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *store) queryDocInfos(ctx context.Context, query string, args ...any) ([]*database.DocInfo, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.DocInfo
	for rows.Next() {
		info, err := scanDocInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *store) FindChildDocInfos(ctx context.Context, parentID types.ID) ([]*database.DocInfo, error) {
	infos, err := s.queryDocInfos(
		ctx,
		`SELECT `+documentColumns+` FROM documents WHERE parent_id = ? ORDER BY created_at, id`,
		parentID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("find children of %s: %w", parentID, err)
	}
	return infos, nil
}

func (s *store) FindDocInfoByUniqueKey(ctx context.Context, key string) (*database.DocInfo, error) {
	infos, err := s.queryDocInfos(
		ctx,
		`SELECT `+documentColumns+` FROM documents
		WHERE id IN (SELECT doc_id FROM unique_keys WHERE unique_key = ?) AND is_deleted = 0`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("find document by unique key %s: %w", key, err)
	}
	if len(infos) == 0 {
		return nil, nil
	}
	return infos[0], nil
}

func (s *store) FindLinkInfo(ctx context.Context, sourceID types.ID, field string) (*database.LinkInfo, error) {
	var (
		info      database.LinkInfo
		targetID  string
		createdAt int64
	)
	err := s.q.QueryRowContext(
		ctx,
		`SELECT target_id, created_by, created_at FROM document_links WHERE source_id = ? AND field = ?`,
		sourceID.String(), field,
	).Scan(&targetID, &info.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find link %s.%s: %w", sourceID, field, err)
	}

	info.SourceID = sourceID
	info.Field = field
	info.TargetID = types.ID(targetID)
	info.CreatedAt = fromNanos(createdAt)
	return &info, nil
}

func (s *store) FindLinkMultipleInfos(
	ctx context.Context,
	sourceID types.ID,
	field string,
) ([]*database.LinkMultipleInfo, error) {
	rows, err := s.q.QueryContext(
		ctx,
		`SELECT position, target_id, created_at FROM document_links_multiple
		WHERE source_id = ? AND field = ? ORDER BY position`,
		sourceID.String(), field,
	)
	if err != nil {
		return nil, fmt.Errorf("find links %s.%s: %w", sourceID, field, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.LinkMultipleInfo
	for rows.Next() {
		var (
			targetID  string
			createdAt int64
		)
		info := &database.LinkMultipleInfo{SourceID: sourceID, Field: field}
		if err := rows.Scan(&info.Order, &targetID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan links %s.%s: %w", sourceID, field, err)
		}
		info.TargetID = types.ID(targetID)
		info.CreatedAt = fromNanos(createdAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// edgesQuery selects the edges of both kinds matching the given column.
const edgesQuery = `SELECT source_id, field, target_id, 0 AS position FROM document_links WHERE %[1]s = ?
	UNION ALL
	SELECT source_id, field, target_id, position FROM document_links_multiple WHERE %[1]s = ?
	ORDER BY source_id, field, position`

func (s *store) findEdges(ctx context.Context, column string, id types.ID) ([]types.Edge, error) {
	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(edgesQuery, column), id.String(), id.String())
	if err != nil {
		return nil, fmt.Errorf("find edges by %s %s: %w", column, id, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var edges []types.Edge
	for rows.Next() {
		var (
			sourceID, field, targetID string
			position                  int
		)
		if err := rows.Scan(&sourceID, &field, &targetID, &position); err != nil {
			return nil, fmt.Errorf("scan edges by %s %s: %w", column, id, err)
		}
		edges = append(edges, types.Edge{
			SourceID: types.ID(sourceID),
			Field:    field,
			TargetID: types.ID(targetID),
		})
	}
	return edges, rows.Err()
}

func (s *store) FindOutgoingEdges(ctx context.Context, sourceID types.ID) ([]types.Edge, error) {
	return s.findEdges(ctx, "source_id", sourceID)
}

func (s *store) FindIncomingEdges(ctx context.Context, targetID types.ID) ([]types.Edge, error) {
	return s.findEdges(ctx, "target_id", targetID)
}

func (s *store) FindVersionInfo(ctx context.Context, docID types.ID, number int64) (*database.VersionInfo, error) {
	row := s.q.QueryRowContext(
		ctx,
		`SELECT `+versionColumns+` FROM document_versions WHERE doc_id = ? AND number = ?`,
		docID.String(), number,
	)
	info, err := scanVersionInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("version %d of %s: %w", number, docID, database.ErrVersionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find version %d of %s: %w", number, docID, err)
	}
	return info, nil
}

func (s *store) FindVersionInfos(ctx context.Context, docID types.ID, limit int) ([]*database.VersionInfo, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE doc_id = ? ORDER BY number DESC`
	args := []any{docID.String()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find versions of %s: %w", docID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.VersionInfo
	for rows.Next() {
		info, err := scanVersionInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan versions of %s: %w", docID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
