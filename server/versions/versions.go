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

// Package versions is the version engine: every accepted mutation of a
// document appends an immutable, hashed and signed snapshot. Versions can be
// listed, compared, verified and restored.
package versions

import (
	"context"
	"encoding/json"
	"fmt"
	gotime "time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/links"
	"github.com/docvault/docvault/server/schemas"
)

// MaxListLimit is the largest limit List accepts.
const MaxListLimit = 1000

var (
	// ErrIntegrityCheckFailed is returned when a stored version does not
	// match its hash or signature.
	ErrIntegrityCheckFailed = errors.DataLoss("integrity check failed").WithCode("ErrIntegrityCheckFailed")

	// ErrInvalidLimit is returned when the limit of List is out of range.
	ErrInvalidLimit = errors.InvalidArgument("limit must be between 1 and 1000").WithCode("ErrInvalidLimit")

	// ErrInvalidDiffFormat is returned for an unknown comparison format.
	ErrInvalidDiffFormat = errors.InvalidArgument("invalid diff format").WithCode("ErrInvalidDiffFormat")
)

// Append stores the next version of the document: the snapshot of next, its
// diff against the current values of info, its hash and its signature. The
// number is the current version of info plus one. Append does not update
// info; see Commit.
func Append(
	ctx context.Context,
	be *backend.Backend,
	tx database.Tx,
	info *database.DocInfo,
	next types.Values,
	actor string,
	comment string,
	changedAt gotime.Time,
) (*types.DocumentVersion, error) {
	snapshot, err := next.Canonical()
	if err != nil {
		return nil, fmt.Errorf("append version of %s: %w", info.ID, err)
	}

	diff := ComputeDiff(info.Values, next)
	encodedDiff, err := json.Marshal(diff)
	if err != nil {
		return nil, fmt.Errorf("append version of %s: marshal diff: %w", info.ID, err)
	}

	dataHash, signature := be.Signer.Seal(snapshot)
	versionInfo := &database.VersionInfo{
		DocID:     info.ID,
		Number:    info.CurrentVersion + 1,
		Snapshot:  snapshot,
		Diff:      encodedDiff,
		ChangedBy: actor,
		ChangedAt: changedAt,
		Comment:   comment,
		DataHash:  dataHash,
		Signature: signature,
	}
	if err := tx.CreateVersionInfo(ctx, versionInfo); err != nil {
		return nil, fmt.Errorf("append version %d of %s: %w", versionInfo.Number, info.ID, err)
	}

	return &types.DocumentVersion{
		DocID:     versionInfo.DocID,
		Number:    versionInfo.Number,
		Snapshot:  next.Clone(),
		Diff:      diff,
		ChangedBy: actor,
		ChangedAt: changedAt,
		Comment:   comment,
		DataHash:  dataHash,
		Signature: signature,
		Verified:  true,
	}, nil
}

// Commit makes next the values of the document inside tx: it checks unique
// fields, reconciles link edges, appends a version and writes the document
// with its current version advanced. isNew selects between creating and
// updating the document row.
func Commit(
	ctx context.Context,
	be *backend.Backend,
	tx database.Tx,
	doctype *types.Doctype,
	info *database.DocInfo,
	next types.Values,
	isNew bool,
	actor string,
	comment string,
) (*types.DocumentVersion, error) {
	keys, err := schemas.CheckUnique(ctx, tx, doctype, info.ID, next)
	if err != nil {
		return nil, err
	}

	if err := links.Reconcile(ctx, tx, info.ID, doctype, next, actor); err != nil {
		return nil, err
	}

	now := gotime.Now().UTC()
	version, err := Append(ctx, be, tx, info, next, actor, comment, now)
	if err != nil {
		return nil, err
	}

	info.Name = schemas.NameOf(doctype, info.ID, next)
	info.Values = next
	info.UniqueKeys = keys
	info.CurrentVersion = version.Number
	info.ModifiedBy = actor
	info.ModifiedAt = now

	if isNew {
		info.CreatedBy = actor
		info.CreatedAt = now
		if err := tx.CreateDocInfo(ctx, info); err != nil {
			return nil, fmt.Errorf("create document %s: %w", info.ID, err)
		}
		return version, nil
	}

	if err := tx.UpdateDocInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("update document %s: %w", info.ID, err)
	}
	return version, nil
}

// List returns the summaries of the versions of the document, newest
// first. A limit of 0 returns every version.
func List(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	limit int,
) ([]*types.VersionSummary, error) {
	if limit < 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("list versions with limit %d: %w", limit, ErrInvalidLimit)
	}

	doc, err := be.DB.FindDocInfoByID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", docID, err)
	}

	infos, err := be.DB.FindVersionInfos(ctx, docID, limit)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", docID, err)
	}

	summaries := make([]*types.VersionSummary, 0, len(infos))
	for _, info := range infos {
		diff, err := decodeDiff(info.Diff)
		if err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", docID, err)
		}

		summaries = append(summaries, &types.VersionSummary{
			Number:         info.Number,
			ChangedBy:      info.ChangedBy,
			ChangedAt:      info.ChangedAt,
			Comment:        info.Comment,
			ChangesSummary: diff.Summary(),
			IsCurrent:      info.Number == doc.CurrentVersion,
		})
	}
	return summaries, nil
}

// Get returns the given version with its snapshot and diff. The version is
// verified first: a failure is recorded and ErrIntegrityCheckFailed returned.
func Get(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	number int64,
	actor string,
) (*types.DocumentVersion, error) {
	info, err := be.DB.FindVersionInfo(ctx, docID, number)
	if err != nil {
		return nil, fmt.Errorf("get version %d of %s: %w", number, docID, err)
	}

	verified, err := Verify(ctx, be, info, actor)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, fmt.Errorf("get version %d of %s: %w", number, docID, ErrIntegrityCheckFailed)
	}

	version, err := toVersion(info)
	if err != nil {
		return nil, fmt.Errorf("get version %d of %s: %w", number, docID, err)
	}
	version.Verified = true
	return version, nil
}

// Compare returns the direct difference between two versions. With
// DiffUnified the result also carries a line based diff of the indented
// snapshots. Fields, when given, restrict the comparison.
func Compare(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	from, to int64,
	format types.DiffFormat,
	fields ...string,
) (*types.Comparison, error) {
	if format == "" {
		format = types.DiffStructured
	}
	if format != types.DiffStructured && format != types.DiffUnified {
		return nil, fmt.Errorf("compare versions of %s as %q: %w", docID, format, ErrInvalidDiffFormat)
	}

	fromValues, err := snapshotOf(ctx, be, docID, from)
	if err != nil {
		return nil, err
	}
	toValues, err := snapshotOf(ctx, be, docID, to)
	if err != nil {
		return nil, err
	}
	fromValues, toValues = only(fromValues, fields), only(toValues, fields)

	comparison := &types.Comparison{
		From: from,
		To:   to,
		Diff: ComputeDiff(fromValues, toValues),
	}

	if format == types.DiffUnified {
		a, err := indented(fromValues)
		if err != nil {
			return nil, err
		}
		b, err := indented(toValues)
		if err != nil {
			return nil, err
		}
		comparison.Unified = unified(
			fmt.Sprintf("Version %d", from),
			fmt.Sprintf("Version %d", to),
			a, b,
		)
	}

	return comparison, nil
}

func snapshotOf(ctx context.Context, be *backend.Backend, docID types.ID, number int64) (types.Values, error) {
	info, err := be.DB.FindVersionInfo(ctx, docID, number)
	if err != nil {
		return nil, fmt.Errorf("find version %d of %s: %w", number, docID, err)
	}

	values, err := types.DecodeValues(info.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode version %d of %s: %w", number, docID, err)
	}
	return values, nil
}

func decodeDiff(data []byte) (*types.Diff, error) {
	diff := types.NewDiff()
	if len(data) == 0 {
		return diff, nil
	}
	if err := json.Unmarshal(data, diff); err != nil {
		return nil, fmt.Errorf("decode diff: %w", err)
	}

	if diff.Added == nil {
		diff.Added = types.Values{}
	}
	if diff.Modified == nil {
		diff.Modified = map[string]types.ValueChange{}
	}
	if diff.Removed == nil {
		diff.Removed = types.Values{}
	}
	return diff, nil
}

func toVersion(info *database.VersionInfo) (*types.DocumentVersion, error) {
	snapshot, err := types.DecodeValues(info.Snapshot)
	if err != nil {
		return nil, err
	}
	diff, err := decodeDiff(info.Diff)
	if err != nil {
		return nil, err
	}

	return &types.DocumentVersion{
		DocID:     info.DocID,
		Number:    info.Number,
		Snapshot:  snapshot,
		Diff:      diff,
		ChangedBy: info.ChangedBy,
		ChangedAt: info.ChangedAt,
		Comment:   info.Comment,
		DataHash:  info.DataHash,
		Signature: info.Signature,
	}, nil
}
