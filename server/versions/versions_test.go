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

package versions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/documents"
	"github.com/docvault/docvault/server/links"
	"github.com/docvault/docvault/server/schemas"
	"github.com/docvault/docvault/server/versions"
	"github.com/docvault/docvault/test/helper"
)

const actor = "alice"

// tamperedDB rewrites the stored snapshot of one version on every read, as
// if the row had been edited behind the engine's back.
type tamperedDB struct {
	database.Database

	docID  types.ID
	number int64
	old    []byte
	new    []byte
}

func (d *tamperedDB) tamper(info *database.VersionInfo) *database.VersionInfo {
	if info.DocID != d.docID || info.Number != d.number {
		return info
	}
	clone := *info
	clone.Snapshot = bytes.Replace(info.Snapshot, d.old, d.new, 1)
	return &clone
}

func (d *tamperedDB) FindVersionInfo(ctx context.Context, docID types.ID, number int64) (*database.VersionInfo, error) {
	info, err := d.Database.FindVersionInfo(ctx, docID, number)
	if err != nil {
		return nil, err
	}
	return d.tamper(info), nil
}

func (d *tamperedDB) FindVersionInfos(ctx context.Context, docID types.ID, limit int) ([]*database.VersionInfo, error) {
	infos, err := d.Database.FindVersionInfos(ctx, docID, limit)
	if err != nil {
		return nil, err
	}
	for i, info := range infos {
		infos[i] = d.tamper(info)
	}
	return infos, nil
}

func saveOrder(t *testing.T, be *backend.Backend, id types.ID, input map[string]any) *types.Document {
	doc, err := documents.SaveDocument(context.Background(), be, helper.Order, id, input, actor)
	require.NoError(t, err)
	return doc
}

func TestVersions(t *testing.T) {
	ctx := context.Background()

	t.Run("added field diff test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1"})
		assert.Equal(t, int64(1), order.CurrentVersion)
		order = saveOrder(t, be, order.ID, map[string]any{"number": "ORD-1", "notes": "urgent"})
		assert.Equal(t, int64(2), order.CurrentVersion)

		comparison, err := versions.Compare(ctx, be, order.ID, 1, 2, types.DiffStructured)
		require.NoError(t, err)
		assert.Equal(t, types.Values{"notes": types.Text("urgent")}, comparison.Diff.Added)
		assert.Empty(t, comparison.Diff.Modified)
		assert.Empty(t, comparison.Diff.Removed)
		assert.Empty(t, comparison.Unified)

		v2, err := versions.Get(ctx, be, order.ID, 2, actor)
		require.NoError(t, err)
		assert.True(t, v2.Verified)
		assert.Equal(t, types.Values{"notes": types.Text("urgent")}, v2.Diff.Added)
		assert.Equal(t, actor, v2.ChangedBy)

		v1, err := versions.Get(ctx, be, order.ID, 1, actor)
		require.NoError(t, err)
		assert.Equal(t, types.Values{"number": types.Text("ORD-1")}, v1.Diff.Added)
	})

	t.Run("unified compare test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1", "notes": "call first"})
		saveOrder(t, be, order.ID, map[string]any{"notes": "urgent"})

		comparison, err := versions.Compare(ctx, be, order.ID, 1, 2, types.DiffUnified)
		require.NoError(t, err)
		assert.Contains(t, comparison.Diff.Modified, "notes")
		assert.Contains(t, comparison.Unified, "--- Version 1\n+++ Version 2\n@@ ")
		assert.Contains(t, comparison.Unified, "-    \"text\": \"call first\"\n")
		assert.Contains(t, comparison.Unified, "+    \"text\": \"urgent\"\n")

		filtered, err := versions.Compare(ctx, be, order.ID, 1, 2, types.DiffUnified, "number")
		require.NoError(t, err)
		assert.True(t, filtered.Diff.IsEmpty())
		assert.Empty(t, filtered.Unified)

		_, err = versions.Compare(ctx, be, order.ID, 1, 2, "xml")
		assert.ErrorIs(t, err, versions.ErrInvalidDiffFormat)

		_, err = versions.Compare(ctx, be, order.ID, 1, 3, types.DiffStructured)
		assert.ErrorIs(t, err, database.ErrVersionNotFound)
	})

	t.Run("compare with itself is empty test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1", "notes": "a"})
		saveOrder(t, be, order.ID, map[string]any{"notes": "b"})

		for _, n := range []int64{1, 2} {
			comparison, err := versions.Compare(ctx, be, order.ID, n, n, types.DiffUnified)
			require.NoError(t, err)
			assert.True(t, comparison.Diff.IsEmpty())
			assert.Empty(t, comparison.Unified)
		}
	})

	t.Run("list test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1"})
		for _, notes := range []string{"a", "b", "c"} {
			saveOrder(t, be, order.ID, map[string]any{"notes": notes})
		}

		summaries, err := versions.List(ctx, be, order.ID, 2)
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, int64(4), summaries[0].Number)
		assert.True(t, summaries[0].IsCurrent)
		assert.Equal(t, "1 field modified", summaries[0].ChangesSummary)
		assert.Equal(t, int64(3), summaries[1].Number)
		assert.False(t, summaries[1].IsCurrent)

		all, err := versions.List(ctx, be, order.ID, 0)
		require.NoError(t, err)
		assert.Len(t, all, 4)
		assert.Equal(t, "1 field added", all[3].ChangesSummary)

		for _, limit := range []int{-1, versions.MaxListLimit + 1} {
			_, err = versions.List(ctx, be, order.ID, limit)
			assert.ErrorIs(t, err, versions.ErrInvalidLimit)
			assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))
		}
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("restore appends a version equal to the target test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1", "notes": "first"})
		saveOrder(t, be, order.ID, map[string]any{"notes": "second"})
		saveOrder(t, be, order.ID, map[string]any{"notes": nil})

		before, err := versions.Get(ctx, be, order.ID, 1, actor)
		require.NoError(t, err)

		restored, err := versions.Restore(ctx, be, order.ID, 1, "bob", "")
		require.NoError(t, err)
		assert.Equal(t, int64(4), restored.Number)
		assert.Equal(t, "Restored to version 1", restored.Comment)
		assert.Equal(t, "bob", restored.ChangedBy)
		if diff := cmp.Diff(before.Snapshot, restored.Snapshot); diff != "" {
			t.Errorf("restored snapshot (-want +got):\n%s", diff)
		}

		comparison, err := versions.Compare(ctx, be, order.ID, 1, 4, types.DiffUnified)
		require.NoError(t, err)
		assert.True(t, comparison.Diff.IsEmpty())
		assert.Empty(t, comparison.Unified)

		after, err := versions.Get(ctx, be, order.ID, 1, actor)
		require.NoError(t, err)
		assert.Equal(t, before.DataHash, after.DataHash)
		assert.Equal(t, before.Signature, after.Signature)
		assert.Equal(t, before.ChangedAt, after.ChangedAt)

		doc, err := documents.GetDocument(ctx, be, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), doc.CurrentVersion)
		assert.Equal(t, "first", doc.Values["notes"].AsText())
	})

	t.Run("restore reconciles links test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane, err := documents.SaveDocument(ctx, be, helper.Customer, "", map[string]any{"name": "Jane"}, actor)
		require.NoError(t, err)
		john, err := documents.SaveDocument(ctx, be, helper.Customer, "", map[string]any{"name": "John"}, actor)
		require.NoError(t, err)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1", "customer": jane.ID})
		saveOrder(t, be, order.ID, map[string]any{"customer": john.ID})

		_, err = versions.Restore(ctx, be, order.ID, 1, actor, "back to Jane")
		require.NoError(t, err)

		target, err := links.GetLink(ctx, be, order.ID, "customer")
		require.NoError(t, err)
		assert.Equal(t, jane.ID, target.ID)

		require.NoError(t, documents.DeleteDocument(ctx, be, john.ID, actor))

		_, err = versions.Restore(ctx, be, order.ID, 2, actor, "")
		assert.ErrorIs(t, err, links.ErrInvalidLinkTarget)
	})

	t.Run("restore against a changed schema test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1", "notes": "first"})
		saveOrder(t, be, order.ID, map[string]any{"notes": nil})

		doctype := helper.OrderDoctype()
		for i, field := range doctype.Fields {
			if field.Name == "notes" {
				doctype.Fields = append(doctype.Fields[:i], doctype.Fields[i+1:]...)
				break
			}
		}
		_, err := schemas.UpdateDoctype(ctx, be, doctype)
		require.NoError(t, err)

		_, err = versions.Restore(ctx, be, order.ID, 1, actor, "")
		assert.ErrorIs(t, err, schemas.ErrUnknownField)

		doc, err := documents.GetDocument(ctx, be, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), doc.CurrentVersion)
	})

	t.Run("restore of a tampered version fails test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1"})
		saveOrder(t, be, order.ID, map[string]any{"notes": "urgent"})

		be.DB = &tamperedDB{
			Database: be.DB,
			docID:    order.ID,
			number:   1,
			old:      []byte("ORD-1"),
			new:      []byte("ORD-9"),
		}

		_, err := versions.Restore(ctx, be, order.ID, 1, actor, "")
		assert.ErrorIs(t, err, versions.ErrIntegrityCheckFailed)
		assert.Equal(t, errors.ErrCodeDataLoss, errors.StatusOf(err))

		doc, err := documents.GetDocument(ctx, be, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), doc.CurrentVersion)

		logs, err := versions.ListIntegrityLogs(ctx, be, order.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.False(t, logs[0].Passed)
		assert.Equal(t, int64(1), logs[0].VersionNumber)
		assert.NotEqual(t, logs[0].ExpectedHash, logs[0].ActualHash)

		_, err = versions.Get(ctx, be, order.ID, 1, actor)
		assert.ErrorIs(t, err, versions.ErrIntegrityCheckFailed)
		assert.Equal(t, errors.ErrCodeDataLoss, errors.StatusOf(err))

		logs, err = versions.ListIntegrityLogs(ctx, be, order.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		for _, entry := range logs {
			assert.False(t, entry.Passed)
		}

		v2, err := versions.Get(ctx, be, order.ID, 2, actor)
		require.NoError(t, err)
		assert.True(t, v2.Verified)

		failed, err := versions.VerifyHistory(ctx, be, order.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, failed)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("verify after append test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1"})
		saveOrder(t, be, order.ID, map[string]any{"notes": "urgent"})

		failed, err := versions.VerifyHistory(ctx, be, order.ID, actor)
		require.NoError(t, err)
		assert.Empty(t, failed)

		logs, err := versions.ListIntegrityLogs(ctx, be, order.ID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("record passed checks test", func(t *testing.T) {
		be := helper.TestBackend(t)
		be.Config.RecordPassedIntegrityChecks = true
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1"})
		_, err := versions.Get(ctx, be, order.ID, 1, "auditor")
		require.NoError(t, err)

		logs, err := versions.ListIntegrityLogs(ctx, be, order.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.True(t, logs[0].Passed)
		assert.Equal(t, "auditor", logs[0].CheckedBy)
	})

	t.Run("snapshot is canonical JSON test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order := saveOrder(t, be, "", map[string]any{"number": "ORD-1", "notes": "urgent"})
		info, err := be.DB.FindVersionInfo(ctx, order.ID, 1)
		require.NoError(t, err)

		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(info.Snapshot, &decoded))
		assert.Contains(t, decoded, "number")
		assert.Contains(t, decoded, "notes")

		values, err := types.DecodeValues(info.Snapshot)
		require.NoError(t, err)
		canonical, err := values.Canonical()
		require.NoError(t, err)
		assert.Equal(t, string(info.Snapshot), string(canonical))

		ok, err := versions.Verify(ctx, be, info, actor)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
