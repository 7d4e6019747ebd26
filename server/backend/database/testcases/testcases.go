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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

// RunAll runs every testcase against the given db.
func RunAll(t *testing.T, db database.Database) {
	t.Run("doctype info test", func(t *testing.T) {
		RunDoctypeInfoTest(t, db)
	})
	t.Run("doc info test", func(t *testing.T) {
		RunDocInfoTest(t, db)
	})
	t.Run("child doc infos test", func(t *testing.T) {
		RunFindChildDocInfosTest(t, db)
	})
	t.Run("unique key test", func(t *testing.T) {
		RunUniqueKeyTest(t, db)
	})
	t.Run("unique key conflict test", func(t *testing.T) {
		RunUniqueKeyConflictTest(t, db)
	})
	t.Run("link info test", func(t *testing.T) {
		RunLinkInfoTest(t, db)
	})
	t.Run("version info test", func(t *testing.T) {
		RunVersionInfoTest(t, db)
	})
	t.Run("integrity log info test", func(t *testing.T) {
		RunIntegrityLogInfoTest(t, db)
	})
	t.Run("tx rollback test", func(t *testing.T) {
		RunTxRollbackTest(t, db)
	})
}

func newDocInfo(doctype string, values types.Values) *database.DocInfo {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &database.DocInfo{
		ID:         types.NewID(),
		Doctype:    doctype,
		Values:     values,
		CreatedBy:  "tester",
		CreatedAt:  now,
		ModifiedBy: "tester",
		ModifiedAt: now,
	}
}

func createDocInfo(t *testing.T, db database.Database, info *database.DocInfo) {
	t.Helper()
	require.NoError(t, db.RunTx(context.Background(), func(ctx context.Context, tx database.Tx) error {
		return tx.CreateDocInfo(ctx, info)
	}))
}

// RunDoctypeInfoTest runs the doctype testcases for the given db.
func RunDoctypeInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	t.Run("create and find test", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		info := &database.DoctypeInfo{
			Name:        "customer",
			Description: "people who buy",
			Fields: []*types.FieldDef{
				{Name: "customer_name", Type: types.FieldText, Required: true},
				{Name: "credit", Type: types.FieldNumber},
			},
			NameField: "customer_name",
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, db.CreateDoctypeInfo(ctx, info))
		assert.ErrorIs(t, db.CreateDoctypeInfo(ctx, info), database.ErrDoctypeAlreadyExists)

		found, err := db.FindDoctypeInfo(ctx, "customer")
		require.NoError(t, err)
		assert.Equal(t, "people who buy", found.Description)
		assert.Equal(t, "customer_name", found.NameField)
		require.Len(t, found.Fields, 2)
		assert.Equal(t, types.FieldNumber, found.Fields[1].Type)
		assert.True(t, found.CreatedAt.Equal(now))

		_, err = db.FindDoctypeInfo(ctx, "vendor")
		assert.ErrorIs(t, err, database.ErrDoctypeNotFound)
	})

	t.Run("update test", func(t *testing.T) {
		info, err := db.FindDoctypeInfo(ctx, "customer")
		require.NoError(t, err)

		info.Fields = append(info.Fields, &types.FieldDef{Name: "active", Type: types.FieldBoolean})
		info.UpdatedAt = time.Now().UTC()
		require.NoError(t, db.UpdateDoctypeInfo(ctx, info))

		found, err := db.FindDoctypeInfo(ctx, "customer")
		require.NoError(t, err)
		assert.Len(t, found.Fields, 3)

		missing := &database.DoctypeInfo{Name: "vendor"}
		assert.ErrorIs(t, db.UpdateDoctypeInfo(ctx, missing), database.ErrDoctypeNotFound)
	})

	t.Run("list test", func(t *testing.T) {
		for _, name := range []string{"zone", "address"} {
			require.NoError(t, db.CreateDoctypeInfo(ctx, &database.DoctypeInfo{
				Name:   name,
				Fields: []*types.FieldDef{{Name: "title", Type: types.FieldText}},
			}))
		}

		infos, err := db.ListDoctypeInfos(ctx)
		require.NoError(t, err)

		var names []string
		for _, info := range infos {
			names = append(names, info.Name)
		}
		assert.Equal(t, []string{"address", "customer", "zone"}, names)
	})
}

// RunDocInfoTest runs the document testcases for the given db.
func RunDocInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	t.Run("create and find test", func(t *testing.T) {
		info := newDocInfo("customer", types.Values{
			"customer_name": types.Text("Jane"),
			"credit":        types.Number(12.5),
		})
		info.Name = "Jane"
		info.CurrentVersion = 1
		createDocInfo(t, db, info)

		err := db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.CreateDocInfo(ctx, info)
		})
		assert.ErrorIs(t, err, database.ErrDocumentAlreadyExists)

		found, err := db.FindDocInfoByID(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane", found.Name)
		assert.Equal(t, int64(1), found.CurrentVersion)
		assert.True(t, found.Values.Equal(info.Values))
		assert.True(t, found.CreatedAt.Equal(info.CreatedAt))

		_, err = db.FindDocInfoByID(ctx, types.NewID())
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("update test", func(t *testing.T) {
		info := newDocInfo("customer", types.Values{"customer_name": types.Text("John")})
		createDocInfo(t, db, info)

		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			locked, err := tx.LockDocInfo(ctx, info.ID)
			if err != nil {
				return err
			}
			locked.Values["credit"] = types.Number(3)
			locked.CurrentVersion = 2
			locked.IsDeleted = true
			return tx.UpdateDocInfo(ctx, locked)
		}))

		found, err := db.FindDocInfoByID(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), found.CurrentVersion)
		assert.True(t, found.IsDeleted)
		assert.Equal(t, float64(3), found.Values["credit"].AsNumber())

		err = db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.UpdateDocInfo(ctx, newDocInfo("customer", nil))
		})
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("returned infos are copies test", func(t *testing.T) {
		info := newDocInfo("customer", types.Values{"customer_name": types.Text("Copy")})
		createDocInfo(t, db, info)
		info.Values["customer_name"] = types.Text("Changed")

		found, err := db.FindDocInfoByID(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, "Copy", found.Values["customer_name"].AsText())

		found.Values["customer_name"] = types.Text("Changed")
		again, err := db.FindDocInfoByID(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, "Copy", again.Values["customer_name"].AsText())
	})

	t.Run("find by ids test", func(t *testing.T) {
		a := newDocInfo("customer", nil)
		b := newDocInfo("customer", nil)
		createDocInfo(t, db, a)
		createDocInfo(t, db, b)

		infos, err := db.FindDocInfosByIDs(ctx, []types.ID{b.ID, types.NewID(), a.ID})
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, b.ID, infos[0].ID)
		assert.Equal(t, a.ID, infos[1].ID)
	})
}

// RunFindChildDocInfosTest runs the table row testcases for the given db.
func RunFindChildDocInfosTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	parent := newDocInfo("sales_order", nil)
	createDocInfo(t, db, parent)

	base := time.Now().UTC().Truncate(time.Millisecond)
	var rows []*database.DocInfo
	for i := 0; i < 3; i++ {
		row := newDocInfo("sales_order_item", types.Values{"qty": types.Number(float64(i))})
		row.ParentID = parent.ID
		row.ParentField = "items"
		row.CreatedAt = base.Add(time.Duration(2-i) * time.Second)
		rows = append(rows, row)
		createDocInfo(t, db, row)
	}

	children, err := db.FindChildDocInfos(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, rows[2].ID, children[0].ID)
	assert.Equal(t, rows[1].ID, children[1].ID)
	assert.Equal(t, rows[0].ID, children[2].ID)
	assert.Equal(t, "items", children[0].ParentField)

	none, err := db.FindChildDocInfos(ctx, types.NewID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

// RunUniqueKeyTest runs the unique key testcases for the given db.
func RunUniqueKeyTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	key := database.UniqueKey("customer", "email", []byte(`"jane@example.com"`))

	found, err := db.FindDocInfoByUniqueKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)

	info := newDocInfo("customer", nil)
	info.UniqueKeys = []string{key}
	createDocInfo(t, db, info)

	found, err = db.FindDocInfoByUniqueKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, info.ID, found.ID)

	require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		locked, err := tx.LockDocInfo(ctx, info.ID)
		if err != nil {
			return err
		}
		locked.IsDeleted = true
		locked.UniqueKeys = nil
		return tx.UpdateDocInfo(ctx, locked)
	}))

	found, err = db.FindDocInfoByUniqueKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)
}

// RunUniqueKeyConflictTest runs the testcases of two documents claiming the
// same unique key for the given db.
func RunUniqueKeyConflictTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	key := database.UniqueKey("customer", "email", []byte(`"john@example.com"`))

	first := newDocInfo("customer", nil)
	first.UniqueKeys = []string{key}
	createDocInfo(t, db, first)

	second := newDocInfo("customer", nil)
	second.UniqueKeys = []string{key}
	err := db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		return tx.CreateDocInfo(ctx, second)
	})
	assert.ErrorIs(t, err, database.ErrConcurrentModification)

	_, err = db.FindDocInfoByID(ctx, second.ID)
	assert.ErrorIs(t, err, database.ErrDocumentNotFound)

	second.UniqueKeys = nil
	createDocInfo(t, db, second)
	err = db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		locked, err := tx.LockDocInfo(ctx, second.ID)
		if err != nil {
			return err
		}
		locked.UniqueKeys = []string{key}
		return tx.UpdateDocInfo(ctx, locked)
	})
	assert.ErrorIs(t, err, database.ErrConcurrentModification)

	require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		locked, err := tx.LockDocInfo(ctx, first.ID)
		if err != nil {
			return err
		}
		locked.UniqueKeys = nil
		return tx.UpdateDocInfo(ctx, locked)
	}))
	require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		locked, err := tx.LockDocInfo(ctx, second.ID)
		if err != nil {
			return err
		}
		locked.UniqueKeys = []string{key}
		return tx.UpdateDocInfo(ctx, locked)
	}))

	found, err := db.FindDocInfoByUniqueKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.ID)
}

// RunLinkInfoTest runs the edge testcases for the given db.
func RunLinkInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	customer := newDocInfo("customer", nil)
	tagA := newDocInfo("tag", nil)
	tagB := newDocInfo("tag", nil)
	order := newDocInfo("sales_order", nil)
	for _, info := range []*database.DocInfo{customer, tagA, tagB, order} {
		createDocInfo(t, db, info)
	}

	t.Run("link test", func(t *testing.T) {
		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.UpsertLinkInfo(ctx, &database.LinkInfo{
				SourceID:  order.ID,
				Field:     "customer",
				TargetID:  customer.ID,
				CreatedBy: "tester",
				CreatedAt: now,
			})
		}))

		link, err := db.FindLinkInfo(ctx, order.ID, "customer")
		require.NoError(t, err)
		require.NotNil(t, link)
		assert.Equal(t, customer.ID, link.TargetID)

		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.UpsertLinkInfo(ctx, &database.LinkInfo{
				SourceID:  order.ID,
				Field:     "customer",
				TargetID:  tagA.ID,
				CreatedBy: "tester",
				CreatedAt: now,
			})
		}))
		link, err = db.FindLinkInfo(ctx, order.ID, "customer")
		require.NoError(t, err)
		assert.Equal(t, tagA.ID, link.TargetID)

		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			if err := tx.DeleteLinkInfo(ctx, order.ID, "customer"); err != nil {
				return err
			}
			return tx.DeleteLinkInfo(ctx, order.ID, "missing")
		}))
		link, err = db.FindLinkInfo(ctx, order.ID, "customer")
		require.NoError(t, err)
		assert.Nil(t, link)
	})

	t.Run("link multiple test", func(t *testing.T) {
		replace := func(ids ...types.ID) {
			infos := make([]*database.LinkMultipleInfo, 0, len(ids))
			for i, id := range ids {
				infos = append(infos, &database.LinkMultipleInfo{
					SourceID:  order.ID,
					Field:     "tags",
					Order:     i,
					TargetID:  id,
					CreatedAt: now,
				})
			}
			require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
				return tx.ReplaceLinkMultipleInfos(ctx, order.ID, "tags", infos)
			}))
		}

		replace(tagB.ID, tagA.ID)
		infos, err := db.FindLinkMultipleInfos(ctx, order.ID, "tags")
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, tagB.ID, infos[0].TargetID)
		assert.Equal(t, tagA.ID, infos[1].TargetID)

		replace(tagA.ID)
		infos, err = db.FindLinkMultipleInfos(ctx, order.ID, "tags")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, 0, infos[0].Order)
		assert.Equal(t, tagA.ID, infos[0].TargetID)
	})

	t.Run("edges test", func(t *testing.T) {
		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.UpsertLinkInfo(ctx, &database.LinkInfo{
				SourceID:  order.ID,
				Field:     "customer",
				TargetID:  customer.ID,
				CreatedAt: now,
			})
		}))

		other := newDocInfo("sales_order", nil)
		createDocInfo(t, db, other)
		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.ReplaceLinkMultipleInfos(ctx, other.ID, "tags", []*database.LinkMultipleInfo{
				{SourceID: other.ID, Field: "tags", Order: 0, TargetID: tagA.ID, CreatedAt: now},
			})
		}))

		outgoing, err := db.FindOutgoingEdges(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, []types.Edge{
			{SourceID: order.ID, Field: "customer", TargetID: customer.ID},
			{SourceID: order.ID, Field: "tags", TargetID: tagA.ID},
		}, outgoing)

		incoming, err := db.FindIncomingEdges(ctx, tagA.ID)
		require.NoError(t, err)
		require.Len(t, incoming, 2)
		assert.Equal(t, order.ID, incoming[0].SourceID)
		assert.Equal(t, other.ID, incoming[1].SourceID)

		var removed int
		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			removed, err = tx.DeleteOutgoingEdges(ctx, order.ID)
			return err
		}))
		assert.Equal(t, 2, removed)

		outgoing, err = db.FindOutgoingEdges(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, outgoing)

		incoming, err = db.FindIncomingEdges(ctx, tagA.ID)
		require.NoError(t, err)
		assert.Equal(t, []types.Edge{{SourceID: other.ID, Field: "tags", TargetID: tagA.ID}}, incoming)
	})
}

// RunVersionInfoTest runs the version testcases for the given db.
func RunVersionInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	docID := types.NewID()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.CreateVersionInfo(ctx, &database.VersionInfo{
				DocID:     docID,
				Number:    i,
				Snapshot:  []byte(`{"credit":{"num":1}}`),
				Diff:      []byte(`{}`),
				ChangedBy: "tester",
				ChangedAt: time.Now().UTC().Truncate(time.Millisecond),
				DataHash:  "hash",
				Signature: "sig",
			})
		}))
	}

	t.Run("duplicate number test", func(t *testing.T) {
		err := db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
			return tx.CreateVersionInfo(ctx, &database.VersionInfo{DocID: docID, Number: 2})
		})
		assert.ErrorIs(t, err, database.ErrConcurrentModification)
	})

	t.Run("find test", func(t *testing.T) {
		info, err := db.FindVersionInfo(ctx, docID, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), info.Number)
		assert.Equal(t, []byte(`{"credit":{"num":1}}`), info.Snapshot)
		assert.Equal(t, "hash", info.DataHash)

		_, err = db.FindVersionInfo(ctx, docID, 9)
		assert.ErrorIs(t, err, database.ErrVersionNotFound)
	})

	t.Run("list test", func(t *testing.T) {
		infos, err := db.FindVersionInfos(ctx, docID, 0)
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, int64(3), infos[0].Number)
		assert.Equal(t, int64(1), infos[2].Number)

		infos, err = db.FindVersionInfos(ctx, docID, 2)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, int64(3), infos[0].Number)
		assert.Equal(t, int64(2), infos[1].Number)

		infos, err = db.FindVersionInfos(ctx, types.NewID(), 0)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})
}

// RunIntegrityLogInfoTest runs the integrity log testcases for the given db.
func RunIntegrityLogInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	docID := types.NewID()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateIntegrityLogInfo(ctx, &database.IntegrityLogInfo{
			DocID:         docID,
			VersionNumber: int64(i + 1),
			CheckedAt:     base.Add(time.Duration(i) * time.Second),
			CheckedBy:     "auditor",
			Passed:        i != 1,
			ExpectedHash:  "expected",
			ActualHash:    "actual",
		}))
	}

	infos, err := db.FindIntegrityLogInfos(ctx, docID)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, int64(3), infos[0].VersionNumber)
	assert.False(t, infos[1].Passed)
	assert.NotEmpty(t, infos[0].ID)
	assert.Equal(t, "auditor", infos[2].CheckedBy)
}

// RunTxRollbackTest checks that a failed transaction leaves no trace.
func RunTxRollbackTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	errBoom := errors.New("boom")
	info := newDocInfo("customer", nil)

	err := db.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		if err := tx.CreateDocInfo(ctx, info); err != nil {
			return err
		}
		if err := tx.CreateVersionInfo(ctx, &database.VersionInfo{DocID: info.ID, Number: 1}); err != nil {
			return err
		}

		found, err := tx.FindDocInfoByID(ctx, info.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, info.ID, found.ID)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	_, err = db.FindDocInfoByID(ctx, info.ID)
	assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	_, err = db.FindVersionInfo(ctx, info.ID, 1)
	assert.ErrorIs(t, err, database.ErrVersionNotFound)
}
