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

package documents_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

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

func saveCustomer(t *testing.T, be *backend.Backend, name string) *types.Document {
	doc, err := documents.SaveDocument(context.Background(), be, helper.Customer, "", map[string]any{
		"name": name,
	}, actor)
	require.NoError(t, err)
	return doc
}

func TestSaveDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("create and update test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		assert.Equal(t, "Jane", jane.Name)
		assert.Equal(t, int64(1), jane.CurrentVersion)
		assert.Equal(t, "Active", jane.Values["status"].AsText())
		assert.Equal(t, actor, jane.CreatedBy)

		updated, err := documents.SaveDocument(ctx, be, helper.Customer, jane.ID, map[string]any{
			"name":         "Jane Doe",
			"credit_limit": 500,
		}, "bob")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", updated.Name)
		assert.Equal(t, int64(2), updated.CurrentVersion)
		assert.Equal(t, "Active", updated.Values["status"].AsText())
		assert.Equal(t, actor, updated.CreatedBy)
		assert.Equal(t, "bob", updated.ModifiedBy)

		fetched, err := documents.GetDocument(ctx, be, jane.ID)
		require.NoError(t, err)
		assert.True(t, updated.Values.Equal(fetched.Values))
	})

	t.Run("update without changes appends a version test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		doc, err := documents.SaveDocument(ctx, be, helper.Customer, jane.ID, map[string]any{}, actor)
		require.NoError(t, err)
		assert.Equal(t, int64(2), doc.CurrentVersion)

		summaries, err := versions.List(ctx, be, jane.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, "No changes", summaries[0].ChangesSummary)
	})

	t.Run("validation error test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		_, err := documents.SaveDocument(ctx, be, helper.Customer, "", map[string]any{
			"status": "Gone",
		}, actor)
		var validationErr *schemas.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"status", "name"}, validationErr.Fields())

		_, err = documents.SaveDocument(ctx, be, "Supplier", "", map[string]any{}, actor)
		assert.ErrorIs(t, err, database.ErrDoctypeNotFound)

		_, err = documents.SaveDocument(ctx, be, helper.Customer, types.NewID(), map[string]any{"name": "Ghost"}, actor)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("read-only field test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{"number": "ORD-1"}, actor)
		require.NoError(t, err)

		_, err = documents.SaveDocument(ctx, be, helper.Order, order.ID, map[string]any{"number": "ORD-2"}, actor)
		assert.ErrorIs(t, err, schemas.ErrReadOnlyFieldModified)
		assert.Equal(t, errors.ErrCodeFailedPrecondition, errors.StatusOf(err))

		_, err = documents.SaveDocument(ctx, be, helper.Customer, order.ID, map[string]any{"name": "Jane"}, actor)
		assert.ErrorIs(t, err, documents.ErrDoctypeMismatch)

		fetched, err := documents.GetDocument(ctx, be, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), fetched.CurrentVersion)
	})

	t.Run("unique field test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane, err := documents.SaveDocument(ctx, be, helper.Customer, "", map[string]any{
			"name":  "Jane",
			"email": "jane@example.com",
		}, actor)
		require.NoError(t, err)

		_, err = documents.SaveDocument(ctx, be, helper.Customer, jane.ID, map[string]any{
			"email": "jane@example.com",
		}, actor)
		require.NoError(t, err)

		_, err = documents.SaveDocument(ctx, be, helper.Customer, "", map[string]any{
			"name":  "Janet",
			"email": "jane@example.com",
		}, actor)
		assert.ErrorIs(t, err, schemas.ErrDuplicateValue)

		require.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))
		_, err = documents.SaveDocument(ctx, be, helper.Customer, "", map[string]any{
			"name":  "Janet",
			"email": "jane@example.com",
		}, actor)
		assert.NoError(t, err)
	})

	t.Run("deleted document test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		require.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))

		_, err := documents.SaveDocument(ctx, be, helper.Customer, jane.ID, map[string]any{"name": "Jane"}, actor)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)

		_, err = documents.GetDocument(ctx, be, jane.ID)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)

		err = documents.DeleteDocument(ctx, be, jane.ID, actor)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	for name, newBackend := range map[string]func(testing.TB) *backend.Backend{
		"memory": helper.TestBackend,
		"sqlite": helper.TestSQLiteBackend,
	} {
		t.Run("contiguous versions under concurrent saves on "+name+" test", func(t *testing.T) {
			be := newBackend(t)
			helper.SetupDoctypes(t, be)

			jane := saveCustomer(t, be, "Jane")

			const writers = 20
			var wg sync.WaitGroup
			for i := range writers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := documents.SaveDocument(ctx, be, helper.Customer, jane.ID, map[string]any{
						"credit_limit": i,
					}, fmt.Sprintf("writer-%d", i))
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			summaries, err := versions.List(ctx, be, jane.ID, 0)
			require.NoError(t, err)
			require.Len(t, summaries, writers+1)
			for i, summary := range summaries {
				assert.Equal(t, int64(writers+1-i), summary.Number)
			}
			assert.True(t, summaries[0].IsCurrent)

			fetched, err := documents.GetDocument(ctx, be, jane.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(writers+1), fetched.CurrentVersion)
		})
	}
}

func TestChildDocuments(t *testing.T) {
	ctx := context.Background()
	be := helper.TestBackend(t)
	helper.SetupDoctypes(t, be)

	order, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{"number": "ORD-1"}, actor)
	require.NoError(t, err)
	parent := documents.Parent{ID: order.ID, Field: "items"}

	t.Run("save rows test", func(t *testing.T) {
		pen, err := documents.SaveChildDocument(ctx, be, helper.OrderItem, parent, "", map[string]any{
			"item": "pen",
			"qty":  2,
			"rate": 1.5,
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, 3.0, pen.Values["amount"].AsNumber())
		assert.True(t, pen.IsChild())

		ink, err := documents.SaveChildDocument(ctx, be, helper.OrderItem, parent, "", map[string]any{
			"item": "ink",
			"qty":  1,
		}, actor)
		require.NoError(t, err)

		pen, err = documents.SaveChildDocument(ctx, be, helper.OrderItem, parent, pen.ID, map[string]any{
			"qty": 4,
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, 6.0, pen.Values["amount"].AsNumber())
		assert.Equal(t, int64(2), pen.CurrentVersion)

		rows, err := documents.GetChildDocuments(ctx, be, order.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, pen.ID, rows[0].ID)
		assert.Equal(t, ink.ID, rows[1].ID)
	})

	t.Run("invalid parent test", func(t *testing.T) {
		_, err := documents.SaveDocument(ctx, be, helper.OrderItem, "", map[string]any{"item": "pen", "qty": 1}, actor)
		assert.ErrorIs(t, err, documents.ErrChildDoctype)

		_, err = documents.SaveChildDocument(ctx, be, helper.Customer, parent, "", map[string]any{"name": "Jane"}, actor)
		assert.ErrorIs(t, err, documents.ErrNotChildDoctype)

		_, err = documents.SaveChildDocument(ctx, be, helper.OrderItem, documents.Parent{
			ID:    order.ID,
			Field: "notes",
		}, "", map[string]any{"item": "pen", "qty": 1}, actor)
		assert.ErrorIs(t, err, documents.ErrInvalidParent)

		_, err = documents.SaveChildDocument(ctx, be, helper.OrderItem, documents.Parent{
			ID:    types.NewID(),
			Field: "items",
		}, "", map[string]any{"item": "pen", "qty": 1}, actor)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("delete parent with rows test", func(t *testing.T) {
		rows, err := documents.GetChildDocuments(ctx, be, order.ID)
		require.NoError(t, err)
		require.NotEmpty(t, rows)

		require.NoError(t, documents.DeleteDocument(ctx, be, order.ID, actor))
		for _, row := range rows {
			_, err := documents.GetDocument(ctx, be, row.ID)
			assert.ErrorIs(t, err, database.ErrDocumentNotFound)
		}

		_, err = documents.SaveChildDocument(ctx, be, helper.OrderItem, parent, "", map[string]any{
			"item": "pen",
			"qty":  1,
		}, actor)
		assert.ErrorIs(t, err, documents.ErrInvalidParent)
	})
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("protected deletion test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		order, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{
			"number":   "ORD-1",
			"customer": jane.ID,
		}, actor)
		require.NoError(t, err)

		refs, err := links.GetReferencingDocuments(ctx, be, jane.ID)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, order.ID, refs[0].Document.ID)
		assert.Equal(t, "customer", refs[0].Field)

		err = documents.DeleteDocument(ctx, be, jane.ID, actor)
		var protected *documents.ProtectedDeletionError
		require.ErrorAs(t, err, &protected)
		assert.Equal(t, jane.ID, protected.DocumentID)
		require.Len(t, protected.BlockingEdges, 1)
		assert.Equal(t, order.ID, protected.BlockingEdges[0].SourceID)
		assert.Equal(t, "customer", protected.BlockingEdges[0].Field)
		assert.ErrorIs(t, err, documents.ErrProtectedDeletion)
		assert.Equal(t, errors.ErrCodeFailedPrecondition, errors.StatusOf(err))
		assert.Equal(t, 1, strings.Count(err.Error(), jane.ID.String()))
		assert.Equal(t, 1, strings.Count(err.Error(), "delete "))
		assert.Contains(t, err.Error(), fmt.Sprintf("referenced by %s.customer", order.ID))

		_, err = documents.GetDocument(ctx, be, jane.ID)
		require.NoError(t, err)

		_, err = documents.SaveDocument(ctx, be, helper.Order, order.ID, map[string]any{"customer": nil}, actor)
		require.NoError(t, err)
		assert.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))
	})

	t.Run("deleted sources do not protect test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		order, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{
			"number": "ORD-1",
			"cc":     []types.ID{jane.ID},
		}, actor)
		require.NoError(t, err)

		require.ErrorIs(t, documents.DeleteDocument(ctx, be, jane.ID, actor), documents.ErrProtectedDeletion)
		require.NoError(t, documents.DeleteDocument(ctx, be, order.ID, actor))
		assert.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))
	})

	t.Run("removed link field does not protect test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		_, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{
			"number":   "ORD-1",
			"customer": jane.ID,
		}, actor)
		require.NoError(t, err)

		orderType := helper.OrderDoctype()
		orderType.Fields = slices.DeleteFunc(orderType.Fields, func(f *types.FieldDef) bool {
			return f.Name == "customer"
		})
		_, err = schemas.UpdateDoctype(ctx, be, orderType)
		require.NoError(t, err)

		assert.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))
	})

	t.Run("saving after a link field is removed clears its edges test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		order, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{
			"number":   "ORD-1",
			"customer": jane.ID,
		}, actor)
		require.NoError(t, err)

		orderType := helper.OrderDoctype()
		orderType.Fields = slices.DeleteFunc(orderType.Fields, func(f *types.FieldDef) bool {
			return f.Name == "customer"
		})
		_, err = schemas.UpdateDoctype(ctx, be, orderType)
		require.NoError(t, err)

		_, err = documents.SaveDocument(ctx, be, helper.Order, order.ID, map[string]any{"customer": nil}, actor)
		assert.ErrorIs(t, err, schemas.ErrUnknownField)

		saved, err := documents.SaveDocument(ctx, be, helper.Order, order.ID, map[string]any{"notes": "rush"}, actor)
		require.NoError(t, err)
		assert.NotContains(t, saved.Values, "customer")

		edges, err := be.DB.FindOutgoingEdges(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, edges)

		refs, err := links.GetReferencingDocuments(ctx, be, jane.ID)
		require.NoError(t, err)
		assert.Empty(t, refs)

		assert.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))
	})

	t.Run("self reference test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		_, err := documents.SaveDocument(ctx, be, helper.Customer, jane.ID, map[string]any{
			"referred_by": jane.ID,
		}, actor)
		require.NoError(t, err)

		assert.NoError(t, documents.DeleteDocument(ctx, be, jane.ID, actor))
	})

	t.Run("cascade removes only outgoing edges test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		jane := saveCustomer(t, be, "Jane")
		john := saveCustomer(t, be, "John")
		first, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{
			"number":   "ORD-1",
			"customer": jane.ID,
			"cc":       []types.ID{john.ID, jane.ID},
		}, actor)
		require.NoError(t, err)
		second, err := documents.SaveDocument(ctx, be, helper.Order, "", map[string]any{
			"number":   "ORD-2",
			"customer": jane.ID,
		}, actor)
		require.NoError(t, err)

		require.NoError(t, documents.DeleteDocument(ctx, be, first.ID, actor))

		edges, err := be.DB.FindOutgoingEdges(ctx, first.ID)
		require.NoError(t, err)
		assert.Empty(t, edges)

		edges, err = be.DB.FindOutgoingEdges(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, []types.Edge{{SourceID: second.ID, Field: "customer", TargetID: jane.ID}}, edges)

		incoming, err := be.DB.FindIncomingEdges(ctx, john.ID)
		require.NoError(t, err)
		assert.Empty(t, incoming)
	})
}
