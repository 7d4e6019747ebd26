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

package links_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/documents"
	"github.com/docvault/docvault/server/links"
	"github.com/docvault/docvault/test/helper"
)

func TestLinks(t *testing.T) {
	ctx := context.Background()
	be := helper.TestBackend(t)
	helper.SetupDoctypes(t, be)

	save := func(doctype string, id types.ID, input map[string]any) (*types.Document, error) {
		return documents.SaveDocument(ctx, be, doctype, id, input, "alice")
	}

	jane, err := save(helper.Customer, "", map[string]any{"name": "Jane"})
	require.NoError(t, err)
	john, err := save(helper.Customer, "", map[string]any{"name": "John"})
	require.NoError(t, err)
	gone, err := save(helper.Customer, "", map[string]any{"name": "Gone"})
	require.NoError(t, err)
	require.NoError(t, documents.DeleteDocument(ctx, be, gone.ID, "alice"))

	order, err := save(helper.Order, "", map[string]any{
		"number":   "ORD-1",
		"customer": jane.ID,
		"cc":       []types.ID{john.ID, jane.ID},
	})
	require.NoError(t, err)

	t.Run("get link test", func(t *testing.T) {
		target, err := links.GetLink(ctx, be, order.ID, "customer")
		require.NoError(t, err)
		assert.Equal(t, jane.ID, target.ID)

		target, err = links.GetLink(ctx, be, order.ID, "notes")
		require.NoError(t, err)
		assert.Nil(t, target)

		_, err = links.GetLink(ctx, be, types.NewID(), "customer")
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("get linked documents keeps order test", func(t *testing.T) {
		targets, err := links.GetLinkedDocuments(ctx, be, order.ID, "cc")
		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, john.ID, targets[0].ID)
		assert.Equal(t, jane.ID, targets[1].ID)
	})

	t.Run("get referencing documents test", func(t *testing.T) {
		refs, err := links.GetReferencingDocuments(ctx, be, jane.ID)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, order.ID, refs[0].Document.ID)
		assert.Equal(t, "cc", refs[0].Field)
		assert.Equal(t, "customer", refs[1].Field)

		has, err := links.HasIncomingReferences(ctx, be.DB, john.ID)
		require.NoError(t, err)
		assert.True(t, has)

		has, err = links.HasIncomingReferences(ctx, be.DB, order.ID)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("invalid link target test", func(t *testing.T) {
		for name, target := range map[string]types.ID{
			"missing":         types.NewID(),
			"deleted":         gone.ID,
			"another doctype": order.ID,
		} {
			_, err := save(helper.Order, order.ID, map[string]any{"customer": target})
			assert.ErrorIs(t, err, links.ErrInvalidLinkTarget, name)
			assert.Equal(t, target.String(), errors.Metadata(err)["target_id"], name)

			_, err = save(helper.Order, order.ID, map[string]any{"cc": []types.ID{jane.ID, target}})
			assert.ErrorIs(t, err, links.ErrInvalidLinkTarget, name)
		}

		_, err := save(helper.Order, order.ID, map[string]any{"cc": []types.ID{jane.ID, jane.ID}})
		assert.Error(t, err)

		// failed saves leave the edges untouched
		targets, err := links.GetLinkedDocuments(ctx, be, order.ID, "cc")
		require.NoError(t, err)
		assert.Len(t, targets, 2)

		fetched, err := documents.GetDocument(ctx, be, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), fetched.CurrentVersion)
	})

	t.Run("replace and clear test", func(t *testing.T) {
		_, err := save(helper.Order, order.ID, map[string]any{
			"customer": john.ID,
			"cc":       []types.ID{jane.ID},
		})
		require.NoError(t, err)

		target, err := links.GetLink(ctx, be, order.ID, "customer")
		require.NoError(t, err)
		assert.Equal(t, john.ID, target.ID)

		targets, err := links.GetLinkedDocuments(ctx, be, order.ID, "cc")
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, jane.ID, targets[0].ID)

		_, err = save(helper.Order, order.ID, map[string]any{"customer": "", "cc": nil})
		require.NoError(t, err)

		edges, err := be.DB.FindOutgoingEdges(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})
}
