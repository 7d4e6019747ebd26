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

package schemas_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/schemas"
	"github.com/docvault/docvault/test/helper"
)

func TestDoctypes(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		order, err := schemas.GetDoctype(ctx, be, helper.Order)
		require.NoError(t, err)
		assert.Equal(t, "number", order.NameField)
		assert.Len(t, order.Fields, 5)
		assert.False(t, order.CreatedAt.IsZero())
		assert.Equal(t, 1, be.Cache.Doctype.Len())

		// cached copies are not shared with callers
		order.Fields[0].Name = "changed"
		again, err := schemas.GetDoctype(ctx, be, helper.Order)
		require.NoError(t, err)
		assert.Equal(t, "number", again.Fields[0].Name)

		doctypes, err := schemas.ListDoctypes(ctx, be)
		require.NoError(t, err)
		var names []string
		for _, d := range doctypes {
			names = append(names, d.Name)
		}
		assert.Equal(t, []string{helper.Customer, helper.Order, helper.OrderItem}, names)

		_, err = schemas.CreateDoctype(ctx, be, helper.CustomerDoctype())
		assert.ErrorIs(t, err, database.ErrDoctypeAlreadyExists)

		_, err = schemas.GetDoctype(ctx, be, "Supplier")
		assert.ErrorIs(t, err, database.ErrDoctypeNotFound)
	})

	t.Run("invalid definition test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		for name, doctype := range map[string]*types.Doctype{
			"missing link target": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "lead", Type: types.FieldLink, LinkDoctype: "Lead"},
			}},
			"duplicate field": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "title", Type: types.FieldText},
				{Name: "title", Type: types.FieldNumber},
			}},
			"table of non-child": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "rows", Type: types.FieldTable, LinkDoctype: helper.Customer},
			}},
			"select without options": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "status", Type: types.FieldSelect},
			}},
			"formula references text": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "title", Type: types.FieldText},
				{Name: "total", Type: types.FieldComputed, Formula: "title * 2"},
			}},
			"formula references later field": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "total", Type: types.FieldComputed, Formula: "qty * 2"},
				{Name: "qty", Type: types.FieldNumber},
			}},
			"required computed": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "qty", Type: types.FieldNumber},
				{Name: "total", Type: types.FieldComputed, Formula: "qty", Required: true},
			}},
			"invalid default": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "qty", Type: types.FieldNumber, Default: json.RawMessage(`"many"`)},
			}},
			"invalid field name": {Name: "Quote", Fields: []*types.FieldDef{
				{Name: "Total", Type: types.FieldNumber},
			}},
			"name field of number": {Name: "Quote", NameField: "qty", Fields: []*types.FieldDef{
				{Name: "qty", Type: types.FieldNumber},
			}},
		} {
			_, err := schemas.CreateDoctype(ctx, be, doctype)
			assert.ErrorIs(t, err, schemas.ErrInvalidFieldDef, name)
		}
	})

	t.Run("update test", func(t *testing.T) {
		be := helper.TestBackend(t)
		helper.SetupDoctypes(t, be)

		_, err := schemas.GetDoctype(ctx, be, helper.Customer)
		require.NoError(t, err)

		customer := helper.CustomerDoctype()
		customer.IsChild = true
		customer.Fields = append(customer.Fields, &types.FieldDef{Name: "phone", Type: types.FieldText})
		updated, err := schemas.UpdateDoctype(ctx, be, customer)
		require.NoError(t, err)
		assert.False(t, updated.IsChild)

		fetched, err := schemas.GetDoctype(ctx, be, helper.Customer)
		require.NoError(t, err)
		assert.NotNil(t, fetched.Field("phone"))

		_, err = schemas.UpdateDoctype(ctx, be, &types.Doctype{Name: "Supplier"})
		assert.ErrorIs(t, err, database.ErrDoctypeNotFound)
	})
}

func TestNameOf(t *testing.T) {
	id := types.NewID()
	doctype := helper.CustomerDoctype()

	assert.Equal(t, "Jane", schemas.NameOf(doctype, id, types.Values{"name": types.Text("Jane")}))
	assert.Equal(t, id.String(), schemas.NameOf(doctype, id, types.Values{}))
}
