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

package schemas

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
)

func invoiceDoctype() *types.Doctype {
	return &types.Doctype{
		Name:      "Invoice",
		NameField: "title",
		Fields: []*types.FieldDef{
			{Name: "title", Type: types.FieldText, Required: true},
			{Name: "code", Type: types.FieldText, ReadOnly: true},
			{Name: "qty", Type: types.FieldNumber, Default: json.RawMessage(`1`)},
			{Name: "rate", Type: types.FieldNumber},
			{Name: "amount", Type: types.FieldComputed, Formula: "qty * rate"},
			{Name: "paid", Type: types.FieldBoolean},
			{Name: "due", Type: types.FieldDate},
			{Name: "status", Type: types.FieldSelect, Options: []string{"Draft", "Paid"}},
			{Name: "meta", Type: types.FieldJSON},
		},
	}
}

func TestValidate(t *testing.T) {
	doctype := invoiceDoctype()

	t.Run("create test", func(t *testing.T) {
		values, err := Validate(doctype, nil, map[string]any{
			"title": "Rent",
			"rate":  "12.5",
			"paid":  "true",
			"due":   "2026-03-01",
			"meta":  map[string]any{"b": 1, "a": []any{"x"}},
		}, ModeCreate)
		require.NoError(t, err)

		assert.Equal(t, "Rent", values["title"].AsText())
		assert.Equal(t, 1.0, values["qty"].AsNumber())
		assert.Equal(t, 12.5, values["amount"].AsNumber())
		assert.True(t, values["paid"].AsBool())
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), values["due"].AsTime())
		assert.JSONEq(t, `{"a":["x"],"b":1}`, string(values["meta"].AsOpaque()))
		assert.NotContains(t, values, "status")
	})

	t.Run("collects every violation test", func(t *testing.T) {
		_, err := Validate(doctype, nil, map[string]any{
			"rate":    "abc",
			"status":  "Void",
			"unknown": 1,
			"amount":  3,
		}, ModeCreate)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"amount", "rate", "status", "unknown", "title"}, validationErr.Fields())
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, ErrUnknownField)
		assert.ErrorIs(t, err, ErrInvalidFieldValue)
		assert.ErrorIs(t, err, ErrMissingRequiredField)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))
		assert.Equal(t, "ErrValidation", errors.CodeOf(err))
	})

	t.Run("update merges and recomputes test", func(t *testing.T) {
		existing, err := Validate(doctype, nil, map[string]any{"title": "Rent", "qty": 2, "rate": 10}, ModeCreate)
		require.NoError(t, err)

		values, err := Validate(doctype, existing, map[string]any{"rate": 15, "title": nil}, ModeUpdate)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"title"}, validationErr.Fields())
		assert.Nil(t, values)

		values, err = Validate(doctype, existing, map[string]any{"rate": 15}, ModeUpdate)
		require.NoError(t, err)
		assert.Equal(t, 30.0, values["amount"].AsNumber())
		assert.Equal(t, "Rent", values["title"].AsText())
		assert.Equal(t, 20.0, existing["amount"].AsNumber())
	})

	t.Run("undeclared stored field test", func(t *testing.T) {
		existing, err := Validate(doctype, nil, map[string]any{"title": "Rent"}, ModeCreate)
		require.NoError(t, err)
		existing["removed"] = types.Text("stale")

		values, err := Validate(doctype, existing, map[string]any{"rate": 5}, ModeUpdate)
		require.NoError(t, err)
		assert.NotContains(t, values, "removed")
		assert.Equal(t, "Rent", values["title"].AsText())
		assert.Contains(t, existing, "removed")
	})

	t.Run("read-only field test", func(t *testing.T) {
		existing, err := Validate(doctype, nil, map[string]any{"title": "Rent", "code": "INV-1"}, ModeCreate)
		require.NoError(t, err)

		_, err = Validate(doctype, existing, map[string]any{"code": "INV-1", "title": "Rent 2"}, ModeUpdate)
		assert.NoError(t, err)

		_, err = Validate(doctype, existing, map[string]any{"code": "INV-2"}, ModeUpdate)
		assert.ErrorIs(t, err, ErrReadOnlyFieldModified)
		assert.Equal(t, errors.ErrCodeFailedPrecondition, errors.StatusOf(err))

		_, err = Validate(doctype, existing, map[string]any{"code": "INV-2", "rate": "x"}, ModeUpdate)
		assert.ErrorIs(t, err, ErrReadOnlyFieldModified)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))
	})

	t.Run("restore test", func(t *testing.T) {
		snapshot := types.Values{
			"title":  types.Text("Rent"),
			"code":   types.Text("INV-9"),
			"rate":   types.Number(3),
			"amount": types.Number(99),
		}
		values, err := Validate(doctype, nil, Input(snapshot), ModeRestore)
		require.NoError(t, err)
		assert.True(t, snapshot.Equal(values))

		snapshot["retired"] = types.Text("x")
		_, err = Validate(doctype, nil, Input(snapshot), ModeRestore)
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestCoerce(t *testing.T) {
	t.Run("link test", func(t *testing.T) {
		field := &types.FieldDef{Name: "customer", Type: types.FieldLink, LinkDoctype: "Customer"}
		id := types.NewID()

		v, err := Coerce(field, id.String())
		require.NoError(t, err)
		assert.Equal(t, id, v.AsLink())

		v, err = Coerce(field, "")
		require.NoError(t, err)
		assert.True(t, v.IsNull())

		_, err = Coerce(field, "not-an-id")
		assert.Error(t, err)
	})

	t.Run("link-multiple test", func(t *testing.T) {
		field := &types.FieldDef{Name: "cc", Type: types.FieldLinkMultiple, LinkDoctype: "Customer"}
		a, b := types.NewID(), types.NewID()

		v, err := Coerce(field, []any{b.String(), a.String()})
		require.NoError(t, err)
		assert.Equal(t, []types.ID{b, a}, v.AsLinks())

		_, err = Coerce(field, []string{a.String(), a.String()})
		assert.Error(t, err)

		v, err = Coerce(field, []any{})
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("typed value test", func(t *testing.T) {
		field := &types.FieldDef{Name: "qty", Type: types.FieldNumber}
		_, err := Coerce(field, types.Text("1"))
		assert.Error(t, err)

		v, err := Coerce(field, types.Number(2))
		require.NoError(t, err)
		assert.Equal(t, 2.0, v.AsNumber())
	})

	t.Run("boolean test", func(t *testing.T) {
		field := &types.FieldDef{Name: "paid", Type: types.FieldBoolean}
		for raw, expected := range map[any]bool{true: true, "FALSE": false, 1: true, 0.0: false} {
			v, err := Coerce(field, raw)
			require.NoError(t, err)
			assert.Equal(t, expected, v.AsBool())
		}
		_, err := Coerce(field, 2)
		assert.Error(t, err)
	})
}
