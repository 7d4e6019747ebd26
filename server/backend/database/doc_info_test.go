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

package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

func TestDocInfo(t *testing.T) {
	t.Run("deep copy test", func(t *testing.T) {
		info := &database.DocInfo{
			ID:             types.ID("doc1"),
			Doctype:        "Customer",
			Values:         types.Values{"name": types.Text("Jane")},
			UniqueKeys:     []string{"Customer/email=a"},
			CurrentVersion: 3,
			CreatedAt:      time.Now(),
		}

		clone := info.DeepCopy()
		clone.Values["name"] = types.Text("John")
		clone.UniqueKeys[0] = "changed"
		clone.CurrentVersion = 4

		assert.Equal(t, "Jane", info.Values["name"].AsText())
		assert.Equal(t, "Customer/email=a", info.UniqueKeys[0])
		assert.Equal(t, int64(3), info.CurrentVersion)

		var nilInfo *database.DocInfo
		assert.Nil(t, nilInfo.DeepCopy())
	})

	t.Run("to document test", func(t *testing.T) {
		info := &database.DocInfo{
			ID:          types.ID("row1"),
			Doctype:     "Order Item",
			Values:      types.Values{"qty": types.Number(2)},
			ParentID:    types.ID("order1"),
			ParentField: "items",
		}

		doc := info.ToDocument()
		assert.True(t, doc.IsChild())
		assert.Equal(t, float64(2), doc.Values["qty"].AsNumber())

		doc.Values["qty"] = types.Number(5)
		assert.Equal(t, float64(2), info.Values["qty"].AsNumber())
	})

	t.Run("unique key test", func(t *testing.T) {
		assert.Equal(
			t,
			`Customer/email={"text":"a@b.c"}`,
			database.UniqueKey("Customer", "email", []byte(`{"text":"a@b.c"}`)),
		)
	})
}

func TestDoctypeInfo(t *testing.T) {
	doctype := &types.Doctype{
		Name: "Order",
		Fields: []*types.FieldDef{
			{Name: "number", Type: types.FieldText, Required: true},
			{Name: "status", Type: types.FieldSelect, Options: []string{"open", "closed"}},
		},
	}

	info := database.NewDoctypeInfo(doctype)
	doctype.Fields[1].Options[0] = "changed"

	assert.Equal(t, "open", info.Fields[1].Options[0])
	assert.Equal(t, "Order", info.ToDoctype().Name)
	assert.Len(t, info.DeepCopy().Fields, 2)
}
