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

package doctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
)

func TestParseDoctypes(t *testing.T) {
	t.Run("single doctype with comments test", func(t *testing.T) {
		doctypes, err := parseDoctypes([]byte(`{
			// customers of the shop
			"name": "Customer",
			"name_field": "name",
			"fields": [
				{"name": "name", "type": "text", "required": true},
				{"name": "status", "type": "select", "options": ["Active", "Inactive"], "default": "Active"},
			],
		}`))
		require.NoError(t, err)
		require.Len(t, doctypes, 1)

		customer := doctypes[0]
		assert.Equal(t, "Customer", customer.Name)
		assert.Equal(t, "name", customer.NameField)
		require.Len(t, customer.Fields, 2)
		assert.Equal(t, types.FieldSelect, customer.Fields[1].Type)
		assert.JSONEq(t, `"Active"`, string(customer.Fields[1].Default))
	})

	t.Run("list of doctypes test", func(t *testing.T) {
		doctypes, err := parseDoctypes([]byte(`[
			{"name": "Order Item", "is_child": true, "fields": []},
			{"name": "Order", "fields": [{"name": "items", "type": "table", "link_doctype": "Order Item"}]},
		]`))
		require.NoError(t, err)
		require.Len(t, doctypes, 2)
		assert.True(t, doctypes[0].IsChild)
		assert.Equal(t, "Order Item", doctypes[1].Fields[0].LinkDoctype)
	})

	t.Run("invalid file test", func(t *testing.T) {
		_, err := parseDoctypes([]byte(`{"name": `))
		assert.Error(t, err)

		_, err = parseDoctypes([]byte(`[]`))
		assert.Error(t, err)
	})
}
