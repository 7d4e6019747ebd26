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

package mongo

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/docvault/docvault/api/types"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	record := docRecord{
		ID:      "d0f3qk2n1s5g00a0bv6g",
		Doctype: "customer",
		Values: types.Values{
			"customer_name": types.Text("Jane"),
			"credit":        types.Number(12.5),
			"joined":        types.Time(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
			"tags":          types.Links("a", "b"),
		},
	}

	buf := &bytes.Buffer{}
	enc := bson.NewEncoder(bson.NewDocumentWriter(buf))
	enc.SetRegistry(reg)
	require.NoError(t, enc.Encode(record))

	raw := bson.Raw(buf.Bytes())
	stored, ok := raw.Lookup("values").StringValueOK()
	require.True(t, ok)
	canonical, err := record.Values.Canonical()
	require.NoError(t, err)
	assert.Equal(t, string(canonical), stored)

	var decoded docRecord
	dec := bson.NewDecoder(bson.NewDocumentReader(bytes.NewReader(buf.Bytes())))
	dec.SetRegistry(reg)
	require.NoError(t, dec.Decode(&decoded))
	assert.Equal(t, record.ID, decoded.ID)
	assert.True(t, record.Values.Equal(decoded.Values))
}
