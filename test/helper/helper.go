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

// Package helper provides helper functions for testing.
package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database/sqlite"
	"github.com/docvault/docvault/server/profiling"
	"github.com/docvault/docvault/server/profiling/prometheus"
	"github.com/docvault/docvault/server/schemas"
)

var testStartedAt = gotime.Now().Unix()

// Below are the values of the DocVault config used in the test.
var (
	ProfilingPort = 11102

	VersionSigningSecret = "docvault-test-secret"
	DoctypeCacheTTL      = "1m"

	SQLiteBusyTimeout = "5s"

	MongoConnectionURI     = "mongodb://localhost:27017/?replicaSet=rs0"
	MongoConnectionTimeout = "5s"
	MongoPingTimeout       = "5s"
)

// Below are the names of the fixture doctypes.
const (
	Customer  = "Customer"
	Order     = "Order"
	OrderItem = "Order Item"
)

// TestDBName returns the name of test database with timestamp.
// timestamp is set only once on first call.
func TestDBName() string {
	return fmt.Sprintf("test-docvault-%d", testStartedAt)
}

// TestBackendConfig returns the backend config used in the test.
func TestBackendConfig() *backend.Config {
	return &backend.Config{
		VersionSigningSecret: VersionSigningSecret,
		DoctypeCacheTTL:      DoctypeCacheTTL,
	}
}

// TestConfig returns a config over the memory database for the test.
func TestConfig() *server.Config {
	conf := server.NewConfig()
	conf.Profiling = &profiling.Config{Port: ProfilingPort}
	conf.Backend = TestBackendConfig()
	return conf
}

// TestBackend returns a backend over a fresh memory database. It is shut
// down when the test ends.
func TestBackend(t testing.TB) *backend.Backend {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(TestBackendConfig(), nil, nil, metrics)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, be.Shutdown())
	})

	return be
}

// TestSQLiteBackend returns a backend over a fresh SQLite file in a
// temporary directory. It is shut down when the test ends.
func TestSQLiteBackend(t testing.TB) *backend.Backend {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(TestBackendConfig(), &sqlite.Config{
		Path:        filepath.Join(t.TempDir(), "docvault.db"),
		BusyTimeout: SQLiteBusyTimeout,
	}, nil, metrics)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, be.Shutdown())
	})

	return be
}

// CustomerDoctype returns the Customer fixture.
func CustomerDoctype() *types.Doctype {
	return &types.Doctype{
		Name:      Customer,
		NameField: "name",
		Fields: []*types.FieldDef{
			{Name: "name", Type: types.FieldText, Required: true},
			{Name: "email", Type: types.FieldText, Unique: true},
			{
				Name:    "status",
				Type:    types.FieldSelect,
				Options: []string{"Active", "Inactive"},
				Default: json.RawMessage(`"Active"`),
			},
			{Name: "credit_limit", Type: types.FieldNumber},
			{Name: "referred_by", Type: types.FieldLink, LinkDoctype: Customer},
		},
	}
}

// OrderItemDoctype returns the child doctype of the rows of Order.items.
func OrderItemDoctype() *types.Doctype {
	return &types.Doctype{
		Name:    OrderItem,
		IsChild: true,
		Fields: []*types.FieldDef{
			{Name: "item", Type: types.FieldText, Required: true},
			{Name: "qty", Type: types.FieldNumber, Required: true},
			{Name: "rate", Type: types.FieldNumber},
			{Name: "amount", Type: types.FieldComputed, Formula: "qty * rate"},
		},
	}
}

// OrderDoctype returns the Order fixture. It links to Customer and holds
// Order Item rows.
func OrderDoctype() *types.Doctype {
	return &types.Doctype{
		Name:      Order,
		NameField: "number",
		Fields: []*types.FieldDef{
			{Name: "number", Type: types.FieldText, Required: true, Unique: true, ReadOnly: true},
			{Name: "customer", Type: types.FieldLink, LinkDoctype: Customer},
			{Name: "cc", Type: types.FieldLinkMultiple, LinkDoctype: Customer},
			{Name: "notes", Type: types.FieldText},
			{Name: "items", Type: types.FieldTable, LinkDoctype: OrderItem},
		},
	}
}

// SetupDoctypes registers Customer, Order Item and Order in this order.
func SetupDoctypes(t testing.TB, be *backend.Backend) {
	ctx := context.Background()
	for _, doctype := range []*types.Doctype{
		CustomerDoctype(),
		OrderItemDoctype(),
		OrderDoctype(),
	} {
		_, err := schemas.CreateDoctype(ctx, be, doctype)
		require.NoError(t, err)
	}
}
