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

package server_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/server"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, "localhost:8081", conf.ProfilingAddr())
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)

		assert.Equal(t, server.DatabaseMemory, conf.Database.Type)
		assert.Nil(t, conf.SQLiteConfig())
		assert.Nil(t, conf.MongoConfig())
		assert.Equal(t, server.DefaultDoctypeCacheTTL.String(), conf.Backend.DoctypeCacheTTL)
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		require.NoError(t, err)
		require.NoError(t, conf.Validate())

		assert.Equal(t, server.DefaultProfilingPort, conf.Profiling.Port)
		assert.Equal(t, server.DatabaseSQLite, conf.Database.Type)
		require.NotNil(t, conf.SQLiteConfig())
		assert.Equal(t, server.DefaultSQLitePath, conf.SQLiteConfig().Path)
		assert.Nil(t, conf.MongoConfig())

		connTimeout, err := time.ParseDuration(conf.Mongo.ConnectionTimeout)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultMongoConnectionTimeout, connTimeout)
		assert.Equal(t, server.DefaultMongoDocVaultDatabase, conf.Mongo.DocVaultDatabase)

		ttl, err := time.ParseDuration(conf.Backend.DoctypeCacheTTL)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultDoctypeCacheTTL, ttl)
		assert.False(t, conf.Tracing.Enabled)
	})

	t.Run("defaults for a partial file test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docvault.yml")
		require.NoError(t, os.WriteFile(path, []byte("Database:\n  Type: mongo\n"), 0600))

		conf, err := server.NewConfigFromFile(path)
		require.NoError(t, err)
		require.NotNil(t, conf.MongoConfig())
		assert.Equal(t, server.DefaultMongoConnectionURI, conf.MongoConfig().ConnectionURI)
		assert.Equal(t, server.DefaultVersionSigningSecret, conf.Backend.VersionSigningSecret)
		assert.NoError(t, conf.Validate())
	})

	t.Run("invalid database type test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Database.Type = "postgres"
		assert.Error(t, conf.Validate())
	})
}
