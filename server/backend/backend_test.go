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

package backend_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/pkg/integrity"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database/memory"
	"github.com/docvault/docvault/server/backend/database/sqlite"
	"github.com/docvault/docvault/server/profiling/prometheus"
)

func TestBackend(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	t.Run("memory database test", func(t *testing.T) {
		conf := newValidBackendConf()
		be, err := backend.New(&conf, nil, nil, metrics)
		require.NoError(t, err)
		defer func() { assert.NoError(t, be.Shutdown()) }()

		assert.IsType(t, &memory.DB{}, be.DB)
		assert.NotNil(t, be.Signer)
		assert.Equal(t, 0, be.Lockers.Len())
	})

	t.Run("sqlite database test", func(t *testing.T) {
		conf := newValidBackendConf()
		sqliteConf := &sqlite.Config{
			Path:        filepath.Join(t.TempDir(), "docvault.db"),
			BusyTimeout: "5s",
		}
		be, err := backend.New(&conf, sqliteConf, nil, metrics)
		require.NoError(t, err)
		defer func() { assert.NoError(t, be.Shutdown()) }()

		assert.IsType(t, &sqlite.DB{}, be.DB)
	})

	t.Run("empty signing secret test", func(t *testing.T) {
		conf := newValidBackendConf()
		conf.VersionSigningSecret = ""
		_, err := backend.New(&conf, nil, nil, metrics)
		assert.ErrorIs(t, err, integrity.ErrEmptySecret)
	})
}
