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

package profiling_test

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/server/profiling"
	"github.com/docvault/docvault/server/profiling/prometheus"
)

func TestServer(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	metrics.AddProtectedDeletion()

	server := profiling.NewServer(&profiling.Config{Port: 0}, metrics)
	require.NoError(t, server.Start())
	defer server.Shutdown(true)

	base := fmt.Sprintf("http://%s", server.Addr())

	t.Run("health test", func(t *testing.T) {
		resp, err := http.Get(base + "/healthz")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics test", func(t *testing.T) {
		resp, err := http.Get(base + "/metrics")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "docvault_documents_protected_deletions_total 1")
	})

	t.Run("pprof disabled test", func(t *testing.T) {
		resp, err := http.Get(base + "/debug/pprof/")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
