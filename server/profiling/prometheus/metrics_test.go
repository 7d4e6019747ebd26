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

package prometheus_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/pkg/errors"
	"github.com/docvault/docvault/server/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	metrics.ObserveOperation("SaveDocument", 0.01, nil)
	metrics.ObserveOperation("SaveDocument", 0.02, errors.InvalidArgument("bad"))
	metrics.AddIntegrityCheck(true)
	metrics.AddIntegrityCheck(false)
	metrics.AddIntegrityCheck(false)
	metrics.AddProtectedDeletion()

	count, err := testutil.GatherAndCount(metrics.Registry(), "docvault_engine_handled_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(metrics.Registry(), "docvault_versions_integrity_checks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(metrics.Registry(), "docvault_server_version")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
