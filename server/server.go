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

// Package server provides DocVault, the main entry point of the document
// engine. DocVault owns the backend and the profiling server, and exposes
// every operation of the engine as a method.
package server

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/docvault/docvault/internal/version"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/logging"
	"github.com/docvault/docvault/server/profiling"
	"github.com/docvault/docvault/server/profiling/prometheus"
	"github.com/docvault/docvault/server/tracing"
)

// DocVault is the document engine. It stores validated documents, keeps
// their relationships consistent and records a signed version for every
// change.
type DocVault struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	tracer          *tracing.Provider
	profilingServer *profiling.Server

	shutdown bool
}

// New creates a new instance of DocVault.
func New(conf *Config) (*DocVault, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	if conf.Backend.VersionSigningSecret == DefaultVersionSigningSecret {
		logging.DefaultLogger().Warn("the default version signing secret is in use")
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.NewProvider(conf.Tracing)
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.SQLiteConfig(),
		conf.MongoConfig(),
		metrics,
	)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &DocVault{
		conf:            conf,
		backend:         be,
		tracer:          tracer,
		profilingServer: profilingServer,
	}, nil
}

// Start starts the profiling server.
func (r *DocVault) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	logging.DefaultLogger().Infof("DocVault %s started", version.Version)
	if r.profilingServer != nil {
		return r.profilingServer.Start()
	}
	return nil
}

// Shutdown shuts down this DocVault.
func (r *DocVault) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.shutdown {
		return nil
	}

	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.tracer.Shutdown(context.Background()); err != nil {
		logging.DefaultLogger().Errorf("tracer shutdown: %v", err)
	}

	if err := r.backend.Shutdown(); err != nil {
		return fmt.Errorf("shutdown backend: %w", err)
	}

	r.shutdown = true
	return nil
}

// Config returns the configuration of this DocVault.
func (r *DocVault) Config() *Config {
	return r.conf
}

// ProfilingAddr returns the address the profiling server is bound to, or
// an empty string when it is not serving.
func (r *DocVault) ProfilingAddr() string {
	if r.profilingServer == nil || r.profilingServer.Addr() == nil {
		return ""
	}
	return r.profilingServer.Addr().String()
}
