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

// Package backend provides the backend implementation of DocVault.
// This package is responsible for managing the database and other
// resources required to run the document engine.
package backend

import (
	"errors"
	"fmt"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/integrity"
	"github.com/docvault/docvault/pkg/locker"
	"github.com/docvault/docvault/server/backend/cache"
	"github.com/docvault/docvault/server/backend/database"
	memdb "github.com/docvault/docvault/server/backend/database/memory"
	"github.com/docvault/docvault/server/backend/database/mongo"
	"github.com/docvault/docvault/server/backend/database/sqlite"
	"github.com/docvault/docvault/server/logging"
	"github.com/docvault/docvault/server/profiling/prometheus"
)

// Backend manages DocVault's backend such as Database. It also provides the
// doctype cache, the document locker and the version signer.
type Backend struct {
	Config *Config

	// Cache is the central cache manager for all caches.
	Cache *cache.Manager
	// Lockers serializes writers of the same document within the process.
	Lockers *locker.Locker[types.ID]
	// Signer hashes and signs version snapshots.
	Signer *integrity.Signer

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// DB is the database instance.
	DB database.Database
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	sqliteConf *sqlite.Config,
	mongoConf *mongo.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	// 01. Derive the version signing key.
	signer, err := integrity.NewSigner(conf.VersionSigningSecret)
	if err != nil {
		return nil, fmt.Errorf("create version signer: %w", err)
	}

	// 02. Create the cache manager and lockers.
	cacheManager := cache.New(cache.Options{
		DoctypeCacheTTL: conf.ParseDoctypeCacheTTL(),
	})
	lockers := locker.New[types.ID]()

	// 03. Create the database instance. MongoDB takes precedence over SQLite,
	// and the memory database is used when neither is configured.
	var db database.Database
	dbInfo := "memory"
	switch {
	case mongoConf != nil:
		db, err = mongo.Dial(mongoConf)
		if err != nil {
			return nil, err
		}
		dbInfo = mongoConf.ConnectionURI
	case sqliteConf != nil:
		db, err = sqlite.Dial(sqliteConf)
		if err != nil {
			return nil, err
		}
		dbInfo = "sqlite:" + sqliteConf.Path
	default:
		db, err = memdb.New()
		if err != nil {
			return nil, err
		}
	}

	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config: conf,

		Cache:   cacheManager,
		Lockers: lockers,
		Signer:  signer,

		Metrics: metrics,
		DB:      db,
	}, nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	b.Cache.Doctype.Purge()

	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
