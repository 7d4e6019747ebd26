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

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database/mongo"
	"github.com/docvault/docvault/server/backend/database/sqlite"
	"github.com/docvault/docvault/server/profiling"
	"github.com/docvault/docvault/server/tracing"
)

// Below are the values of the default values of DocVault config.
const (
	DefaultProfilingPort = 8081

	DefaultDatabaseType = DatabaseMemory

	DefaultSQLitePath        = "docvault.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	DefaultMongoConnectionURI                = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout            = 5 * time.Second
	DefaultMongoPingTimeout                  = 5 * time.Second
	DefaultMongoDocVaultDatabase             = "docvault-meta"
	DefaultMongoMonitoringSlowQueryThreshold = 100 * time.Millisecond

	DefaultVersionSigningSecret = "docvault-version-secret"
	DefaultDoctypeCacheTTL      = 10 * time.Minute
)

// Below are the database types DocVault can store its data in.
const (
	DatabaseMemory = "memory"
	DatabaseSQLite = "sqlite"
	DatabaseMongo  = "mongo"
)

// DatabaseConfig selects the database of the backend.
type DatabaseConfig struct {
	Type string `yaml:"Type"`
}

// Validate validates this config.
func (c *DatabaseConfig) Validate() error {
	switch c.Type {
	case DatabaseMemory, DatabaseSQLite, DatabaseMongo:
		return nil
	default:
		return fmt.Errorf(`invalid argument "%s" for "--db" flag: must be one of memory, sqlite or mongo`, c.Type)
	}
}

// Config is the configuration for creating a DocVault instance.
type Config struct {
	Profiling *profiling.Config `yaml:"Profiling"`
	Backend   *backend.Config   `yaml:"Backend"`
	Database  *DatabaseConfig   `yaml:"Database"`
	SQLite    *sqlite.Config    `yaml:"SQLite"`
	Mongo     *mongo.Config     `yaml:"Mongo"`
	Tracing   *tracing.Config   `yaml:"Tracing"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// ProfilingAddr returns the address of the profiling server.
func (c *Config) ProfilingAddr() string {
	return fmt.Sprintf("localhost:%d", c.Profiling.Port)
}

// SQLiteConfig returns the SQLite config when SQLite is the selected
// database, or nil.
func (c *Config) SQLiteConfig() *sqlite.Config {
	if c.Database.Type != DatabaseSQLite {
		return nil
	}
	return c.SQLite
}

// MongoConfig returns the MongoDB config when MongoDB is the selected
// database, or nil.
func (c *Config) MongoConfig() *mongo.Config {
	if c.Database.Type != DatabaseMongo {
		return nil
	}
	return c.Mongo
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if sqliteConf := c.SQLiteConfig(); sqliteConf != nil {
		if err := sqliteConf.Validate(); err != nil {
			return err
		}
	}

	if mongoConf := c.MongoConfig(); mongoConf != nil {
		if err := mongoConf.Validate(); err != nil {
			return err
		}
	}

	if err := c.Tracing.Validate(); err != nil {
		return err
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.Profiling == nil {
		c.Profiling = &profiling.Config{}
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.VersionSigningSecret == "" {
		c.Backend.VersionSigningSecret = DefaultVersionSigningSecret
	}
	if c.Backend.DoctypeCacheTTL == "" {
		c.Backend.DoctypeCacheTTL = DefaultDoctypeCacheTTL.String()
	}

	if c.Database == nil {
		c.Database = &DatabaseConfig{}
	}
	if c.Database.Type == "" {
		c.Database.Type = DefaultDatabaseType
	}

	if c.SQLite == nil {
		c.SQLite = &sqlite.Config{}
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = DefaultSQLitePath
	}
	if c.SQLite.BusyTimeout == "" {
		c.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout.String()
	}

	if c.Mongo == nil {
		c.Mongo = &mongo.Config{}
	}
	if c.Mongo.ConnectionURI == "" {
		c.Mongo.ConnectionURI = DefaultMongoConnectionURI
	}
	if c.Mongo.ConnectionTimeout == "" {
		c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
	}
	if c.Mongo.DocVaultDatabase == "" {
		c.Mongo.DocVaultDatabase = DefaultMongoDocVaultDatabase
	}
	if c.Mongo.PingTimeout == "" {
		c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
	}
	if c.Mongo.MonitoringEnabled && c.Mongo.MonitoringSlowQueryThreshold == "" {
		c.Mongo.MonitoringSlowQueryThreshold = DefaultMongoMonitoringSlowQueryThreshold.String()
	}

	if c.Tracing == nil {
		c.Tracing = &tracing.Config{}
	}
	if c.Tracing.Enabled {
		if c.Tracing.ServiceName == "" {
			c.Tracing.ServiceName = tracing.DefaultServiceName
		}
		if c.Tracing.SampleRate == 0 {
			c.Tracing.SampleRate = tracing.DefaultSampleRate
		}
		if c.Tracing.Exporter == tracing.ExporterOTLP && c.Tracing.OTLPEndpoint == "" {
			c.Tracing.OTLPEndpoint = tracing.DefaultOTLPEndpoint
		}
	}
}

func newConfig(profilingPort int) *Config {
	conf := &Config{
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
	}
	conf.ensureDefaultValue()
	return conf
}
