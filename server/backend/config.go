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

package backend

import (
	"fmt"
	"os"
	"time"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// VersionSigningSecret is the secret the version signing key is derived
	// from. It must differ from any secret used to sign requests.
	VersionSigningSecret string `yaml:"VersionSigningSecret"`

	// DoctypeCacheTTL is the TTL value to set when caching doctypes.
	DoctypeCacheTTL string `yaml:"DoctypeCacheTTL"`

	// RecordPassedIntegrityChecks is whether passed integrity checks are
	// recorded in the integrity log as well as failed ones.
	RecordPassedIntegrityChecks bool `yaml:"RecordPassedIntegrityChecks"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.VersionSigningSecret == "" {
		return fmt.Errorf(
			`invalid argument "%s" for "--version-signing-secret" flag: must not be empty`,
			c.VersionSigningSecret,
		)
	}

	if _, err := time.ParseDuration(c.DoctypeCacheTTL); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--doctype-cache-ttl" flag: %w`,
			c.DoctypeCacheTTL,
			err,
		)
	}

	return nil
}

// ParseDoctypeCacheTTL returns TTL for doctype cache.
func (c *Config) ParseDoctypeCacheTTL() time.Duration {
	result, err := time.ParseDuration(c.DoctypeCacheTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse doctype cache ttl: %v\n", err)
		os.Exit(1)
	}

	return result
}
