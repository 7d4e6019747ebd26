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

package sqlite

import (
	"errors"
	"fmt"
	"time"
)

// Config is the configuration for opening a SQLite database.
type Config struct {
	// Path is the database file. ":memory:" keeps the database in memory for
	// the lifetime of the process.
	Path string `yaml:"Path"`

	// BusyTimeout is how long a connection waits for a lock held by another
	// process.
	BusyTimeout string `yaml:"BusyTimeout"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New(`invalid argument "" for "--sqlite-path" flag: path is empty`)
	}

	if _, err := time.ParseDuration(c.BusyTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--sqlite-busy-timeout" flag: %w`,
			c.BusyTimeout,
			err,
		)
	}

	return nil
}

// dsn returns the data source name of the configured database.
func (c *Config) dsn() string {
	timeout, _ := time.ParseDuration(c.BusyTimeout)
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate",
		c.Path,
		timeout.Milliseconds(),
	)
}
