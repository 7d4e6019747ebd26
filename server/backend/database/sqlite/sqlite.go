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

// Package sqlite implements the database interface on an embedded SQLite
// database. The schema is managed with golang-migrate.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is a database backed by SQLite.
type DB struct {
	conn *sql.DB
	store
}

// Dial opens the database of the given config and applies pending
// migrations.
func Dial(conf *Config) (*DB, error) {
	conn, err := sql.Open("sqlite", conf.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", conf.Path, err)
	}

	// SQLite allows a single writer. One connection also keeps ":memory:"
	// databases alive across calls.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", conf.Path, err)
	}

	if err := migrateUp(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logging.DefaultLogger().Infof("SQLite opened: %s", conf.Path)

	return &DB{
		conn:  conn,
		store: store{q: conn},
	}, nil
}

// migrateUp applies the embedded migrations.
func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	drv, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	// m.Close would also close conn, so only the source is released.
	defer func() {
		_ = src.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// RunTx runs fn in a transaction. Transactions start with BEGIN IMMEDIATE so
// that writers are serialized from the first statement.
func (d *DB) RunTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	sqlTx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &tx{store: store{q: sqlTx}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logging.From(ctx).Warnf("rollback tx: %v", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		if isBusy(err) {
			return fmt.Errorf("commit tx: %w", database.ErrConcurrentModification)
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isConstraintViolation returns whether err was raised by a primary key or a
// unique index.
func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// isBusy returns whether err was raised because another connection holds
// the database lock.
func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.Code()&0xff == sqlite3.SQLITE_BUSY
}
