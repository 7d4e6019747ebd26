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

// Package database provides the storage interface of the DocVault backend.
// Implementations live in the memory, sqlite and mongo subpackages.
package database

import (
	"context"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
)

var (
	// ErrDoctypeNotFound is returned when the doctype could not be found.
	ErrDoctypeNotFound = errors.NotFound("doctype not found").WithCode("ErrDoctypeNotFound")

	// ErrDoctypeAlreadyExists is returned when the doctype already exists.
	ErrDoctypeAlreadyExists = errors.AlreadyExists("doctype already exists").WithCode("ErrDoctypeAlreadyExists")

	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrDocumentAlreadyExists is returned when a document with the same ID
	// already exists.
	ErrDocumentAlreadyExists = errors.AlreadyExists("document already exists").WithCode("ErrDocumentAlreadyExists")

	// ErrVersionNotFound is returned when the version could not be found.
	ErrVersionNotFound = errors.NotFound("version not found").WithCode("ErrVersionNotFound")

	// ErrConcurrentModification is returned when a transaction lost a race
	// against another writer, e.g. two versions with the same number.
	ErrConcurrentModification = errors.Aborted("concurrent modification").WithCode("ErrConcurrentModification")
)

// Reader reads committed state, or the state of the enclosing transaction
// when used through a Tx.
type Reader interface {
	// FindDoctypeInfo returns the doctype of the given name.
	FindDoctypeInfo(ctx context.Context, name string) (*DoctypeInfo, error)

	// FindDocInfoByID returns the document of the given ID, including
	// soft-deleted ones.
	FindDocInfoByID(ctx context.Context, id types.ID) (*DocInfo, error)

	// FindDocInfosByIDs returns the documents of the given IDs in the given
	// order. Unknown IDs are skipped.
	FindDocInfosByIDs(ctx context.Context, ids []types.ID) ([]*DocInfo, error)

	// FindChildDocInfos returns the rows of table fields whose parent is the
	// given document, ordered by creation time then ID.
	FindChildDocInfos(ctx context.Context, parentID types.ID) ([]*DocInfo, error)

	// FindDocInfoByUniqueKey returns the live document holding the given
	// unique key, or nil.
	FindDocInfoByUniqueKey(ctx context.Context, key string) (*DocInfo, error)

	// FindLinkInfo returns the edge of the given link field, or nil.
	FindLinkInfo(ctx context.Context, sourceID types.ID, field string) (*LinkInfo, error)

	// FindLinkMultipleInfos returns the edges of the given link-multiple
	// field ordered by their position.
	FindLinkMultipleInfos(ctx context.Context, sourceID types.ID, field string) ([]*LinkMultipleInfo, error)

	// FindOutgoingEdges returns every edge of both kinds leaving the source.
	FindOutgoingEdges(ctx context.Context, sourceID types.ID) ([]types.Edge, error)

	// FindIncomingEdges returns every edge of both kinds pointing at the
	// target, ordered by source then field.
	FindIncomingEdges(ctx context.Context, targetID types.ID) ([]types.Edge, error)

	// FindVersionInfo returns the given version of the document.
	FindVersionInfo(ctx context.Context, docID types.ID, number int64) (*VersionInfo, error)

	// FindVersionInfos returns the versions of the document, newest first.
	// A limit of 0 returns every version.
	FindVersionInfos(ctx context.Context, docID types.ID, limit int) ([]*VersionInfo, error)
}

// Tx is a transaction. Writes become visible to other callers only when the
// function given to RunTx returns nil.
type Tx interface {
	Reader

	// LockDocInfo returns the document of the given ID and holds a write lock
	// on it until the transaction ends.
	LockDocInfo(ctx context.Context, id types.ID) (*DocInfo, error)

	// CreateDocInfo inserts a new document.
	CreateDocInfo(ctx context.Context, info *DocInfo) error

	// UpdateDocInfo replaces the stored document with the given one.
	UpdateDocInfo(ctx context.Context, info *DocInfo) error

	// UpsertLinkInfo sets the single edge of a link field.
	UpsertLinkInfo(ctx context.Context, info *LinkInfo) error

	// DeleteLinkInfo removes the edge of a link field if it exists.
	DeleteLinkInfo(ctx context.Context, sourceID types.ID, field string) error

	// ReplaceLinkMultipleInfos replaces the edges of a link-multiple field
	// with the given ones.
	ReplaceLinkMultipleInfos(
		ctx context.Context,
		sourceID types.ID,
		field string,
		infos []*LinkMultipleInfo,
	) error

	// DeleteOutgoingEdges removes every edge of both kinds leaving the source
	// and returns how many were removed.
	DeleteOutgoingEdges(ctx context.Context, sourceID types.ID) (int, error)

	// CreateVersionInfo appends a version. It fails with
	// ErrConcurrentModification if the number is already taken.
	CreateVersionInfo(ctx context.Context, info *VersionInfo) error
}

// Database represents database which reads or saves DocVault data.
type Database interface {
	Reader

	// Close all resources of this database.
	Close() error

	// CreateDoctypeInfo inserts a new doctype.
	CreateDoctypeInfo(ctx context.Context, info *DoctypeInfo) error

	// UpdateDoctypeInfo replaces the fields of an existing doctype.
	UpdateDoctypeInfo(ctx context.Context, info *DoctypeInfo) error

	// ListDoctypeInfos returns every doctype ordered by name.
	ListDoctypeInfos(ctx context.Context) ([]*DoctypeInfo, error)

	// CreateIntegrityLogInfo appends an integrity check record.
	CreateIntegrityLogInfo(ctx context.Context, info *IntegrityLogInfo) error

	// FindIntegrityLogInfos returns the integrity check records of the
	// document, newest first.
	FindIntegrityLogInfos(ctx context.Context, docID types.ID) ([]*IntegrityLogInfo, error)

	// RunTx runs fn in a transaction. The transaction commits if fn returns
	// nil and rolls back otherwise. Implementations never retry fn.
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
