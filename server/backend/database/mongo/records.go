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

package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
)

// The records below are the stored shapes of the database infos. IDs are
// kept as strings and timestamps at millisecond precision.

type doctypeRecord struct {
	Name        string    `bson:"_id"`
	Description string    `bson:"description"`
	Fields      string    `bson:"fields"`
	IsChild     bool      `bson:"is_child"`
	NameField   string    `bson:"name_field"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newDoctypeRecord(info *database.DoctypeInfo) (*doctypeRecord, error) {
	fields, err := json.Marshal(info.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields of %s: %w", info.Name, err)
	}

	return &doctypeRecord{
		Name:        info.Name,
		Description: info.Description,
		Fields:      string(fields),
		IsChild:     info.IsChild,
		NameField:   info.NameField,
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
	}, nil
}

func (r *doctypeRecord) toInfo() (*database.DoctypeInfo, error) {
	info := &database.DoctypeInfo{
		Name:        r.Name,
		Description: r.Description,
		IsChild:     r.IsChild,
		NameField:   r.NameField,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Fields), &info.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", r.Name, err)
	}
	return info, nil
}

type docRecord struct {
	ID             string       `bson:"_id"`
	Doctype        string       `bson:"doctype"`
	Name           string       `bson:"name"`
	Values         types.Values `bson:"values"`
	ParentID       string       `bson:"parent_id"`
	ParentField    string       `bson:"parent_field"`
	CurrentVersion int64        `bson:"current_version"`
	UniqueKeys     []string     `bson:"unique_keys"`
	CreatedBy      string       `bson:"created_by"`
	CreatedAt      time.Time    `bson:"created_at"`
	ModifiedBy     string       `bson:"modified_by"`
	ModifiedAt     time.Time    `bson:"modified_at"`
	IsDeleted      bool         `bson:"is_deleted"`
}

func newDocRecord(info *database.DocInfo) *docRecord {
	keys := info.UniqueKeys
	if keys == nil {
		keys = []string{}
	}

	return &docRecord{
		ID:             info.ID.String(),
		Doctype:        info.Doctype,
		Name:           info.Name,
		Values:         info.Values,
		ParentID:       info.ParentID.String(),
		ParentField:    info.ParentField,
		CurrentVersion: info.CurrentVersion,
		UniqueKeys:     keys,
		CreatedBy:      info.CreatedBy,
		CreatedAt:      info.CreatedAt,
		ModifiedBy:     info.ModifiedBy,
		ModifiedAt:     info.ModifiedAt,
		IsDeleted:      info.IsDeleted,
	}
}

func (r *docRecord) toInfo() *database.DocInfo {
	values := r.Values
	if values == nil {
		values = types.Values{}
	}

	return &database.DocInfo{
		ID:             types.ID(r.ID),
		Doctype:        r.Doctype,
		Name:           r.Name,
		Values:         values,
		ParentID:       types.ID(r.ParentID),
		ParentField:    r.ParentField,
		CurrentVersion: r.CurrentVersion,
		UniqueKeys:     r.UniqueKeys,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		ModifiedBy:     r.ModifiedBy,
		ModifiedAt:     r.ModifiedAt,
		IsDeleted:      r.IsDeleted,
	}
}

type uniqueKeyRecord struct {
	Key   string `bson:"_id"`
	DocID string `bson:"doc_id"`
}

type linkRecord struct {
	SourceID  string    `bson:"source_id"`
	Field     string    `bson:"field"`
	TargetID  string    `bson:"target_id"`
	CreatedBy string    `bson:"created_by"`
	CreatedAt time.Time `bson:"created_at"`
}

type linkMultipleRecord struct {
	SourceID  string    `bson:"source_id"`
	Field     string    `bson:"field"`
	Position  int       `bson:"position"`
	TargetID  string    `bson:"target_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type versionRecord struct {
	DocID     string    `bson:"doc_id"`
	Number    int64     `bson:"number"`
	Snapshot  []byte    `bson:"snapshot"`
	Diff      []byte    `bson:"diff"`
	ChangedBy string    `bson:"changed_by"`
	ChangedAt time.Time `bson:"changed_at"`
	Comment   string    `bson:"comment"`
	DataHash  string    `bson:"data_hash"`
	Signature string    `bson:"signature"`
}

func newVersionRecord(info *database.VersionInfo) *versionRecord {
	return &versionRecord{
		DocID:     info.DocID.String(),
		Number:    info.Number,
		Snapshot:  info.Snapshot,
		Diff:      info.Diff,
		ChangedBy: info.ChangedBy,
		ChangedAt: info.ChangedAt,
		Comment:   info.Comment,
		DataHash:  info.DataHash,
		Signature: info.Signature,
	}
}

func (r *versionRecord) toInfo() *database.VersionInfo {
	return &database.VersionInfo{
		DocID:     types.ID(r.DocID),
		Number:    r.Number,
		Snapshot:  r.Snapshot,
		Diff:      r.Diff,
		ChangedBy: r.ChangedBy,
		ChangedAt: r.ChangedAt,
		Comment:   r.Comment,
		DataHash:  r.DataHash,
		Signature: r.Signature,
	}
}

type integrityLogRecord struct {
	ID            string    `bson:"_id"`
	DocID         string    `bson:"doc_id"`
	VersionNumber int64     `bson:"version_number"`
	CheckedAt     time.Time `bson:"checked_at"`
	CheckedBy     string    `bson:"checked_by"`
	Passed        bool      `bson:"passed"`
	ExpectedHash  string    `bson:"expected_hash"`
	ActualHash    string    `bson:"actual_hash"`
}

func (r *integrityLogRecord) toInfo() *database.IntegrityLogInfo {
	return &database.IntegrityLogInfo{
		ID:            types.ID(r.ID),
		DocID:         types.ID(r.DocID),
		VersionNumber: r.VersionNumber,
		CheckedAt:     r.CheckedAt,
		CheckedBy:     r.CheckedBy,
		Passed:        r.Passed,
		ExpectedHash:  r.ExpectedHash,
		ActualHash:    r.ActualHash,
	}
}
