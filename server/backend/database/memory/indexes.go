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

package memory

import "github.com/hashicorp/go-memdb"

var (
	tblDoctypes      = "doctypes"
	tblDocuments     = "documents"
	tblLinks         = "document_links"
	tblLinksMultiple = "document_links_multiple"
	tblVersions      = "document_versions"
	tblIntegrityLogs = "integrity_logs"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblDoctypes: {
			Name: tblDoctypes,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"parent_id": {
					Name:         "parent_id",
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "ParentID"},
				},
				"unique_keys": {
					Name:         "unique_keys",
					AllowMissing: true,
					Indexer:      &memdb.StringSliceFieldIndex{Field: "UniqueKeys"},
				},
			},
		},
		tblLinks: {
			Name: tblLinks,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "SourceID"},
							&memdb.StringFieldIndex{Field: "Field"},
						},
					},
				},
				"source_id": {
					Name:    "source_id",
					Indexer: &memdb.StringFieldIndex{Field: "SourceID"},
				},
				"target_id": {
					Name:    "target_id",
					Indexer: &memdb.StringFieldIndex{Field: "TargetID"},
				},
			},
		},
		tblLinksMultiple: {
			Name: tblLinksMultiple,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "SourceID"},
							&memdb.StringFieldIndex{Field: "Field"},
							&memdb.IntFieldIndex{Field: "Order"},
						},
					},
				},
				"source_id_field": {
					Name: "source_id_field",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "SourceID"},
							&memdb.StringFieldIndex{Field: "Field"},
						},
					},
				},
				"source_id": {
					Name:    "source_id",
					Indexer: &memdb.StringFieldIndex{Field: "SourceID"},
				},
				"target_id": {
					Name:    "target_id",
					Indexer: &memdb.StringFieldIndex{Field: "TargetID"},
				},
			},
		},
		tblVersions: {
			Name: tblVersions,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "DocID"},
							&memdb.IntFieldIndex{Field: "Number"},
						},
					},
				},
				"doc_id": {
					Name:    "doc_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocID"},
				},
			},
		},
		tblIntegrityLogs: {
			Name: tblIntegrityLogs,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"doc_id": {
					Name:    "doc_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocID"},
				},
			},
		},
	},
}
