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
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// ColDoctypes represents the doctypes collection in the database.
	ColDoctypes = "doctypes"
	// ColDocuments represents the documents collection in the database.
	ColDocuments = "documents"
	// ColLinks represents the single link collection in the database.
	ColLinks = "document_links"
	// ColLinksMultiple represents the multiple link collection in the database.
	ColLinksMultiple = "document_links_multiple"
	// ColUniqueKeys represents the unique field value collection in the database.
	ColUniqueKeys = "unique_keys"
	// ColVersions represents the versions collection in the database.
	ColVersions = "document_versions"
	// ColIntegrityLogs represents the integrity logs collection in the database.
	ColIntegrityLogs = "integrity_logs"
)

// Collections represents the list of all collections in the database.
var Collections = []string{
	ColDoctypes,
	ColDocuments,
	ColLinks,
	ColLinksMultiple,
	ColUniqueKeys,
	ColVersions,
	ColIntegrityLogs,
}

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// Below are names and indexes information of Collections that stores DocVault data.
var collectionInfos = []collectionInfo{
	{
		name: ColDocuments,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "parent_id", Value: int32(1)},
				{Key: "created_at", Value: int32(1)},
				{Key: "_id", Value: int32(1)},
			},
		}},
	},
	{
		// The key itself is the _id, so two documents can never hold it.
		name: ColUniqueKeys,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{{Key: "doc_id", Value: int32(1)}},
		}},
	},
	{
		name: ColLinks,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "source_id", Value: int32(1)},
				{Key: "field", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}, {
			Keys: bson.D{{Key: "target_id", Value: int32(1)}},
		}},
	},
	{
		name: ColLinksMultiple,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "source_id", Value: int32(1)},
				{Key: "field", Value: int32(1)},
				{Key: "position", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}, {
			Keys: bson.D{{Key: "target_id", Value: int32(1)}},
		}},
	},
	{
		name: ColVersions,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: int32(1)},
				{Key: "number", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: ColIntegrityLogs,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: int32(1)},
				{Key: "checked_at", Value: int32(-1)},
			},
		}},
	},
}

// ensureCollections creates the collections and their indexes. Collections
// must exist before they are written inside a transaction.
func ensureCollections(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	found := make(map[string]bool, len(existing))
	for _, name := range existing {
		found[name] = true
	}
	for _, name := range Collections {
		if found[name] {
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	for _, info := range collectionInfos {
		_, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes)
		if err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}
	return nil
}
