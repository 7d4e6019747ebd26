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

// Package mongo implements database interfaces using MongoDB. Transactions
// require a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/logging"
)

// codeWriteConflict is the server error code of a write conflict between
// transactions.
const codeWriteConflict = 112

// Client is a client that connects to Mongo DB and reads or saves DocVault data.
type Client struct {
	config *Config
	client *mongo.Client
	reader
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(conf.ConnectionURI).
		SetRegistry(NewRegistry())

	if conf.MonitoringEnabled {
		threshold, err := time.ParseDuration(conf.MonitoringSlowQueryThreshold)
		if err != nil {
			return nil, fmt.Errorf("parse slow query threshold: %w", err)
		}
		clientOptions.SetMonitor(NewQueryMonitor(threshold).CreateCommandMonitor())
	}

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(conf.DocVaultDatabase)
	if err := ensureCollections(ctx, db); err != nil {
		return nil, err
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.DocVaultDatabase)

	return &Client{
		config: conf,
		client: client,
		reader: reader{db: db},
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}

// RunTx runs fn in a multi-document transaction. fn receives a session
// context: every call made with it joins the transaction.
func (c *Client) RunTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	sess, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}

	sessCtx := mongo.NewSessionContext(ctx, sess)
	if err := fn(sessCtx, &tx{reader: c.reader}); err != nil {
		if abortErr := sess.AbortTransaction(context.Background()); abortErr != nil {
			logging.From(ctx).Warnf("abort transaction: %v", abortErr)
		}
		return toConcurrentModification(err)
	}

	if err := sess.CommitTransaction(sessCtx); err != nil {
		return fmt.Errorf("commit transaction: %w", toConcurrentModification(err))
	}
	return nil
}

// toConcurrentModification maps transaction conflicts reported by the server
// to database.ErrConcurrentModification.
func toConcurrentModification(err error) error {
	if errors.Is(err, database.ErrConcurrentModification) {
		return err
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) &&
		(serverErr.HasErrorLabel("TransientTransactionError") || serverErr.HasErrorCode(codeWriteConflict)) {
		return fmt.Errorf("%v: %w", err, database.ErrConcurrentModification)
	}
	return err
}

// CreateDoctypeInfo inserts a new doctype.
func (c *Client) CreateDoctypeInfo(ctx context.Context, info *database.DoctypeInfo) error {
	record, err := newDoctypeRecord(info)
	if err != nil {
		return err
	}

	if _, err := c.collection(ColDoctypes).InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", info.Name, database.ErrDoctypeAlreadyExists)
		}
		return fmt.Errorf("insert doctype of %s: %w", info.Name, err)
	}
	return nil
}

// UpdateDoctypeInfo replaces the fields of an existing doctype.
func (c *Client) UpdateDoctypeInfo(ctx context.Context, info *database.DoctypeInfo) error {
	record, err := newDoctypeRecord(info)
	if err != nil {
		return err
	}

	res, err := c.collection(ColDoctypes).UpdateOne(ctx, bson.M{"_id": info.Name}, bson.M{
		"$set": bson.M{
			"description": record.Description,
			"fields":      record.Fields,
			"is_child":    record.IsChild,
			"name_field":  record.NameField,
			"updated_at":  record.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("update doctype of %s: %w", info.Name, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", info.Name, database.ErrDoctypeNotFound)
	}
	return nil
}

// ListDoctypeInfos returns every doctype ordered by name.
func (c *Client) ListDoctypeInfos(ctx context.Context) ([]*database.DoctypeInfo, error) {
	cursor, err := c.collection(ColDoctypes).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list doctypes: %w", err)
	}

	var records []*doctypeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("fetch doctypes: %w", err)
	}

	infos := make([]*database.DoctypeInfo, 0, len(records))
	for _, record := range records {
		info, err := record.toInfo()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// CreateIntegrityLogInfo appends an integrity check record.
func (c *Client) CreateIntegrityLogInfo(ctx context.Context, info *database.IntegrityLogInfo) error {
	if info.ID == "" {
		info.ID = types.NewID()
	}

	if _, err := c.collection(ColIntegrityLogs).InsertOne(ctx, &integrityLogRecord{
		ID:            info.ID.String(),
		DocID:         info.DocID.String(),
		VersionNumber: info.VersionNumber,
		CheckedAt:     info.CheckedAt,
		CheckedBy:     info.CheckedBy,
		Passed:        info.Passed,
		ExpectedHash:  info.ExpectedHash,
		ActualHash:    info.ActualHash,
	}); err != nil {
		return fmt.Errorf("insert integrity log of %s: %w", info.DocID, err)
	}
	return nil
}

// FindIntegrityLogInfos returns the integrity check records of the document,
// newest first.
func (c *Client) FindIntegrityLogInfos(ctx context.Context, docID types.ID) ([]*database.IntegrityLogInfo, error) {
	cursor, err := c.collection(ColIntegrityLogs).Find(
		ctx,
		bson.M{"doc_id": docID.String()},
		options.Find().SetSort(bson.D{{Key: "checked_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find integrity logs of %s: %w", docID, err)
	}

	var records []*integrityLogRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("fetch integrity logs of %s: %w", docID, err)
	}

	infos := make([]*database.IntegrityLogInfo, 0, len(records))
	for _, record := range records {
		infos = append(infos, record.toInfo())
	}
	return infos, nil
}

// reader implements database.Reader. Inside RunTx the given context carries
// the session, so the same reader serves transactional reads.
type reader struct {
	db *mongo.Database
}

func (r *reader) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

func (r *reader) FindDoctypeInfo(ctx context.Context, name string) (*database.DoctypeInfo, error) {
	var record doctypeRecord
	if err := r.collection(ColDoctypes).FindOne(ctx, bson.M{"_id": name}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", name, database.ErrDoctypeNotFound)
		}
		return nil, fmt.Errorf("find doctype of %s: %w", name, err)
	}
	return record.toInfo()
}

func (r *reader) FindDocInfoByID(ctx context.Context, id types.ID) (*database.DocInfo, error) {
	var record docRecord
	if err := r.collection(ColDocuments).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", id, database.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("find document of %s: %w", id, err)
	}
	return record.toInfo(), nil
}

func (r *reader) findDocInfos(
	ctx context.Context,
	filter bson.M,
	opts ...options.Lister[options.FindOptions],
) ([]*database.DocInfo, error) {
	cursor, err := r.collection(ColDocuments).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	var records []*docRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	infos := make([]*database.DocInfo, 0, len(records))
	for _, record := range records {
		infos = append(infos, record.toInfo())
	}
	return infos, nil
}

func (r *reader) FindDocInfosByIDs(ctx context.Context, ids []types.ID) ([]*database.DocInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	found, err := r.findDocInfos(ctx, bson.M{"_id": bson.M{"$in": strIDs}})
	if err != nil {
		return nil, fmt.Errorf("find documents of %s: %w", types.JoinIDs(ids), err)
	}

	byID := make(map[types.ID]*database.DocInfo, len(found))
	for _, info := range found {
		byID[info.ID] = info
	}

	var infos []*database.DocInfo
	for _, id := range ids {
		if info, ok := byID[id]; ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (r *reader) FindChildDocInfos(ctx context.Context, parentID types.ID) ([]*database.DocInfo, error) {
	infos, err := r.findDocInfos(
		ctx,
		bson.M{"parent_id": parentID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find children of %s: %w", parentID, err)
	}
	return infos, nil
}

func (r *reader) FindDocInfoByUniqueKey(ctx context.Context, key string) (*database.DocInfo, error) {
	var holder uniqueKeyRecord
	if err := r.collection(ColUniqueKeys).FindOne(ctx, bson.M{"_id": key}).Decode(&holder); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find document by unique key %s: %w", key, err)
	}

	info, err := r.FindDocInfoByID(ctx, types.ID(holder.DocID))
	if errors.Is(err, database.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by unique key %s: %w", key, err)
	}
	if info.IsDeleted {
		return nil, nil
	}
	return info, nil
}

func (r *reader) FindLinkInfo(ctx context.Context, sourceID types.ID, field string) (*database.LinkInfo, error) {
	var record linkRecord
	if err := r.collection(ColLinks).FindOne(ctx, bson.M{
		"source_id": sourceID.String(),
		"field":     field,
	}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find link %s.%s: %w", sourceID, field, err)
	}

	return &database.LinkInfo{
		SourceID:  types.ID(record.SourceID),
		Field:     record.Field,
		TargetID:  types.ID(record.TargetID),
		CreatedBy: record.CreatedBy,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (r *reader) FindLinkMultipleInfos(
	ctx context.Context,
	sourceID types.ID,
	field string,
) ([]*database.LinkMultipleInfo, error) {
	cursor, err := r.collection(ColLinksMultiple).Find(
		ctx,
		bson.M{"source_id": sourceID.String(), "field": field},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find links %s.%s: %w", sourceID, field, err)
	}

	var records []*linkMultipleRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("fetch links %s.%s: %w", sourceID, field, err)
	}

	infos := make([]*database.LinkMultipleInfo, 0, len(records))
	for _, record := range records {
		infos = append(infos, &database.LinkMultipleInfo{
			SourceID:  types.ID(record.SourceID),
			Field:     record.Field,
			Order:     record.Position,
			TargetID:  types.ID(record.TargetID),
			CreatedAt: record.CreatedAt,
		})
	}
	return infos, nil
}

func (r *reader) FindOutgoingEdges(ctx context.Context, sourceID types.ID) ([]types.Edge, error) {
	return r.findEdges(ctx, "source_id", sourceID)
}

func (r *reader) FindIncomingEdges(ctx context.Context, targetID types.ID) ([]types.Edge, error) {
	return r.findEdges(ctx, "target_id", targetID)
}

// findEdges collects the edges of both collections matching the given key,
// ordered by source, field and position.
func (r *reader) findEdges(ctx context.Context, key string, id types.ID) ([]types.Edge, error) {
	filter := bson.M{key: id.String()}

	cursor, err := r.collection(ColLinks).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find links by %s %s: %w", key, id, err)
	}
	var links []*linkRecord
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("fetch links by %s %s: %w", key, id, err)
	}

	cursor, err = r.collection(ColLinksMultiple).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find multiple links by %s %s: %w", key, id, err)
	}
	var multiple []*linkMultipleRecord
	if err := cursor.All(ctx, &multiple); err != nil {
		return nil, fmt.Errorf("fetch multiple links by %s %s: %w", key, id, err)
	}

	records := make([]*linkMultipleRecord, 0, len(links)+len(multiple))
	for _, link := range links {
		records = append(records, &linkMultipleRecord{
			SourceID: link.SourceID,
			Field:    link.Field,
			TargetID: link.TargetID,
		})
	}
	records = append(records, multiple...)

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Position < b.Position
	})

	edges := make([]types.Edge, 0, len(records))
	for _, record := range records {
		edges = append(edges, types.Edge{
			SourceID: types.ID(record.SourceID),
			Field:    record.Field,
			TargetID: types.ID(record.TargetID),
		})
	}
	return edges, nil
}

func (r *reader) FindVersionInfo(ctx context.Context, docID types.ID, number int64) (*database.VersionInfo, error) {
	var record versionRecord
	if err := r.collection(ColVersions).FindOne(ctx, bson.M{
		"doc_id": docID.String(),
		"number": number,
	}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("version %d of %s: %w", number, docID, database.ErrVersionNotFound)
		}
		return nil, fmt.Errorf("find version %d of %s: %w", number, docID, err)
	}
	return record.toInfo(), nil
}

func (r *reader) FindVersionInfos(ctx context.Context, docID types.ID, limit int) ([]*database.VersionInfo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection(ColVersions).Find(ctx, bson.M{"doc_id": docID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("find versions of %s: %w", docID, err)
	}

	var records []*versionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("fetch versions of %s: %w", docID, err)
	}

	infos := make([]*database.VersionInfo, 0, len(records))
	for _, record := range records {
		infos = append(infos, record.toInfo())
	}
	return infos, nil
}

// tx implements database.Tx. Its methods must be called with the session
// context given by RunTx.
type tx struct {
	reader
}

// LockDocInfo touches the lock counter of the document so that concurrent
// transactions writing the same document conflict.
func (t *tx) LockDocInfo(ctx context.Context, id types.ID) (*database.DocInfo, error) {
	var record docRecord
	if err := t.collection(ColDocuments).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"lock_seq": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", id, database.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("lock document of %s: %w", id, toConcurrentModification(err))
	}
	return record.toInfo(), nil
}

func (t *tx) CreateDocInfo(ctx context.Context, info *database.DocInfo) error {
	if _, err := t.collection(ColDocuments).InsertOne(ctx, newDocRecord(info)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", info.ID, database.ErrDocumentAlreadyExists)
		}
		return fmt.Errorf("insert document of %s: %w", info.ID, toConcurrentModification(err))
	}
	return t.replaceUniqueKeys(ctx, info)
}

func (t *tx) UpdateDocInfo(ctx context.Context, info *database.DocInfo) error {
	record := newDocRecord(info)
	res, err := t.collection(ColDocuments).UpdateOne(ctx, bson.M{"_id": record.ID}, bson.M{
		"$set": bson.M{
			"doctype":         record.Doctype,
			"name":            record.Name,
			"values":          record.Values,
			"parent_id":       record.ParentID,
			"parent_field":    record.ParentField,
			"current_version": record.CurrentVersion,
			"unique_keys":     record.UniqueKeys,
			"modified_by":     record.ModifiedBy,
			"modified_at":     record.ModifiedAt,
			"is_deleted":      record.IsDeleted,
		},
	})
	if err != nil {
		return fmt.Errorf("update document of %s: %w", info.ID, toConcurrentModification(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", info.ID, database.ErrDocumentNotFound)
	}
	return t.replaceUniqueKeys(ctx, info)
}

// replaceUniqueKeys rewrites the keys held by the document. A key held by
// another document fails the insert on its _id.
func (t *tx) replaceUniqueKeys(ctx context.Context, info *database.DocInfo) error {
	if _, err := t.collection(ColUniqueKeys).DeleteMany(ctx, bson.M{"doc_id": info.ID.String()}); err != nil {
		return fmt.Errorf("delete unique keys of %s: %w", info.ID, toConcurrentModification(err))
	}

	for _, key := range info.UniqueKeys {
		if _, err := t.collection(ColUniqueKeys).InsertOne(ctx, &uniqueKeyRecord{
			Key:   key,
			DocID: info.ID.String(),
		}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("unique key %s: %w", key, database.ErrConcurrentModification)
			}
			return fmt.Errorf("insert unique key of %s: %w", info.ID, toConcurrentModification(err))
		}
	}
	return nil
}

func (t *tx) UpsertLinkInfo(ctx context.Context, info *database.LinkInfo) error {
	if _, err := t.collection(ColLinks).UpdateOne(ctx, bson.M{
		"source_id": info.SourceID.String(),
		"field":     info.Field,
	}, bson.M{
		"$set": bson.M{
			"target_id":  info.TargetID.String(),
			"created_by": info.CreatedBy,
			"created_at": info.CreatedAt,
		},
	}, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert link %s.%s: %w", info.SourceID, info.Field, toConcurrentModification(err))
	}
	return nil
}

func (t *tx) DeleteLinkInfo(ctx context.Context, sourceID types.ID, field string) error {
	if _, err := t.collection(ColLinks).DeleteOne(ctx, bson.M{
		"source_id": sourceID.String(),
		"field":     field,
	}); err != nil {
		return fmt.Errorf("delete link %s.%s: %w", sourceID, field, toConcurrentModification(err))
	}
	return nil
}

func (t *tx) ReplaceLinkMultipleInfos(
	ctx context.Context,
	sourceID types.ID,
	field string,
	infos []*database.LinkMultipleInfo,
) error {
	if _, err := t.collection(ColLinksMultiple).DeleteMany(ctx, bson.M{
		"source_id": sourceID.String(),
		"field":     field,
	}); err != nil {
		return fmt.Errorf("delete links %s.%s: %w", sourceID, field, toConcurrentModification(err))
	}
	if len(infos) == 0 {
		return nil
	}

	records := make([]any, 0, len(infos))
	for _, info := range infos {
		records = append(records, &linkMultipleRecord{
			SourceID:  sourceID.String(),
			Field:     field,
			Position:  info.Order,
			TargetID:  info.TargetID.String(),
			CreatedAt: info.CreatedAt,
		})
	}
	if _, err := t.collection(ColLinksMultiple).InsertMany(ctx, records); err != nil {
		return fmt.Errorf("insert links %s.%s: %w", sourceID, field, toConcurrentModification(err))
	}
	return nil
}

func (t *tx) DeleteOutgoingEdges(ctx context.Context, sourceID types.ID) (int, error) {
	var removed int64
	for _, name := range []string{ColLinks, ColLinksMultiple} {
		res, err := t.collection(name).DeleteMany(ctx, bson.M{"source_id": sourceID.String()})
		if err != nil {
			return 0, fmt.Errorf("delete %s of %s: %w", name, sourceID, toConcurrentModification(err))
		}
		removed += res.DeletedCount
	}
	return int(removed), nil
}

func (t *tx) CreateVersionInfo(ctx context.Context, info *database.VersionInfo) error {
	if _, err := t.collection(ColVersions).InsertOne(ctx, newVersionRecord(info)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("version %d of %s: %w", info.Number, info.DocID, database.ErrConcurrentModification)
		}
		return fmt.Errorf("insert version %d of %s: %w", info.Number, info.DocID, toConcurrentModification(err))
	}
	return nil
}
