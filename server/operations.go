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
	"context"
	"strconv"
	gotime "time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/documents"
	"github.com/docvault/docvault/server/links"
	"github.com/docvault/docvault/server/logging"
	"github.com/docvault/docvault/server/schemas"
	"github.com/docvault/docvault/server/tracing"
	"github.com/docvault/docvault/server/versions"
)

// SystemActor is recorded as the checker of integrity checks that run as a
// side effect of reads.
const SystemActor = "system"

// Export is a document together with its full version history.
type Export struct {
	Document *types.Document          `json:"document"`
	Versions []*types.DocumentVersion `json:"versions"`
}

// run serves one operation: it tags the logger with an operation id, opens
// a span and observes the latency and outcome.
func run[T any](
	ctx context.Context,
	r *DocVault,
	operation string,
	attrs []attribute.KeyValue,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	ctx, opID := logging.WithOperation(ctx, operation)
	ctx, span := r.tracer.Start(ctx, operation, append(attrs, attribute.String("op_id", opID))...)

	start := gotime.Now()
	result, err := fn(ctx)
	r.backend.Metrics.ObserveOperation(operation, gotime.Since(start).Seconds(), err)
	tracing.End(span, err)

	if err != nil {
		logging.From(ctx).Debugf("%s: %v", operation, err)
	}
	return result, err
}

func docAttr(id types.ID) attribute.KeyValue {
	return attribute.String("doc_id", id.String())
}

// CreateDoctype registers a new doctype.
func (r *DocVault) CreateDoctype(ctx context.Context, doctype *types.Doctype) (*types.Doctype, error) {
	return run(ctx, r, "CreateDoctype", []attribute.KeyValue{
		attribute.String("doctype", doctype.Name),
	}, func(ctx context.Context) (*types.Doctype, error) {
		return schemas.CreateDoctype(ctx, r.backend, doctype)
	})
}

// UpdateDoctype replaces the fields of an existing doctype.
func (r *DocVault) UpdateDoctype(ctx context.Context, doctype *types.Doctype) (*types.Doctype, error) {
	return run(ctx, r, "UpdateDoctype", []attribute.KeyValue{
		attribute.String("doctype", doctype.Name),
	}, func(ctx context.Context) (*types.Doctype, error) {
		return schemas.UpdateDoctype(ctx, r.backend, doctype)
	})
}

// GetDoctype returns the doctype of the given name.
func (r *DocVault) GetDoctype(ctx context.Context, name string) (*types.Doctype, error) {
	return run(ctx, r, "GetDoctype", []attribute.KeyValue{
		attribute.String("doctype", name),
	}, func(ctx context.Context) (*types.Doctype, error) {
		return schemas.GetDoctype(ctx, r.backend, name)
	})
}

// ListDoctypes returns every doctype ordered by name.
func (r *DocVault) ListDoctypes(ctx context.Context) ([]*types.Doctype, error) {
	return run(ctx, r, "ListDoctypes", nil, func(ctx context.Context) ([]*types.Doctype, error) {
		return schemas.ListDoctypes(ctx, r.backend)
	})
}

// SaveDocument creates a document when id is empty and updates it
// otherwise. Every successful save appends a version.
func (r *DocVault) SaveDocument(
	ctx context.Context,
	doctype string,
	id types.ID,
	values map[string]any,
	actor string,
) (*types.Document, error) {
	return run(ctx, r, "SaveDocument", []attribute.KeyValue{
		attribute.String("doctype", doctype),
		docAttr(id),
	}, func(ctx context.Context) (*types.Document, error) {
		return documents.SaveDocument(ctx, r.backend, doctype, id, values, actor)
	})
}

// SaveChildDocument saves a row of the table field parentField of the
// document parentID.
func (r *DocVault) SaveChildDocument(
	ctx context.Context,
	doctype string,
	parentID types.ID,
	parentField string,
	id types.ID,
	values map[string]any,
	actor string,
) (*types.Document, error) {
	return run(ctx, r, "SaveChildDocument", []attribute.KeyValue{
		attribute.String("doctype", doctype),
		attribute.String("parent_id", parentID.String()),
		docAttr(id),
	}, func(ctx context.Context) (*types.Document, error) {
		parent := documents.Parent{ID: parentID, Field: parentField}
		return documents.SaveChildDocument(ctx, r.backend, doctype, parent, id, values, actor)
	})
}

// DeleteDocument soft deletes the document and its rows. It fails with a
// *documents.ProtectedDeletionError while live documents still link to it.
func (r *DocVault) DeleteDocument(ctx context.Context, id types.ID, actor string) error {
	_, err := run(ctx, r, "DeleteDocument", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, documents.DeleteDocument(ctx, r.backend, id, actor)
	})
	return err
}

// GetDocument returns the live document of the given id.
func (r *DocVault) GetDocument(ctx context.Context, id types.ID) (*types.Document, error) {
	return run(ctx, r, "GetDocument", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) (*types.Document, error) {
		return documents.GetDocument(ctx, r.backend, id)
	})
}

// GetLink returns the target of the link field of the document, or nil.
func (r *DocVault) GetLink(ctx context.Context, id types.ID, field string) (*types.Document, error) {
	return run(ctx, r, "GetLink", []attribute.KeyValue{
		docAttr(id),
		attribute.String("field", field),
	}, func(ctx context.Context) (*types.Document, error) {
		return links.GetLink(ctx, r.backend, id, field)
	})
}

// GetLinkedDocuments returns the targets of the link-multiple field of the
// document in their stored order.
func (r *DocVault) GetLinkedDocuments(ctx context.Context, id types.ID, field string) ([]*types.Document, error) {
	return run(ctx, r, "GetLinkedDocuments", []attribute.KeyValue{
		docAttr(id),
		attribute.String("field", field),
	}, func(ctx context.Context) ([]*types.Document, error) {
		return links.GetLinkedDocuments(ctx, r.backend, id, field)
	})
}

// GetReferencingDocuments returns the live documents linking to the document.
func (r *DocVault) GetReferencingDocuments(ctx context.Context, id types.ID) ([]*types.DocumentReference, error) {
	return run(ctx, r, "GetReferencingDocuments", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) ([]*types.DocumentReference, error) {
		return links.GetReferencingDocuments(ctx, r.backend, id)
	})
}

// GetChildDocuments returns the live rows of the document.
func (r *DocVault) GetChildDocuments(ctx context.Context, id types.ID) ([]*types.Document, error) {
	return run(ctx, r, "GetChildDocuments", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) ([]*types.Document, error) {
		return documents.GetChildDocuments(ctx, r.backend, id)
	})
}

// ListVersions returns the versions of the document, newest first. A limit
// of 0 returns all of them.
func (r *DocVault) ListVersions(ctx context.Context, id types.ID, limit int) ([]*types.VersionSummary, error) {
	return run(ctx, r, "ListVersions", []attribute.KeyValue{
		docAttr(id),
		attribute.Int("limit", limit),
	}, func(ctx context.Context) ([]*types.VersionSummary, error) {
		return versions.List(ctx, r.backend, id, limit)
	})
}

// GetVersion returns the version of the document, verified.
func (r *DocVault) GetVersion(ctx context.Context, id types.ID, number int64) (*types.DocumentVersion, error) {
	return run(ctx, r, "GetVersion", []attribute.KeyValue{
		docAttr(id),
		attribute.Int64("version", number),
	}, func(ctx context.Context) (*types.DocumentVersion, error) {
		return versions.Get(ctx, r.backend, id, number, SystemActor)
	})
}

// CompareVersions returns the difference between two versions of the
// document. Fields, when given, restrict the comparison.
func (r *DocVault) CompareVersions(
	ctx context.Context,
	id types.ID,
	from, to int64,
	format types.DiffFormat,
	fields ...string,
) (*types.Comparison, error) {
	return run(ctx, r, "CompareVersions", []attribute.KeyValue{
		docAttr(id),
		attribute.String("versions", strconv.FormatInt(from, 10)+".."+strconv.FormatInt(to, 10)),
		attribute.String("format", string(format)),
	}, func(ctx context.Context) (*types.Comparison, error) {
		return versions.Compare(ctx, r.backend, id, from, to, format, fields...)
	})
}

// RestoreVersion brings the document back to the values of the given
// version by appending a new version.
func (r *DocVault) RestoreVersion(
	ctx context.Context,
	id types.ID,
	number int64,
	actor string,
	comment string,
) (*types.DocumentVersion, error) {
	return run(ctx, r, "RestoreVersion", []attribute.KeyValue{
		docAttr(id),
		attribute.Int64("version", number),
	}, func(ctx context.Context) (*types.DocumentVersion, error) {
		return versions.Restore(ctx, r.backend, id, number, actor, comment)
	})
}

// VerifyHistory verifies every version of the document and returns the
// numbers of the versions that failed.
func (r *DocVault) VerifyHistory(ctx context.Context, id types.ID) ([]int64, error) {
	return run(ctx, r, "VerifyHistory", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) ([]int64, error) {
		return versions.VerifyHistory(ctx, r.backend, id, SystemActor)
	})
}

// ListIntegrityLogs returns the recorded integrity checks of the document.
func (r *DocVault) ListIntegrityLogs(ctx context.Context, id types.ID) ([]*types.IntegrityLog, error) {
	return run(ctx, r, "ListIntegrityLogs", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) ([]*types.IntegrityLog, error) {
		return versions.ListIntegrityLogs(ctx, r.backend, id)
	})
}

// ExportDocument returns the document with every version, oldest first.
// Each version is verified on the way out and a tampered one fails the
// export.
func (r *DocVault) ExportDocument(ctx context.Context, id types.ID) (*Export, error) {
	return run(ctx, r, "ExportDocument", []attribute.KeyValue{
		docAttr(id),
	}, func(ctx context.Context) (*Export, error) {
		doc, err := documents.GetDocument(ctx, r.backend, id)
		if err != nil {
			return nil, err
		}

		export := &Export{Document: doc}
		for n := range doc.CurrentVersion {
			v, err := versions.Get(ctx, r.backend, id, n+1, SystemActor)
			if err != nil {
				return nil, err
			}
			export.Versions = append(export.Versions, v)
		}
		return export, nil
	})
}
