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

package versions

import (
	"context"
	"fmt"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/logging"
	"github.com/docvault/docvault/server/schemas"
)

// Restore appends a new version whose snapshot equals the given version.
// The target is verified first and a failed check refuses the restore. The
// snapshot is validated against the current schema of the doctype, and the
// link edges are reconciled as for a normal save. History is never
// rewritten.
func Restore(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	number int64,
	actor string,
	comment string,
) (*types.DocumentVersion, error) {
	// 01. Load and verify the target version. A failed check is recorded
	// and nothing else is written.
	target, err := be.DB.FindVersionInfo(ctx, docID, number)
	if err != nil {
		return nil, fmt.Errorf("restore version %d of %s: %w", number, docID, err)
	}

	passed, err := Verify(ctx, be, target, actor)
	if err != nil {
		return nil, err
	}
	if !passed {
		return nil, fmt.Errorf("restore version %d of %s: %w", number, docID, ErrIntegrityCheckFailed)
	}

	snapshot, err := types.DecodeValues(target.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("restore version %d of %s: %w", number, docID, err)
	}

	if comment == "" {
		comment = fmt.Sprintf("Restored to version %d", number)
	}

	current, err := be.DB.FindDocInfoByID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("restore version %d of %s: %w", number, docID, err)
	}
	doctype, err := schemas.GetDoctype(ctx, be, current.Doctype)
	if err != nil {
		return nil, fmt.Errorf("restore version %d of %s: %w", number, docID, err)
	}

	// 02. Serialize writers of the document and apply the snapshot as a new
	// version.
	be.Lockers.Lock(docID)
	defer func() {
		if err := be.Lockers.Unlock(docID); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	var version *types.DocumentVersion
	if err := be.DB.RunTx(ctx, func(ctx context.Context, tx database.Tx) error {
		info, err := tx.LockDocInfo(ctx, docID)
		if err != nil {
			return err
		}
		if info.IsDeleted {
			return database.ErrDocumentNotFound
		}

		next, err := schemas.Validate(doctype, info.Values, schemas.Input(snapshot), schemas.ModeRestore)
		if err != nil {
			return err
		}

		version, err = Commit(ctx, be, tx, doctype, info, next, false, actor, comment)
		return err
	}); err != nil {
		return nil, fmt.Errorf("restore version %d of %s: %w", number, docID, err)
	}

	be.Metrics.AddVersionAppended(doctype.Name)
	logging.From(ctx).Debugf("document %s restored to version %d as version %d", docID, number, version.Number)
	return version, nil
}
