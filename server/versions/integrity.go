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
	gotime "time"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/backend"
	"github.com/docvault/docvault/server/backend/database"
	"github.com/docvault/docvault/server/logging"
)

// Verify recomputes the hash and the signature of the stored snapshot and
// compares them with the stored ones. A failure is logged, counted and
// recorded in the integrity log before false is returned. The error is only
// set when the record could not be written.
func Verify(
	ctx context.Context,
	be *backend.Backend,
	info *database.VersionInfo,
	actor string,
) (bool, error) {
	result := be.Signer.Verify(info.Snapshot, info.DataHash, info.Signature)
	passed := result.Passed()
	be.Metrics.AddIntegrityCheck(passed)

	if !passed {
		logging.From(ctx).Errorw(
			"version integrity check failed",
			"doc_id", info.DocID.String(),
			"version", info.Number,
			"expected_hash", result.ExpectedHash,
			"actual_hash", result.ActualHash,
			"hash_matched", result.HashMatched,
			"signature_matched", result.SignatureMatched,
		)
	}

	if passed && !be.Config.RecordPassedIntegrityChecks {
		return true, nil
	}

	if err := be.DB.CreateIntegrityLogInfo(ctx, &database.IntegrityLogInfo{
		DocID:         info.DocID,
		VersionNumber: info.Number,
		CheckedAt:     gotime.Now().UTC(),
		CheckedBy:     actor,
		Passed:        passed,
		ExpectedHash:  result.ExpectedHash,
		ActualHash:    result.ActualHash,
	}); err != nil {
		return passed, fmt.Errorf("record integrity check of version %d of %s: %w", info.Number, info.DocID, err)
	}

	return passed, nil
}

// VerifyHistory verifies every version of the document and returns the
// numbers of the versions that failed, in ascending order.
func VerifyHistory(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	actor string,
) ([]int64, error) {
	if _, err := be.DB.FindDocInfoByID(ctx, docID); err != nil {
		return nil, fmt.Errorf("verify history of %s: %w", docID, err)
	}

	infos, err := be.DB.FindVersionInfos(ctx, docID, 0)
	if err != nil {
		return nil, fmt.Errorf("verify history of %s: %w", docID, err)
	}

	var failed []int64
	for i := len(infos) - 1; i >= 0; i-- {
		passed, err := Verify(ctx, be, infos[i], actor)
		if err != nil {
			return nil, err
		}
		if !passed {
			failed = append(failed, infos[i].Number)
		}
	}
	return failed, nil
}

// ListIntegrityLogs returns the recorded integrity checks of the document,
// newest first.
func ListIntegrityLogs(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) ([]*types.IntegrityLog, error) {
	infos, err := be.DB.FindIntegrityLogInfos(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list integrity logs of %s: %w", docID, err)
	}

	logs := make([]*types.IntegrityLog, 0, len(infos))
	for _, info := range infos {
		logs = append(logs, info.ToIntegrityLog())
	}
	return logs, nil
}
