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

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

// verifyResult is the outcome of verifying the history of a document.
type verifyResult struct {
	DocID  types.ID `json:"doc_id"`
	Failed []int64  `json:"failed"`
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "verify [document id]",
		Short:   "Verify the hash and signature of every version of a document",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("document id is required")
			}

			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			id := types.ID(args[0])
			failed, err := r.VerifyHistory(ctx, id)
			if err != nil {
				return err
			}

			result := &verifyResult{DocID: id, Failed: failed}
			if err := config.Print(cmd, result, func() string {
				if len(failed) == 0 {
					return "all versions verified"
				}
				return fmt.Sprintf("integrity check failed for versions %v", failed)
			}); err != nil {
				return err
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d versions of %s failed verification", len(failed), id)
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}
