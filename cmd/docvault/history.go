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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "history [document id]",
		Short:   "Show the versions of a document, newest first",
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
			summaries, err := r.ListVersions(ctx, types.ID(args[0]), historyLimit)
			if err != nil {
				return err
			}

			return config.Print(cmd, summaries, func() string {
				tw := config.NewTable("VERSION", "CHANGED BY", "CHANGED AT", "CHANGES", "COMMENT")
				for _, summary := range summaries {
					number := strconv.FormatInt(summary.Number, 10)
					if summary.IsCurrent {
						number += " (current)"
					}
					tw.AppendRow([]any{
						number,
						summary.ChangedBy,
						summary.ChangedAt.Format(time.RFC3339),
						summary.ChangesSummary,
						summary.Comment,
					})
				}
				return tw.Render()
			})
		},
	}
}

// parseVersion parses a version number argument.
func parseVersion(arg string) (int64, error) {
	number, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || number < 1 {
		return 0, fmt.Errorf("invalid version number %q", arg)
	}
	return number, nil
}

func init() {
	cmd := newHistoryCmd()
	cmd.Flags().IntVar(
		&historyLimit,
		"limit",
		0,
		"The number of versions to show, 0 for all",
	)
	rootCmd.AddCommand(cmd)
}
