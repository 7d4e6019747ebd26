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

var restoreComment string

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "restore [document id] [version]",
		Short:   "Restore a document to the values of an earlier version",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("document id and version number are required")
			}
			number, err := parseVersion(args[1])
			if err != nil {
				return err
			}

			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			restored, err := r.RestoreVersion(ctx, types.ID(args[0]), number, config.Actor(), restoreComment)
			if err != nil {
				return err
			}

			return config.Print(cmd, restored, func() string {
				return fmt.Sprintf("version %d created: %s", restored.Number, restored.Comment)
			})
		},
	}
}

func init() {
	cmd := newRestoreCmd()
	cmd.Flags().StringVarP(
		&restoreComment,
		"message",
		"m",
		"",
		"Comment of the new version (default: Restored to version N)",
	)
	rootCmd.AddCommand(cmd)
}
