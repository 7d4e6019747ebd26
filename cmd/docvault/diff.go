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
	"strings"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

var (
	diffUnified bool
	diffFields  []string
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "diff [document id] [from version] [to version]",
		Short:   "Compare two versions of a document",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return errors.New("document id and two version numbers are required")
			}
			from, err := parseVersion(args[1])
			if err != nil {
				return err
			}
			to, err := parseVersion(args[2])
			if err != nil {
				return err
			}

			format := types.DiffStructured
			if diffUnified {
				format = types.DiffUnified
			}

			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			comparison, err := r.CompareVersions(ctx, types.ID(args[0]), from, to, format, diffFields...)
			if err != nil {
				return err
			}

			return config.Print(cmd, comparison, func() string {
				if diffUnified {
					return strings.TrimSuffix(comparison.Unified, "\n")
				}
				return renderDiff(comparison.Diff)
			})
		},
	}
}

// renderDiff renders a structured diff as one line per changed field.
func renderDiff(diff *types.Diff) string {
	if diff.IsEmpty() {
		return "No changes"
	}

	tw := config.NewTable("", "FIELD", "OLD", "NEW")
	for _, field := range diff.Fields() {
		if v, ok := diff.Added[field]; ok {
			tw.AppendRow([]any{"+", field, "", v.String()})
		} else if change, ok := diff.Modified[field]; ok {
			tw.AppendRow([]any{"~", field, change.Old.String(), change.New.String()})
		} else if v, ok := diff.Removed[field]; ok {
			tw.AppendRow([]any{"-", field, v.String(), ""})
		}
	}
	return tw.Render()
}

func init() {
	cmd := newDiffCmd()
	cmd.Flags().BoolVar(
		&diffUnified,
		"unified",
		false,
		"Print a line based diff of the snapshots",
	)
	cmd.Flags().StringSliceVar(
		&diffFields,
		"field",
		nil,
		"Only compare the given fields",
	)
	rootCmd.AddCommand(cmd)
}
