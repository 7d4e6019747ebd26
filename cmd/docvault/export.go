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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "export [document id] [file]",
		Short:   "Write a document and its full history to a JSON file",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("document id and file are required")
			}

			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			export, err := r.ExportDocument(ctx, types.ID(args[0]))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal JSON: %w", err)
			}
			if err := atomic.WriteFile(args[1], bytes.NewReader(data)); err != nil {
				return fmt.Errorf("write %s: %w", args[1], err)
			}

			cmd.Printf("exported %d versions to %s\n", len(export.Versions), args[1])
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newExportCmd())
}
