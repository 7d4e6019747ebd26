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

package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

var (
	valuesPath  string
	parentID    string
	parentField string
)

func newSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "save [doctype] [document id] -f [values file]",
		Short:   "Create a document, or update it when an id is given",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return errors.New("doctype is required")
			}
			var id types.ID
			if len(args) == 2 {
				id = types.ID(args[1])
			}
			if (parentID == "") != (parentField == "") {
				return errors.New("--parent and --parent-field must be given together")
			}

			values := map[string]any{}
			if valuesPath != "" {
				data, err := os.ReadFile(filepath.Clean(valuesPath))
				if err != nil {
					return fmt.Errorf("read values file: %w", err)
				}
				if values, err = parseValues(data); err != nil {
					return err
				}
			}

			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			var doc *types.Document
			if parentID != "" {
				doc, err = r.SaveChildDocument(ctx, args[0], types.ID(parentID), parentField, id, values, config.Actor())
			} else {
				doc, err = r.SaveDocument(ctx, args[0], id, values, config.Actor())
			}
			if err != nil {
				return err
			}

			return printDocument(cmd, doc)
		},
	}
}

// parseValues parses a HuJSON object of field values.
func parseValues(data []byte) (map[string]any, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid HuJSON: %w", err)
	}

	values := map[string]any{}
	if err := json.Unmarshal(standardized, &values); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	return values, nil
}

func init() {
	cmd := newSaveCommand()
	cmd.Flags().StringVarP(
		&valuesPath,
		"file",
		"f",
		"",
		"HuJSON file with the field values",
	)
	cmd.Flags().StringVar(
		&parentID,
		"parent",
		"",
		"The parent document of a child row",
	)
	cmd.Flags().StringVar(
		&parentField,
		"parent-field",
		"",
		"The table field of the parent holding the row",
	)
	SubCmd.AddCommand(cmd)
}
