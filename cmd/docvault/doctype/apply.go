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

package doctype

import (
	"bytes"
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
	"github.com/docvault/docvault/server"
	"github.com/docvault/docvault/server/backend/database"
)

var filePath string

func newApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "apply -f [file]",
		Short:   "Create or update doctypes from a HuJSON file",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return errors.New("a doctype file is required")
			}

			data, err := os.ReadFile(filepath.Clean(filePath))
			if err != nil {
				return fmt.Errorf("read doctype file: %w", err)
			}
			doctypes, err := parseDoctypes(data)
			if err != nil {
				return err
			}

			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			for _, doctype := range doctypes {
				action, err := apply(ctx, r, doctype)
				if err != nil {
					return err
				}
				cmd.Printf("doctype %q %s\n", doctype.Name, action)
			}
			return nil
		},
	}
}

// parseDoctypes parses a HuJSON document holding one doctype or a list of
// them. Comments and trailing commas are allowed.
func parseDoctypes(data []byte) ([]*types.Doctype, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid HuJSON: %w", err)
	}

	var doctypes []*types.Doctype
	if bytes.HasPrefix(bytes.TrimSpace(standardized), []byte("[")) {
		if err := json.Unmarshal(standardized, &doctypes); err != nil {
			return nil, fmt.Errorf("decode doctypes: %w", err)
		}
	} else {
		doctype := &types.Doctype{}
		if err := json.Unmarshal(standardized, doctype); err != nil {
			return nil, fmt.Errorf("decode doctype: %w", err)
		}
		doctypes = append(doctypes, doctype)
	}

	if len(doctypes) == 0 {
		return nil, errors.New("no doctype in file")
	}
	return doctypes, nil
}

// apply creates the doctype, or updates its fields when it exists.
func apply(ctx context.Context, r *server.DocVault, doctype *types.Doctype) (string, error) {
	_, err := r.GetDoctype(ctx, doctype.Name)
	if errors.Is(err, database.ErrDoctypeNotFound) {
		if _, err := r.CreateDoctype(ctx, doctype); err != nil {
			return "", err
		}
		return "created", nil
	}
	if err != nil {
		return "", err
	}

	if _, err := r.UpdateDoctype(ctx, doctype); err != nil {
		return "", err
	}
	return "updated", nil
}

func init() {
	cmd := newApplyCommand()
	cmd.Flags().StringVarP(
		&filePath,
		"file",
		"f",
		"",
		"HuJSON file with a doctype or a list of doctypes",
	)
	SubCmd.AddCommand(cmd)
}
