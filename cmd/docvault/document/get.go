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
	"errors"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get [document id]",
		Short:   "Show a document",
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

			doc, err := r.GetDocument(context.Background(), types.ID(args[0]))
			if err != nil {
				return err
			}
			return printDocument(cmd, doc)
		},
	}
}

func newChildrenCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "children [document id]",
		Short:   "List the rows of a document",
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

			rows, err := r.GetChildDocuments(context.Background(), types.ID(args[0]))
			if err != nil {
				return err
			}
			return printDocuments(cmd, rows)
		},
	}
}

func init() {
	SubCmd.AddCommand(newGetCommand())
	SubCmd.AddCommand(newChildrenCommand())
}
