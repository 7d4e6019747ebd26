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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
	"github.com/docvault/docvault/server/documents"
)

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [document id]",
		Short:   "Delete a document and its rows",
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

			err = r.DeleteDocument(context.Background(), types.ID(args[0]), config.Actor())
			var protected *documents.ProtectedDeletionError
			if errors.As(err, &protected) {
				var sources []string
				for _, edge := range protected.BlockingEdges {
					sources = append(sources, fmt.Sprintf("  %s.%s", edge.SourceID, edge.Field))
				}
				return fmt.Errorf("%s is still referenced by:\n%s", protected.DocumentID, strings.Join(sources, "\n"))
			}
			if err != nil {
				return err
			}

			cmd.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func init() {
	SubCmd.AddCommand(newRemoveCommand())
}
