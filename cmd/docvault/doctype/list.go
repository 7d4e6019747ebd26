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
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/cmd/docvault/config"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Short:   "List all doctypes",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := config.Open()
			if err != nil {
				return err
			}
			defer config.Close(r)

			ctx := context.Background()
			doctypes, err := r.ListDoctypes(ctx)
			if err != nil {
				return err
			}

			return config.Print(cmd, doctypes, func() string {
				tw := config.NewTable("NAME", "CHILD", "FIELDS", "UPDATED AT")
				for _, doctype := range doctypes {
					var fields []string
					for _, field := range doctype.Fields {
						fields = append(fields, field.Name+":"+string(field.Type))
					}
					tw.AppendRow([]any{
						doctype.Name,
						doctype.IsChild,
						strings.Join(fields, " "),
						doctype.UpdatedAt.Format(time.RFC3339),
					})
				}
				return tw.Render()
			})
		},
	}
}

func init() {
	SubCmd.AddCommand(newListCommand())
}
