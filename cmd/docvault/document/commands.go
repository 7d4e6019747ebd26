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

// Package document provides the document commands of the DocVault CLI.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/cmd/docvault/config"
)

var (
	// SubCmd represents the document command
	SubCmd = &cobra.Command{
		Use:     "doc",
		Short:   "Manage documents",
		Aliases: []string{"document"},
	}
)

// printDocuments prints the documents in the format selected by --output.
func printDocuments(cmd *cobra.Command, documents []*types.Document) error {
	return config.Print(cmd, documents, func() string {
		tw := config.NewTable("ID", "DOCTYPE", "NAME", "VERSION", "MODIFIED BY", "MODIFIED AT")
		for _, doc := range documents {
			tw.AppendRow([]any{
				doc.ID,
				doc.Doctype,
				doc.Name,
				doc.CurrentVersion,
				doc.ModifiedBy,
				doc.ModifiedAt.Format(time.RFC3339),
			})
		}
		return tw.Render()
	})
}

// printDocument prints one document with its values.
func printDocument(cmd *cobra.Command, doc *types.Document) error {
	return config.Print(cmd, doc, func() string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %s (%s) version %d\n", doc.Doctype, doc.Name, doc.ID, doc.CurrentVersion)
		if doc.IsChild() {
			fmt.Fprintf(&sb, "row of %s.%s\n", doc.ParentID, doc.ParentField)
		}

		tw := config.NewTable("FIELD", "VALUE")
		for _, field := range doc.Values.Keys() {
			tw.AppendRow([]any{field, doc.Values[field].String()})
		}
		sb.WriteString(tw.Render())
		return sb.String()
	})
}
