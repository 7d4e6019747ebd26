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
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/cmd/docvault/config"
	"github.com/docvault/docvault/internal/version"
)

// versionInfo is the build information of the binary.
type versionInfo struct {
	DocVaultVersion string `json:"docvault_version" yaml:"docvault_version"`
	GitCommit       string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	GoVersion       string `json:"go_version" yaml:"go_version"`
	BuildDate       string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the version number of DocVault",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := &versionInfo{
				DocVaultVersion: version.Version,
				GitCommit:       version.GitCommit,
				GoVersion:       runtime.Version(),
				BuildDate:       version.BuildDate,
			}

			return config.Print(cmd, info, func() string {
				return fmt.Sprintf(
					"DocVault: %s\nGo: %s\nBuild Date: %s",
					info.DocVaultVersion,
					info.GoVersion,
					info.BuildDate,
				)
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
