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

// Package main is the entry point of the DocVault CLI.
package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docvault/docvault/cmd/docvault/doctype"
	"github.com/docvault/docvault/cmd/docvault/document"
)

var rootCmd = &cobra.Command{
	Use:          "docvault",
	Short:        "Document engine for validated, linked and versioned records",
	SilenceUsage: true,
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

func init() {
	rootCmd.AddCommand(doctype.SubCmd)
	rootCmd.AddCommand(document.SubCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Config path")
	flags.String("db", "", "Database to use: memory, sqlite or mongo")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.String("mongo-connection-uri", "", "MongoDB's connection URI")
	flags.String("version-signing-secret", "", "Secret the version signing key is derived from")
	flags.String("actor", "", "Name changes are recorded with (default: $USER)")
	flags.StringP("output", "o", "", "One of 'yaml' or 'json'.")
	flags.StringP("log-level", "l", "warn", "Log level: debug, info, warn, error, panic, fatal")

	for _, name := range []string{
		"config",
		"db",
		"sqlite-path",
		"mongo-connection-uri",
		"version-signing-secret",
		"actor",
		"output",
		"log-level",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	viper.SetEnvPrefix("DOCVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
