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

// Package config provides the configuration shared by the commands of the
// DocVault CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/docvault/docvault/server"
	"github.com/docvault/docvault/server/logging"
)

// DefaultActor is recorded as the author of changes when neither --actor
// nor $USER is set.
const DefaultActor = "cli"

// Preload validates the global flags before a command runs.
func Preload(_ *cobra.Command, _ []string) error {
	output := viper.GetString("output")
	if output != "" && output != "yaml" && output != "json" {
		return errors.New(`--output must be 'yaml' or 'json'`)
	}

	return logging.SetLogLevel(viper.GetString("log-level"))
}

// Load returns the server config. The config file is read first and the
// flags and DOCVAULT_* environment variables given explicitly override it.
func Load() (*server.Config, error) {
	conf := server.NewConfig()
	if path := viper.GetString("config"); path != "" {
		parsed, err := server.NewConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		conf = parsed
	}

	if db := viper.GetString("db"); db != "" {
		conf.Database.Type = db
	}
	if path := viper.GetString("sqlite-path"); path != "" {
		conf.SQLite.Path = path
	}
	if uri := viper.GetString("mongo-connection-uri"); uri != "" {
		conf.Mongo.ConnectionURI = uri
	}
	if secret := viper.GetString("version-signing-secret"); secret != "" {
		conf.Backend.VersionSigningSecret = secret
	}

	return conf, nil
}

// Open creates a DocVault from the loaded config. The caller shuts it down.
func Open() (*server.DocVault, error) {
	conf, err := Load()
	if err != nil {
		return nil, err
	}

	return server.New(conf)
}

// Close shuts down the given DocVault, logging the failure.
func Close(r *server.DocVault) {
	if err := r.Shutdown(true); err != nil {
		logging.DefaultLogger().Error(err)
	}
}

// Actor returns the name changes are recorded with.
func Actor() string {
	if actor := viper.GetString("actor"); actor != "" {
		return actor
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return DefaultActor
}

// Print writes v in the format selected by --output. The table function
// renders the default human readable form.
func Print(cmd *cobra.Command, v any, table func() string) error {
	out := cmd.OutOrStdout()

	switch output := viper.GetString("output"); output {
	case "":
		_, err := fmt.Fprintln(out, table())
		return err
	case "json":
		jsonOutput, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(jsonOutput))
		return err
	case "yaml":
		// Values only know how to marshal themselves to JSON, so the YAML
		// form is built from the JSON one.
		jsonOutput, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		var plain any
		if err := json.Unmarshal(jsonOutput, &plain); err != nil {
			return fmt.Errorf("unmarshal JSON: %w", err)
		}
		yamlOutput, err := yaml.Marshal(plain)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		_, err = fmt.Fprint(out, string(yamlOutput))
		return err
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}
