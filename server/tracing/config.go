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

package tracing

import (
	"errors"
	"fmt"
)

// Below are the exporters a Provider can send spans to.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterFile   = "file"
	ExporterOTLP   = "otlp"
)

// Below are the default values of the tracing config.
const (
	DefaultServiceName  = "docvault"
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultSampleRate   = 1.0
)

var (
	// ErrUnsupportedExporter is returned for an unknown exporter name.
	ErrUnsupportedExporter = errors.New("unsupported exporter")

	// ErrEmptyFilePath is returned when the file exporter has no path.
	ErrEmptyFilePath = errors.New("file path is required for the file exporter")
)

// Config is the configuration for tracing.
type Config struct {
	// Enabled turns tracing on. A disabled provider hands out no-op spans.
	Enabled bool `yaml:"Enabled"`

	// Exporter is one of none, stdout, file or otlp.
	Exporter string `yaml:"Exporter"`

	// FilePath is where the file exporter appends spans.
	FilePath string `yaml:"FilePath"`

	// OTLPEndpoint is the collector address of the otlp exporter.
	OTLPEndpoint string `yaml:"OTLPEndpoint"`

	// SampleRate is the fraction of root spans that are sampled.
	SampleRate float64 `yaml:"SampleRate"`

	ServiceName string `yaml:"ServiceName"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Exporter {
	case "", ExporterNone, ExporterStdout, ExporterOTLP:
	case ExporterFile:
		if c.FilePath == "" {
			return fmt.Errorf(`invalid argument "" for "--tracing-file-path" flag: %w`, ErrEmptyFilePath)
		}
	default:
		return fmt.Errorf(`invalid argument "%s" for "--tracing-exporter" flag: %w`, c.Exporter, ErrUnsupportedExporter)
	}

	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf(`invalid argument "%v" for "--tracing-sample-rate" flag: must be in [0, 1]`, c.SampleRate)
	}

	return nil
}
