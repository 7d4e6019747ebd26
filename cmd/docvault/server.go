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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/cmd/docvault/config"
	"github.com/docvault/docvault/server"
	"github.com/docvault/docvault/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	profilingPort   int
	enablePprof     bool
	tracingExporter string
	tracingFilePath string
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "server [options]",
		Short:   "Start DocVault with its metrics and profiling server",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("log-level") {
				if err := logging.SetLogLevel("info"); err != nil {
					return err
				}
			}

			conf, err := config.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("profiling-port") {
				conf.Profiling.Port = profilingPort
			}
			if cmd.Flags().Changed("enable-pprof") {
				conf.Profiling.EnablePprof = enablePprof
			}
			if tracingExporter != "" {
				conf.Tracing.Enabled = true
				conf.Tracing.Exporter = tracingExporter
				conf.Tracing.FilePath = tracingFilePath
			}

			r, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := r.Start(); err != nil {
				return err
			}

			if code := handleSignal(r); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(r *server.DocVault) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := r.Shutdown(graceful); err != nil {
			logging.DefaultLogger().Error(err)
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().IntVar(
		&profilingPort,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&enablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().StringVar(
		&tracingExporter,
		"tracing-exporter",
		"",
		"Enable tracing with the given exporter: none, stdout, file or otlp",
	)
	cmd.Flags().StringVar(
		&tracingFilePath,
		"tracing-file-path",
		"",
		"File the file exporter appends spans to",
	)
	rootCmd.AddCommand(cmd)
}
