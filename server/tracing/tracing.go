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

// Package tracing wraps the OpenTelemetry tracer provider of DocVault. Every
// engine operation runs in a span named after the operation.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/docvault/docvault/internal/version"
)

// Provider manages the tracer provider and the resources of its exporter.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	closer   io.Closer
}

// NewProvider creates a provider from the config. A disabled config yields a
// no-op provider.
func NewProvider(conf *Config) (*Provider, error) {
	if conf == nil || !conf.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(DefaultServiceName)}, nil
	}

	var exporter sdktrace.SpanExporter
	var closer io.Closer
	var err error

	switch conf.Exporter {
	case ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	case ExporterFile:
		var file *os.File
		file, err = openTraceFile(conf.FilePath)
		if err != nil {
			return nil, err
		}
		closer = file
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(file))
	case ExporterOTLP:
		endpoint := conf.OTLPEndpoint
		if endpoint == "" {
			endpoint = DefaultOTLPEndpoint
		}
		exporter, err = otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	case "", ExporterNone:
	default:
		return nil, fmt.Errorf("%s: %w", conf.Exporter, ErrUnsupportedExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", conf.Exporter, err)
	}

	var opts []sdktrace.TracerProviderOption
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	p := newProvider(conf, opts...)
	p.closer = closer
	otel.SetTracerProvider(p.provider)
	return p, nil
}

func newProvider(conf *Config, opts ...sdktrace.TracerProviderOption) *Provider {
	serviceName := conf.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	sampleRate := conf.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version.Version),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	}, opts...)

	provider := sdktrace.NewTracerProvider(opts...)
	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
	}
}

func openTraceFile(path string) (*os.File, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return file, nil
}

// Enabled returns whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Tracer returns the tracer of this provider.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Start starts a span for the given operation.
func (p *Provider) Start(
	ctx context.Context,
	operation string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
}

// End ends the span and records err on it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.provider != nil {
		if err := p.provider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
