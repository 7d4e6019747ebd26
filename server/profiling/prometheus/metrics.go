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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/docvault/docvault/internal/version"
	"github.com/docvault/docvault/pkg/errors"
)

const (
	namespace      = "docvault"
	operationLabel = "operation"
	codeLabel      = "code"
	resultLabel    = "result"
	doctypeLabel   = "doctype"
)

// Metrics manages the metric information that DocVault is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	operationHandledTotal   *prometheus.CounterVec
	operationResponseSecond *prometheus.HistogramVec

	versionsAppendedTotal   *prometheus.CounterVec
	integrityChecksTotal    *prometheus.CounterVec
	protectedDeletionsTotal prometheus.Counter
	doctypeCacheTotal       *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		operationHandledTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "handled_total",
			Help:      "Total number of engine operations completed, regardless of success or failure.",
		}, []string{operationLabel, codeLabel}),
		operationResponseSecond: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "response_seconds",
			Help:      "The response time of engine operations.",
		}, []string{operationLabel}),
		versionsAppendedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "versions",
			Name:      "appended_total",
			Help:      "The total count of document versions appended.",
		}, []string{doctypeLabel}),
		integrityChecksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "versions",
			Name:      "integrity_checks_total",
			Help:      "The total count of version integrity checks by result.",
		}, []string{resultLabel}),
		protectedDeletionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "protected_deletions_total",
			Help:      "The total count of deletions refused because of incoming references.",
		}),
		doctypeCacheTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schemas",
			Name:      "doctype_cache_total",
			Help:      "The total count of doctype cache lookups by result.",
		}, []string{resultLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// ObserveOperation records the outcome and the duration of an engine
// operation. The code label is the status of err, or "OK".
func (m *Metrics) ObserveOperation(operation string, seconds float64, err error) {
	code := "OK"
	if err != nil {
		code = errors.StatusOf(err).String()
	}

	m.operationHandledTotal.With(prometheus.Labels{
		operationLabel: operation,
		codeLabel:      code,
	}).Inc()
	m.operationResponseSecond.With(prometheus.Labels{
		operationLabel: operation,
	}).Observe(seconds)
}

// AddVersionAppended counts a version appended to a document of the doctype.
func (m *Metrics) AddVersionAppended(doctype string) {
	m.versionsAppendedTotal.With(prometheus.Labels{
		doctypeLabel: doctype,
	}).Inc()
}

// AddIntegrityCheck counts an integrity check.
func (m *Metrics) AddIntegrityCheck(passed bool) {
	result := "passed"
	if !passed {
		result = "failed"
	}
	m.integrityChecksTotal.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
}

// AddProtectedDeletion counts a refused deletion.
func (m *Metrics) AddProtectedDeletion() {
	m.protectedDeletionsTotal.Inc()
}

// AddDoctypeCacheLookup counts a doctype cache lookup.
func (m *Metrics) AddDoctypeCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	m.doctypeCacheTotal.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
