// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes the Prometheus instrumentation for one
// ingest run: stage durations, per-error-kind counts, and node/edge
// write totals, registered once against the default registry and
// served over cmd/graphupdater's --metrics-addr flag.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/graphupdater/internal/errors"
)

var stageBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

type ingestMetrics struct {
	once sync.Once

	filesDiscovered prometheus.Counter
	filesParsed     prometheus.Counter
	filesSkipped    prometheus.Counter

	errorsByKind *prometheus.CounterVec

	nodesWritten *prometheus.CounterVec
	edgesWritten *prometheus.CounterVec

	discoverDuration prometheus.Histogram
	parseDuration    prometheus.Histogram
	resolveDuration  prometheus.Histogram
	writeDuration    prometheus.Histogram
	totalDuration    prometheus.Histogram
}

var m ingestMetrics

func (m *ingestMetrics) init() {
	m.once.Do(func() {
		m.filesDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphupdater_files_discovered_total", Help: "Files discovered by the source walk.",
		})
		m.filesParsed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphupdater_files_parsed_total", Help: "Files successfully parsed in pass one.",
		})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphupdater_files_skipped_total", Help: "Files skipped during discovery or parsing.",
		})

		m.errorsByKind = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphupdater_errors_total", Help: "Errors recorded, labeled by pipeline stage kind.",
		}, []string{"kind"})

		m.nodesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphupdater_nodes_written_total", Help: "Nodes MERGEd into the graph, labeled by label.",
		}, []string{"label"})
		m.edgesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphupdater_edges_written_total", Help: "Edges MERGEd into the graph, labeled by type.",
		}, []string{"type"})

		m.discoverDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "graphupdater_discover_seconds", Help: "Duration of source discovery.", Buckets: stageBuckets,
		})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "graphupdater_parse_seconds", Help: "Duration of pass-one parsing and definition.", Buckets: stageBuckets,
		})
		m.resolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "graphupdater_resolve_seconds", Help: "Duration of pass-two cross-file resolution.", Buckets: stageBuckets,
		})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "graphupdater_write_seconds", Help: "Duration of the graph write flush.", Buckets: stageBuckets,
		})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "graphupdater_total_seconds", Help: "Duration of a full ingest run.", Buckets: stageBuckets,
		})

		prometheus.MustRegister(
			m.filesDiscovered, m.filesParsed, m.filesSkipped,
			m.errorsByKind, m.nodesWritten, m.edgesWritten,
			m.discoverDuration, m.parseDuration, m.resolveDuration, m.writeDuration, m.totalDuration,
		)
	})
}

// RecordFilesDiscovered adds n to the discovered-file counter.
func RecordFilesDiscovered(n int) { m.init(); m.filesDiscovered.Add(float64(n)) }

// RecordFilesParsed adds n to the parsed-file counter.
func RecordFilesParsed(n int) { m.init(); m.filesParsed.Add(float64(n)) }

// RecordFilesSkipped adds n to the skipped-file counter.
func RecordFilesSkipped(n int) { m.init(); m.filesSkipped.Add(float64(n)) }

// RecordError increments the error counter for kind.
func RecordError(kind errors.Kind) { m.init(); m.errorsByKind.WithLabelValues(string(kind)).Inc() }

// RecordErrorCount adds n to the error counter for kind, for callers
// that already hold a batched count (e.g. a Report's per-kind total).
func RecordErrorCount(kind errors.Kind, n int) { m.init(); m.errorsByKind.WithLabelValues(string(kind)).Add(float64(n)) }

// RecordNodesWritten adds n to the node-written counter for label.
func RecordNodesWritten(label string, n int) { m.init(); m.nodesWritten.WithLabelValues(label).Add(float64(n)) }

// RecordEdgesWritten adds n to the edge-written counter for edgeType.
func RecordEdgesWritten(edgeType string, n int) { m.init(); m.edgesWritten.WithLabelValues(edgeType).Add(float64(n)) }

// ObserveDiscover records one discovery stage duration.
func ObserveDiscover(d time.Duration) { m.init(); m.discoverDuration.Observe(d.Seconds()) }

// ObserveParse records one pass-one stage duration.
func ObserveParse(d time.Duration) { m.init(); m.parseDuration.Observe(d.Seconds()) }

// ObserveResolve records one pass-two stage duration.
func ObserveResolve(d time.Duration) { m.init(); m.resolveDuration.Observe(d.Seconds()) }

// ObserveWrite records one graph-write stage duration.
func ObserveWrite(d time.Duration) { m.init(); m.writeDuration.Observe(d.Seconds()) }

// ObserveTotal records one full run's duration.
func ObserveTotal(d time.Duration) { m.init(); m.totalDuration.Observe(d.Seconds()) }
