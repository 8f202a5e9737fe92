// Package metrics provides Prometheus metrics for teamforge runs.
//
// teamforge is a batch tool, so nothing is scraped: collectors live on a
// private registry and WriteTextfile dumps them in the node exporter textfile
// format at the end of a command.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of a registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Run metrics
	runsTotal        *prometheus.CounterVec
	runInfo          *prometheus.GaugeVec
	lastRunTimestamp prometheus.Gauge

	// Source and sink metrics
	rowsRead            *prometheus.CounterVec
	rowsWritten         *prometheus.CounterVec
	duplicateIdentities *prometheus.CounterVec

	// Allocation metrics
	participantsAllocated *prometheus.CounterVec
	participantsExcluded  *prometheus.CounterVec
	teamSize              *prometheus.GaugeVec
	allocationDuration    prometheus.Histogram

	// Pseudonym metrics
	pseudonymsAssigned  prometheus.Counter
	pseudonymsRemaining prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teamforge",
		subsystem:        "workshop",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collector definitions
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Command runs by command and outcome",
	}, []string{"command", "outcome"})

	m.runInfo = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_info",
		Help:      "Identifies the run that produced this metrics file",
	}, []string{"run_id", "command", "seed"})

	m.lastRunTimestamp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})

	m.rowsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_read_total",
		Help:      "Records accepted from each source file",
	}, []string{"source"})

	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_written_total",
		Help:      "Records written to each sink file",
	}, []string{"sink"})

	m.duplicateIdentities = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_identities_total",
		Help:      "Identities seen more than once in a source (data quality)",
	}, []string{"source"})

	m.participantsAllocated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_allocated_total",
		Help:      "Participants placed on a team by preference tag",
	}, []string{"preference"})

	m.participantsExcluded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_excluded_total",
		Help:      "Roster entries kept off teams by reason",
	}, []string{"reason"})

	m.teamSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_size",
		Help:      "Members per team of the last allocation",
	}, []string{"team", "kind"})

	m.allocationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "allocation_duration_milliseconds",
		Help:      "Time spent in the allocator",
		Buckets:   m.histogramBuckets,
	})

	m.pseudonymsAssigned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pseudonyms_assigned_total",
		Help:      "Fictitious names issued to users",
	})

	m.pseudonymsRemaining = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pseudonyms_remaining",
		Help:      "Unused fictitious names left in the pools",
	})
}

// RecordRun counts a finished command and stamps the run identity.
func (m *Manager) RecordRun(runID, command string, seed int64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runsTotal.WithLabelValues(command, outcome).Inc()
	m.runInfo.Reset()
	m.runInfo.WithLabelValues(runID, command, strconv.FormatInt(seed, 10)).Set(1)
	m.lastRunTimestamp.Set(float64(time.Now().Unix()))
}

// RecordRowsRead adds n accepted records for a source.
func (m *Manager) RecordRowsRead(source string, n int) {
	m.rowsRead.WithLabelValues(source).Add(float64(n))
}

// RecordRowsWritten adds n written records for a sink.
func (m *Manager) RecordRowsWritten(sink string, n int) {
	m.rowsWritten.WithLabelValues(sink).Add(float64(n))
}

// RecordDuplicateIdentity counts a repeated identity in a source.
func (m *Manager) RecordDuplicateIdentity(source string) {
	m.duplicateIdentities.WithLabelValues(source).Inc()
}

// RecordParticipantsAllocated adds n placed participants with a preference tag.
func (m *Manager) RecordParticipantsAllocated(preference string, n int) {
	m.participantsAllocated.WithLabelValues(preference).Add(float64(n))
}

// RecordParticipantsExcluded adds n roster entries kept off teams.
func (m *Manager) RecordParticipantsExcluded(reason string, n int) {
	m.participantsExcluded.WithLabelValues(reason).Add(float64(n))
}

// UpdateTeamSize sets the member count of one team.
func (m *Manager) UpdateTeamSize(team int, kind string, size int) {
	m.teamSize.WithLabelValues(strconv.Itoa(team), kind).Set(float64(size))
}

// ResetTeamSizes clears team gauges before a new allocation is recorded.
func (m *Manager) ResetTeamSizes() {
	m.teamSize.Reset()
}

// RecordAllocationDuration observes time spent allocating.
func (m *Manager) RecordAllocationDuration(d time.Duration) {
	m.allocationDuration.Observe(float64(d) / float64(time.Millisecond))
}

// RecordPseudonymsAssigned adds n issued names.
func (m *Manager) RecordPseudonymsAssigned(n int) {
	m.pseudonymsAssigned.Add(float64(n))
}

// UpdatePseudonymsRemaining sets the count of unused names.
func (m *Manager) UpdatePseudonymsRemaining(n int) {
	m.pseudonymsRemaining.Set(float64(n))
}

// WriteTextfile writes every collector of the manager's registry to path in
// the text exposition format. The write is atomic.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExportFailed, path, err)
	}
	return nil
}

// Package-level helpers operate on the global manager.

// RecordRun counts a finished command on the global manager.
func RecordRun(runID, command string, seed int64, err error) {
	globalManager.RecordRun(runID, command, seed, err)
}

// RecordRowsRead adds n accepted records for a source.
func RecordRowsRead(source string, n int) { globalManager.RecordRowsRead(source, n) }

// RecordRowsWritten adds n written records for a sink.
func RecordRowsWritten(sink string, n int) { globalManager.RecordRowsWritten(sink, n) }

// RecordDuplicateIdentity counts a repeated identity in a source.
func RecordDuplicateIdentity(source string) { globalManager.RecordDuplicateIdentity(source) }

// RecordParticipantsAllocated adds n placed participants with a preference tag.
func RecordParticipantsAllocated(preference string, n int) {
	globalManager.RecordParticipantsAllocated(preference, n)
}

// RecordParticipantsExcluded adds n roster entries kept off teams.
func RecordParticipantsExcluded(reason string, n int) {
	globalManager.RecordParticipantsExcluded(reason, n)
}

// UpdateTeamSize sets the member count of one team.
func UpdateTeamSize(team int, kind string, size int) { globalManager.UpdateTeamSize(team, kind, size) }

// ResetTeamSizes clears team gauges.
func ResetTeamSizes() { globalManager.ResetTeamSizes() }

// RecordAllocationDuration observes time spent allocating.
func RecordAllocationDuration(d time.Duration) { globalManager.RecordAllocationDuration(d) }

// RecordPseudonymsAssigned adds n issued names.
func RecordPseudonymsAssigned(n int) { globalManager.RecordPseudonymsAssigned(n) }

// UpdatePseudonymsRemaining sets the count of unused names.
func UpdatePseudonymsRemaining(n int) { globalManager.UpdatePseudonymsRemaining(n) }

// WriteTextfile exports the global registry to path.
func WriteTextfile(path string) error { return globalManager.WriteTextfile(path) }
