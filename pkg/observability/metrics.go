package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the query/distance engine.
// Each instance owns its own registry (rather than registering into
// prometheus.DefaultRegisterer) so that multiple Metrics can coexist in
// the same process, one per test or one per tenant namespace, without
// a duplicate-collector panic.
type Metrics struct {
	registry *prometheus.Registry

	// Query execution metrics
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
	QueryRowsOut  prometheus.Histogram

	// Dense/sparse kernel invocation metrics
	KernelInvocations *prometheus.CounterVec
	KernelDuration    *prometheus.HistogramVec
	KernelTier        *prometheus.GaugeVec

	// Plan cache metrics
	PlanCacheHits   prometheus.Counter
	PlanCacheMisses prometheus.Counter
	PlanCacheSize   prometheus.Gauge

	// Forward writer metrics
	WriterRowsWritten      *prometheus.CounterVec
	WriterRowGroupsFlushed *prometheus.CounterVec
	WriterFinalizeErrors   *prometheus.CounterVec

	// Tenant metrics
	TenantsTotal     prometheus.Gauge
	TenantQuotaUsage *prometheus.GaugeVec

	// System metrics
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics against a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zvec_queries_total",
				Help: "Total number of ExecuteQuery calls by namespace and outcome",
			},
			[]string{"namespace", "outcome"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zvec_query_duration_seconds",
				Help:    "ExecuteQuery duration in seconds, from parse through kernel execution",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"namespace"},
		),
		QueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zvec_query_errors_total",
				Help: "Total number of ExecuteQuery errors by namespace and error kind",
			},
			[]string{"namespace", "kind"},
		),
		QueryRowsOut: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zvec_query_rows_returned",
				Help:    "Rows in the record batch an ExecuteQuery call returned",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
			},
		),

		KernelInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zvec_kernel_invocations_total",
				Help: "Total number of distance-kernel calls by element type and op",
			},
			[]string{"element", "op"},
		),
		KernelDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zvec_kernel_duration_seconds",
				Help:    "Distance-kernel call duration in seconds by element type",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"element"},
		),
		KernelTier: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zvec_kernel_dispatch_tier",
				Help: "Dispatch tier chosen at probe time by element type (1=value observed, label carries tier name)",
			},
			[]string{"element", "tier"},
		),

		PlanCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zvec_plancache_hits_total",
				Help: "Total number of plan cache hits",
			},
		),
		PlanCacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zvec_plancache_misses_total",
				Help: "Total number of plan cache misses",
			},
		),
		PlanCacheSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zvec_plancache_size",
				Help: "Current number of entries in the plan cache",
			},
		),

		WriterRowsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zvec_writer_rows_written_total",
				Help: "Total number of rows written by a ForwardWriter, by backend",
			},
			[]string{"backend"},
		),
		WriterRowGroupsFlushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zvec_writer_row_groups_flushed_total",
				Help: "Total number of row groups flushed by a ForwardWriter, by backend",
			},
			[]string{"backend"},
		),
		WriterFinalizeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zvec_writer_finalize_errors_total",
				Help: "Total number of buffered-flush errors met during ForwardWriter Finalize, by backend",
			},
			[]string{"backend"},
		),

		TenantsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zvec_tenants_total",
				Help: "Total number of active tenants",
			},
		),
		TenantQuotaUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zvec_tenant_quota_usage",
				Help: "Tenant quota usage percentage by namespace and resource",
			},
			[]string{"namespace", "resource"},
		),

		GoroutinesCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zvec_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zvec_memory_bytes",
				Help: "Memory usage in bytes",
			},
		),
	}

	return m
}

// Registry returns the Prometheus registry backing m, for mounting under
// an HTTP /metrics handler (e.g. promhttp.HandlerFor(m.Registry(), ...)).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordQuery records an ExecuteQuery call's duration, outcome, and the
// row count it returned.
func (m *Metrics) RecordQuery(namespace string, duration time.Duration, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.QueriesTotal.WithLabelValues(namespace, outcome).Inc()
	m.QueryDuration.WithLabelValues(namespace).Observe(duration.Seconds())
	if err == nil {
		m.QueryRowsOut.Observe(float64(rows))
	}
}

// RecordQueryError records an ExecuteQuery error by kind (e.g. "parse",
// "execution").
func (m *Metrics) RecordQueryError(namespace, kind string) {
	m.QueryErrors.WithLabelValues(namespace, kind).Inc()
}

// RecordKernelInvocation records one distance-kernel call.
func (m *Metrics) RecordKernelInvocation(element, op string, duration time.Duration) {
	m.KernelInvocations.WithLabelValues(element, op).Inc()
	m.KernelDuration.WithLabelValues(element).Observe(duration.Seconds())
}

// SetKernelTier records the dispatch tier chosen for an element type at
// probe time.
func (m *Metrics) SetKernelTier(element, tier string) {
	m.KernelTier.WithLabelValues(element, tier).Set(1)
}

// RecordPlanCacheHit records a plan cache hit.
func (m *Metrics) RecordPlanCacheHit() {
	m.PlanCacheHits.Inc()
}

// RecordPlanCacheMiss records a plan cache miss.
func (m *Metrics) RecordPlanCacheMiss() {
	m.PlanCacheMisses.Inc()
}

// UpdatePlanCacheSize sets the current plan cache entry count.
func (m *Metrics) UpdatePlanCacheSize(size int) {
	m.PlanCacheSize.Set(float64(size))
}

// RecordWriterRows records rows and row groups written by a ForwardWriter
// backend ("ipc" or "column").
func (m *Metrics) RecordWriterRows(backend string, rows int) {
	m.WriterRowsWritten.WithLabelValues(backend).Add(float64(rows))
}

// RecordWriterRowGroupFlush records one row-group flush.
func (m *Metrics) RecordWriterRowGroupFlush(backend string) {
	m.WriterRowGroupsFlushed.WithLabelValues(backend).Inc()
}

// RecordWriterFinalizeError records a buffered-flush error met during a
// writer's Finalize.
func (m *Metrics) RecordWriterFinalizeError(backend string) {
	m.WriterFinalizeErrors.WithLabelValues(backend).Inc()
}

// UpdateTenantCount updates the total tenant count.
func (m *Metrics) UpdateTenantCount(count int) {
	m.TenantsTotal.Set(float64(count))
}

// UpdateTenantQuota updates tenant quota usage.
func (m *Metrics) UpdateTenantQuota(namespace, resource string, usage float64) {
	m.TenantQuotaUsage.WithLabelValues(namespace, resource).Set(usage)
}

// UpdateGoroutineCount updates goroutine count.
func (m *Metrics) UpdateGoroutineCount(count int) {
	m.GoroutinesCount.Set(float64(count))
}

// UpdateMemoryUsage updates memory usage.
func (m *Metrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// Global metrics instance, mirroring logging.go's global-logger pattern:
// packages that don't hold a tenant-scoped *Metrics (plancache, storage,
// simd) record against this one.
var globalMetrics = NewMetrics()

// SetGlobalMetrics replaces the global Metrics instance.
func SetGlobalMetrics(m *Metrics) {
	globalMetrics = m
}

// GetGlobalMetrics returns the global Metrics instance.
func GetGlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordPlanCacheHit records a plan cache hit on the global instance.
func RecordPlanCacheHit() { globalMetrics.RecordPlanCacheHit() }

// RecordPlanCacheMiss records a plan cache miss on the global instance.
func RecordPlanCacheMiss() { globalMetrics.RecordPlanCacheMiss() }

// UpdatePlanCacheSize sets the plan cache size on the global instance.
func UpdatePlanCacheSize(size int) { globalMetrics.UpdatePlanCacheSize(size) }

// RecordWriterRows records writer rows on the global instance.
func RecordWriterRows(backend string, rows int) { globalMetrics.RecordWriterRows(backend, rows) }

// RecordWriterRowGroupFlush records a writer row-group flush on the
// global instance.
func RecordWriterRowGroupFlush(backend string) { globalMetrics.RecordWriterRowGroupFlush(backend) }

// RecordWriterFinalizeError records a writer's Finalize flush error on
// the global instance.
func RecordWriterFinalizeError(backend string) { globalMetrics.RecordWriterFinalizeError(backend) }

// SetKernelTier records the dispatch tier chosen for element on the
// global instance.
func SetKernelTier(element, tier string) { globalMetrics.SetKernelTier(element, tier) }

// RecordKernelInvocation records one distance-kernel call on the global
// instance.
func RecordKernelInvocation(element, op string, duration time.Duration) {
	globalMetrics.RecordKernelInvocation(element, op, duration)
}

// UpdateTenantCount updates the total tenant count on the global instance.
func UpdateTenantCount(count int) { globalMetrics.UpdateTenantCount(count) }

// UpdateTenantQuota updates a tenant's quota usage on the global instance.
func UpdateTenantQuota(namespace, resource string, usage float64) {
	globalMetrics.UpdateTenantQuota(namespace, resource, usage)
}
