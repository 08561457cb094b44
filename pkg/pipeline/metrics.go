// pkg/pipeline/metrics.go
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PipelineMetrics tracks metrics for a pipeline run and mirrors them into a
// prometheus registry that can be written as a node-exporter textfile
type PipelineMetrics struct {
	mu                 sync.Mutex
	logger             *zap.Logger
	StartTime          time.Time
	EndTime            time.Time
	SuccessfulPairs    int
	SkippedPairs       map[string]string // pair -> error message
	TotalObserved      int
	TotalCleaned       int
	TotalSynthetic     int
	TotalRejected      int
	TotalFailedPages   int
	ErrorCounts        map[ErrorCategory]int
	WorkerUtilization  map[int]time.Duration
	registry           *prometheus.Registry
	pairsProcessed     *prometheus.CounterVec
	samples            *prometheus.CounterVec
	rejected           *prometheus.CounterVec
	errors             *prometheus.CounterVec
	failedPages        prometheus.Counter
	pairDuration       prometheus.Histogram
	runDuration        prometheus.Gauge
	lastRunCompletedAt prometheus.Gauge
}

// NewPipelineMetrics creates a new PipelineMetrics instance
func NewPipelineMetrics(logger *zap.Logger) *PipelineMetrics {
	m := &PipelineMetrics{
		logger:            logger,
		StartTime:         time.Now(),
		SkippedPairs:      make(map[string]string),
		ErrorCounts:       make(map[ErrorCategory]int),
		WorkerUtilization: make(map[int]time.Duration),
		registry:          prometheus.NewRegistry(),
		pairsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salarybench",
			Name:      "pairs_processed_total",
			Help:      "Pairs processed, by outcome.",
		}, []string{"status"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salarybench",
			Name:      "samples_total",
			Help:      "Salary samples, by kind (observed, cleaned, synthetic).",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salarybench",
			Name:      "rejected_observations_total",
			Help:      "Observations dropped while cleaning, by operation.",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salarybench",
			Name:      "errors_total",
			Help:      "Pipeline errors, by category.",
		}, []string{"category"}),
		failedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salarybench",
			Name:      "failed_pages_total",
			Help:      "Search result pages that contributed no observations due to an error.",
		}),
		pairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salarybench",
			Name:      "pair_duration_seconds",
			Help:      "Time spent fetching, cleaning and calibrating one pair.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salarybench",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		lastRunCompletedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salarybench",
			Name:      "last_run_completed_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		}),
	}

	m.registry.MustRegister(
		m.pairsProcessed,
		m.samples,
		m.rejected,
		m.errors,
		m.failedPages,
		m.pairDuration,
		m.runDuration,
		m.lastRunCompletedAt,
	)
	return m
}

// RecordPair records the outcome of a pair job
func (m *PipelineMetrics) RecordPair(result *PairResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalObserved += result.Observed
	m.TotalCleaned += result.Cleaned
	m.TotalRejected += result.Rejected()
	m.TotalFailedPages += result.FailedPages
	m.WorkerUtilization[result.WorkerID] += result.Duration

	m.samples.WithLabelValues("observed").Add(float64(result.Observed))
	m.samples.WithLabelValues("cleaned").Add(float64(result.Cleaned))
	m.failedPages.Add(float64(result.FailedPages))
	m.pairDuration.Observe(result.Duration.Seconds())
	for _, op := range result.CleaningOperations {
		m.rejected.WithLabelValues(op.CleaningOperation).Inc()
	}

	if result.Success {
		m.SuccessfulPairs++
		m.TotalSynthetic += result.Record.SyntheticDataCount
		m.samples.WithLabelValues("synthetic").Add(float64(result.Record.SyntheticDataCount))
		m.pairsProcessed.WithLabelValues("success").Inc()
		return
	}

	msg := "unknown error"
	if len(result.Errors) > 0 {
		msg = result.Errors[len(result.Errors)-1].Message
	}
	m.SkippedPairs[result.Pair.String()] = msg
	m.pairsProcessed.WithLabelValues("skipped").Inc()
}

// RecordErrors adds count errors of a category
func (m *PipelineMetrics) RecordErrors(category ErrorCategory, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ErrorCounts[category] += count
	m.errors.WithLabelValues(category.String()).Add(float64(count))
}

// Complete marks the run as complete
func (m *PipelineMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	m.runDuration.Set(m.EndTime.Sub(m.StartTime).Seconds())
	m.lastRunCompletedAt.Set(float64(m.EndTime.Unix()))

	if m.logger != nil {
		m.logger.Info("Run metrics",
			zap.Int("successfulPairs", m.SuccessfulPairs),
			zap.Int("skippedPairs", len(m.SkippedPairs)),
			zap.Int("observed", m.TotalObserved),
			zap.Int("cleaned", m.TotalCleaned),
			zap.Int("synthetic", m.TotalSynthetic),
			zap.Int("rejected", m.TotalRejected),
			zap.Int("failedPages", m.TotalFailedPages),
			zap.Duration("duration", m.EndTime.Sub(m.StartTime)))
	}
}

// WriteTextfile writes the run metrics in the prometheus text format
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// GenerateMetricsReport renders a human-readable summary of the run
func (m *PipelineMetrics) GenerateMetricsReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}

	var sb strings.Builder
	sb.WriteString("=== Salary Benchmark Run Report ===\n\n")
	sb.WriteString(fmt.Sprintf("Duration: %s\n", end.Sub(m.StartTime).Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pairs: %d successful, %d skipped\n", m.SuccessfulPairs, len(m.SkippedPairs)))
	sb.WriteString(fmt.Sprintf("Observations: %d observed, %d kept, %d rejected\n",
		m.TotalObserved, m.TotalCleaned, m.TotalRejected))
	sb.WriteString(fmt.Sprintf("Synthetic values: %d\n", m.TotalSynthetic))
	sb.WriteString(fmt.Sprintf("Failed pages: %d\n", m.TotalFailedPages))

	if len(m.SkippedPairs) > 0 {
		sb.WriteString("\nSkipped pairs:\n")
		pairs := make([]string, 0, len(m.SkippedPairs))
		for p := range m.SkippedPairs {
			pairs = append(pairs, p)
		}
		sort.Strings(pairs)
		for _, p := range pairs {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", p, m.SkippedPairs[p]))
		}
	}

	if len(m.ErrorCounts) > 0 {
		sb.WriteString("\nErrors by category:\n")
		categories := make([]ErrorCategory, 0, len(m.ErrorCounts))
		for c := range m.ErrorCounts {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, c := range categories {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", c, m.ErrorCounts[c]))
		}
	}

	return sb.String()
}
