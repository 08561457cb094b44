// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/David-Botos/salary-benchmark/pkg/adjust"
	"github.com/David-Botos/salary-benchmark/pkg/calibrate"
	"github.com/David-Botos/salary-benchmark/pkg/cleaner"
	"github.com/David-Botos/salary-benchmark/pkg/model"
	"github.com/David-Botos/salary-benchmark/pkg/synth"
)

// RunResult is the outcome of one pipeline run
type RunResult struct {
	RunID     string
	Seed      uint64
	Records   []model.StatisticsRecord // statistics table, in input pair order
	Adjusted  []model.AdjustedRecord   // adjusted table, same order as Records
	Pairs     []*PairResult            // one result per input pair, in input order
	Cleaning  []model.CleaningOperation
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Manager orchestrates the enrichment of every pair
type Manager struct {
	source       ObservationSource
	cleaner      *cleaner.SalaryCleaner
	calibrator   *calibrate.Calibrator
	generator    *synth.Generator
	engine       *adjust.Engine
	errorHandler *ErrorHandler
	metrics      *PipelineMetrics
	logger       *zap.Logger
	workerCount  int
	seed         uint64
	runID        string
}

// NewManager creates a pipeline manager. source may be nil, in which case
// every pair starts from an empty observed sample.
func NewManager(
	source ObservationSource,
	salaryCleaner *cleaner.SalaryCleaner,
	calibrator *calibrate.Calibrator,
	generator *synth.Generator,
	engine *adjust.Engine,
	logger *zap.Logger,
) (*Manager, error) {
	if salaryCleaner == nil {
		return nil, errors.New("cleaner cannot be nil")
	}
	if calibrator == nil {
		return nil, errors.New("calibrator cannot be nil")
	}
	if engine == nil {
		return nil, errors.New("adjustment engine cannot be nil")
	}

	logger = logger.Named("pipeline")
	return &Manager{
		source:       source,
		cleaner:      salaryCleaner,
		calibrator:   calibrator,
		generator:    generator,
		engine:       engine,
		errorHandler: NewErrorHandler(logger),
		metrics:      NewPipelineMetrics(logger),
		logger:       logger,
		workerCount:  1,
		seed:         uint64(time.Now().UnixNano()),
		runID:        uuid.New().String(),
	}, nil
}

// WithWorkerCount sets the number of pairs processed concurrently
func (m *Manager) WithWorkerCount(count int) *Manager {
	if count > 0 {
		m.workerCount = count
	}
	return m
}

// WithSeed fixes the run seed. Zero keeps the time-based seed.
func (m *Manager) WithSeed(seed uint64) *Manager {
	if seed != 0 {
		m.seed = seed
	}
	return m
}

// Seed returns the run seed
func (m *Manager) Seed() uint64 {
	return m.seed
}

// RunID returns the identifier stamped on cleaning operations
func (m *Manager) RunID() string {
	return m.runID
}

// GetMetrics returns the run metrics
func (m *Manager) GetMetrics() *PipelineMetrics {
	return m.metrics
}

// GetErrorSummary returns error counts by category
func (m *Manager) GetErrorSummary() map[ErrorCategory]int {
	return m.errorHandler.GetErrorSummary()
}

// Run processes every pair, assembles the statistics table in input order and
// derives the adjusted table. Pairs that fail calibration are left out of both
// tables; errors that abort the run are returned.
func (m *Manager) Run(ctx context.Context, pairs []model.RolePair) (*RunResult, error) {
	result := &RunResult{
		RunID:     m.runID,
		Seed:      m.seed,
		StartTime: time.Now(),
	}

	m.logger.Info("Starting run",
		zap.String("runID", m.runID),
		zap.Uint64("seed", m.seed),
		zap.Int("pairs", len(pairs)),
		zap.Int("workers", m.workerCount))

	pairResults, err := m.runWorkers(ctx, pairs)
	if err != nil {
		m.finish(result)
		return result, err
	}

	result.Pairs = pairResults
	for _, pr := range pairResults {
		m.metrics.RecordPair(pr)
		result.Cleaning = append(result.Cleaning, pr.CleaningOperations...)
		if pr.Success {
			result.Records = append(result.Records, pr.Record)
		}
	}

	if err := m.cleaner.RecordCleaningOperations(ctx, result.Cleaning); err != nil {
		rec := NewErrorRecord(err, m.errorHandler.CategorizeError(err)).WithStage(StageSink)
		if m.errorHandler.HandleError(rec) == ActionAbort {
			m.finish(result)
			return result, fmt.Errorf("failed to record cleaning operations: %w", err)
		}
	}

	result.Adjusted = m.engine.Apply(result.Records)

	m.finish(result)
	return result, nil
}

func (m *Manager) runWorkers(ctx context.Context, pairs []model.RolePair) ([]*PairResult, error) {
	workerCount := m.workerCount
	if workerCount > len(pairs) {
		workerCount = len(pairs)
	}

	jobs := make(chan PairJob, len(pairs))
	for i, p := range pairs {
		jobs <- NewPairJob(i, p)
	}
	close(jobs)

	resultQueue := make(chan *PairResult, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	for id := 1; id <= workerCount; id++ {
		w := NewWorker(id, m.source, m.cleaner, m.calibrator, m.generator,
			m.seed, m.runID, m.errorHandler, m.logger)
		g.Go(func() error {
			return w.Start(gctx, jobs, resultQueue)
		})
	}

	err := g.Wait()
	close(resultQueue)

	// Results arrive in completion order; place them by input index
	ordered := make([]*PairResult, len(pairs))
	for r := range resultQueue {
		ordered[r.Index] = r
	}

	if err != nil {
		return nil, fmt.Errorf("run aborted: %w", err)
	}
	return ordered, nil
}

func (m *Manager) finish(result *RunResult) {
	for category, count := range m.errorHandler.GetErrorSummary() {
		m.metrics.RecordErrors(category, count)
	}
	m.metrics.Complete()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	m.logger.Info("Run finished",
		zap.String("runID", m.runID),
		zap.Int("records", len(result.Records)),
		zap.Int("cleaningOperations", len(result.Cleaning)),
		zap.Duration("duration", result.Duration))
}
