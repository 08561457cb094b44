// pkg/pipeline/worker.go
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/calibrate"
	"github.com/David-Botos/salary-benchmark/pkg/cleaner"
	"github.com/David-Botos/salary-benchmark/pkg/fetch"
	"github.com/David-Botos/salary-benchmark/pkg/model"
	"github.com/David-Botos/salary-benchmark/pkg/synth"
)

// Pipeline stages used in error records
const (
	StageFetch     = "fetch"
	StageCalibrate = "calibrate"
	StageSink      = "sink"
)

// ObservationSource provides raw salary observations for a pair
type ObservationSource interface {
	FetchObservations(ctx context.Context, pair model.RolePair) (fetch.Observations, error)
}

// Worker handles the execution of pair jobs
type Worker struct {
	ID           int
	source       ObservationSource
	cleaner      *cleaner.SalaryCleaner
	calibrator   *calibrate.Calibrator
	generator    *synth.Generator
	seed         uint64
	runID        string
	logger       *zap.Logger
	errorHandler *ErrorHandler
}

// NewWorker creates a new worker. Each job draws from its own random stream
// derived from seed and the job index.
func NewWorker(
	id int,
	source ObservationSource,
	salaryCleaner *cleaner.SalaryCleaner,
	calibrator *calibrate.Calibrator,
	generator *synth.Generator,
	seed uint64,
	runID string,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		ID:           id,
		source:       source,
		cleaner:      salaryCleaner,
		calibrator:   calibrator,
		generator:    generator,
		seed:         seed,
		runID:        runID,
		errorHandler: errorHandler,
		logger:       logger.With(zap.Int("workerID", id)),
	}
}

// Start processes jobs until the channel is closed or the context is done.
// It returns an error only when a job asks for the run to be aborted.
func (w *Worker) Start(ctx context.Context, jobs <-chan PairJob, results chan<- *PairResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				return nil
			}

			result, abort := w.ProcessJob(ctx, job)
			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
			if abort != nil {
				return abort
			}
		}
	}
}

// ProcessJob fetches, cleans and calibrates one pair. The returned error is
// non-nil only when the run must abort.
func (w *Worker) ProcessJob(ctx context.Context, job PairJob) (*PairResult, error) {
	result := NewPairResult(job, w.ID)
	pair := job.Pair

	w.logger.Debug("Processing pair",
		zap.String("jobID", job.ID),
		zap.Int("index", job.Index),
		zap.String("pair", pair.String()))

	var observations []float64
	if w.source != nil {
		obs, err := w.source.FetchObservations(ctx, pair)
		observations = obs.Salaries
		result.FailedPages = obs.FailedPages()
		for _, p := range obs.Pages {
			if p.Err != nil {
				rec := NewErrorRecord(fmt.Errorf("page %d: %w", p.Page, p.Err), ErrorCategoryWarning).
					WithPair(pair.String()).
					WithStage(StageFetch)
				w.errorHandler.HandleError(rec)
				result.AddWarning(rec.String())
			}
		}
		if err != nil {
			rec := w.categorize(err, pair, StageFetch)
			result.AddError(rec)
			if w.errorHandler.HandleError(rec) == ActionAbort {
				result.Complete(false)
				return result, fmt.Errorf("fetching %s: %w", pair, err)
			}
		}
	}
	result.Observed = len(observations)

	cleaned, ops := w.cleaner.Clean(model.CleaningContext{
		RunID:      w.runID,
		Department: pair.Department,
		Role:       pair.Role,
	}, observations)
	result.Cleaned = len(cleaned)
	result.CleaningOperations = ops

	src := rand.NewPCG(w.seed, uint64(job.Index))
	calibrator := w.calibrator
	if w.generator != nil {
		calibrator = calibrator.WithGenerator(w.generator.WithSource(src))
	}

	record, err := calibrator.Compute(cleaned, pair.Department, pair.Role)
	if err != nil {
		rec := w.categorize(err, pair, StageCalibrate)
		result.AddError(rec)
		result.Complete(false)
		if w.errorHandler.HandleError(rec) == ActionAbort {
			return result, fmt.Errorf("calibrating %s: %w", pair, err)
		}
		return result, nil
	}

	result.Record = record
	result.Complete(true)

	w.logger.Info("Pair completed",
		zap.String("pair", pair.String()),
		zap.Int("observed", result.Observed),
		zap.Int("real", record.RealDataCount),
		zap.Int("synthetic", record.SyntheticDataCount),
		zap.Int("median", record.Median),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (w *Worker) categorize(err error, pair model.RolePair, stage string) ErrorRecord {
	return NewErrorRecord(err, w.errorHandler.CategorizeError(err)).
		WithPair(pair.String()).
		WithStage(stage)
}
