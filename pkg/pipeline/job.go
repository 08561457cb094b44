// pkg/pipeline/job.go
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// PairJob represents the enrichment of one (department, role) pair
type PairJob struct {
	ID        string         // Unique job identifier
	Index     int            // Position of the pair in the input list
	Pair      model.RolePair // Pair being processed
	CreatedAt time.Time      // Job creation timestamp
}

// NewPairJob creates a new pair job
func NewPairJob(index int, pair model.RolePair) PairJob {
	return PairJob{
		ID:        uuid.New().String(),
		Index:     index,
		Pair:      pair,
		CreatedAt: time.Now(),
	}
}

// PairResult represents the outcome of one pair job
type PairResult struct {
	JobID              string
	Index              int
	Pair               model.RolePair
	Success            bool
	Record             model.StatisticsRecord
	Observed           int
	Cleaned            int
	FailedPages        int
	CleaningOperations []model.CleaningOperation
	Errors             []ErrorRecord
	Warnings           []string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
	WorkerID           int
}

// NewPairResult initializes a result for a job
func NewPairResult(job PairJob, workerID int) *PairResult {
	return &PairResult{
		JobID:     job.ID,
		Index:     job.Index,
		Pair:      job.Pair,
		StartTime: time.Now(),
		WorkerID:  workerID,
		Errors:    make([]ErrorRecord, 0),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the job as complete and calculates duration
func (r *PairResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddError adds an error to the result
func (r *PairResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the result
func (r *PairResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// Rejected returns the number of observations dropped while cleaning
func (r *PairResult) Rejected() int {
	return len(r.CleaningOperations)
}
