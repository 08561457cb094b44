// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation records a single observation dropped while cleaning a sample
type CleaningOperation struct {
	RunID             string    // Pipeline run the observation belongs to
	Department        string    // Department of the pair being cleaned
	Role              string    // Role of the pair being cleaned
	OriginalValue     float64   // Observed salary that was dropped
	CleaningOperation string    // Type of cleaning performed (e.g., "validity_filter")
	CleaningReason    string    // Reason for cleaning (e.g., "below_minimum")
	CleanedAt         time.Time // When the cleaning occurred (set by database)
}

// CleaningContext contains information needed for cleaning a sample
type CleaningContext struct {
	RunID      string
	Department string
	Role       string
}
