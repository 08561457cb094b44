// pkg/pipeline/error.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/calibrate"
	"github.com/David-Botos/salary-benchmark/pkg/fetch"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing of the pair should continue
	ActionContinue Action = iota
	// ActionSkipPair indicates the pair should be left out of the table
	ActionSkipPair
	// ActionAbort indicates the entire run should be aborted
	ActionAbort
)

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryValidation
	ErrorCategoryPairLevel
	ErrorCategoryConnectionLevel
	ErrorCategorySystemLevel
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryPairLevel:
		return "PairLevel"
	case ErrorCategoryConnectionLevel:
		return "ConnectionLevel"
	case ErrorCategorySystemLevel:
		return "SystemLevel"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a run
type ErrorRecord struct {
	Category    ErrorCategory
	Pair        string
	Stage       string
	Error       error
	Message     string // Derived from Error but stored for reporting
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategoryConnectionLevel,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithPair adds pair information to the error record
func (r ErrorRecord) WithPair(pair string) ErrorRecord {
	r.Pair = pair
	return r
}

// WithStage adds the pipeline stage (fetch, clean, calibrate, sink)
func (r ErrorRecord) WithStage(stage string) ErrorRecord {
	r.Stage = stage
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Pair != "" {
		sb.WriteString(fmt.Sprintf("Pair: %s ", r.Pair))
	}
	if r.Stage != "" {
		sb.WriteString(fmt.Sprintf("Stage: %s ", r.Stage))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return sb.String()
}

// ErrorHandler manages error handling during a run
type ErrorHandler struct {
	logger          *zap.Logger
	errorThresholds map[ErrorCategory]int
	errorCounts     map[ErrorCategory]int
	mu              sync.Mutex
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		errorThresholds: map[ErrorCategory]int{
			ErrorCategoryWarning:         1000, // Failed pages are expected
			ErrorCategoryValidation:      100,
			ErrorCategoryPairLevel:       10,
			ErrorCategoryConnectionLevel: 0,
			ErrorCategorySystemLevel:     0,
			ErrorCategoryCritical:        0,
		},
		errorCounts: make(map[ErrorCategory]int),
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var (
		category     ErrorCategory
		insufficient *calibrate.DataInsufficientError
		netErr       net.Error
	)

	switch {
	case errors.Is(err, context.Canceled):
		category = ErrorCategoryCritical
	case errors.Is(err, fetch.ErrMissingCredentials):
		category = ErrorCategorySystemLevel
	case errors.As(err, &insufficient):
		category = ErrorCategoryPairLevel
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		category = ErrorCategoryConnectionLevel
	case strings.Contains(err.Error(), "connection") ||
		strings.Contains(err.Error(), "refused"):
		category = ErrorCategoryConnectionLevel
	case strings.Contains(err.Error(), "validate") ||
		strings.Contains(err.Error(), "invalid"):
		category = ErrorCategoryValidation
	case strings.Contains(err.Error(), "permission") ||
		strings.Contains(err.Error(), "disk"):
		category = ErrorCategorySystemLevel
	default:
		category = ErrorCategoryPairLevel
	}

	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", err.Error()),
			zap.String("category", category.String()))
	}

	return category
}

// HandleError records an error and determines the action
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning:
		return ActionContinue
	case ErrorCategoryValidation, ErrorCategoryPairLevel:
		if eh.IsErrorThresholdExceeded() {
			return ActionAbort
		}
		return ActionSkipPair
	case ErrorCategoryConnectionLevel, ErrorCategorySystemLevel, ErrorCategoryCritical:
		if eh.logger != nil {
			eh.logger.Error("Fatal error during run",
				zap.String("category", record.Category.String()),
				zap.String("pair", record.Pair),
				zap.String("error", record.Message))
		}
		return ActionAbort
	default:
		return ActionContinue
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	if eh.logger != nil {
		logLevel := zap.InfoLevel
		switch record.Category {
		case ErrorCategoryWarning, ErrorCategoryValidation, ErrorCategoryPairLevel:
			logLevel = zap.WarnLevel
		case ErrorCategoryConnectionLevel, ErrorCategorySystemLevel, ErrorCategoryCritical:
			logLevel = zap.ErrorLevel
		}

		eh.logger.Log(logLevel, "Pipeline error",
			zap.String("category", record.Category.String()),
			zap.String("pair", record.Pair),
			zap.String("stage", record.Stage),
			zap.String("error", record.Message),
			zap.Bool("recoverable", record.Recoverable))
	}
}

// GetErrorSummary returns error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// IsErrorThresholdExceeded checks if any error category has exceeded its threshold
func (eh *ErrorHandler) IsErrorThresholdExceeded() bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	for category, count := range eh.errorCounts {
		threshold, exists := eh.errorThresholds[category]
		if exists && count > threshold {
			return true
		}
	}
	return false
}
