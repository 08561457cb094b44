// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

const (
	operationValidity = "validity_filter"
	operationOutlier  = "outlier_filter"
)

// SalaryCleaner applies validity and outlier filtering to observed samples and
// keeps an audit trail of every dropped observation
type SalaryCleaner struct {
	validator *Validator
	outliers  OutlierFilter
	db        *sqlx.DB
	table     string
	logger    *zap.Logger
}

// NewSalaryCleaner creates a cleaner that does not persist its audit trail
func NewSalaryCleaner(validator *Validator, outliers OutlierFilter, logger *zap.Logger) (*SalaryCleaner, error) {
	if validator == nil {
		return nil, errors.New("validator cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &SalaryCleaner{
		validator: validator,
		outliers:  outliers,
		logger:    logger,
	}, nil
}

// WithTracking persists cleaning operations to table (schema-qualified) and
// ensures the tracking table exists
func (c *SalaryCleaner) WithTracking(ctx context.Context, db *sqlx.DB, table string) error {
	if db == nil {
		return errors.New("database connection cannot be nil")
	}
	c.db = db
	c.table = table

	if err := c.setupCleaningTable(ctx); err != nil {
		return fmt.Errorf("failed to setup cleaning table: %w", err)
	}
	return nil
}

// setupCleaningTable ensures the cleaning log table exists
func (c *SalaryCleaner) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id VARCHAR(64) NOT NULL,
			department VARCHAR(128) NOT NULL,
			role VARCHAR(128) NOT NULL,
			original_value BIGINT NOT NULL,
			cleaning_operation VARCHAR(64) NOT NULL,
			cleaning_reason VARCHAR(64) NOT NULL,
			cleaned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.table)
	if _, err := c.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	c.logger.Info("Ensured cleaning log table exists", zap.String("table", c.table))
	return nil
}

// Clean drops invalid values, then outliers, and returns the cleaned sample in
// input order together with one operation per dropped observation
func (c *SalaryCleaner) Clean(cctx model.CleaningContext, observations []float64) ([]float64, []model.CleaningOperation) {
	var operations []model.CleaningOperation

	valid := make([]float64, 0, len(observations))
	for _, s := range observations {
		reason, ok := c.validator.reject(s)
		if ok {
			valid = append(valid, s)
			continue
		}
		operations = append(operations, newOperation(cctx, s, operationValidity, reason))
	}

	kept, dropped := c.outliers.partition(valid)
	for _, s := range dropped {
		operations = append(operations,
			newOperation(cctx, s, operationOutlier, c.outliers.Method.String()+"_outlier"))
	}

	if len(operations) > 0 {
		c.logger.Debug("Cleaned sample",
			zap.String("department", cctx.Department),
			zap.String("role", cctx.Role),
			zap.Int("observed", len(observations)),
			zap.Int("kept", len(kept)),
			zap.Int("dropped", len(operations)))
	}

	return kept, operations
}

func newOperation(cctx model.CleaningContext, value float64, op, reason string) model.CleaningOperation {
	return model.CleaningOperation{
		RunID:             cctx.RunID,
		Department:        cctx.Department,
		Role:              cctx.Role,
		OriginalValue:     value,
		CleaningOperation: op,
		CleaningReason:    reason,
	}
}

// RecordCleaningOperations batch inserts cleaning operations into the tracking table.
// It is a no-op when tracking is not enabled.
func (c *SalaryCleaner) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 || c.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf(`
		INSERT INTO %s
		(run_id, department, role, original_value, cleaning_operation, cleaning_reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.table)))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		_, err = stmt.ExecContext(ctx,
			op.RunID,
			op.Department,
			op.Role,
			int64(op.OriginalValue),
			op.CleaningOperation,
			op.CleaningReason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}
