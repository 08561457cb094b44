// pkg/upload/verifier.go
package upload

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/connector"
	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// Integrity issue types
const (
	IssueUnordered      = "unordered_statistics"
	IssueUnbalanced     = "unbalanced_counts"
	IssueDuplicatePair  = "duplicate_pair"
	IssueNegativeScaled = "negative_scaled_value"
)

// IntegrityIssue represents a data integrity issue in a finished table
type IntegrityIssue struct {
	IssueType   string
	Description string
	Department  string
	Role        string
}

// VerificationReport contains the results of verifying one uploaded table
type VerificationReport struct {
	Table            string
	VerificationTime time.Time
	RowCountMatches  bool
	ExpectedRowCount int64
	TargetRowCount   int64
	IntegrityIssues  []IntegrityIssue
	Duration         time.Duration
}

// Verified reports whether the table passed every check
func (r *VerificationReport) Verified() bool {
	return r.RowCountMatches && len(r.IntegrityIssues) == 0
}

// Verifier checks finished tables before and after upload
type Verifier struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{
		logger:  logger,
		timeout: time.Minute, // Default 1-minute timeout
	}
}

// VerifyRecords checks the statistics invariants of every record: ordered
// percentiles, balanced counts and one row per pair
func (v *Verifier) VerifyRecords(records []model.StatisticsRecord) []IntegrityIssue {
	var issues []IntegrityIssue
	seen := make(map[model.RolePair]bool, len(records))

	for _, r := range records {
		if !r.Ordered() {
			issues = append(issues, IntegrityIssue{
				IssueType: IssueUnordered,
				Description: fmt.Sprintf("min %d, p10 %d, p25 %d, median %d, p75 %d, p90 %d, max %d",
					r.MinSalary, r.P10, r.P25, r.Median, r.P75, r.P90, r.MaxSalary),
				Department: r.Department,
				Role:       r.Role,
			})
		}
		if !r.CountsBalanced() {
			issues = append(issues, IntegrityIssue{
				IssueType: IssueUnbalanced,
				Description: fmt.Sprintf("real %d + synthetic %d != count %d",
					r.RealDataCount, r.SyntheticDataCount, r.Count),
				Department: r.Department,
				Role:       r.Role,
			})
		}
		if seen[r.Pair()] {
			issues = append(issues, IntegrityIssue{
				IssueType:   IssueDuplicatePair,
				Description: "pair appears more than once",
				Department:  r.Department,
				Role:        r.Role,
			})
		}
		seen[r.Pair()] = true
	}

	for _, issue := range issues {
		v.logger.Warn("Integrity issue",
			zap.String("type", issue.IssueType),
			zap.String("department", issue.Department),
			zap.String("role", issue.Role),
			zap.String("description", issue.Description))
	}

	return issues
}

// VerifyAdjusted checks the statistics invariants of the adjusted table and
// that no scaled value went negative
func (v *Verifier) VerifyAdjusted(records []model.AdjustedRecord) []IntegrityIssue {
	stats := make([]model.StatisticsRecord, len(records))
	for i, r := range records {
		stats[i] = r.StatisticsRecord
	}
	issues := v.VerifyRecords(stats)

	for _, r := range records {
		for _, c := range model.ScaledColumns {
			if r.ScaledValue(c) < 0 {
				issues = append(issues, IntegrityIssue{
					IssueType:   IssueNegativeScaled,
					Description: fmt.Sprintf("%s is %d", c, r.ScaledValue(c)),
					Department:  r.Department,
					Role:        r.Role,
				})
			}
		}
	}
	return issues
}

// VerifyRowCount compares the uploaded row count of fullTableName with expected
func (v *Verifier) VerifyRowCount(
	ctx context.Context,
	conn connector.DatabaseConnector,
	fullTableName string,
	expected int64,
) (bool, int64, error) {
	v.logger.Info("Verifying row count", zap.String("table", fullTableName))

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	count, err := connector.CountRows(ctx, conn, fullTableName)
	if err != nil {
		return false, 0, err
	}

	matches := count == expected
	if matches {
		v.logger.Info("Row count verification successful",
			zap.String("table", fullTableName),
			zap.Int64("count", count))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("table", fullTableName),
			zap.Int64("expected", expected),
			zap.Int64("actual", count),
			zap.Int64("difference", expected-count))
	}

	return matches, count, nil
}
