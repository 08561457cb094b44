// pkg/upload/uploader.go
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/connector"
	"github.com/David-Botos/salary-benchmark/pkg/converter"
	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// ErrIntegrity is returned when a table fails verification
var ErrIntegrity = errors.New("table failed verification")

// Uploader replaces the statistics and adjusted tables in a SQL sink
type Uploader struct {
	conn          connector.DatabaseConnector
	converter     *converter.TypeConverter
	verifier      *Verifier
	statsTable    string
	adjustedTable string
	batchSize     int
	logger        *zap.Logger
}

// NewUploader creates an uploader writing to statsTable and adjustedTable in
// the connector's schema
func NewUploader(conn connector.DatabaseConnector, statsTable, adjustedTable string, logger *zap.Logger) (*Uploader, error) {
	if conn == nil {
		return nil, errors.New("connector cannot be nil")
	}
	if statsTable == "" || adjustedTable == "" {
		return nil, errors.New("table names cannot be empty")
	}

	logger = logger.Named("uploader")
	return &Uploader{
		conn:          conn,
		converter:     converter.NewTypeConverter(logger, conn.Dialect()),
		verifier:      NewVerifier(logger),
		statsTable:    statsTable,
		adjustedTable: adjustedTable,
		batchSize:     500,
		logger:        logger,
	}, nil
}

// WithBatchSize sets the number of rows per INSERT statement
func (u *Uploader) WithBatchSize(n int) *Uploader {
	if n > 0 {
		u.batchSize = n
	}
	return u
}

// CleaningLogTable returns the qualified name of the cleaning audit table
func (u *Uploader) CleaningLogTable() string {
	return u.converter.QualifiedName(model.CleaningLogTable(u.conn.Schema()))
}

// Upload replaces both tables, inserts every row and verifies the result.
// Records that fail the integrity checks are never written.
func (u *Uploader) Upload(
	ctx context.Context,
	stats []model.StatisticsRecord,
	adjusted []model.AdjustedRecord,
) ([]*VerificationReport, error) {
	statsIssues := u.verifier.VerifyRecords(stats)
	adjustedIssues := u.verifier.VerifyAdjusted(adjusted)
	if len(statsIssues)+len(adjustedIssues) > 0 {
		return nil, fmt.Errorf("%w: %d statistics issues, %d adjusted issues",
			ErrIntegrity, len(statsIssues), len(adjustedIssues))
	}

	statsRows := make([][]interface{}, len(stats))
	for i, r := range stats {
		statsRows[i] = r.Values()
	}
	adjustedRows := make([][]interface{}, len(adjusted))
	for i, r := range adjusted {
		adjustedRows[i] = r.Values()
	}

	var reports []*VerificationReport
	for _, t := range []struct {
		meta *model.TableMetadata
		rows [][]interface{}
	}{
		{model.StatisticsTable(u.conn.Schema(), u.statsTable), statsRows},
		{model.AdjustedTable(u.conn.Schema(), u.adjustedTable), adjustedRows},
	} {
		report, err := u.replaceTable(ctx, t.meta, t.rows)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if !report.Verified() {
			return reports, fmt.Errorf("%w: %s", ErrIntegrity, report.Table)
		}
	}

	return reports, nil
}

func (u *Uploader) replaceTable(
	ctx context.Context,
	meta *model.TableMetadata,
	rows [][]interface{},
) (*VerificationReport, error) {
	start := time.Now()
	fullName := u.converter.QualifiedName(meta)

	u.logger.Info("Replacing table",
		zap.String("table", fullName),
		zap.Int("rows", len(rows)))

	defs, err := u.converter.GenerateColumnDefinitions(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to generate column definitions for %s: %w", fullName, err)
	}

	values, err := u.converter.ConvertRows(meta, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to convert rows for %s: %w", fullName, err)
	}

	if err := connector.ReplaceTable(ctx, u.conn, fullName, defs); err != nil {
		return nil, err
	}

	inserted, err := connector.BatchInsert(ctx, u.conn, fullName, u.converter.QuotedColumns(meta), values, u.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", fullName, err)
	}

	report := &VerificationReport{
		Table:            fullName,
		VerificationTime: time.Now(),
		ExpectedRowCount: int64(len(rows)),
	}
	report.RowCountMatches, report.TargetRowCount, err = u.verifier.VerifyRowCount(ctx, u.conn, fullName, int64(len(rows)))
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s: %w", fullName, err)
	}
	report.Duration = time.Since(start)

	u.logger.Info("Table replaced",
		zap.String("table", fullName),
		zap.Int64("inserted", inserted),
		zap.Bool("rowCountMatch", report.RowCountMatches),
		zap.Duration("duration", report.Duration))

	return report, nil
}
