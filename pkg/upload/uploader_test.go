package upload

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/connector"
	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// fakeConn records statements; it never reaches a database
type fakeConn struct {
	dialect connector.Dialect
	execs   []string
}

func (c *fakeConn) DB() *sqlx.DB { return nil }
func (c *fakeConn) Dialect() connector.Dialect { return c.dialect }
func (c *fakeConn) Schema() string { return "Analytics" }
func (c *fakeConn) Validate(ctx context.Context) error { return nil }
func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error) {
	c.execs = append(c.execs, query)
	return nil, errors.New("read-only")
}

func TestNewUploaderValidation(t *testing.T) {
	_, err := NewUploader(nil, "a", "b", zap.NewNop())
	assert.Error(t, err)

	_, err = NewUploader(&fakeConn{dialect: connector.DialectPostgres}, "", "b", zap.NewNop())
	assert.Error(t, err)
}

func TestCleaningLogTable(t *testing.T) {
	pg, err := NewUploader(&fakeConn{dialect: connector.DialectPostgres}, "s", "a", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, `"analytics"."salary_cleaning_log"`, pg.CleaningLogTable())

	sf, err := NewUploader(&fakeConn{dialect: connector.DialectSnowflake}, "s", "a", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ANALYTICS.SALARY_CLEANING_LOG", sf.CleaningLogTable())
}

func TestUploadRefusesBadRecords(t *testing.T) {
	conn := &fakeConn{dialect: connector.DialectPostgres}
	u, err := NewUploader(conn, "salary_statistics", "salary_adjusted", zap.NewNop())
	require.NoError(t, err)

	bad := goodRecord("Finance", "Associate")
	bad.Count = 99

	_, err = u.Upload(context.Background(), []model.StatisticsRecord{bad}, nil)
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Empty(t, conn.execs)
}

func TestUploadStopsOnSinkError(t *testing.T) {
	conn := &fakeConn{dialect: connector.DialectPostgres}
	u, err := NewUploader(conn, "salary_statistics", "salary_adjusted", zap.NewNop())
	require.NoError(t, err)

	reports, err := u.Upload(context.Background(), []model.StatisticsRecord{goodRecord("Finance", "Associate")}, nil)
	assert.ErrorContains(t, err, "failed to drop table")
	assert.Empty(t, reports)
	assert.Equal(t, []string{`DROP TABLE IF EXISTS "analytics"."salary_statistics"`}, conn.execs)
}
