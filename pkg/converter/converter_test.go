package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/connector"
	"github.com/David-Botos/salary-benchmark/pkg/model"
)

func TestColumnType(t *testing.T) {
	tests := []struct {
		dialect connector.Dialect
		kind    model.ColumnKind
		want    string
	}{
		{connector.DialectPostgres, model.ColumnText, "TEXT"},
		{connector.DialectPostgres, model.ColumnInteger, "BIGINT"},
		{connector.DialectSnowflake, model.ColumnText, "VARCHAR(256)"},
		{connector.DialectSnowflake, model.ColumnInteger, "NUMBER(38,0)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			got, err := NewTypeConverter(zap.NewNop(), tt.dialect).ColumnType(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewTypeConverter(zap.NewNop(), "oracle").ColumnType(model.ColumnText)
	assert.ErrorContains(t, err, "unsupported dialect")

	_, err = NewTypeConverter(zap.NewNop(), connector.DialectPostgres).ColumnType(model.ColumnKind(9))
	assert.Error(t, err)
}

func TestUnboundedVarchar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VarcharLength = 0
	got, err := NewTypeConverterWithConfig(zap.NewNop(), connector.DialectSnowflake, cfg).ColumnType(model.ColumnText)
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR", got)
}

func TestQuoting(t *testing.T) {
	meta := model.StatisticsTable("Analytics", "Salary_Statistics")

	pg := NewTypeConverter(zap.NewNop(), connector.DialectPostgres)
	assert.Equal(t, `"analytics"."salary_statistics"`, pg.QualifiedName(meta))
	assert.Equal(t, `"real_data_count"`, pg.QuotedColumns(meta)[3])

	sf := NewTypeConverter(zap.NewNop(), connector.DialectSnowflake)
	assert.Equal(t, "ANALYTICS.SALARY_STATISTICS", sf.QualifiedName(meta))
	assert.Equal(t, "REAL_DATA_COUNT", sf.QuotedColumns(meta)[3])

	assert.Equal(t, `"salary_statistics"`, pg.QualifiedName(model.StatisticsTable("", "Salary_Statistics")))
}

func TestGenerateColumnDefinitions(t *testing.T) {
	meta := &model.TableMetadata{
		Table: "t",
		Columns: []model.Column{
			{Name: "Department", Kind: model.ColumnText},
			{Name: "Mean", Kind: model.ColumnInteger, Nullable: true},
		},
	}

	defs, err := NewTypeConverter(zap.NewNop(), connector.DialectPostgres).GenerateColumnDefinitions(meta)
	require.NoError(t, err)
	assert.Equal(t, []string{`"department" TEXT NOT NULL`, `"mean" BIGINT NULL`}, defs)

	defs, err = NewTypeConverter(zap.NewNop(), connector.DialectSnowflake).GenerateColumnDefinitions(meta)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEPARTMENT VARCHAR(256) NOT NULL", "MEAN NUMBER(38,0) NULL"}, defs)
}

func TestConvertRows(t *testing.T) {
	meta := &model.TableMetadata{
		Table: "t",
		Columns: []model.Column{
			{Name: "Department", Kind: model.ColumnText},
			{Name: "Count", Kind: model.ColumnInteger},
		},
	}
	c := NewTypeConverter(zap.NewNop(), connector.DialectPostgres)

	rows, err := c.ConvertRows(meta, [][]interface{}{
		{"Finance", 30},
		{"Sales", int32(12)},
		{"Marketing", 91000.9},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{
		{"Finance", int64(30)},
		{"Sales", int64(12)},
		{"Marketing", int64(91000)},
	}, rows)

	_, err = c.ConvertRows(meta, [][]interface{}{{"Finance", "thirty"}})
	assert.ErrorContains(t, err, "row 0: column Count")

	_, err = c.ConvertRows(meta, [][]interface{}{{42, 1}})
	assert.ErrorContains(t, err, "expected text")

	_, err = c.ConvertRow(meta, []interface{}{"Finance"})
	assert.ErrorContains(t, err, "has 1 values")
}

func TestStatisticsRowsConvert(t *testing.T) {
	rec := model.StatisticsRecord{Department: "Finance", Role: "Associate", Count: 30, RealDataCount: 30}
	meta := model.StatisticsTable("public", "salary_statistics")

	row, err := NewTypeConverter(zap.NewNop(), connector.DialectSnowflake).ConvertRow(meta, rec.Values())
	require.NoError(t, err)
	assert.Equal(t, "Finance", row[0])
	assert.Equal(t, int64(30), row[2])
}
