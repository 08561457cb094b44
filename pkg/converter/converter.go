// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/connector"
	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// TypeConverter maps output tables onto a SQL dialect
type TypeConverter struct {
	logger  *zap.Logger
	dialect connector.Dialect
	config  TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Length of Snowflake VARCHAR text columns; 0 means unbounded
	VarcharLength int
	// Whether identifiers are lower-cased before quoting (PostgreSQL only)
	LowercaseIdentifiers bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		VarcharLength:        256,
		LowercaseIdentifiers: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger, dialect connector.Dialect) *TypeConverter {
	return NewTypeConverterWithConfig(logger, dialect, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, dialect connector.Dialect, config TypeConverterConfig) *TypeConverter {
	return &TypeConverter{
		logger:  logger,
		dialect: dialect,
		config:  config,
	}
}

// ColumnType returns the SQL type for a logical column kind
func (c *TypeConverter) ColumnType(kind model.ColumnKind) (string, error) {
	switch c.dialect {
	case connector.DialectPostgres:
		switch kind {
		case model.ColumnText:
			return "TEXT", nil
		case model.ColumnInteger:
			return "BIGINT", nil
		}
	case connector.DialectSnowflake:
		switch kind {
		case model.ColumnText:
			if c.config.VarcharLength > 0 {
				return fmt.Sprintf("VARCHAR(%d)", c.config.VarcharLength), nil
			}
			return "VARCHAR", nil
		case model.ColumnInteger:
			return "NUMBER(38,0)", nil
		}
	default:
		return "", fmt.Errorf("unsupported dialect: %s", c.dialect)
	}

	c.logger.Warn("Unknown column kind encountered",
		zap.Int("kind", int(kind)),
		zap.String("dialect", string(c.dialect)))
	return "", fmt.Errorf("unknown column kind %d", kind)
}

// QuoteIdentifier quotes a column or table identifier for the dialect
func (c *TypeConverter) QuoteIdentifier(name string) string {
	if c.dialect == connector.DialectPostgres {
		if c.config.LowercaseIdentifiers {
			name = strings.ToLower(name)
		}
		return pq.QuoteIdentifier(name)
	}
	// Snowflake folds unquoted identifiers to upper case
	return strings.ToUpper(name)
}

// QualifiedName returns the quoted schema.table name for metadata
func (c *TypeConverter) QualifiedName(metadata *model.TableMetadata) string {
	if metadata.Schema == "" {
		return c.QuoteIdentifier(metadata.Table)
	}
	return c.QuoteIdentifier(metadata.Schema) + "." + c.QuoteIdentifier(metadata.Table)
}

// QuotedColumns returns the quoted column names in output order
func (c *TypeConverter) QuotedColumns(metadata *model.TableMetadata) []string {
	names := make([]string, len(metadata.Columns))
	for i, col := range metadata.Columns {
		names[i] = c.QuoteIdentifier(col.Name)
	}
	return names
}

// GenerateColumnDefinitions creates column definitions for CREATE TABLE
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType, err := c.ColumnType(col.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}

		nullability := "NOT NULL"
		if col.Nullable {
			nullability = "NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			c.QuoteIdentifier(col.Name),
			sqlType,
			nullability))
	}

	return definitions, nil
}

// ConvertRow converts a row of values for insertion, checking each value
// against its column kind
func (c *TypeConverter) ConvertRow(metadata *model.TableMetadata, values []interface{}) ([]interface{}, error) {
	if len(values) != len(metadata.Columns) {
		return nil, fmt.Errorf("row has %d values, table %s has %d columns",
			len(values), metadata.Table, len(metadata.Columns))
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		col := metadata.Columns[i]
		switch col.Kind {
		case model.ColumnText:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %s: expected text, got %T", col.Name, v)
			}
			row[i] = s
		case model.ColumnInteger:
			n, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
			row[i] = n
		default:
			return nil, fmt.Errorf("column %s: unknown kind %d", col.Name, col.Kind)
		}
	}
	return row, nil
}

// ConvertRows converts all rows, stopping at the first bad row
func (c *TypeConverter) ConvertRows(metadata *model.TableMetadata, rows [][]interface{}) ([][]interface{}, error) {
	out := make([][]interface{}, 0, len(rows))
	for i, r := range rows {
		row, err := c.ConvertRow(metadata, r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// Truncate toward zero
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
