// pkg/export/csv.go
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// Table is a header plus rows ready to be written to a file sink
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// StatisticsTable builds the exportable statistics table
func StatisticsTable(records []model.StatisticsRecord) Table {
	meta := model.StatisticsTable("", "Statistics")
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return Table{Name: meta.Table, Headers: meta.ColumnNames(), Rows: rows}
}

// AdjustedTable builds the exportable adjusted table
func AdjustedTable(records []model.AdjustedRecord) Table {
	meta := model.AdjustedTable("", "Adjusted")
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return Table{Name: meta.Table, Headers: meta.ColumnNames(), Rows: rows}
}

// WriteCSV writes table to path, creating parent directories as needed
func WriteCSV(path string, table Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Headers))
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(table.Headers))
		}
		for j, v := range row {
			record[j] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
