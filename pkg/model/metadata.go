// pkg/model/metadata.go
package model

import "strings"

// ColumnKind is the logical type of an output column
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnInteger
)

// TableMetadata contains the structure information for an output table
type TableMetadata struct {
	Schema  string   // Schema name (may be empty for file sinks)
	Table   string   // Table name
	Columns []Column // Column definitions in output order
}

// Column represents metadata about an output column
type Column struct {
	Name     string     // Column name as written to CSV headers and SQL
	Kind     ColumnKind // Logical type
	Nullable bool       // Whether column allows NULL values
}

// FullName returns schema.table, or the bare table name when no schema is set
func (tm *TableMetadata) FullName() string {
	if tm.Schema == "" {
		return tm.Table
	}
	return tm.Schema + "." + tm.Table
}

// ColumnNames returns the column names in output order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	for i, col := range tm.Columns {
		if strings.EqualFold(col.Name, name) {
			return &tm.Columns[i]
		}
	}
	return nil
}

var statisticsColumns = []Column{
	{Name: "Department", Kind: ColumnText},
	{Name: "Role", Kind: ColumnText},
	{Name: "Count", Kind: ColumnInteger},
	{Name: "Real_Data_Count", Kind: ColumnInteger},
	{Name: "Synthetic_Data_Count", Kind: ColumnInteger},
	{Name: "Min_Salary", Kind: ColumnInteger},
	{Name: "P10", Kind: ColumnInteger},
	{Name: "P25", Kind: ColumnInteger},
	{Name: "Median", Kind: ColumnInteger},
	{Name: "P75", Kind: ColumnInteger},
	{Name: "P90", Kind: ColumnInteger},
	{Name: "Max_Salary", Kind: ColumnInteger},
	{Name: "Mean", Kind: ColumnInteger},
	{Name: "Std_Dev", Kind: ColumnInteger},
}

// StatisticsTable describes the statistics table
func StatisticsTable(schema, table string) *TableMetadata {
	cols := make([]Column, len(statisticsColumns))
	copy(cols, statisticsColumns)
	return &TableMetadata{Schema: schema, Table: table, Columns: cols}
}

// AdjustedTable describes the adjusted table: every statistics column followed
// by the company-scaled columns
func AdjustedTable(schema, table string) *TableMetadata {
	tm := StatisticsTable(schema, table)
	for _, c := range ScaledColumns {
		tm.Columns = append(tm.Columns, Column{Name: c.String(), Kind: ColumnInteger})
	}
	return tm
}

// CleaningLogTable describes the cleaning audit table
func CleaningLogTable(schema string) *TableMetadata {
	return &TableMetadata{
		Schema: schema,
		Table:  "salary_cleaning_log",
		Columns: []Column{
			{Name: "run_id", Kind: ColumnText},
			{Name: "department", Kind: ColumnText},
			{Name: "role", Kind: ColumnText},
			{Name: "original_value", Kind: ColumnInteger},
			{Name: "cleaning_operation", Kind: ColumnText},
			{Name: "cleaning_reason", Kind: ColumnText},
		},
	}
}

// Values returns the statistics record as row values in StatisticsTable order
func (r StatisticsRecord) Values() []interface{} {
	return []interface{}{
		r.Department, r.Role,
		r.Count, r.RealDataCount, r.SyntheticDataCount,
		r.MinSalary, r.P10, r.P25, r.Median, r.P75, r.P90, r.MaxSalary,
		r.Mean, r.StdDev,
	}
}

// Values returns the adjusted record as row values in AdjustedTable order
func (r AdjustedRecord) Values() []interface{} {
	vals := r.StatisticsRecord.Values()
	for _, c := range ScaledColumns {
		vals = append(vals, r.Scaled[c])
	}
	return vals
}
