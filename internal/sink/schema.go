package sink

import (
	"fmt"
	"strings"
)

// ColumnType is a logical column type, rendered per dialect
type ColumnType int

const (
	Int ColumnType = iota
	BigInt
	Varchar
	Date
	DateTime
	Decimal
)

// Dialect selects the DDL/placeholder flavour
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Column describes one data column (the identity column is implicit)
type Column struct {
	Name      string
	Type      ColumnType
	Size      int // Varchar length
	Precision int // Decimal
	Scale     int // Decimal
}

// Schema describes a destination table
// ⭐ SSOT: table layouts are declared here and rendered by DDL()
type Schema struct {
	Table   string
	Columns []Column
	Unique  [][]string
}

// Names returns the data column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// DDL renders CREATE TABLE for the dialect, with an auto-incrementing id
func (s Schema) DDL(d Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", s.Table)

	switch d {
	case SQLite:
		b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT")
	default:
		b.WriteString("\tid INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY")
	}

	for _, c := range s.Columns {
		fmt.Fprintf(&b, ",\n\t%s %s", c.Name, c.sqlType(d))
	}
	for _, key := range s.Unique {
		fmt.Fprintf(&b, ",\n\tUNIQUE (%s)", strings.Join(key, ", "))
	}
	b.WriteString("\n)")
	return b.String()
}

// Insert renders a parameterised INSERT of all data columns
func (s Schema) Insert(d Dialect) string {
	params := make([]string, len(s.Columns))
	for i := range s.Columns {
		if d == Postgres {
			params[i] = fmt.Sprintf("$%d", i+1)
		} else {
			params[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.Table, strings.Join(s.Names(), ", "), strings.Join(params, ", "))
}

// Select renders a SELECT of all data columns in insertion order
func (s Schema) Select() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(s.Names(), ", "), s.Table)
}

// Count renders SELECT COUNT(*)
func (s Schema) Count() string {
	return "SELECT COUNT(*) FROM " + s.Table
}

// Drop renders DROP TABLE IF EXISTS
func (s Schema) Drop() string {
	return "DROP TABLE IF EXISTS " + s.Table
}

func (c Column) sqlType(d Dialect) string {
	if d == SQLite {
		switch c.Type {
		case Int, BigInt:
			return "INTEGER"
		case Decimal:
			return "REAL"
		default:
			// dates are stored as ISO-8601 text
			return "TEXT"
		}
	}

	switch c.Type {
	case Int:
		return "INTEGER"
	case BigInt:
		return "BIGINT"
	case Varchar:
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	case Date:
		return "DATE"
	case DateTime:
		return "TIMESTAMP"
	case Decimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", c.Precision, c.Scale)
	default:
		return "TEXT"
	}
}

func ohlcvColumns() []Column {
	price := func(name string) Column {
		return Column{Name: name, Type: Decimal, Precision: 10, Scale: 2}
	}
	return []Column{
		{Name: "ticker", Type: Varchar, Size: 20},
		{Name: "date", Type: Date},
		price("open"),
		price("high"),
		price("low"),
		price("close"),
		price("adj_close"),
		{Name: "volume", Type: BigInt},
		{Name: "inserted_at", Type: DateTime},
	}
}

// YearlyTopPerformers is the yearly job's table
var YearlyTopPerformers = Schema{
	Table: "yearly_top_performers",
	Columns: []Column{
		{Name: "year", Type: Int},
		{Name: "company", Type: Varchar, Size: 50},
		{Name: "return_pct", Type: Decimal, Precision: 6, Scale: 2},
	},
	Unique: [][]string{{"year"}},
}

// MonthlyWinners is the monthly job's table
var MonthlyWinners = Schema{
	Table:   "monthly_winners",
	Columns: ohlcvColumns(),
}

// StockData is the refresh job's table
var StockData = Schema{
	Table:   "stock_data",
	Columns: ohlcvColumns(),
	Unique:  [][]string{{"ticker", "date"}},
}
