package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wonny/niftyjobs/pkg/logger"
)

// SQLiteSink writes tables to a local SQLite database
type SQLiteSink struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteSink creates a sink on an open database
func NewSQLiteSink(db *sql.DB, log *logger.Logger) *SQLiteSink {
	return &SQLiteSink{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"module": "sink", "driver": "sqlite"}),
	}
}

// Replace drops, recreates and fills the table inside one transaction
func (s *SQLiteSink) Replace(ctx context.Context, schema Schema, rows []Row) error {
	args := make([][]any, len(rows))
	for i, row := range rows {
		norm, err := normalize(schema, row)
		if err != nil {
			return storageErr("replace", schema, err)
		}
		args[i] = sqliteArgs(schema, norm)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", schema, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, schema.Drop()); err != nil {
		return storageErr("drop", schema, err)
	}
	if _, err := tx.ExecContext(ctx, schema.DDL(SQLite)); err != nil {
		return storageErr("create", schema, err)
	}

	stmt, err := tx.PrepareContext(ctx, schema.Insert(SQLite))
	if err != nil {
		return storageErr("prepare", schema, err)
	}
	defer stmt.Close()

	for i, a := range args {
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			return storageErr("insert", schema, fmt.Errorf("row %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", schema, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"table": schema.Table,
		"rows":  len(rows),
	}).Info("Replaced table")

	return nil
}

// Load reads every row of the table in insertion order
func (s *SQLiteSink) Load(ctx context.Context, schema Schema) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, schema.Select())
	if err != nil {
		return nil, storageErr("load", schema, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		targets := make([]any, len(schema.Columns))
		for i, c := range schema.Columns {
			switch c.Type {
			case Int, BigInt:
				targets[i] = new(int64)
			case Decimal:
				targets[i] = new(float64)
			default:
				targets[i] = new(string)
			}
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, storageErr("scan", schema, err)
		}

		row, err := sqliteRow(schema, targets)
		if err != nil {
			return nil, storageErr("scan", schema, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load", schema, err)
	}
	return out, nil
}

// Count returns the table's row count
func (s *SQLiteSink) Count(ctx context.Context, schema Schema) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, schema.Count()).Scan(&n); err != nil {
		return 0, storageErr("count", schema, err)
	}
	return n, nil
}

// Ping checks the database
func (s *SQLiteSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func sqliteArgs(schema Schema, row Row) []any {
	args := make([]any, len(row))
	for i, c := range schema.Columns {
		switch c.Type {
		case Date:
			args[i] = row[i].(time.Time).Format(dateLayout)
		case DateTime:
			args[i] = row[i].(time.Time).UTC().Format(dateTimeLayout)
		default:
			args[i] = row[i]
		}
	}
	return args
}

func sqliteRow(schema Schema, targets []any) (Row, error) {
	row := make(Row, len(targets))
	for i, c := range schema.Columns {
		switch c.Type {
		case Int, BigInt:
			row[i] = *targets[i].(*int64)
		case Decimal:
			row[i] = *targets[i].(*float64)
		case Varchar:
			row[i] = *targets[i].(*string)
		case Date, DateTime:
			layout := dateLayout
			if c.Type == DateTime {
				layout = dateTimeLayout
			}
			t, err := time.Parse(layout, *targets[i].(*string))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			row[i] = t
		}
	}
	return row, nil
}
