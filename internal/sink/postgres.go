package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/niftyjobs/pkg/database"
	"github.com/wonny/niftyjobs/pkg/logger"
)

// PostgresSink writes tables through a pgx pool
type PostgresSink struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresSink creates a sink on an open pool
func NewPostgresSink(db *database.DB, log *logger.Logger) *PostgresSink {
	return &PostgresSink{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"module": "sink", "driver": "postgres"}),
	}
}

// Replace drops, recreates and fills the table inside one transaction
func (s *PostgresSink) Replace(ctx context.Context, schema Schema, rows []Row) error {
	args := make([][]any, len(rows))
	for i, row := range rows {
		norm, err := normalize(schema, row)
		if err != nil {
			return storageErr("replace", schema, err)
		}
		args[i] = pgArgs(schema, norm)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return storageErr("begin", schema, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, schema.Drop()); err != nil {
		return storageErr("drop", schema, err)
	}
	if _, err := tx.Exec(ctx, schema.DDL(Postgres)); err != nil {
		return storageErr("create", schema, err)
	}

	if len(args) > 0 {
		batch := &pgx.Batch{}
		query := schema.Insert(Postgres)
		for _, a := range args {
			batch.Queue(query, a...)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range args {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return storageErr("insert", schema, fmt.Errorf("row %d: %w", i, err))
			}
		}
		if err := br.Close(); err != nil {
			return storageErr("insert", schema, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit", schema, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"table": schema.Table,
		"rows":  len(rows),
	}).Info("Replaced table")

	return nil
}

// Load reads every row of the table in insertion order
func (s *PostgresSink) Load(ctx context.Context, schema Schema) ([]Row, error) {
	rows, err := s.db.Pool.Query(ctx, schema.Select())
	if err != nil {
		return nil, storageErr("load", schema, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		targets := scanTargets(schema)
		if err := rows.Scan(targets...); err != nil {
			return nil, storageErr("scan", schema, err)
		}
		out = append(out, fromTargets(schema, targets))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load", schema, err)
	}
	return out, nil
}

// Count returns the table's row count
func (s *PostgresSink) Count(ctx context.Context, schema Schema) (int64, error) {
	var n int64
	if err := s.db.Pool.QueryRow(ctx, schema.Count()).Scan(&n); err != nil {
		return 0, storageErr("count", schema, err)
	}
	return n, nil
}

// Ping checks the pool
func (s *PostgresSink) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// HealthCheck exposes pool statistics for the read API
func (s *PostgresSink) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return s.db.HealthCheck(ctx)
}

// Close closes the pool
func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}

func pgArgs(schema Schema, row Row) []any {
	args := make([]any, len(row))
	for i, c := range schema.Columns {
		switch c.Type {
		case Date:
			args[i] = pgDate(row[i].(time.Time))
		case DateTime:
			args[i] = row[i].(time.Time).UTC()
		default:
			args[i] = row[i]
		}
	}
	return args
}

func pgDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scanTargets allocates typed destinations in column order
func scanTargets(schema Schema) []any {
	targets := make([]any, len(schema.Columns))
	for i, c := range schema.Columns {
		switch c.Type {
		case Int, BigInt:
			targets[i] = new(int64)
		case Varchar:
			targets[i] = new(string)
		case Date, DateTime:
			targets[i] = new(time.Time)
		case Decimal:
			targets[i] = new(float64)
		}
	}
	return targets
}

func fromTargets(schema Schema, targets []any) Row {
	row := make(Row, len(targets))
	for i, c := range schema.Columns {
		switch c.Type {
		case Int, BigInt:
			row[i] = *targets[i].(*int64)
		case Varchar:
			row[i] = *targets[i].(*string)
		case Date:
			row[i] = pgDate(*targets[i].(*time.Time))
		case DateTime:
			row[i] = targets[i].(*time.Time).UTC()
		case Decimal:
			row[i] = *targets[i].(*float64)
		}
	}
	return row
}
