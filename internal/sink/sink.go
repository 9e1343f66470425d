package sink

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/pkg/config"
	"github.com/wonny/niftyjobs/pkg/database"
	"github.com/wonny/niftyjobs/pkg/logger"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Row is one record in Schema.Columns order. Values are
// Int/BigInt: int64, Varchar: string, Date/DateTime: time.Time, Decimal: float64.
type Row []any

// Sink replaces and reads destination tables
type Sink interface {
	// Replace drops and recreates the table, then inserts rows in one transaction
	Replace(ctx context.Context, schema Schema, rows []Row) error
	// Load returns every row of the table in insertion order
	Load(ctx context.Context, schema Schema) ([]Row, error)
	// Count returns the number of rows; a missing table is an error
	Count(ctx context.Context, schema Schema) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the sink selected by cfg.Database.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Sink, error) {
	switch cfg.Database.Driver {
	case string(SQLite):
		db, err := database.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", contracts.ErrStorage, err)
		}
		return NewSQLiteSink(db, log), nil
	case string(Postgres):
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", contracts.ErrStorage, err)
		}
		return NewPostgresSink(db, log), nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", contracts.ErrStorage, cfg.Database.Driver)
	}
}

// normalize checks a row against the schema and rounds decimals to the column scale
func normalize(schema Schema, row Row) (Row, error) {
	if len(row) != len(schema.Columns) {
		return nil, fmt.Errorf("%s: row has %d values, want %d", schema.Table, len(row), len(schema.Columns))
	}

	out := make(Row, len(row))
	for i, c := range schema.Columns {
		v := row[i]
		switch c.Type {
		case Int, BigInt:
			n, ok := asInt64(v)
			if !ok {
				return nil, fmt.Errorf("%s.%s: want integer, got %T", schema.Table, c.Name, v)
			}
			out[i] = n
		case Varchar:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s.%s: want string, got %T", schema.Table, c.Name, v)
			}
			if c.Size > 0 && len(s) > c.Size {
				return nil, fmt.Errorf("%s.%s: %q exceeds %d characters", schema.Table, c.Name, s, c.Size)
			}
			out[i] = s
		case Date, DateTime:
			t, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("%s.%s: want time.Time, got %T", schema.Table, c.Name, v)
			}
			out[i] = t
		case Decimal:
			d, ok := asDecimal(v)
			if !ok {
				return nil, fmt.Errorf("%s.%s: want decimal, got %T", schema.Table, c.Name, v)
			}
			out[i] = d.Round(int32(c.Scale)).InexactFloat64()
		}
	}
	return out, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(d), true
	default:
		return decimal.Zero, false
	}
}

func storageErr(op string, schema Schema, err error) error {
	return fmt.Errorf("%w: %s %s: %w", contracts.ErrStorage, op, schema.Table, err)
}
