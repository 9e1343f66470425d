package sink

import (
	"strings"
	"time"

	"github.com/wonny/niftyjobs/internal/contracts"
)

// YearlyRows maps yearly winners to yearly_top_performers rows
func YearlyRows(winners []contracts.YearlyWinner, marketSuffix string) []Row {
	rows := make([]Row, len(winners))
	for i, w := range winners {
		rows[i] = Row{int64(w.Year), Ticker(w.Symbol, marketSuffix), w.GainPct}
	}
	return rows
}

// WinnerRows maps winning bars to monthly_winners / stock_data rows
func WinnerRows(records []contracts.WinnerRecord, marketSuffix string) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			Ticker(r.Symbol, marketSuffix),
			r.Date,
			r.Open,
			r.High,
			r.Low,
			r.Close,
			r.AdjClose,
			r.Volume,
			r.InsertedAt,
		}
	}
	return rows
}

// Ticker strips the market suffix from a provider symbol
func Ticker(symbol, marketSuffix string) string {
	if marketSuffix == "" {
		return symbol
	}
	return strings.TrimSuffix(symbol, marketSuffix)
}

// Records renders rows as column-name keyed maps
func Records(schema Schema, rows []Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(schema.Columns))
		for j, c := range schema.Columns {
			if j >= len(row) {
				break
			}
			if t, ok := row[j].(time.Time); ok && c.Type == Date {
				rec[c.Name] = t.Format(dateLayout)
				continue
			}
			rec[c.Name] = row[j]
		}
		out[i] = rec
	}
	return out
}
