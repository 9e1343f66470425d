package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodReturn is one symbol's gain within one bucket
type PeriodReturn struct {
	Symbol    string
	BucketKey string
	GainPct   decimal.Decimal // rounded to 2 places
	Bar       PriceBar        // bar the gain came from (per-bar reducer only)
}

// YearlyWinner is the best full-year return of one calendar year
type YearlyWinner struct {
	Year    int
	Symbol  string
	GainPct decimal.Decimal
}

// WinnerRecord is the winning bar of one bucket, as persisted
type WinnerRecord struct {
	Symbol     string
	BucketKey  string
	Date       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	AdjClose   float64
	Volume     int64
	GainPct    decimal.Decimal
	InsertedAt time.Time
}

// NewWinnerRecord builds a WinnerRecord from a bar-level PeriodReturn
func NewWinnerRecord(r PeriodReturn, capturedAt time.Time) WinnerRecord {
	return WinnerRecord{
		Symbol:     r.Symbol,
		BucketKey:  r.BucketKey,
		Date:       CalendarDate(r.Bar.Time),
		Open:       r.Bar.Open,
		High:       r.Bar.High,
		Low:        r.Bar.Low,
		Close:      r.Bar.Close,
		AdjClose:   ResolveAdjClose(r.Bar),
		Volume:     r.Bar.Volume,
		GainPct:    r.GainPct,
		InsertedAt: capturedAt,
	}
}

// DaySnapshot is every symbol's bar for one day plus that day's winner
type DaySnapshot struct {
	Day     time.Time
	Records []WinnerRecord // symbol source order
	Winner  *WinnerRecord  // nil when Records is empty
}

// CalendarDate drops the clock and zone of t, keeping its calendar date (as UTC midnight)
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
