package reducer

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	errZeroOpen      = errors.New("open price is zero")
	errNonFinite     = errors.New("price is not a finite number")
	errMissingSeries = errors.New("symbol absent from price panel")

	hundred       = decimal.NewFromInt(100)
	gainPctPlaces = int32(2)
)

// GainPct returns (close - open) / open * 100 rounded to 2 places
// (half away from zero). A zero or non-finite input is an error.
func GainPct(open, close float64) (decimal.Decimal, error) {
	if !finite(open) || !finite(close) {
		return decimal.Zero, fmt.Errorf("%w: open=%v close=%v", errNonFinite, open, close)
	}
	if open == 0 {
		return decimal.Zero, errZeroOpen
	}

	o := decimal.NewFromFloat(open)
	c := decimal.NewFromFloat(close)
	return c.Sub(o).Div(o).Mul(hundred).Round(gainPctPlaces), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
