package contracts

import (
	"sort"
	"time"
)

// Granularity is the bar interval requested from the price provider
type Granularity string

const (
	Daily   Granularity = "1d"
	Monthly Granularity = "1mo"
)

// PriceBar is one OHLCV bar of one symbol
// ⭐ SSOT: price bar shape shared by fetcher, reducer and sinks
type PriceBar struct {
	Symbol   string
	Time     time.Time // bar start, in the exchange's UTC offset
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose *float64 // nil when the provider did not report one
	Volume   int64
}

// ResolveAdjClose returns the adjusted close, falling back to close when absent
func ResolveAdjClose(b PriceBar) float64 {
	if b.AdjClose != nil {
		return *b.AdjClose
	}
	return b.Close
}

// Panel is the fetch result: ordered bars per symbol plus per-symbol failures
type Panel struct {
	Bars     map[string][]PriceBar
	Failures map[string]error
}

// NewPanel creates an empty panel
func NewPanel() *Panel {
	return &Panel{
		Bars:     make(map[string][]PriceBar),
		Failures: make(map[string]error),
	}
}

// Put stores a symbol's series sorted by time
func (p *Panel) Put(symbol string, bars []PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	p.Bars[symbol] = bars
}

// Fail records a per-symbol failure
func (p *Panel) Fail(symbol string, err error) {
	p.Failures[symbol] = err
}

// Series returns a symbol's bars; ok is false if the symbol is absent or empty
func (p *Panel) Series(symbol string) ([]PriceBar, bool) {
	bars, ok := p.Bars[symbol]
	return bars, ok && len(bars) > 0
}

// SymbolCount returns the number of symbols with at least one bar
func (p *Panel) SymbolCount() int {
	n := 0
	for _, bars := range p.Bars {
		if len(bars) > 0 {
			n++
		}
	}
	return n
}

// BarCount returns the total number of bars across all symbols
func (p *Panel) BarCount() int {
	n := 0
	for _, bars := range p.Bars {
		n += len(bars)
	}
	return n
}

// Empty reports whether the panel holds no bars at all
func (p *Panel) Empty() bool {
	return p.BarCount() == 0
}
