package reducer

import (
	"sort"
	"time"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/pkg/logger"
)

// Reducer turns a price panel into per-bucket winners.
//
// Symbols are always visited in the order given (the constituents file
// order) and a candidate replaces the current best only on a strictly
// greater rounded gain, so on a tie the first-listed symbol wins.
// ⭐ SSOT: period aggregation and winner selection live here only
type Reducer struct {
	logger *logger.Logger
}

// New creates a new Reducer
func New(log *logger.Logger) *Reducer {
	return &Reducer{logger: log.WithField("module", "reducer")}
}

// Skip is a symbol excluded from a bucket (or from the whole run when Bucket is empty)
type Skip = contracts.SymbolResult[contracts.PeriodReturn]

// YearlyTopPerformers computes each symbol's full-year return (first open,
// last close of the year) and keeps the best symbol per year, ascending by year.
func (r *Reducer) YearlyTopPerformers(symbols []string, panel *contracts.Panel) ([]contracts.YearlyWinner, []Skip) {
	var skipped []Skip
	byYear := make(map[int][]contracts.SymbolResult[contracts.PeriodReturn])

	for _, symbol := range symbols {
		bars, ok := r.series(symbol, panel, &skipped)
		if !ok {
			continue
		}

		for _, group := range groupByYear(bars) {
			first, last := group[0], group[len(group)-1]
			year := first.Time.Year()
			key := YearKey(first.Time)

			gain, err := GainPct(first.Open, last.Close)
			if err != nil {
				res := contracts.Skipped[contracts.PeriodReturn](symbol, contracts.NewSymbolError(symbol, key, err))
				byYear[year] = append(byYear[year], res)
				continue
			}
			byYear[year] = append(byYear[year], contracts.Ok(symbol, contracts.PeriodReturn{
				Symbol:    symbol,
				BucketKey: key,
				GainPct:   gain,
				Bar:       last,
			}))
		}
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	winners := make([]contracts.YearlyWinner, 0, len(years))
	for _, year := range years {
		best, skips := r.selectBest(byYear[year])
		skipped = append(skipped, skips...)
		if best == nil {
			continue
		}
		winners = append(winners, contracts.YearlyWinner{
			Year:    year,
			Symbol:  best.Symbol,
			GainPct: best.GainPct,
		})
	}

	r.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"years":   len(winners),
		"skipped": len(skipped),
	}).Info("Reduced yearly top performers")

	return winners, skipped
}

// MonthlyWinners picks, for every calendar month between from and to, the
// symbol whose first bar in that month has the highest gain. Months without
// any eligible bar are omitted.
func (r *Reducer) MonthlyWinners(symbols []string, panel *contracts.Panel, from, to, capturedAt time.Time) ([]contracts.WinnerRecord, []Skip) {
	buckets := MonthBuckets(from, to)
	winners, skipped := r.perBar(symbols, panel, buckets, capturedAt)

	r.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"months":  len(buckets),
		"winners": len(winners),
		"skipped": len(skipped),
	}).Info("Reduced monthly winners")

	return winners, skipped
}

// DailyWinners returns the single winner of day, or nothing if no symbol has a bar that day
func (r *Reducer) DailyWinners(symbols []string, panel *contracts.Panel, day, capturedAt time.Time) ([]contracts.WinnerRecord, []Skip) {
	return r.perBar(symbols, panel, []Bucket{DayBucket(day)}, capturedAt)
}

// DailySnapshot returns every symbol's bar for day together with the day's winner
func (r *Reducer) DailySnapshot(symbols []string, panel *contracts.Panel, day, capturedAt time.Time) (contracts.DaySnapshot, []Skip) {
	bucket := DayBucket(day)
	results, skipped := r.bucketResults(symbols, panel, []Bucket{bucket})

	snapshot := contracts.DaySnapshot{Day: bucket.Start}
	best, skips := r.selectBest(results[bucket.Key])
	skipped = append(skipped, skips...)

	for _, res := range results[bucket.Key] {
		if res.IsSkipped() {
			continue
		}
		snapshot.Records = append(snapshot.Records, contracts.NewWinnerRecord(res.Value, capturedAt))
	}
	if best != nil {
		w := contracts.NewWinnerRecord(*best, capturedAt)
		snapshot.Winner = &w
	}

	r.logger.WithFields(map[string]interface{}{
		"day":     bucket.Key,
		"records": len(snapshot.Records),
		"skipped": len(skipped),
	}).Info("Reduced daily snapshot")

	return snapshot, skipped
}

// perBar runs the per-bar reduction over ordered buckets
func (r *Reducer) perBar(symbols []string, panel *contracts.Panel, buckets []Bucket, capturedAt time.Time) ([]contracts.WinnerRecord, []Skip) {
	results, skipped := r.bucketResults(symbols, panel, buckets)

	var winners []contracts.WinnerRecord
	for _, bucket := range buckets {
		best, skips := r.selectBest(results[bucket.Key])
		skipped = append(skipped, skips...)
		if best == nil {
			continue
		}
		winners = append(winners, contracts.NewWinnerRecord(*best, capturedAt))
	}
	return winners, skipped
}

// bucketResults computes Ok/Skipped per symbol for every bucket, keyed by bucket key
func (r *Reducer) bucketResults(symbols []string, panel *contracts.Panel, buckets []Bucket) (map[string][]contracts.SymbolResult[contracts.PeriodReturn], []Skip) {
	var skipped []Skip
	results := make(map[string][]contracts.SymbolResult[contracts.PeriodReturn], len(buckets))
	if len(buckets) == 0 {
		return results, nil
	}

	for _, symbol := range symbols {
		bars, ok := r.series(symbol, panel, &skipped)
		if !ok {
			continue
		}

		for _, bucket := range buckets {
			bar, found := firstIn(bars, bucket)
			if !found {
				continue
			}

			gain, err := GainPct(bar.Open, bar.Close)
			if err != nil {
				res := contracts.Skipped[contracts.PeriodReturn](symbol, contracts.NewSymbolError(symbol, bucket.Key, err))
				results[bucket.Key] = append(results[bucket.Key], res)
				continue
			}
			results[bucket.Key] = append(results[bucket.Key], contracts.Ok(symbol, contracts.PeriodReturn{
				Symbol:    symbol,
				BucketKey: bucket.Key,
				GainPct:   gain,
				Bar:       bar,
			}))
		}
	}
	return results, skipped
}

// selectBest keeps the first strictly-greatest gain among the Ok results
func (r *Reducer) selectBest(results []contracts.SymbolResult[contracts.PeriodReturn]) (*contracts.PeriodReturn, []Skip) {
	returns, skipped := contracts.Partition(results)
	for _, s := range skipped {
		r.logger.WithError(s.Reason).WithField("symbol", s.Symbol).Warn("Skipped symbol")
	}

	var best *contracts.PeriodReturn
	for i := range returns {
		if best == nil || returns[i].GainPct.GreaterThan(best.GainPct) {
			best = &returns[i]
		}
	}
	return best, skipped
}

// series looks up a symbol's bars, recording a skip when it is absent
func (r *Reducer) series(symbol string, panel *contracts.Panel, skipped *[]Skip) ([]contracts.PriceBar, bool) {
	bars, ok := panel.Series(symbol)
	if ok {
		return bars, true
	}

	cause := panel.Failures[symbol]
	if cause == nil {
		cause = errMissingSeries
	}
	err := contracts.NewSymbolError(symbol, "", cause)
	r.logger.WithError(err).WithField("symbol", symbol).Warn("Skipped symbol, no price data")
	*skipped = append(*skipped, contracts.Skipped[contracts.PeriodReturn](symbol, err))
	return nil, false
}

// groupByYear splits time-ordered bars into consecutive calendar-year groups
func groupByYear(bars []contracts.PriceBar) [][]contracts.PriceBar {
	var groups [][]contracts.PriceBar
	for _, bar := range bars {
		n := len(groups)
		if n > 0 && groups[n-1][0].Time.Year() == bar.Time.Year() {
			groups[n-1] = append(groups[n-1], bar)
			continue
		}
		groups = append(groups, []contracts.PriceBar{bar})
	}
	return groups
}

// firstIn returns the first time-ordered bar falling in bucket
func firstIn(bars []contracts.PriceBar, bucket Bucket) (contracts.PriceBar, bool) {
	for _, bar := range bars {
		if bucket.Contains(bar.Time) {
			return bar, true
		}
	}
	return contracts.PriceBar{}, false
}
