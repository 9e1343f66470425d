package reducer

import (
	"strconv"
	"time"
)

const (
	monthKeyLayout = "2006-01"
	dayKeyLayout   = "2006-01-02"
)

// Bucket is one calendar period. Membership is decided on the calendar
// fields of a bar's own timestamp, so bars stay in the exchange's calendar.
type Bucket struct {
	Key   string
	Start time.Time
	keyOf func(time.Time) string
}

// Contains reports whether t falls in the bucket
func (b Bucket) Contains(t time.Time) bool {
	return b.keyOf(t) == b.Key
}

// YearKey returns the bucket key of t's calendar year
func YearKey(t time.Time) string {
	return strconv.Itoa(t.Year())
}

// MonthKey returns the bucket key of t's calendar month
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// DayKey returns the bucket key of t's calendar day
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// MonthBuckets enumerates every calendar month from from's month through
// to's month, inclusive, in ascending order.
func MonthBuckets(from, to time.Time) []Bucket {
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)

	var buckets []Bucket
	for m := start; !m.After(last); m = m.AddDate(0, 1, 0) {
		buckets = append(buckets, Bucket{Key: MonthKey(m), Start: m, keyOf: MonthKey})
	}
	return buckets
}

// DayBucket returns the single-day bucket of day
func DayBucket(day time.Time) Bucket {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Bucket{Key: DayKey(start), Start: start, keyOf: DayKey}
}
