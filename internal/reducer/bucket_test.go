package reducer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyjobs/internal/contracts"
)

func TestMonthBuckets(t *testing.T) {
	from := time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)

	buckets := MonthBuckets(from, to)
	require.Len(t, buckets, 4)

	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, keys)
	assert.True(t, buckets[0].Start.Before(buckets[1].Start))
}

func TestMonthBucketsEmptyWhenReversed(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, MonthBuckets(from, to))
}

func TestBucketContainsUsesBarCalendar(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	bucket := MonthBuckets(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))[0]

	// 2024-01-01 00:00 IST is still 2023-12-31 in UTC
	bar := time.Date(2024, 1, 1, 0, 0, 0, 0, ist)
	assert.True(t, bucket.Contains(bar))
	assert.False(t, bucket.Contains(bar.UTC()))
}

func TestDayBucket(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	bucket := DayBucket(time.Date(2024, 5, 10, 23, 0, 0, 0, ist))

	assert.Equal(t, "2024-05-10", bucket.Key)
	assert.True(t, bucket.Contains(time.Date(2024, 5, 10, 9, 15, 0, 0, ist)))
	assert.False(t, bucket.Contains(time.Date(2024, 5, 11, 9, 15, 0, 0, ist)))
}

func TestKeys(t *testing.T) {
	ts := time.Date(2020, 7, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2020", YearKey(ts))
	assert.Equal(t, "2020-07", MonthKey(ts))
	assert.Equal(t, "2020-07-09", DayKey(ts))
}

func TestFirstIn(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	bars := []contracts.PriceBar{
		{Symbol: "A.NS", Time: time.Date(2024, 1, 31, 9, 15, 0, 0, ist), Open: 1},
		{Symbol: "A.NS", Time: time.Date(2024, 2, 1, 0, 0, 0, 0, ist), Open: 2},
		{Symbol: "A.NS", Time: time.Date(2024, 2, 15, 9, 15, 0, 0, ist), Open: 3},
	}
	buckets := MonthBuckets(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, buckets, 3)

	bar, ok := firstIn(bars, buckets[1])
	require.True(t, ok)
	assert.Equal(t, 2.0, bar.Open, "first bar of February in the exchange calendar")

	_, ok = firstIn(bars, buckets[2])
	assert.False(t, ok)
}
