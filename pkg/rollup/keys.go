// Package rollup maintains per-player daily and monthly running-sum
// buckets, updated incrementally from the store's change feed.
package rollup

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
)

// Sentinel prefixes distinguish bucket labels from raw instants within one
// ordered key space. Raw timestamps never begin with an upper-case letter
// followed by '#', so the prefixes collide neither with raw rows nor with
// each other. Any future granularity must pick a prefix disjoint from
// both.
const (
	DailySentinel   = "Daily#"
	MonthlySentinel = "Monthly#"
)

// Interval is a rollup granularity.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalMonthly Interval = "monthly"
)

// Intervals lists every configured granularity, each maintained
// independently by the aggregator.
var Intervals = []Interval{IntervalDaily, IntervalMonthly}

// BucketLabel converts a raw instant into the interval's bucket label,
// e.g. "2021-12-17 22:00:00" -> "Daily#2021-12-17".
func BucketLabel(interval Interval, timestamp string) (string, error) {
	t, err := time.Parse(hiscores.TimestampFormat, timestamp)
	if err != nil {
		return "", fmt.Errorf("timestamp %q is not a raw instant: %w", timestamp, err)
	}

	switch interval {
	case IntervalDaily:
		return DailySentinel + t.Format(hiscores.DateFormat), nil
	case IntervalMonthly:
		return MonthlySentinel + t.Format(hiscores.MonthFormat), nil
	default:
		return "", fmt.Errorf("unsupported rollup interval %q", interval)
	}
}

// IsBucketLabel reports whether a timestamp names an aggregate bucket
// rather than a raw instant.
func IsBucketLabel(timestamp string) bool {
	return strings.HasPrefix(timestamp, DailySentinel) ||
		strings.HasPrefix(timestamp, MonthlySentinel)
}
