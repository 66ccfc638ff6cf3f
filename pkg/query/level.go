// Package query serves range reads over a player's history, picking the
// granularity a range is answered from and converting stored rows back
// into caller-facing values.
package query

import (
	"fmt"
	"time"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
)

// Level is the resolution a query is served from.
type Level int

const (
	LevelRaw Level = iota
	LevelDaily
	LevelMonthly
)

func (l Level) String() string {
	switch l {
	case LevelRaw:
		return "raw"
	case LevelDaily:
		return "daily"
	case LevelMonthly:
		return "monthly"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText tags rows with their aggregation level as a string.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Span thresholds: ranges at least this wide are only practical to serve
// from pre-aggregated rows.
const (
	monthlySpan = 180 * 24 * time.Hour
	dailySpan   = 7 * 24 * time.Hour
)

// FormatMismatchError reports caller-supplied bounds that do not parse
// under any accepted shape, or that parse under incompatible shapes.
type FormatMismatchError struct {
	Start, End string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("startTime %q and endTime %q must share one of the shapes %q, %q or %q",
		e.Start, e.End, "YYYY-MM-DD HH:MM:SS", "YYYY-MM-DD", "YYYY-MM")
}

func parses(s, layout string) bool {
	_, err := time.Parse(layout, s)
	return err == nil
}

// Infer decides the granularity a time range is served from. First match
// wins:
//
//  1. both bounds are year-months -> monthly
//  2. both bounds are dates -> daily
//  3. otherwise both must be full timestamps, else FormatMismatchError
//  4. spans of 180 days or more -> monthly
//  5. spans of 7 days or more -> daily
//  6. anything narrower -> raw
func Infer(start, end string) (Level, error) {
	if parses(start, hiscores.MonthFormat) && parses(end, hiscores.MonthFormat) {
		return LevelMonthly, nil
	}
	if parses(start, hiscores.DateFormat) && parses(end, hiscores.DateFormat) {
		return LevelDaily, nil
	}

	startT, errStart := time.Parse(hiscores.TimestampFormat, start)
	endT, errEnd := time.Parse(hiscores.TimestampFormat, end)
	if errStart != nil || errEnd != nil {
		return LevelRaw, &FormatMismatchError{Start: start, End: end}
	}

	switch span := endT.Sub(startT); {
	case span >= monthlySpan:
		return LevelMonthly, nil
	case span >= dailySpan:
		return LevelDaily, nil
	default:
		return LevelRaw, nil
	}
}
