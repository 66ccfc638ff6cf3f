package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/rollup"
)

// ErrUnsupportedLevel flags a level outside Infer's closed output set.
// Reaching it is a programming error, not a user mistake.
var ErrUnsupportedLevel = errors.New("unsupported aggregation level")

// Resolve converts caller-supplied bounds into the storage-key boundaries
// for a range query at the given level. Raw bounds pass through; daily and
// monthly bounds are truncated and sentinel-prefixed so they land in the
// bucket region of the player's key range.
func Resolve(start, end string, level Level) (lo, hi string, err error) {
	switch level {
	case LevelRaw:
		return start, end, nil
	case LevelDaily:
		lo, err = truncate(start, hiscores.TimestampFormat, hiscores.DateFormat)
		if err != nil {
			return "", "", err
		}
		hi, err = truncate(end, hiscores.TimestampFormat, hiscores.DateFormat)
		if err != nil {
			return "", "", err
		}
		return rollup.DailySentinel + lo, rollup.DailySentinel + hi, nil
	case LevelMonthly:
		lo, err = truncate(start, hiscores.TimestampFormat, hiscores.DateFormat, hiscores.MonthFormat)
		if err != nil {
			return "", "", err
		}
		hi, err = truncate(end, hiscores.TimestampFormat, hiscores.DateFormat, hiscores.MonthFormat)
		if err != nil {
			return "", "", err
		}
		return rollup.MonthlySentinel + lo, rollup.MonthlySentinel + hi, nil
	default:
		return "", "", fmt.Errorf("%w: %v", ErrUnsupportedLevel, level)
	}
}

// truncate re-formats ts into the last of the given layouts, accepting any
// of them as input.
func truncate(ts string, layouts ...string) (string, error) {
	target := layouts[len(layouts)-1]
	for _, layout := range layouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format(target), nil
		}
	}
	return "", fmt.Errorf("timestamp %q must have one of %d accepted shapes", ts, len(layouts))
}
