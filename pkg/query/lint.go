package query

import (
	"fmt"
	"strings"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
)

// Row is a caller-facing query result: raw values for raw rows, per-metric
// averages for bucket rows, always tagged with the level it was served
// from.
type Row struct {
	Player           string         `json:"player"`
	Timestamp        string         `json:"timestamp"`
	Metrics          map[string]any `json:"metrics"`
	AggregationLevel Level          `json:"aggregationLevel"`
}

// Lint converts rows fetched from storage into their caller-facing form.
// Raw rows pass through untouched apart from the level tag. Bucket rows
// have the sentinel stripped from the timestamp, the divisor removed, and
// every metric leaf divided by it. A bucket row without a divisor violates
// the aggregator's write contract and is reported, not patched.
func Lint(recs []hiscores.Record, level Level) ([]Row, error) {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		row := Row{Player: rec.Player, AggregationLevel: level}

		switch level {
		case LevelRaw:
			row.Timestamp = rec.Timestamp
			row.Metrics = rec.Metrics.Values()
		case LevelDaily, LevelMonthly:
			_, label, ok := strings.Cut(rec.Timestamp, "#")
			if !ok {
				return nil, fmt.Errorf("row %q served at level %s is not a bucket row", rec.Timestamp, level)
			}
			if rec.Divisor <= 0 {
				return nil, fmt.Errorf("bucket row %q has divisor %d", rec.Timestamp, rec.Divisor)
			}
			row.Timestamp = label
			row.Metrics = rec.Metrics.Normalize(float64(rec.Divisor))
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedLevel, level)
		}

		rows = append(rows, row)
	}
	return rows, nil
}
