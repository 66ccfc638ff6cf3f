// Package hiscores defines the row schema shared by the store, the rollup
// engine, and the query path.
package hiscores

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillwatch/skillwatch/pkg/stats"
)

// Textual shapes accepted for instants and bucket labels.
const (
	TimestampFormat = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
	MonthFormat     = "2006-01"
)

// keyReserved never appears in player names; the store composes range keys
// with it and the rollup sentinels end in it.
const keyReserved = "#"

// Record is one row of the hiscores table: a raw observation for a player
// at one instant, or a rollup bucket when Timestamp carries a sentinel
// prefix. Divisor counts the raw rows folded into a bucket and is zero on
// raw rows.
//
// Raw records are written once and never mutated. Bucket records are
// re-written by the aggregator on every contributing raw write.
type Record struct {
	Player    string       `json:"player"`
	Timestamp string       `json:"timestamp"`
	Metrics   stats.Branch `json:"metrics"`
	Divisor   int64        `json:"divisor,omitempty"`
}

// ValidateRaw checks a record arriving through the raw-write boundary.
func (r Record) ValidateRaw() error {
	if r.Player == "" {
		return fmt.Errorf("player must not be empty")
	}
	if strings.Contains(r.Player, keyReserved) {
		return fmt.Errorf("player %q must not contain %q", r.Player, keyReserved)
	}
	if _, err := time.Parse(TimestampFormat, r.Timestamp); err != nil {
		return fmt.Errorf("timestamp %q must have shape %q", r.Timestamp, "YYYY-MM-DD HH:MM:SS")
	}
	if len(r.Metrics) == 0 {
		return fmt.Errorf("metrics must not be empty")
	}
	return nil
}
