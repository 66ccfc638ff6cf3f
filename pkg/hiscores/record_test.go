package hiscores

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillwatch/skillwatch/pkg/stats"
)

func TestValidateRaw(t *testing.T) {
	valid := Record{
		Player:    "zezima",
		Timestamp: "2021-12-18 10:00:00",
		Metrics:   stats.Branch{"xp": stats.Leaf(1)},
	}
	require.NoError(t, valid.ValidateRaw())

	tests := map[string]func(r *Record){
		"empty player":       func(r *Record) { r.Player = "" },
		"reserved character": func(r *Record) { r.Player = "ze#zima" },
		"date timestamp":     func(r *Record) { r.Timestamp = "2021-12-18" },
		"bucket timestamp":   func(r *Record) { r.Timestamp = "Daily#2021-12-18" },
		"empty metrics":      func(r *Record) { r.Metrics = stats.Branch{} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			rec := valid
			mutate(&rec)
			require.Error(t, rec.ValidateRaw())
		})
	}
}
