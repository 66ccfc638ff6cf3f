package query

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/skillwatch/skillwatch/pkg/config"
	"github.com/skillwatch/skillwatch/pkg/httpx"
)

// The retired relational backend received one fixed SELECT shape; the
// legacy endpoint keeps accepting it and recovers the parameters by
// pattern match.
var legacyQueryPattern = regexp.MustCompile(
	`SELECT timestamp,(?P<skills>.*) FROM skills\.(?P<category>.*) ` +
		`WHERE player='(?P<player>.*)' AND timestamp > '(?P<startTime>.*)' ` +
		`AND timestamp < '(?P<endTime>.*)' ORDER BY timestamp ASC`)

var legacyCategories = map[string]string{
	"experience": "xp",
	"level":      "lvl",
	"rank":       "rnk",
}

// LegacyQuery is the parameter set recovered from a legacy SQL statement.
type LegacyQuery struct {
	Skills   []string
	Category string
	Player   string
	Start    string
	End      string
}

// ParseLegacyQuery recovers skills, category, player, and time range from
// the supported legacy SELECT shape.
func ParseLegacyQuery(sql string) (LegacyQuery, error) {
	m := legacyQueryPattern.FindStringSubmatch(sql)
	if m == nil {
		return LegacyQuery{}, fmt.Errorf("legacy query does not match the supported SELECT shape")
	}

	category, ok := legacyCategories[m[2]]
	if !ok {
		return LegacyQuery{}, fmt.Errorf("unsupported legacy category %q", m[2])
	}

	return LegacyQuery{
		Skills:   strings.Split(m[1], ","),
		Category: category,
		Player:   m[3],
		Start:    m[4],
		End:      m[5],
	}, nil
}

// FormatLegacyRows flattens linted rows into the legacy wire shape:
// [[timestamp, v1, v2, ...], ...] with values ordered as requested.
func FormatLegacyRows(rows []Row, skills []string, category string) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		formatted := make([]any, 0, len(skills)+1)
		formatted = append(formatted, row.Timestamp)

		skillValues, _ := row.Metrics["skills"].(map[string]any)
		for _, skill := range skills {
			leaves, _ := skillValues[skill].(map[string]any)
			formatted = append(formatted, leaves[category])
		}
		out = append(out, formatted)
	}
	return out
}

// HandleLegacy handles GET /v1/legacy?sql=... for clients still speaking
// the retired backend's query language.
func (h *Handler) HandleLegacy(w http.ResponseWriter, r *http.Request) {
	sql := r.URL.Query().Get("sql")
	if sql == "" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "API requires 'sql' param")
		return
	}

	lq, err := ParseLegacyQuery(sql)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	rows, _, err := h.run(ctx, lq.Player, lq.Start, lq.End, lq.Skills, lq.Category)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	httpx.RespondJSON(w, http.StatusOK, FormatLegacyRows(rows, lq.Skills, lq.Category))
}
