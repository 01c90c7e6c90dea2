package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sitemetrics/netusage/pkg/usage"
)

// PlayerResponse is the tag drill-down payload. A query failure sets Error;
// a clean query with zero matching rows leaves Found false with no Error,
// which the UI renders as "not found".
type PlayerResponse struct {
	Tag        string            `json:"tag"`
	Found      bool              `json:"found"`
	TotalMB    float64           `json:"total_mb,omitempty"`
	TotalLabel string            `json:"total_label,omitempty"`
	Series     *Series           `json:"series,omitempty"`
	Rows       []usage.PlayerRow `json:"rows,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// GetPlayerUsage serves the per-tag drill-down. Never cached: every call
// re-queries the database.
func GetPlayerUsage(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	if tag == "" {
		http.Error(w, "tag parameter is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	resp := PlayerResponse{Tag: tag}
	rows, err := view.Player(ctx, tag)
	switch {
	case err != nil:
		resp.Error = SanitizeError(err)
	case len(rows) > 0:
		resp.Found = true
		var total float64
		for _, row := range rows {
			total += row.TotalMB
		}
		resp.TotalMB = math.Round(total*100) / 100
		resp.TotalLabel = fmt.Sprintf("%.2f MB", resp.TotalMB)
		resp.Series = buildPlayerSeries(tag, rows)
		resp.Rows = rows
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}

// buildPlayerSeries folds the drill-down rows into a single per-day area
// trace. Rows arrive date-ascending, so insertion order is chronological.
func buildPlayerSeries(tag string, rows []usage.PlayerRow) *Series {
	daily := make(map[string]float64)
	var order []string
	for _, row := range rows {
		key := row.Date.Format("2006-01-02")
		if _, ok := daily[key]; !ok {
			order = append(order, key)
		}
		daily[key] += row.TotalMB
	}

	s := &Series{Name: tag}
	for _, key := range order {
		s.Dates = append(s.Dates, key)
		s.MB = append(s.MB, math.Round(daily[key]*100)/100)
	}
	return s
}
