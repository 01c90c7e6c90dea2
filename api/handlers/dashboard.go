package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/sitemetrics/netusage/pkg/usage"
)

// rankingTopN caps the ranking chart at the heaviest locations.
const rankingTopN = 15

var view *usage.View

// Init wires the usage view consumed by the dashboard handlers.
// Must be called once during server startup.
func Init(v *usage.View) {
	view = v
}

// ChartLayout carries the rendering hints shared by the dashboard charts.
type ChartLayout struct {
	Template         string `json:"template"`
	TransparentBg    bool   `json:"transparent_bg"`
	HorizontalLegend bool   `json:"horizontal_legend"`
}

// Series is a single line or area trace: parallel date and megabyte arrays.
type Series struct {
	Name  string    `json:"name"`
	Dates []string  `json:"dates"`
	MB    []float64 `json:"mb"`
}

// TimelineChart holds one series per location plus layout hints.
type TimelineChart struct {
	Series []Series    `json:"series"`
	Layout ChartLayout `json:"layout"`
}

// RankingBar is one bar of the top-locations chart. Intensity is the bar's
// magnitude relative to the largest bar, in [0, 1], and drives bar color.
type RankingBar struct {
	Location  string  `json:"location_name"`
	TotalMB   float64 `json:"total_mb"`
	Intensity float64 `json:"intensity"`
}

// GlobalResponse is the payload behind the main dashboard page. Exactly one
// of the chart fields, Warning, or Error is populated.
type GlobalResponse struct {
	Summary     *usage.Summary     `json:"summary,omitempty"`
	Timeline    *TimelineChart     `json:"timeline,omitempty"`
	Ranking     []RankingBar       `json:"ranking,omitempty"`
	RankingRows []usage.RankingRow `json:"ranking_rows,omitempty"`
	FetchedAt   string             `json:"fetched_at"`
	Warning     string             `json:"warning,omitempty"`
	Error       string             `json:"error,omitempty"`
}

const noDataWarning = "No usage data available. Check that the monitored application appears in the network logs."

// GetGlobalDashboard serves the summary metrics, timeline chart and
// location ranking, from the view's TTL cache when it is warm.
func GetGlobalDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	data, hit := view.Global(ctx)
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	resp := GlobalResponse{FetchedAt: data.FetchedAt.UTC().Format(time.RFC3339)}
	switch {
	case data.ConnErr != "":
		resp.Error = sanitizeMessage(data.ConnErr)
	case len(data.Timeline) == 0 || len(data.Ranking) == 0:
		resp.Warning = noDataWarning
	default:
		resp.Summary = usage.Summarize(data.Timeline, data.Ranking)
		resp.Timeline = buildTimelineChart(data.Timeline)
		resp.Ranking = buildRankingBars(data.Ranking, rankingTopN)
		resp.RankingRows = data.Ranking
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}

// buildTimelineChart splits the timeline rows into one series per location.
// Series order is alphabetical so colors stay stable across refreshes.
func buildTimelineChart(rows []usage.TimelineRow) *TimelineChart {
	byLocation := make(map[string]*Series)
	var names []string
	for _, row := range rows {
		s, ok := byLocation[row.Location]
		if !ok {
			s = &Series{Name: row.Location}
			byLocation[row.Location] = s
			names = append(names, row.Location)
		}
		s.Dates = append(s.Dates, row.Date.Format("2006-01-02"))
		s.MB = append(s.MB, row.TotalMB)
	}
	sort.Strings(names)

	chart := &TimelineChart{
		Layout: ChartLayout{
			Template:         "dark",
			TransparentBg:    true,
			HorizontalLegend: true,
		},
	}
	for _, name := range names {
		chart.Series = append(chart.Series, *byLocation[name])
	}
	return chart
}

// buildRankingBars returns the topN heaviest locations ordered descending,
// regardless of input row order. The first bar renders topmost.
func buildRankingBars(rows []usage.RankingRow, topN int) []RankingBar {
	sorted := make([]usage.RankingRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalMB > sorted[j].TotalMB
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}

	var maxMB float64
	if len(sorted) > 0 {
		maxMB = sorted[0].TotalMB
	}

	bars := make([]RankingBar, 0, len(sorted))
	for _, row := range sorted {
		var intensity float64
		if maxMB > 0 {
			intensity = row.TotalMB / maxMB
		}
		bars = append(bars, RankingBar{
			Location:  row.Location,
			TotalMB:   row.TotalMB,
			Intensity: intensity,
		})
	}
	return bars
}
