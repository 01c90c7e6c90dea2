package usage

import "time"

// Summary holds the headline metrics shown above the charts.
type Summary struct {
	TotalMB         float64 `json:"total_mb"`
	TopLocation     string  `json:"top_location"`
	TopLocationMB   float64 `json:"top_location_mb"`
	ActiveLocations int     `json:"active_locations"`
	LastLogDate     string  `json:"last_log_date"`
	PeakDailyMB     float64 `json:"peak_daily_mb"`
}

// Summarize computes the headline metrics from the two global tables.
// Returns nil when either table is empty.
func Summarize(timeline []TimelineRow, ranking []RankingRow) *Summary {
	if len(timeline) == 0 || len(ranking) == 0 {
		return nil
	}

	s := &Summary{}

	// Ranking arrives ordered descending, so the first maximum is the top
	// location and ties resolve by store row order.
	top := ranking[0]
	locations := make(map[string]struct{}, len(ranking))
	for _, r := range ranking {
		s.TotalMB += r.TotalMB
		if r.TotalMB > top.TotalMB {
			top = r
		}
		locations[r.Location] = struct{}{}
	}
	s.TotalMB = round2(s.TotalMB)
	s.TopLocation = top.Location
	s.TopLocationMB = top.TotalMB
	s.ActiveLocations = len(locations)

	var last time.Time
	daily := make(map[time.Time]float64)
	for _, r := range timeline {
		if r.Date.After(last) {
			last = r.Date
		}
		daily[r.Date] += r.TotalMB
	}
	s.LastLogDate = last.Format("2006-01-02")
	for _, mb := range daily {
		if mb > s.PeakDailyMB {
			s.PeakDailyMB = mb
		}
	}
	s.PeakDailyMB = round2(s.PeakDailyMB)

	return s
}
