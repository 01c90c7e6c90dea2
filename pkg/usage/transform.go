package usage

import "math"

const bytesPerMB = 1 << 20

// Megabytes converts a byte count to megabytes rounded to two decimals.
func Megabytes(bytes int64) float64 {
	return round2(float64(bytes) / bytesPerMB)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AppendMegabytes derives the megabyte column on every timeline row.
// Empty input passes through untouched.
func AppendMegabytes(rows []TimelineRow) []TimelineRow {
	for i := range rows {
		rows[i].TotalMB = Megabytes(rows[i].TotalBytes)
	}
	return rows
}

// AppendRankingMegabytes derives the megabyte column on every ranking row.
func AppendRankingMegabytes(rows []RankingRow) []RankingRow {
	for i := range rows {
		rows[i].TotalMB = Megabytes(rows[i].TotalBytes)
	}
	return rows
}

// AppendPlayerMegabytes derives the megabyte column on every drill-down row.
func AppendPlayerMegabytes(rows []PlayerRow) []PlayerRow {
	for i := range rows {
		rows[i].TotalMB = Megabytes(rows[i].TotalBytes)
	}
	return rows
}
