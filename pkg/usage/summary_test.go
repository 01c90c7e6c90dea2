package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("computes the headline metrics", func(t *testing.T) {
		t.Parallel()
		timeline := AppendMegabytes([]TimelineRow{
			{Date: day(2024, 1, 1), Location: "HQ", TotalBytes: 2097152},
			{Date: day(2024, 1, 2), Location: "HQ", TotalBytes: 1048576},
		})
		ranking := AppendRankingMegabytes([]RankingRow{
			{Location: "HQ", TotalBytes: 3145728},
		})

		s := Summarize(timeline, ranking)
		require.NotNil(t, s)
		assert.Equal(t, 3.00, s.TotalMB)
		assert.Equal(t, "HQ", s.TopLocation)
		assert.Equal(t, 3.00, s.TopLocationMB)
		assert.Equal(t, 1, s.ActiveLocations)
		assert.Equal(t, "2024-01-02", s.LastLogDate)
		assert.Equal(t, 2.00, s.PeakDailyMB)
	})

	t.Run("nil when either table is empty", func(t *testing.T) {
		t.Parallel()
		timeline := []TimelineRow{{Date: day(2024, 1, 1), Location: "HQ", TotalMB: 1}}
		ranking := []RankingRow{{Location: "HQ", TotalMB: 1}}

		assert.Nil(t, Summarize(nil, ranking))
		assert.Nil(t, Summarize(timeline, nil))
		assert.Nil(t, Summarize(nil, nil))
	})

	t.Run("counts distinct locations and picks the heaviest", func(t *testing.T) {
		t.Parallel()
		timeline := []TimelineRow{
			{Date: day(2024, 2, 1), Location: "HQ", TotalMB: 4},
			{Date: day(2024, 2, 1), Location: "Depot", TotalMB: 6},
			{Date: day(2024, 2, 3), Location: "HQ", TotalMB: 1},
		}
		ranking := []RankingRow{
			{Location: "Depot", TotalMB: 6},
			{Location: "HQ", TotalMB: 5},
			{Location: "Annex", TotalMB: 0.5},
		}

		s := Summarize(timeline, ranking)
		require.NotNil(t, s)
		assert.Equal(t, 11.5, s.TotalMB)
		assert.Equal(t, "Depot", s.TopLocation)
		assert.Equal(t, 3, s.ActiveLocations)
		assert.Equal(t, "2024-02-03", s.LastLogDate)
		assert.Equal(t, 10.00, s.PeakDailyMB)
	})

	t.Run("ties resolve by row order", func(t *testing.T) {
		t.Parallel()
		timeline := []TimelineRow{{Date: day(2024, 3, 1), Location: "A", TotalMB: 2}}
		ranking := []RankingRow{
			{Location: "A", TotalMB: 2},
			{Location: "B", TotalMB: 2},
		}

		s := Summarize(timeline, ranking)
		require.NotNil(t, s)
		assert.Equal(t, "A", s.TopLocation)
	})
}
