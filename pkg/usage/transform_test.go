package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMegabytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		bytes int64
		want  float64
	}{
		{"zero", 0, 0},
		{"one megabyte", 1048576, 1.00},
		{"three megabytes", 3145728, 3.00},
		{"five megabytes", 5242880, 5.00},
		{"half megabyte", 1572864, 1.5},
		{"rounds up to two decimals", 1100000, 1.05},
		{"rounds down to two decimals", 1048576 + 1000, 1.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Megabytes(tt.bytes))
		})
	}
}

func TestAppendMegabytes(t *testing.T) {
	t.Parallel()

	t.Run("fills the megabyte column", func(t *testing.T) {
		t.Parallel()
		rows := AppendMegabytes([]TimelineRow{
			{Location: "HQ", TotalBytes: 2097152},
			{Location: "HQ", TotalBytes: 1048576},
		})
		assert.Equal(t, 2.00, rows[0].TotalMB)
		assert.Equal(t, 1.00, rows[1].TotalMB)
	})

	t.Run("empty input passes through", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, AppendMegabytes(nil))
		assert.Empty(t, AppendMegabytes([]TimelineRow{}))
		assert.Nil(t, AppendRankingMegabytes(nil))
		assert.Nil(t, AppendPlayerMegabytes(nil))
	})

	t.Run("ranking and player rows convert the same way", func(t *testing.T) {
		t.Parallel()
		ranking := AppendRankingMegabytes([]RankingRow{{Location: "HQ", TotalBytes: 3145728}})
		assert.Equal(t, 3.00, ranking[0].TotalMB)

		player := AppendPlayerMegabytes([]PlayerRow{{Tag: "P123", TotalBytes: 5242880}})
		assert.Equal(t, 5.00, player[0].TotalMB)
	})
}
