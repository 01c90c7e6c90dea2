package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitemetrics/netusage/api/handlers"
	"github.com/sitemetrics/netusage/pkg/usage"
)

func getPlayer(t *testing.T, tag string) (*httptest.ResponseRecorder, handlers.PlayerResponse) {
	t.Helper()
	target := "/api/dashboard/player"
	if tag != "" {
		target += "?tag=" + tag
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	handlers.GetPlayerUsage(rr, req)

	var resp handlers.PlayerResponse
	if rr.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	}
	return rr, resp
}

func TestGetPlayerUsage_Found(t *testing.T) {
	db := usage.NewMockDB()
	db.EnqueueResult([][]any{
		{day(2024, 1, 1), "HQ", "DAL-DDP-0042", int64(3145728)},
		{day(2024, 1, 2), "HQ", "DAL-DDP-0042", int64(2097152)},
	})
	setupView(t, db)

	rr, resp := getPlayer(t, "DAL-DDP-0042")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Found)
	assert.Empty(t, resp.Error)
	assert.Equal(t, 5.00, resp.TotalMB)
	assert.Equal(t, "5.00 MB", resp.TotalLabel)

	require.NotNil(t, resp.Series)
	assert.Equal(t, "DAL-DDP-0042", resp.Series.Name)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, resp.Series.Dates)
	assert.Equal(t, []float64{3.00, 2.00}, resp.Series.MB)
	require.Len(t, resp.Rows, 2)
}

func TestGetPlayerUsage_NotFound(t *testing.T) {
	db := usage.NewMockDB()
	setupView(t, db)

	rr, resp := getPlayer(t, "UNKNOWN-TAG")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Error)
	assert.Nil(t, resp.Series)
	assert.Empty(t, resp.Rows)
}

func TestGetPlayerUsage_MissingTag(t *testing.T) {
	db := usage.NewMockDB()
	setupView(t, db)

	rr, _ := getPlayer(t, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, db.QueryCount)
}

func TestGetPlayerUsage_QueryFailure(t *testing.T) {
	db := usage.NewMockDB()
	db.EnqueueError(assert.AnError)
	setupView(t, db)

	rr, resp := getPlayer(t, "DAL-DDP-0042")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, resp.Found)
	assert.NotEmpty(t, resp.Error)
}

func TestGetPlayerUsage_MultipleRowsSameDay(t *testing.T) {
	db := usage.NewMockDB()
	db.EnqueueResult([][]any{
		{day(2024, 1, 1), "HQ", "DAL-DDP-0042", int64(1048576)},
		{day(2024, 1, 1), "Branch", "DAL-DDP-0042", int64(1048576)},
	})
	setupView(t, db)

	_, resp := getPlayer(t, "DAL-DDP-0042")
	require.NotNil(t, resp.Series)
	assert.Equal(t, []string{"2024-01-01"}, resp.Series.Dates)
	assert.Equal(t, []float64{2.00}, resp.Series.MB)
	assert.Equal(t, 2.00, resp.TotalMB)
}
