package plans

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mbasaric/fitplan/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPlansRouterForTests(t *testing.T, repo *repoMock, ceiling int) *mux.Router {
	t.Helper()

	store := NewManagerStore(func(ownerID string) *Manager {
		return NewManager(ManagerParams{
			OwnerID:          ownerID,
			Repo:             repo,
			ActiveDayCeiling: ceiling,
			Metrics:          metrics.NewTestManager(),
		})
	})

	r := mux.NewRouter()
	NewHandler(store).SetupRoutes(r)
	return r
}

func getWindow(t *testing.T, r *mux.Router, owner string) WindowResponse {
	t.Helper()

	req, err := http.NewRequest("GET", fmt.Sprintf("/days/%s/window", owner), nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp WindowResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandlerGetWindowSeedsSchedule(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	r := setupPlansRouterForTests(t, NewMockDaysRepo(), 0)
	resp := getWindow(t, r, "mila")

	require.Len(t, resp.Days, seedDays)
	assert.Equal(t, DefaultDisplayLimit, resp.DisplayLimit)
	assert.Equal(t, TodayMidnight(), resp.Days[0].Date)
	assert.False(t, resp.HasMoreDays)
	assert.Zero(t, resp.CompletedWorkouts)
}

func TestHandlerSaveAndToggle(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	today := TodayMidnight()

	r := setupPlansRouterForTests(t, NewMockDaysRepo(), 0)
	_ = getWindow(t, r, "mila")

	day := DayPlan{
		Date:      today.AddDate(0, 0, 1),
		Kind:      KindWorkout,
		Exercises: []string{"squats"},
		Duration:  40,
	}
	dayJson, err := json.Marshal(day)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/days/mila/save", bytes.NewReader(dayJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var saved DayPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	assert.Equal(t, "mila", saved.OwnerID)
	assert.NotEmpty(t, saved.ID)

	toggleURL := fmt.Sprintf("/days/mila/%s/toggle/completed", day.Date.Format(dateLayout))
	req, err = http.NewRequest("POST", toggleURL, nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var toggled DayPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &toggled))
	assert.Equal(t, StatusCompleted, toggled.Status)

	resp := getWindow(t, r, "mila")
	assert.Equal(t, 1, resp.CompletedWorkouts)
}

func TestHandlerSaveInvalidDay(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	r := setupPlansRouterForTests(t, NewMockDaysRepo(), 0)
	_ = getWindow(t, r, "mila")

	dayJson, err := json.Marshal(DayPlan{
		Date: TodayMidnight(),
		Kind: "sprint",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/days/mila/save", bytes.NewReader(dayJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerToggleUnknownDate(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	r := setupPlansRouterForTests(t, NewMockDaysRepo(), 0)
	_ = getWindow(t, r, "mila")

	req, err := http.NewRequest("POST", "/days/mila/2030-05-05/toggle/missed", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerJump(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	today := TodayMidnight()

	r := setupPlansRouterForTests(t, NewMockDaysRepo(), 0)
	_ = getWindow(t, r, "mila")

	target := today.AddDate(0, 0, 4)
	req, err := http.NewRequest("POST", fmt.Sprintf("/days/mila/jump/%s", target.Format(dateLayout)), nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp WindowResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Days)
	assert.Equal(t, target, resp.Days[0].Date)

	// garbage date rejected before touching the manager
	req, err = http.NewRequest("POST", "/days/mila/jump/not-a-date", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerAddNextAndArchive(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	r := setupPlansRouterForTests(t, NewMockDaysRepo(), 7)
	_ = getWindow(t, r, "mila")

	req, err := http.NewRequest("POST", "/days/mila/next", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req, err = http.NewRequest("GET", "/days/mila/archived", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var archived ArchivedListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &archived))
	require.Equal(t, 1, archived.Total)

	deleteURL := fmt.Sprintf("/days/mila/archived/%s", archived.Days[0].ID)
	req, err = http.NewRequest("DELETE", deleteURL, nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var deleted DeleteDayResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deleted))
	assert.Equal(t, archived.Days[0].ID, deleted.DeletedID)

	// deleting again: gone for good
	rr = httptest.NewRecorder()
	req, err = http.NewRequest("DELETE", deleteURL, nil)
	require.NoError(t, err)
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerOwnersIsolated(t *testing.T) {
	setNow(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	repo := NewMockDaysRepo()
	r := setupPlansRouterForTests(t, repo, 0)

	milaResp := getWindow(t, r, "mila")
	dinoResp := getWindow(t, r, "dino")
	require.Len(t, milaResp.Days, seedDays)
	require.Len(t, dinoResp.Days, seedDays)

	for i := range milaResp.Days {
		assert.Equal(t, "mila", milaResp.Days[i].OwnerID)
		assert.Equal(t, "dino", dinoResp.Days[i].OwnerID)
		assert.NotEqual(t, milaResp.Days[i].ID, dinoResp.Days[i].ID)
	}
}
