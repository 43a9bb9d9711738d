package weights

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
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m)
}

func setupWeightsRouterForTests(t *testing.T) (*mux.Router, *repoMock) {
	t.Helper()

	repo := NewMockWeightsRepo()
	r := mux.NewRouter()
	NewHandler(repo, metrics.NewTestManager()).SetupRoutes(r)
	return r, repo
}

func saveEntry(t *testing.T, r *mux.Router, owner string, entry Entry) Entry {
	t.Helper()

	entryJson, err := json.Marshal(entry)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", fmt.Sprintf("/weights/%s", owner), bytes.NewReader(entryJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var saved Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	return saved
}

func TestWeightsHandler_SaveAndList(t *testing.T) {
	r, _ := setupWeightsRouterForTests(t)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	saved := saveEntry(t, r, "mila", Entry{Date: date, Kilograms: 64.5})
	assert.Equal(t, "mila", saved.OwnerID)
	assert.NotZero(t, saved.ID)

	// same day saves replace, not duplicate
	replaced := saveEntry(t, r, "mila", Entry{Date: date, Kilograms: 64.2, Notes: "after run"})
	assert.Equal(t, saved.ID, replaced.ID)

	saveEntry(t, r, "mila", Entry{Date: date.AddDate(0, 0, 1), Kilograms: 64.0})

	req, err := http.NewRequest("GET", "/weights/mila", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	// newest first
	assert.Equal(t, 64.0, resp.Entries[0].Kilograms)
	assert.Equal(t, 64.2, resp.Entries[1].Kilograms)
	assert.Equal(t, "after run", resp.Entries[1].Notes)
}

func TestWeightsHandler_ListRange(t *testing.T) {
	r, _ := setupWeightsRouterForTests(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		saveEntry(t, r, "mila", Entry{Date: start.AddDate(0, 0, i), Kilograms: 64.0})
	}

	req, err := http.NewRequest("GET", "/weights/mila?from=2024-03-03&to=2024-03-05", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)

	req, err = http.NewRequest("GET", "/weights/mila?from=yesterday", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWeightsHandler_SaveInvalid(t *testing.T) {
	r, _ := setupWeightsRouterForTests(t)

	entryJson, err := json.Marshal(Entry{
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Kilograms: -5,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/weights/mila", bytes.NewReader(entryJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWeightsHandler_Delete(t *testing.T) {
	r, _ := setupWeightsRouterForTests(t)
	saved := saveEntry(t, r, "mila", Entry{
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Kilograms: 64.5,
	})

	// another owner cannot delete it
	req, err := http.NewRequest("DELETE", fmt.Sprintf("/weights/dino/%d", saved.ID), nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req, err = http.NewRequest("DELETE", fmt.Sprintf("/weights/mila/%d", saved.ID), nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp DeleteEntryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, saved.ID, resp.DeletedID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
