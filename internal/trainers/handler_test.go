package trainers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mbasaric/fitplan/internal/plans"
	"github.com/mbasaric/fitplan/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m,
		// the roster cache janitor runs until its cache gets finalized
		goleak.IgnoreTopFunction(
			"github.com/patrickmn/go-cache.(*janitor).Run",
		),
	)
}

func setupTrainersRouterForTests(t *testing.T) (*mux.Router, *repoMock, *plans.ManagerStore) {
	t.Helper()

	repo := NewMockTrainersRepo()
	daysRepo := plans.NewMockDaysRepo()
	managers := plans.NewManagerStore(func(ownerID string) *plans.Manager {
		return plans.NewManager(plans.ManagerParams{
			OwnerID:          ownerID,
			Repo:             daysRepo,
			ActiveDayCeiling: 7,
			Metrics:          metrics.NewTestManager(),
		})
	})

	r := mux.NewRouter()
	NewHandler(NewCachedRepo(repo), managers).SetupRoutes(r)
	return r, repo, managers
}

func TestTrainersHandler_Roster(t *testing.T) {
	r, _, _ := setupTrainersRouterForTests(t)

	req, err := http.NewRequest("POST", "/trainers/coach/clients/mila", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// duplicate assignment rejected
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// self-coaching rejected
	req, err = http.NewRequest("POST", "/trainers/coach/clients/coach", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err = http.NewRequest("GET", "/trainers/coach/clients", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ClientsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "mila", resp.Clients[0].ClientID)

	req, err = http.NewRequest("DELETE", "/trainers/coach/clients/mila", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCachedRepo(t *testing.T) {
	repo := NewMockTrainersRepo()
	cached := NewCachedRepo(repo)
	ctx := context.Background()

	require.NoError(t, cached.AddClient(ctx, "coach", "mila"))

	clients, err := cached.ListClients(ctx, "coach")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Equal(t, 1, repo.listCalls)

	// second read served from cache
	_, err = cached.ListClients(ctx, "coach")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// roster change invalidates the cache
	require.NoError(t, cached.AddClient(ctx, "coach", "dino"))
	clients, err = cached.ListClients(ctx, "coach")
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	assert.Equal(t, 2, repo.listCalls)

	isClient, err := cached.IsClient(ctx, "coach", "dino")
	require.NoError(t, err)
	assert.True(t, isClient)
	isClient, err = cached.IsClient(ctx, "coach", "nobody")
	require.NoError(t, err)
	assert.False(t, isClient)
}

func TestTrainersHandler_Duel(t *testing.T) {
	r, _, managers := setupTrainersRouterForTests(t)
	ctx := context.Background()

	for _, clientID := range []string{"ana", "bojan"} {
		req, err := http.NewRequest("POST", fmt.Sprintf("/trainers/coach/clients/%s", clientID), nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	// ana completes 1 workout, bojan 2
	today := plans.TodayMidnight()
	for clientID, completed := range map[string]int{"ana": 1, "bojan": 2} {
		m := managers.Get(clientID)
		require.NoError(t, m.LoadInitial(ctx, time.Time{}))
		for i := 0; i < completed; i++ {
			date := today.AddDate(0, 0, i)
			_, err := m.SaveDay(ctx, plans.DayPlan{
				Date:     date,
				Kind:     plans.KindWorkout,
				Duration: 30,
			})
			require.NoError(t, err)
			_, err = m.ToggleCompleted(ctx, date)
			require.NoError(t, err)
		}
	}

	req, err := http.NewRequest("GET", "/trainers/coach/duel/ana/bojan", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var cmp plans.ProgressComparison
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cmp))
	assert.Equal(t, 1, cmp.CompletedA)
	assert.Equal(t, 2, cmp.CompletedB)
	assert.Equal(t, "bojan", cmp.Leader)
	assert.InDelta(t, 0.5, cmp.RatioA, 0.001)
	assert.InDelta(t, 1.0, cmp.RatioB, 0.001)

	// not in the roster
	req, err = http.NewRequest("GET", "/trainers/coach/duel/ana/stranger", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
