package social

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbasaric/fitplan/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSocialRouterForTests(t *testing.T) *mux.Router {
	t.Helper()

	r := mux.NewRouter()
	feed := NewFeedService(NewMockSocialRepo(), metrics.NewTestManager())
	NewHandler(feed).SetupRoutes(r)
	return r
}

func postJSON(t *testing.T, r *mux.Router, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(bodyJson)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest("POST", url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSocialHandler_FriendRequestFlow(t *testing.T) {
	r := setupSocialRouterForTests(t)

	rr := postJSON(t, r, "/social/mila/friends/request/dino", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var request FriendRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &request))
	assert.Equal(t, "mila", request.FromID)
	assert.Equal(t, "dino", request.ToID)
	assert.Equal(t, RequestPending, request.Status)

	// duplicate, either direction
	rr = postJSON(t, r, "/social/mila/friends/request/dino", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = postJSON(t, r, "/social/dino/friends/request/mila", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// self-befriending rejected
	rr = postJSON(t, r, "/social/mila/friends/request/mila", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err := http.NewRequest("GET", "/social/dino/friends/requests", nil)
	require.NoError(t, err)
	getRR := httptest.NewRecorder()
	r.ServeHTTP(getRR, req)
	require.Equal(t, http.StatusOK, getRR.Code)

	var pending RequestsResponse
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &pending))
	require.Equal(t, 1, pending.Total)

	rr = postJSON(t, r, fmt.Sprintf("/social/dino/friends/respond/%d/accept", request.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// already responded
	rr = postJSON(t, r, fmt.Sprintf("/social/dino/friends/respond/%d/accept", request.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = postJSON(t, r, fmt.Sprintf("/social/dino/friends/respond/%d/maybe", request.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSocialHandler_PublishAndFeed(t *testing.T) {
	r := setupSocialRouterForTests(t)

	rr := postJSON(t, r, "/social/mila/friends/request/dino", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var request FriendRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &request))
	rr = postJSON(t, r, fmt.Sprintf("/social/dino/friends/respond/%d/accept", request.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, r, "/social/dino/activities", Activity{
		Kind:    ActivityDayCompleted,
		Message: "5k run",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, r, "/social/dino/activities", Activity{
		Kind:    "invalid_kind",
		Message: "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err := http.NewRequest("GET", "/social/mila/feed", nil)
	require.NoError(t, err)
	getRR := httptest.NewRecorder()
	r.ServeHTTP(getRR, req)
	require.Equal(t, http.StatusOK, getRR.Code)

	var feed FeedResponse
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &feed))
	require.Equal(t, 1, feed.Total)
	assert.Equal(t, "dino", feed.Activities[0].OwnerID)
	assert.Equal(t, "5k run", feed.Activities[0].Message)

	req, err = http.NewRequest("GET", "/social/mila/feed?limit=bogus", nil)
	require.NoError(t, err)
	getRR = httptest.NewRecorder()
	r.ServeHTTP(getRR, req)
	assert.Equal(t, http.StatusBadRequest, getRR.Code)
}

func TestSocialHandler_LikesAndComments(t *testing.T) {
	r := setupSocialRouterForTests(t)

	rr := postJSON(t, r, "/social/mila/activities", Activity{
		Kind:    ActivityDayCompleted,
		Message: "pr on deadlift",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var activity Activity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &activity))

	rr = postJSON(t, r, fmt.Sprintf("/social/dino/like/%d", activity.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, r, "/social/dino/like/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = postJSON(t, r, fmt.Sprintf("/social/dino/comments/%d", activity.ID), newCommentRequest{
		Text: "huge!",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, r, fmt.Sprintf("/social/dino/comments/%d", activity.ID), newCommentRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err := http.NewRequest("GET", fmt.Sprintf("/social/mila/comments/%d", activity.ID), nil)
	require.NoError(t, err)
	getRR := httptest.NewRecorder()
	r.ServeHTTP(getRR, req)
	require.Equal(t, http.StatusOK, getRR.Code)

	var comments CommentsResponse
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &comments))
	require.Equal(t, 1, comments.Total)
	assert.Equal(t, "huge!", comments.Comments[0].Text)

	req, err = http.NewRequest("GET", "/social/mila/feed", nil)
	require.NoError(t, err)
	getRR = httptest.NewRecorder()
	r.ServeHTTP(getRR, req)
	require.Equal(t, http.StatusOK, getRR.Code)

	var feed FeedResponse
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &feed))
	require.Equal(t, 1, feed.Total)
	assert.Equal(t, 1, feed.Activities[0].Likes)
	assert.Equal(t, 1, feed.Activities[0].Comments)
}
