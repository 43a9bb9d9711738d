package social

import (
	"context"
	"sort"
	"time"
)

type repoMock struct {
	nextRequestID  int
	nextActivityID int
	nextCommentID  int

	requests   map[int]*FriendRequest
	activities map[int]*Activity
	likes      map[int]map[string]bool
	comments   map[int][]Comment

	// feedCalls counts Feed hits, for asserting cache behavior
	feedCalls int
}

func NewMockSocialRepo() *repoMock {
	return &repoMock{
		nextRequestID:  1,
		nextActivityID: 1,
		nextCommentID:  1,
		requests:       make(map[int]*FriendRequest),
		activities:     make(map[int]*Activity),
		likes:          make(map[int]map[string]bool),
		comments:       make(map[int][]Comment),
	}
}

func (r *repoMock) AddFriendRequest(_ context.Context, fromID, toID string) (*FriendRequest, error) {
	for _, fr := range r.requests {
		sameDirection := fr.FromID == fromID && fr.ToID == toID
		reversed := fr.FromID == toID && fr.ToID == fromID
		if (sameDirection || reversed) && fr.Status != RequestDeclined {
			return nil, ErrAlreadyRequested
		}
	}
	request := &FriendRequest{
		ID:        r.nextRequestID,
		FromID:    fromID,
		ToID:      toID,
		Status:    RequestPending,
		CreatedAt: time.Now(),
	}
	r.nextRequestID++
	r.requests[request.ID] = request
	fr := *request
	return &fr, nil
}

func (r *repoMock) RespondFriendRequest(_ context.Context, id int, accept bool) error {
	request, ok := r.requests[id]
	if !ok || request.Status != RequestPending {
		return ErrRequestNotFound
	}
	if accept {
		request.Status = RequestAccepted
	} else {
		request.Status = RequestDeclined
	}
	return nil
}

func (r *repoMock) ListPendingRequests(_ context.Context, ownerID string) ([]FriendRequest, error) {
	var pending []FriendRequest
	for _, fr := range r.requests {
		if fr.ToID == ownerID && fr.Status == RequestPending {
			pending = append(pending, *fr)
		}
	}
	return pending, nil
}

func (r *repoMock) ListFriends(_ context.Context, ownerID string) ([]string, error) {
	var friends []string
	for _, fr := range r.requests {
		if fr.Status != RequestAccepted {
			continue
		}
		switch ownerID {
		case fr.FromID:
			friends = append(friends, fr.ToID)
		case fr.ToID:
			friends = append(friends, fr.FromID)
		}
	}
	return friends, nil
}

func (r *repoMock) AddActivity(_ context.Context, activity Activity) (*Activity, error) {
	activity.ID = r.nextActivityID
	activity.CreatedAt = time.Now()
	r.nextActivityID++
	r.activities[activity.ID] = &activity
	a := activity
	return &a, nil
}

func (r *repoMock) Feed(_ context.Context, ownerIDs []string, limit int) ([]Activity, error) {
	r.feedCalls++
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}

	var feed []Activity
	for _, a := range r.activities {
		if !owners[a.OwnerID] {
			continue
		}
		activity := *a
		activity.Likes = len(r.likes[a.ID])
		activity.Comments = len(r.comments[a.ID])
		feed = append(feed, activity)
	}
	sort.Slice(feed, func(i, j int) bool {
		if feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].ID > feed[j].ID
		}
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

func (r *repoMock) LikeActivity(_ context.Context, activityID int, ownerID string) error {
	if _, ok := r.activities[activityID]; !ok {
		return ErrActivityNotFound
	}
	if r.likes[activityID] == nil {
		r.likes[activityID] = make(map[string]bool)
	}
	r.likes[activityID][ownerID] = true
	return nil
}

func (r *repoMock) UnlikeActivity(_ context.Context, activityID int, ownerID string) error {
	delete(r.likes[activityID], ownerID)
	return nil
}

func (r *repoMock) AddComment(_ context.Context, comment Comment) (*Comment, error) {
	if _, ok := r.activities[comment.ActivityID]; !ok {
		return nil, ErrActivityNotFound
	}
	comment.ID = r.nextCommentID
	comment.CreatedAt = time.Now()
	r.nextCommentID++
	r.comments[comment.ActivityID] = append(r.comments[comment.ActivityID], comment)
	c := comment
	return &c, nil
}

func (r *repoMock) ListComments(_ context.Context, activityID int) ([]Comment, error) {
	out := make([]Comment, len(r.comments[activityID]))
	copy(out, r.comments[activityID])
	return out, nil
}
