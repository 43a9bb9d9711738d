package social

import (
	"errors"
	"time"
)

var (
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrActivityNotFound = errors.New("activity not found")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrAlreadyRequested = errors.New("friend request already sent")
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

type FriendRequest struct {
	ID        int           `json:"id"`
	FromID    string        `json:"fromId"`
	ToID      string        `json:"toId"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ActivityKind tags what a feed entry is about.
type ActivityKind string

const (
	ActivityDayCompleted   ActivityKind = "day_completed"
	ActivityWeightReported ActivityKind = "weight_reported"
	ActivityPlanShared     ActivityKind = "plan_shared"
)

func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityDayCompleted, ActivityWeightReported, ActivityPlanShared:
		return true
	default:
		return false
	}
}

// Activity is one entry in the social feed.
type Activity struct {
	ID        int          `json:"id"`
	OwnerID   string       `json:"ownerId"`
	Kind      ActivityKind `json:"kind"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"createdAt"`
	Likes     int          `json:"likes"`
	Comments  int          `json:"comments"`
}

type Comment struct {
	ID         int       `json:"id"`
	ActivityID int       `json:"activityId"`
	OwnerID    string    `json:"ownerId"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}
