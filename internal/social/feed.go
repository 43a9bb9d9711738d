package social

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mbasaric/fitplan/internal/telemetry/metrics"
	"github.com/mbasaric/fitplan/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultFeedLimit = 50

	// seconds; short on purpose, a friend's new activity shows up on the
	// next page load without any cross-owner invalidation machinery
	feedCacheExpire = 60
)

type socialRepo interface {
	AddFriendRequest(ctx context.Context, fromID, toID string) (*FriendRequest, error)
	RespondFriendRequest(ctx context.Context, id int, accept bool) error
	ListPendingRequests(ctx context.Context, ownerID string) ([]FriendRequest, error)
	ListFriends(ctx context.Context, ownerID string) ([]string, error)
	AddActivity(ctx context.Context, activity Activity) (*Activity, error)
	Feed(ctx context.Context, ownerIDs []string, limit int) ([]Activity, error)
	LikeActivity(ctx context.Context, activityID int, ownerID string) error
	UnlikeActivity(ctx context.Context, activityID int, ownerID string) error
	AddComment(ctx context.Context, comment Comment) (*Comment, error)
	ListComments(ctx context.Context, activityID int) ([]Comment, error)
}

// FeedService assembles the reader's feed (their own plus their friends'
// activities) and caches assembled pages for a minute.
type FeedService struct {
	repo    socialRepo
	cache   *freecache.Cache
	metrics *metrics.Manager
}

func NewFeedService(repo socialRepo, metricsManager *metrics.Manager) *FeedService {
	megabyte := 1024 * 1024
	return &FeedService{
		repo:    repo,
		cache:   freecache.NewCache(10 * megabyte),
		metrics: metricsManager,
	}
}

func feedCacheKey(ownerID string, limit int) []byte {
	return []byte(fmt.Sprintf("feed::%s::%d", ownerID, limit))
}

func (s *FeedService) Feed(ctx context.Context, ownerID string, limit int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "social.feed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	cacheKey := feedCacheKey(ownerID, limit)
	if cachedBytes, err := s.cache.Get(cacheKey); err == nil {
		var activities []Activity
		if err = json.Unmarshal(cachedBytes, &activities); err == nil {
			log.Tracef("feed for %s served from cache", ownerID)
			return activities, nil
		}
		log.Errorf("failed to unmarshal cached feed for %s: %s", ownerID, err)
	}

	friends, err := s.repo.ListFriends(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	// the reader sees their own activities too
	owners := append(friends, ownerID)
	sort.Strings(owners)

	activities, err := s.repo.Feed(ctx, owners, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	if feedBytes, err := json.Marshal(activities); err == nil {
		if err := s.cache.Set(cacheKey, feedBytes, feedCacheExpire); err != nil {
			log.Debugf("failed to cache feed for %s: %s", ownerID, err)
		}
	}
	return activities, nil
}

// Publish records an activity and drops the cached feed pages.
func (s *FeedService) Publish(ctx context.Context, activity Activity) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "social.publish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !activity.Kind.IsValid() {
		return nil, fmt.Errorf("invalid activity kind: %s", activity.Kind)
	}

	added, err := s.repo.AddActivity(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("add activity: %w", err)
	}

	s.invalidateFeeds()
	if s.metrics != nil {
		s.metrics.CounterFeedActivities.Inc()
	}
	return added, nil
}

func (s *FeedService) Like(ctx context.Context, activityID int, ownerID string) error {
	if err := s.repo.LikeActivity(ctx, activityID, ownerID); err != nil {
		return err
	}
	s.invalidateFeeds()
	return nil
}

func (s *FeedService) Unlike(ctx context.Context, activityID int, ownerID string) error {
	if err := s.repo.UnlikeActivity(ctx, activityID, ownerID); err != nil {
		return err
	}
	s.invalidateFeeds()
	return nil
}

func (s *FeedService) Comment(ctx context.Context, comment Comment) (*Comment, error) {
	added, err := s.repo.AddComment(ctx, comment)
	if err != nil {
		return nil, err
	}
	s.invalidateFeeds()
	return added, nil
}

func (s *FeedService) Comments(ctx context.Context, activityID int) ([]Comment, error) {
	return s.repo.ListComments(ctx, activityID)
}

// invalidateFeeds drops every cached page. A mutation affects the feeds
// of the author's whole friend circle, which the cache keys cannot name,
// and mutations are rare next to reads.
func (s *FeedService) invalidateFeeds() {
	s.cache.Clear()
}
