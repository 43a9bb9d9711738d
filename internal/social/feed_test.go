package social

import (
	"context"
	"testing"

	"github.com/mbasaric/fitplan/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m)
}

func TestFeedService_FeedCaching(t *testing.T) {
	repo := NewMockSocialRepo()
	feed := NewFeedService(repo, metrics.NewTestManager())
	ctx := context.Background()

	_, err := feed.Publish(ctx, Activity{
		OwnerID: "mila",
		Kind:    ActivityDayCompleted,
		Message: "leg day done",
	})
	require.NoError(t, err)

	activities, err := feed.Feed(ctx, "mila", 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, 1, repo.feedCalls)

	// second read comes from the cache
	_, err = feed.Feed(ctx, "mila", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.feedCalls)

	// publishing drops the author's cached pages
	_, err = feed.Publish(ctx, Activity{
		OwnerID: "mila",
		Kind:    ActivityWeightReported,
		Message: "64.2kg",
	})
	require.NoError(t, err)

	activities, err = feed.Feed(ctx, "mila", 0)
	require.NoError(t, err)
	assert.Len(t, activities, 2)
	assert.Equal(t, 2, repo.feedCalls)
}

func TestFeedService_FriendsActivitiesIncluded(t *testing.T) {
	repo := NewMockSocialRepo()
	feed := NewFeedService(repo, metrics.NewTestManager())
	ctx := context.Background()

	request, err := repo.AddFriendRequest(ctx, "mila", "dino")
	require.NoError(t, err)
	require.NoError(t, repo.RespondFriendRequest(ctx, request.ID, true))

	_, err = feed.Publish(ctx, Activity{
		OwnerID: "dino",
		Kind:    ActivityDayCompleted,
		Message: "morning run",
	})
	require.NoError(t, err)
	_, err = feed.Publish(ctx, Activity{
		OwnerID: "stranger",
		Kind:    ActivityDayCompleted,
		Message: "not visible to mila",
	})
	require.NoError(t, err)

	activities, err := feed.Feed(ctx, "mila", 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "dino", activities[0].OwnerID)
}

func TestFeedService_PublishInvalidKind(t *testing.T) {
	feed := NewFeedService(NewMockSocialRepo(), metrics.NewTestManager())
	_, err := feed.Publish(context.Background(), Activity{
		OwnerID: "mila",
		Kind:    "went_shopping",
	})
	require.Error(t, err)
}

func TestFeedService_LikesAndComments(t *testing.T) {
	repo := NewMockSocialRepo()
	feed := NewFeedService(repo, metrics.NewTestManager())
	ctx := context.Background()

	activity, err := feed.Publish(ctx, Activity{
		OwnerID: "mila",
		Kind:    ActivityDayCompleted,
		Message: "done",
	})
	require.NoError(t, err)

	require.NoError(t, feed.Like(ctx, activity.ID, "dino"))
	// likes are idempotent per owner
	require.NoError(t, feed.Like(ctx, activity.ID, "dino"))
	require.NoError(t, feed.Like(ctx, activity.ID, "ana"))

	_, err = feed.Comment(ctx, Comment{
		ActivityID: activity.ID,
		OwnerID:    "dino",
		Text:       "strong!",
	})
	require.NoError(t, err)

	activities, err := feed.Feed(ctx, "mila", 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 2, activities[0].Likes)
	assert.Equal(t, 1, activities[0].Comments)

	require.NoError(t, feed.Unlike(ctx, activity.ID, "dino"))
	activities, err = feed.Feed(ctx, "mila", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, activities[0].Likes)

	comments, err := feed.Comments(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "strong!", comments[0].Text)

	require.ErrorIs(t, feed.Like(ctx, 999, "dino"), ErrActivityNotFound)
	_, err = feed.Comment(ctx, Comment{ActivityID: 999, OwnerID: "dino", Text: "?"})
	require.ErrorIs(t, err, ErrActivityNotFound)
}
