package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedBuilderSuite(t *testing.T) {
	t.Run("Ordering", testFeedOrdering)
	t.Run("Exclusion", testFeedExclusion)
	t.Run("Idempotence", testFeedIdempotence)
	t.Run("Limit", testFeedLimit)
	t.Run("OmitsUnhydratableCandidates", testFeedOmission)
	t.Run("InvalidLimit", testFeedInvalidLimit)
}

func feedIDs(entries []FeedEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Profile.UserID)
	}
	return ids
}

func testFeedOrdering(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedProfile(t, mem, "me", "Me", []string{"coffee", "hiking", "chess"}, nil)
	seedProfile(t, mem, "u-two", "Two Shared", []string{"coffee", "hiking"}, nil)    // 40
	seedProfile(t, mem, "u-one-b", "One Shared B", []string{"chess", "film"}, nil)   // 20, tie
	seedProfile(t, mem, "u-one-a", "One Shared A", []string{"coffee", "yoga"}, nil)  // 20, tie
	seedProfile(t, mem, "u-zero", "No Overlap", []string{"volleyball"}, nil)         // 0

	feed, err := e.BuildFeed(ctx, "me", 10)
	require.NoError(t, err)

	// Descending score; equal scores ordered by ascending candidate id.
	assert.Equal(t, []string{"u-two", "u-one-a", "u-one-b", "u-zero"}, feedIDs(feed))
	assert.Equal(t, 40, feed[0].Score)
	assert.Equal(t, 20, feed[1].Score)
	assert.Equal(t, 20, feed[2].Score)
	assert.Equal(t, 0, feed[3].Score)
}

func testFeedExclusion(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedProfile(t, mem, "me", "Me", []string{"coffee"}, nil)
	seedProfile(t, mem, "liked", "Liked", []string{"coffee"}, nil)
	seedProfile(t, mem, "passed", "Passed", []string{"coffee"}, nil)
	seedProfile(t, mem, "fresh", "Fresh", []string{"coffee"}, nil)
	seedProfile(t, mem, "matched", "Matched", []string{"coffee"}, nil)

	mustSwipe(t, e, "me", "liked", ActionLike)
	mustSwipe(t, e, "me", "passed", ActionPass)

	mustSwipe(t, e, "me", "matched", ActionLike)
	res := mustSwipe(t, e, "matched", "me", ActionLike)
	require.True(t, res.Matched)

	feed, err := e.BuildFeed(ctx, "me", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"fresh"}, feedIDs(feed),
		"self, swiped (like or pass) and matched peers must never reappear")
}

func testFeedIdempotence(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedProfile(t, mem, "me", "Me", []string{"coffee", "chess"}, nil)
	seedProfile(t, mem, "a", "A", []string{"coffee"}, nil)
	seedProfile(t, mem, "b", "B", []string{"chess"}, nil)
	seedProfile(t, mem, "c", "C", []string{"coffee", "chess"}, nil)

	first, err := e.BuildFeed(ctx, "me", 10)
	require.NoError(t, err)
	second, err := e.BuildFeed(ctx, "me", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeat builds with no intervening swipe must be identical")

	// A swipe changes the next build, and only by removing that candidate.
	mustSwipe(t, e, "me", "c", ActionPass)
	third, err := e.BuildFeed(ctx, "me", 10)
	require.NoError(t, err)
	assert.NotContains(t, feedIDs(third), "c")
	assert.Len(t, third, len(first)-1)
}

func testFeedLimit(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()

	seedProfile(t, mem, "me", "Me", []string{"coffee", "chess", "film"}, nil)
	seedProfile(t, mem, "a", "A", []string{"coffee", "chess", "film"}, nil) // 60
	seedProfile(t, mem, "b", "B", []string{"coffee", "chess"}, nil)         // 40
	seedProfile(t, mem, "c", "C", []string{"coffee"}, nil)                  // 20

	feed, err := e.BuildFeed(ctx, "me", 2)
	require.NoError(t, err)

	// Ranking happens over the whole pool before truncation: the top two
	// by score, not an arbitrary two.
	assert.Equal(t, []string{"a", "b"}, feedIDs(feed))
}

// droppingProfiles simulates a candidate whose profile disappears between
// the candidate listing and the batched hydration.
type droppingProfiles struct {
	ProfileStore
	missing string
}

func (d droppingProfiles) GetProfiles(ctx context.Context, ids []string) (map[string]*Profile, error) {
	out, err := d.ProfileStore.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	delete(out, d.missing)
	return out, nil
}

func testFeedOmission(t *testing.T) {
	_, mem := newTestEngine()
	ctx := context.Background()

	seedProfile(t, mem, "me", "Me", []string{"coffee"}, nil)
	seedProfile(t, mem, "gone", "Gone", []string{"coffee"}, nil)
	seedProfile(t, mem, "here", "Here", []string{"coffee"}, nil)

	e := NewEngine(droppingProfiles{ProfileStore: mem, missing: "gone"}, mem, mem)

	feed, err := e.BuildFeed(ctx, "me", 10)
	require.NoError(t, err, "an unhydratable candidate must not fail the batch")
	assert.Equal(t, []string{"here"}, feedIDs(feed))
}

func testFeedInvalidLimit(t *testing.T) {
	e, mem := newTestEngine()
	seedProfile(t, mem, "me", "Me", nil, nil)

	_, err := e.BuildFeed(context.Background(), "me", 0)
	assert.Error(t, err)
	_, err = e.BuildFeed(context.Background(), "me", -3)
	assert.Error(t, err)
}
