package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchDetectorSuite(t *testing.T) {
	t.Run("ReciprocalLike", testReciprocalLike)
	t.Run("OneSidedLike", testOneSidedLike)
	t.Run("PassSemantics", testPassSemantics)
	t.Run("Idempotence", testMatchIdempotence)
	t.Run("ConcurrentLikes", testConcurrentLikes)
	t.Run("AbortOnMissingProfile", testAbortOnMissingProfile)
	t.Run("StatusTransitions", testStatusTransitions)
}

func testReciprocalLike(t *testing.T) {
	e, mem := newTestEngine()
	seedProfile(t, mem, "alice", "Alice", []string{"hiking", "coffee"}, nil)
	seedProfile(t, mem, "bob", "Bob", []string{"coffee", "gaming"}, nil)

	res := mustSwipe(t, e, "alice", "bob", ActionLike)
	assert.False(t, res.Matched, "no reciprocal like yet")
	assert.Nil(t, res.Match)

	res = mustSwipe(t, e, "bob", "alice", ActionLike)
	require.True(t, res.Matched)
	require.NotNil(t, res.Match)

	m := res.Match
	assert.Equal(t, "alice", m.UserA, "pair stored in canonical order")
	assert.Equal(t, "bob", m.UserB)
	assert.Equal(t, MatchActive, m.Status)
	assert.Equal(t, []string{"coffee"}, m.CommonInterests)
	assert.Equal(t, 20, m.Score, "score is populated before the match is visible")
	assert.False(t, m.MatchedAt.IsZero())
	assert.NotEmpty(t, m.ID)
}

func testOneSidedLike(t *testing.T) {
	e, mem := newTestEngine()
	seedProfile(t, mem, "alice", "Alice", nil, nil)
	seedProfile(t, mem, "bob", "Bob", nil, nil)

	res := mustSwipe(t, e, "alice", "bob", ActionLike)
	assert.False(t, res.Matched)

	m, err := mem.GetMatchByPair(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Nil(t, m, "one-sided like must not create a match")
}

func testPassSemantics(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()
	seedProfile(t, mem, "alice", "Alice", nil, nil)
	seedProfile(t, mem, "bob", "Bob", nil, nil)

	t.Run("Pass Is A NoOp", func(t *testing.T) {
		res := mustSwipe(t, e, "alice", "bob", ActionPass)
		assert.False(t, res.Matched)
	})

	t.Run("Pass Blocks The Reverse Like", func(t *testing.T) {
		// Bob liking Alice finds Alice's pass, not a like: no match, even
		// though Bob's own decision was a like.
		res := mustSwipe(t, e, "bob", "alice", ActionLike)
		assert.False(t, res.Matched)

		m, err := mem.GetMatchByPair(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("Undoing The Pass Enables The Match", func(t *testing.T) {
		// Alice changes her mind; her re-swipe overwrites the pass and the
		// standing like from Bob completes the pair.
		res := mustSwipe(t, e, "alice", "bob", ActionLike)
		assert.True(t, res.Matched)
	})
}

func testMatchIdempotence(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()
	seedProfile(t, mem, "alice", "Alice", nil, nil)
	seedProfile(t, mem, "bob", "Bob", nil, nil)

	mustSwipe(t, e, "alice", "bob", ActionLike)
	first := mustSwipe(t, e, "bob", "alice", ActionLike)
	require.True(t, first.Matched)

	// Re-running detection for the same swipe event (a delivery retry)
	// must return the existing match, never create a second one.
	again, err := e.DetectMatch(ctx, "bob", "alice", ActionLike)
	require.NoError(t, err)
	require.True(t, again.Matched)
	assert.Equal(t, first.Match.ID, again.Match.ID)

	matches, err := mem.ListMatches(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "exactly one match per pair")
}

func testConcurrentLikes(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()
	seedProfile(t, mem, "alice", "Alice", nil, nil)
	seedProfile(t, mem, "bob", "Bob", nil, nil)

	// Both swipes are already recorded; the race is between the two
	// detection runs, which is where the conditional create decides.
	require.NoError(t, e.RecordSwipe(ctx, "alice", "bob", ActionLike))
	require.NoError(t, e.RecordSwipe(ctx, "bob", "alice", ActionLike))

	var wg sync.WaitGroup
	results := make([]MatchResult, 2)
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = e.DetectMatch(ctx, "alice", "bob", ActionLike)
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = e.DetectMatch(ctx, "bob", "alice", ActionLike)
	}()
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.True(t, results[i].Matched, "both racers observe the match")
		require.NotNil(t, results[i].Match)
	}
	assert.Equal(t, results[0].Match.ID, results[1].Match.ID, "racers share one record")

	matches, err := mem.ListMatches(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "the race must produce exactly one match")
}

func testAbortOnMissingProfile(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()
	alice := seedProfile(t, mem, "alice", "Alice", nil, nil)
	seedProfile(t, mem, "bob", "Bob", nil, nil)

	mustSwipe(t, e, "alice", "bob", ActionLike)
	require.NoError(t, e.RecordSwipe(ctx, "bob", "alice", ActionLike))

	// Alice's profile vanishes between the swipe and detection: scoring is
	// impossible, so match creation aborts with nothing persisted.
	mem.DeleteProfile("alice")
	_, err := e.DetectMatch(ctx, "bob", "alice", ActionLike)
	require.ErrorIs(t, err, ErrProfileNotFound)

	m, err := mem.GetMatchByPair(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Nil(t, m, "no partial match may be persisted")

	// Retrying the same swipe event after the profile is back succeeds.
	require.NoError(t, mem.PutProfile(ctx, alice))
	res, err := e.DetectMatch(ctx, "bob", "alice", ActionLike)
	require.NoError(t, err)
	assert.True(t, res.Matched)
}

func testStatusTransitions(t *testing.T) {
	e, mem := newTestEngine()
	ctx := context.Background()
	seedProfile(t, mem, "alice", "Alice", nil, nil)
	seedProfile(t, mem, "bob", "Bob", nil, nil)
	seedProfile(t, mem, "eve", "Eve", nil, nil)

	mustSwipe(t, e, "alice", "bob", ActionLike)
	res := mustSwipe(t, e, "bob", "alice", ActionLike)
	require.True(t, res.Matched)
	matchID := res.Match.ID

	t.Run("Non Party Gets Not Found", func(t *testing.T) {
		err := e.SetMatchStatus(ctx, "eve", matchID, MatchUnmatched)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("Unmatch", func(t *testing.T) {
		require.NoError(t, e.SetMatchStatus(ctx, "alice", matchID, MatchUnmatched))
		m, err := mem.GetMatch(ctx, matchID)
		require.NoError(t, err)
		assert.Equal(t, MatchUnmatched, m.Status)
	})

	t.Run("Repeat Unmatch Is Idempotent", func(t *testing.T) {
		assert.NoError(t, e.SetMatchStatus(ctx, "bob", matchID, MatchUnmatched))
	})

	t.Run("Block After Unmatch Is Invalid", func(t *testing.T) {
		err := e.SetMatchStatus(ctx, "alice", matchID, MatchBlocked)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
	})
}
