package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// FeedEntry is one candidate in a user's feed, annotated with the
// compatibility score that ordered it.
type FeedEntry struct {
	Profile *Profile `json:"profile"`
	Score   int      `json:"score"`
}

// BuildFeed produces the ranked candidate batch for a user: everyone except
// the user, anyone they have already swiped on (like or pass), and peers of
// any existing match. Candidates are scored eagerly and returned in
// descending score order with ascending user id as the tie-break, so two
// calls with no intervening swipe return identical output.
//
// The read set here is not linearizable with concurrent swipes; a slightly
// stale exclusion set corrects itself on the next call.
func (e *Engine) BuildFeed(ctx context.Context, userID string, limit int) ([]FeedEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var (
		me      *Profile
		swiped  map[string]struct{}
		matches []*Match
	)

	// The three reads are independent; none has side effects, so the whole
	// group can be abandoned on the first failure or on cancellation.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		me, err = e.profiles.GetProfile(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		swiped, err = e.swipes.ListSwipedIDs(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = e.matches.ListMatches(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	excluding := make(map[string]struct{}, len(swiped)+len(matches)+1)
	excluding[userID] = struct{}{}
	for id := range swiped {
		excluding[id] = struct{}{}
	}
	for _, m := range matches {
		if peer, ok := m.OtherUser(userID); ok {
			excluding[peer] = struct{}{}
		}
	}

	// Ranking needs the whole eligible pool before truncation, so the
	// candidate query is uncapped and limit applies after sorting.
	ids, err := e.profiles.QueryCandidates(ctx, excluding, 0)
	if err != nil {
		return nil, err
	}
	candidates, err := e.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]FeedEntry, 0, len(ids))
	for _, id := range ids {
		candidate, ok := candidates[id]
		if !ok {
			// Profile gone between listing and hydration: omit the
			// candidate rather than failing the whole batch.
			continue
		}
		sc := scoreProfiles(me, candidate)
		entries = append(entries, FeedEntry{Profile: candidate, Score: sc.Score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Profile.UserID < entries[j].Profile.UserID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

const defaultFeedLimit = 20

// GET /feed?limit=N
func feedHandler(e *Engine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		limit := defaultFeedLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_limit")
				return
			}
			limit = n
		}

		me := r.Context().Value(userIDKey).(string)
		entries, err := e.BuildFeed(r.Context(), me, limit)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string][]FeedEntry{"candidates": entries})
	})
}
