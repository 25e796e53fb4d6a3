package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// MatchResult is the outcome of running match detection on a swipe.
type MatchResult struct {
	Matched bool   `json:"matched"`
	Match   *Match `json:"match,omitempty"`
}

// DetectMatch checks whether the just-recorded swipe completes a reciprocal
// like and, if so, materializes the Match exactly once.
//
// Only likes can match; a pass is a no-op here. The compatibility score is
// computed synchronously before the write, so no reader ever observes a
// match without its score. If anything fails before the conditional create,
// nothing is persisted and re-running detection for the same swipe is safe.
func (e *Engine) DetectMatch(ctx context.Context, fromUserID, toUserID string, action SwipeAction) (MatchResult, error) {
	if action != ActionLike {
		return MatchResult{}, nil
	}

	reciprocal, err := e.swipes.GetSwipe(ctx, toUserID, fromUserID)
	if err != nil {
		return MatchResult{}, err
	}
	if reciprocal == nil || reciprocal.Action != ActionLike {
		// One-sided like stays recorded for a future reciprocal check.
		return MatchResult{}, nil
	}

	profiles, err := e.profiles.GetProfiles(ctx, []string{fromUserID, toUserID})
	if err != nil {
		return MatchResult{}, err
	}
	mine, theirs := profiles[fromUserID], profiles[toUserID]
	if mine == nil || theirs == nil {
		return MatchResult{}, ErrProfileNotFound
	}

	sc := scoreProfiles(mine, theirs)
	userA, userB := canonicalPair(fromUserID, toUserID)

	created, match, err := e.matches.CreateMatchIfAbsent(ctx, &Match{
		ID:              uuid.NewString(),
		UserA:           userA,
		UserB:           userB,
		MatchedAt:       e.now().UTC(),
		Score:           sc.Score,
		CommonInterests: sc.CommonInterests,
		Status:          MatchActive,
	})
	if err != nil {
		return MatchResult{}, err
	}
	if !created {
		// Lost the create race to the other user's swipe. That is success:
		// exactly one match exists, return it.
		log.Println("match create race lost for pair", pairKey(userA, userB))
	}
	return MatchResult{Matched: true, Match: match}, nil
}

// MatchesFor lists every match the user is a party to, newest first.
func (e *Engine) MatchesFor(ctx context.Context, userID string) ([]*Match, error) {
	return e.matches.ListMatches(ctx, userID)
}

// SetMatchStatus applies an active -> unmatched/blocked transition on behalf
// of one of the matched users. Non-parties get not-found, never a hint the
// match exists.
func (e *Engine) SetMatchStatus(ctx context.Context, userID, matchID string, to MatchStatus) error {
	m, err := e.matches.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.HasUser(userID) {
		return ErrMatchNotFound
	}
	return e.matches.UpdateMatchStatus(ctx, matchID, MatchActive, to)
}

// MatchEntry is one row of the authenticated user's match list, with the
// peer profile hydrated when available.
type MatchEntry struct {
	Match *Match   `json:"match"`
	Peer  *Profile `json:"peer,omitempty"`
}

// GET /matches
func matchesHandler(e *Engine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		me := r.Context().Value(userIDKey).(string)
		matches, err := e.MatchesFor(r.Context(), me)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		entries := make([]MatchEntry, 0, len(matches))
		loaders := GetLoadersFromContext(r.Context())
		if loaders != nil {
			// Register every peer before resolving any thunk so the loads
			// coalesce into a single store read.
			thunks := make([]func() (*Profile, error), len(matches))
			for i, m := range matches {
				peerID, _ := m.OtherUser(me)
				thunks[i] = loaders.Profile.Load(r.Context(), peerID)
			}
			for i, m := range matches {
				entry := MatchEntry{Match: m}
				if peer, err := thunks[i](); err == nil {
					entry.Peer = peer
				}
				entries = append(entries, entry)
			}
		} else {
			for _, m := range matches {
				entry := MatchEntry{Match: m}
				peerID, _ := m.OtherUser(me)
				if peer, err := e.profiles.GetProfile(r.Context(), peerID); err == nil {
					entry.Peer = peer
				}
				entries = append(entries, entry)
			}
		}

		writeJSON(w, http.StatusOK, map[string][]MatchEntry{"matches": entries})
	})
}

// Dispatcher for POST /matches/{id}/(unmatch|block).
func matchesActionsRouter(e *Engine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "matches" {
			http.NotFound(w, r)
			return
		}
		matchID := parts[1]

		var to MatchStatus
		switch parts[2] {
		case "unmatch":
			to = MatchUnmatched
		case "block":
			to = MatchBlocked
		default:
			http.NotFound(w, r)
			return
		}

		me := r.Context().Value(userIDKey).(string)
		if err := e.SetMatchStatus(r.Context(), me, matchID, to); err != nil {
			writeEngineError(w, err)
			return
		}
		// Repeating a terminal transition is a no-op success.
		w.WriteHeader(http.StatusNoContent)
	})
}
