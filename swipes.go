package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// RecordSwipe validates and upserts a swipe decision. The write is a single
// attempt; a store failure comes back retryable and the caller owns any
// backoff. Nothing is persisted for rejected swipes.
func (e *Engine) RecordSwipe(ctx context.Context, fromUserID, toUserID string, action SwipeAction) error {
	if fromUserID == toUserID {
		return fmt.Errorf("%w: cannot swipe on yourself", ErrInvalidSwipe)
	}
	if !action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidSwipe, action)
	}

	// Target must exist and be a real profile.
	if _, err := e.profiles.GetProfile(ctx, toUserID); err != nil {
		return err
	}

	// Once a match has been derived from this pair the underlying swipes
	// are frozen, so the reciprocity check that produced the match stays
	// stable. Re-engaging a previously unmatched pair is a policy decision
	// for the layer above, not something a stray swipe should do.
	existing, err := e.matches.GetMatchByPair(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: pair already has a match", ErrInvalidSwipe)
	}

	now := e.now().UTC()
	return e.swipes.PutSwipe(ctx, &Swipe{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Action:     action,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// POST /swipes
// Body: {"target_id": "...", "action": "like"|"pass"}
// Records the decision, then runs match detection on it.
func swipeHandler(e *Engine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		type swipeRequest struct {
			TargetID string      `json:"target_id"`
			Action   SwipeAction `json:"action"`
		}
		var req swipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.TargetID == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}

		me := r.Context().Value(userIDKey).(string)

		if err := e.RecordSwipe(r.Context(), me, req.TargetID, req.Action); err != nil {
			writeEngineError(w, err)
			return
		}

		result, err := e.DetectMatch(r.Context(), me, req.TargetID, req.Action)
		if err != nil {
			// The swipe itself has been recorded; surface the detection
			// failure so the client can retry the same swipe safely.
			writeEngineError(w, err)
			log.Println("swipeHandler detect error:", err)
			return
		}

		resp := map[string]interface{}{
			"accepted": true,
			"matched":  result.Matched,
		}
		if result.Match != nil {
			resp["match"] = result.Match
		}
		writeJSON(w, http.StatusOK, resp)
	})
}
