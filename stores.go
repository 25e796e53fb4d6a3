package main

import (
	"context"
	"time"
)

// Store contracts consumed by the engine. Each component gets its stores
// passed in explicitly; lifecycle (opening, closing, migration) belongs to
// the hosting service, never to handlers.

// ProfileStore is durable per-user profile storage.
type ProfileStore interface {
	// GetProfile returns ErrProfileNotFound when no profile exists.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// GetProfiles returns the profiles that exist for the given ids, keyed
	// by user id. Missing ids are simply absent from the result.
	GetProfiles(ctx context.Context, userIDs []string) (map[string]*Profile, error)

	// QueryCandidates returns candidate user ids not present in excluding,
	// in ascending id order. limit <= 0 means no cap.
	QueryCandidates(ctx context.Context, excluding map[string]struct{}, limit int) ([]string, error)

	// PutProfile creates or replaces a profile.
	PutProfile(ctx context.Context, p *Profile) error
}

// SwipeStore is the append-side storage of the swipe ledger, keyed by the
// ordered (from, to) pair.
type SwipeStore interface {
	// PutSwipe upserts the swipe for its (from, to) pair.
	PutSwipe(ctx context.Context, s *Swipe) error

	// GetSwipe returns (nil, nil) when no swipe exists for the ordered pair.
	GetSwipe(ctx context.Context, fromUserID, toUserID string) (*Swipe, error)

	// ListSwipedIDs returns the set of candidate ids the user has already
	// swiped on, like or pass.
	ListSwipedIDs(ctx context.Context, fromUserID string) (map[string]struct{}, error)
}

// MatchStore is match storage keyed by the canonical pair.
type MatchStore interface {
	// CreateMatchIfAbsent writes m unless a match for its pair already
	// exists. Exactly one of the two users' concurrent attempts wins; the
	// loser gets created=false and the winner's record back.
	CreateMatchIfAbsent(ctx context.Context, m *Match) (created bool, existing *Match, err error)

	// GetMatch returns ErrMatchNotFound when no match has the given id.
	GetMatch(ctx context.Context, matchID string) (*Match, error)

	// GetMatchByPair returns (nil, nil) when the pair has never matched.
	GetMatchByPair(ctx context.Context, userA, userB string) (*Match, error)

	// ListMatches returns all matches the user is a party to, newest first.
	ListMatches(ctx context.Context, userID string) ([]*Match, error)

	// UpdateMatchStatus transitions the match from one status to another.
	// Returns ErrInvalidTransition if the current status is neither from
	// nor already to (repeat transitions are idempotent).
	UpdateMatchStatus(ctx context.Context, matchID string, from, to MatchStatus) error
}

// Engine wires the three stores together and hosts the matching logic.
type Engine struct {
	profiles ProfileStore
	swipes   SwipeStore
	matches  MatchStore
	now      func() time.Time
}

func NewEngine(profiles ProfileStore, swipes SwipeStore, matches MatchStore) *Engine {
	return &Engine{
		profiles: profiles,
		swipes:   swipes,
		matches:  matches,
		now:      time.Now,
	}
}
