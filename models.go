package main

import (
	"strings"
	"time"
)

// AcademicYear is the enumerated class standing on a campus profile.
type AcademicYear string

const (
	YearFreshman  AcademicYear = "freshman"
	YearSophomore AcademicYear = "sophomore"
	YearJunior    AcademicYear = "junior"
	YearSenior    AcademicYear = "senior"
	YearGraduate  AcademicYear = "graduate"
)

func (y AcademicYear) Valid() bool {
	switch y {
	case YearFreshman, YearSophomore, YearJunior, YearSenior, YearGraduate:
		return true
	}
	return false
}

// MusicPlatform identifies the streaming service a profile's listening data
// came from.
type MusicPlatform string

const (
	PlatformSpotify    MusicPlatform = "spotify"
	PlatformAppleMusic MusicPlatform = "apple_music"
)

func (p MusicPlatform) Valid() bool {
	return p == PlatformSpotify || p == PlatformAppleMusic
}

// MusicTaste is the optional music sub-record on a Profile. A nil record and
// a record with Connected=false behave the same for scoring.
type MusicTaste struct {
	Platform   MusicPlatform `json:"platform"`
	Connected  bool          `json:"connected"`
	TopArtists []string      `json:"top_artists"`
	TopGenres  []string      `json:"top_genres"`
}

// Profile is a user's matching profile. Owned by the user; the engine only
// reads it apart from the owner-update endpoint.
type Profile struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Age         int          `json:"age"`
	Year        AcademicYear `json:"year"`
	Major       string       `json:"major"`
	Bio         string       `json:"bio"`
	Interests   []string     `json:"interests"`
	Music       *MusicTaste  `json:"music,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MusicConnected reports whether the profile has usable listening data.
func (p *Profile) MusicConnected() bool {
	return p.Music != nil && p.Music.Connected
}

const (
	minAge    = 18
	maxAge    = 100
	maxBioLen = 500
)

// SwipeAction is a user's decision on a candidate.
type SwipeAction string

const (
	ActionLike SwipeAction = "like"
	ActionPass SwipeAction = "pass"
)

func (a SwipeAction) Valid() bool {
	return a == ActionLike || a == ActionPass
}

// Swipe is one live decision per ordered (from, to) pair. A re-swipe on the
// same candidate overwrites this record rather than appending a new one.
type Swipe struct {
	FromUserID string      `json:"from_user_id"`
	ToUserID   string      `json:"to_user_id"`
	Action     SwipeAction `json:"action"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// MatchStatus is the lifecycle state of a Match. Unmatched and blocked are
// terminal as far as this service is concerned.
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
	MatchBlocked   MatchStatus = "blocked"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchActive, MatchUnmatched, MatchBlocked:
		return true
	}
	return false
}

// Match is the materialization of a reciprocal like. UserA/UserB are stored
// in canonical order so the pair key is order-independent and at most one
// match can exist for any two users.
type Match struct {
	ID              string      `json:"id"`
	UserA           string      `json:"user_a"`
	UserB           string      `json:"user_b"`
	MatchedAt       time.Time   `json:"matched_at"`
	Score           int         `json:"score"`
	CommonInterests []string    `json:"common_interests"`
	Status          MatchStatus `json:"status"`
}

// OtherUser returns the peer of userID in this match, and whether userID is
// actually a party to it.
func (m *Match) OtherUser(userID string) (string, bool) {
	if m.UserA == userID {
		return m.UserB, true
	}
	if m.UserB == userID {
		return m.UserA, true
	}
	return "", false
}

// HasUser reports whether userID is one of the two matched users.
func (m *Match) HasUser(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}

// canonicalPair orders two user ids lexicographically. Every match write and
// lookup goes through this so the pair is addressed the same way regardless
// of which side swiped last.
func canonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// pairKey is the order-independent storage key for a pair of users.
func pairKey(a, b string) string {
	lo, hi := canonicalPair(a, b)
	return lo + "#" + hi
}

// normalizeInterests trims, lowercases and deduplicates an interest list,
// preserving first-seen order. Applied on profile writes so scoring never
// has to worry about casing or duplicates in stored data.
func normalizeInterests(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
