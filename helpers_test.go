package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Test helpers shared across the suite. Everything runs against the
// in-memory stores so the suite needs no external services.

func newTestEngine() (*Engine, *MemoryStore) {
	mem := NewMemoryStore()
	e := NewEngine(mem, mem, mem)

	// Deterministic, strictly increasing clock.
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	e.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	return e, mem
}

func seedProfile(t *testing.T, store ProfileStore, id, name string, interests []string, music *MusicTaste) *Profile {
	t.Helper()
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	p := &Profile{
		UserID:      id,
		DisplayName: name,
		Age:         21,
		Year:        YearJunior,
		Major:       "Undeclared",
		Bio:         "hi!",
		Interests:   normalizeInterests(interests),
		Music:       music,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.PutProfile(context.Background(), p); err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
	return p
}

func connectedMusic(genres, artists []string) *MusicTaste {
	return &MusicTaste{
		Platform:   PlatformSpotify,
		Connected:  true,
		TopGenres:  genres,
		TopArtists: artists,
	}
}

func authToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"expires": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthRequest(t *testing.T, method, path, userID string, body interface{}) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+authToken(t, userID))
	return req
}

// mustSwipe records a swipe and runs detection, failing the test on error.
func mustSwipe(t *testing.T, e *Engine, from, to string, action SwipeAction) MatchResult {
	t.Helper()
	ctx := context.Background()
	if err := e.RecordSwipe(ctx, from, to, action); err != nil {
		t.Fatalf("record swipe %s->%s: %v", from, to, err)
	}
	res, err := e.DetectMatch(ctx, from, to, action)
	if err != nil {
		t.Fatalf("detect match %s->%s: %v", from, to, err)
	}
	return res
}
