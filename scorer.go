package main

import (
	"sort"
	"strings"
)

// Compatibility scoring. Pure and deterministic: no I/O, no clock, same
// inputs always produce the same output, and the score is symmetric in its
// two arguments.

const (
	maxScore          = 100
	pointsPerGenre    = 20
	pointsPerArtist   = 15
	pointsPerInterest = 20
)

// ScoreResult is the outcome of scoring two profiles against each other.
// The label sets are normalized (lowercased, trimmed) and sorted.
type ScoreResult struct {
	Score           int      `json:"score"`
	CommonInterests []string `json:"common_interests"`
	CommonGenres    []string `json:"common_genres"`
	CommonArtists   []string `json:"common_artists"`
}

// scoreProfiles computes the 0-100 compatibility score between two profiles.
//
// When both sides have connected music data the score is the music subscore:
// 20 points per shared genre plus 15 per shared artist. When either side
// lacks music data the shared-interest overlap drives a baseline instead
// (20 points per shared interest), so users without a connected account are
// not pinned to zero. Empty overlap scores 0; the result is always clamped
// to [0, 100].
func scoreProfiles(a, b *Profile) ScoreResult {
	res := ScoreResult{
		CommonInterests: intersectFold(a.Interests, b.Interests),
		CommonGenres:    []string{},
		CommonArtists:   []string{},
	}

	if a.MusicConnected() && b.MusicConnected() {
		res.CommonGenres = intersectFold(a.Music.TopGenres, b.Music.TopGenres)
		res.CommonArtists = intersectFold(a.Music.TopArtists, b.Music.TopArtists)
		res.Score = clampScore(len(res.CommonGenres)*pointsPerGenre + len(res.CommonArtists)*pointsPerArtist)
		return res
	}

	res.Score = clampScore(len(res.CommonInterests) * pointsPerInterest)
	return res
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

// intersectFold returns the case-insensitive, trimmed intersection of two
// string lists, deduplicated, lowercased and sorted. Sorting keeps the
// output independent of input ordering, which the symmetry guarantee needs.
func intersectFold(xs, ys []string) []string {
	if len(xs) == 0 || len(ys) == 0 {
		return []string{}
	}

	xset := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x != "" {
			xset[x] = struct{}{}
		}
	}

	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, y := range ys {
		y = strings.ToLower(strings.TrimSpace(y))
		if y == "" {
			continue
		}
		if _, dup := seen[y]; dup {
			continue
		}
		if _, ok := xset[y]; ok {
			seen[y] = struct{}{}
			out = append(out, y)
		}
	}
	sort.Strings(out)
	return out
}
