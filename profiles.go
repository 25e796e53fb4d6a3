package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Profile read/update endpoints. A profile is mutated only by its owner;
// the engine never deletes one (account lifecycle lives elsewhere).

type profileInput struct {
	DisplayName string       `json:"display_name"`
	Age         int          `json:"age"`
	Year        AcademicYear `json:"year"`
	Major       string       `json:"major"`
	Bio         string       `json:"bio"`
	Interests   []string     `json:"interests"`
	Music       *MusicTaste  `json:"music,omitempty"`
}

func (in *profileInput) validate() error {
	if strings.TrimSpace(in.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}
	if in.Age < minAge || in.Age > maxAge {
		return fmt.Errorf("age must be between %d and %d", minAge, maxAge)
	}
	if !in.Year.Valid() {
		return fmt.Errorf("unknown academic year %q", in.Year)
	}
	if len(in.Bio) > maxBioLen {
		return fmt.Errorf("bio exceeds %d characters", maxBioLen)
	}
	if in.Music != nil && !in.Music.Platform.Valid() {
		return fmt.Errorf("unknown music platform %q", in.Music.Platform)
	}
	return nil
}

// GET/PUT /me/profile
func meProfileHandler(e *Engine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		me := r.Context().Value(userIDKey).(string)

		switch r.Method {
		case http.MethodGet:
			p, err := e.profiles.GetProfile(r.Context(), me)
			if err != nil {
				writeEngineError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)

		case http.MethodPut:
			var in profileInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			if err := in.validate(); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_profile")
				return
			}

			now := e.now().UTC()
			p := &Profile{
				UserID:      me,
				DisplayName: strings.TrimSpace(in.DisplayName),
				Age:         in.Age,
				Year:        in.Year,
				Major:       strings.TrimSpace(in.Major),
				Bio:         in.Bio,
				Interests:   normalizeInterests(in.Interests),
				Music:       in.Music,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			// Keep the original creation time on update.
			if existing, err := e.profiles.GetProfile(r.Context(), me); err == nil {
				p.CreatedAt = existing.CreatedAt
			}
			if err := e.profiles.PutProfile(r.Context(), p); err != nil {
				writeEngineError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

// Dispatcher for /users/{id}/profile
func usersDispatcher(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) == 3 && parts[0] == "users" && parts[2] == "profile" {
			userProfileHandler(e, parts[1]).ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	}
}

// GET /users/{id}/profile
func userProfileHandler(e *Engine, targetID string) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		p, err := e.profiles.GetProfile(r.Context(), targetID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
}
