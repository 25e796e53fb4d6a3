package main

import (
	"context"
	"log"
	"net/http"
	"os"
)

func main() {
	var (
		profiles ProfileStore
		swipes   SwipeStore
		matches  MatchStore
	)

	if os.Getenv("DATABASE_URL") != "" {
		db := openDB()
		store := NewPostgresStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			log.Fatal("Schema migration failed:", err)
		}
		profiles, swipes, matches = store, store, store
	} else {
		// No database configured: run on the in-memory stores. Handy for
		// local frontend development, everything resets on restart.
		log.Println("DATABASE_URL not set, using in-memory stores")
		mem := NewMemoryStore()
		profiles, swipes, matches = mem, mem, mem
	}

	engine := NewEngine(profiles, swipes, matches)

	mux := http.NewServeMux()

	// Profile endpoints
	mux.Handle("/me/profile", meProfileHandler(engine))
	mux.Handle("/users/", usersDispatcher(engine))

	// Matching engine surface
	mux.Handle("/swipes", swipeHandler(engine))
	mux.Handle("/feed", feedHandler(engine))
	mux.Handle("/matches", matchesHandler(engine))
	mux.Handle("/matches/", matchesActionsRouter(engine)) // POST /matches/{id}/(unmatch|block)

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	handler := withCORS(LoaderMiddleware(profiles)(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Default().Println("Starting Matchpoint backend on port " + port + "...")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal(err)
	}
}
