package main

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// LoaderContextKey is the key used to store loaders in request context
type LoaderContextKey string

const loaderKey LoaderContextKey = "loaders"

// Loaders holds the per-request batch loaders. Handlers that hydrate many
// profiles in one request (the match list, typically) go through these so N
// lookups coalesce into one store read.
type Loaders struct {
	Profile *dataloader.Loader[string, *Profile]
}

// NewLoaders creates loaders backed by the given profile store.
func NewLoaders(profiles ProfileStore) *Loaders {
	return &Loaders{
		Profile: dataloader.NewBatchedLoader(profileBatchFn(profiles),
			dataloader.WithWait[string, *Profile](16*time.Millisecond)),
	}
}

// GetLoadersFromContext retrieves loaders from context, nil when the request
// did not pass through LoaderMiddleware.
func GetLoadersFromContext(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(loaderKey).(*Loaders); ok {
		return l
	}
	return nil
}

// WithLoaders adds loaders to context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loaderKey, l)
}

// LoaderMiddleware injects fresh loaders into every request so batching and
// caching never leak across requests.
func LoaderMiddleware(profiles ProfileStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(profiles))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func profileBatchFn(profiles ProfileStore) dataloader.BatchFunc[string, *Profile] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*Profile] {
		results := make([]*dataloader.Result[*Profile], len(keys))

		loaded, err := profiles.GetProfiles(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*Profile]{Error: err}
			}
			return results
		}

		for i, key := range keys {
			if p, ok := loaded[key]; ok {
				results[i] = &dataloader.Result[*Profile]{Data: p}
			} else {
				results[i] = &dataloader.Result[*Profile]{Error: ErrProfileNotFound}
			}
		}
		return results
	}
}
