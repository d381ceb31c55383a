package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/wora/internal/domain"
)

// Resolver fills in runtimes the backend did not precompute.
type Resolver[T domain.Record] interface {
	// Duration returns the effective runtime and whether it is known
	Duration(item T) (time.Duration, bool)
	// Resolve looks up every unknown runtime in items, blocking until done
	Resolve(ctx context.Context, items []T)
	// Forget drops everything learned so far
	Forget()
}

// AlbumDetailer fetches an album with its songs.
type AlbumDetailer interface {
	GetAlbumWithSongs(ctx context.Context, albumID string) (*domain.Album, error)
}

// DurationResolver derives album runtimes by summing song lengths.
// Results are memoized per album id; failed lookups are retried next time.
type DurationResolver struct {
	client AlbumDetailer
	logger *slog.Logger

	mu    sync.RWMutex
	known map[string]time.Duration
}

// NewDurationResolver creates a resolver backed by client.
func NewDurationResolver(client AlbumDetailer, logger *slog.Logger) *DurationResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DurationResolver{client: client, logger: logger, known: make(map[string]time.Duration)}
}

func (r *DurationResolver) Duration(a *domain.Album) (time.Duration, bool) {
	if a.Duration > 0 {
		return a.Duration, true
	}
	r.mu.RLock()
	d, ok := r.known[a.ID]
	r.mu.RUnlock()
	return d, ok && d > 0
}

func (r *DurationResolver) Resolve(ctx context.Context, albums []*domain.Album) {
	var resolved, failed int
	for _, a := range albums {
		if ctx.Err() != nil {
			break
		}
		if a.Duration > 0 || r.cached(a.ID) {
			continue
		}
		full, err := r.client.GetAlbumWithSongs(ctx, a.ID)
		if err != nil {
			failed++
			r.logger.Warn("failed to resolve album duration", "error", err, "albumID", a.ID)
			continue
		}
		d, _ := full.SongsDuration()
		r.mu.Lock()
		r.known[a.ID] = d
		r.mu.Unlock()
		resolved++
	}
	if resolved > 0 || failed > 0 {
		r.logger.Debug("resolved album durations", "resolved", resolved, "failed", failed)
	}
}

func (r *DurationResolver) Forget() {
	r.mu.Lock()
	r.known = make(map[string]time.Duration)
	r.mu.Unlock()
}

func (r *DurationResolver) cached(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[id]
	return ok
}
