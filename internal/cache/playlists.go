package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/wora/internal/domain"
)

// PlaylistCache holds the playlist list and any opened playlist details.
// Playlists are few, so there is no paging or sort machinery: every
// mutation goes to the backend and then reloads the list.
type PlaylistCache struct {
	client domain.PlaylistClient
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu           sync.RWMutex
	playlists    []*domain.Playlist
	details      map[string]*domain.Playlist
	initialized  bool
	invalidated  bool
	lastLoadedAt time.Time
	observers    []Observer
}

// NewPlaylistCache creates an empty playlist cache.
func NewPlaylistCache(client domain.PlaylistClient, opts Options) *PlaylistCache {
	opts = opts.withDefaults()
	return &PlaylistCache{
		client:  client,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  opts.Logger.With("collection", PlaylistsName),
		details: make(map[string]*domain.Playlist),
	}
}

// Subscribe registers an observer for change notifications.
func (p *PlaylistCache) Subscribe(o Observer) {
	p.mu.Lock()
	p.observers = append(p.observers, o)
	p.mu.Unlock()
}

func (p *PlaylistCache) notify(kind ChangeKind, err error) {
	p.mu.RLock()
	observers := slices.Clone(p.observers)
	p.mu.RUnlock()
	for _, o := range observers {
		o.OnChange(Change{Collection: PlaylistsName, Kind: kind, Err: err})
	}
}

// Playlists returns the cached list.
func (p *PlaylistCache) Playlists() []*domain.Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.playlists)
}

// IsStale reports whether the list must be reloaded before use.
func (p *PlaylistCache) IsStale() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized || p.invalidated {
		return true
	}
	return p.ttl > 0 && p.now().Sub(p.lastLoadedAt) > p.ttl
}

// Invalidate drops the list and every opened detail.
func (p *PlaylistCache) Invalidate() {
	p.mu.Lock()
	p.invalidated = true
	p.details = make(map[string]*domain.Playlist)
	p.mu.Unlock()
}

// EnsureFresh reloads the list if it is stale.
func (p *PlaylistCache) EnsureFresh(ctx context.Context) error {
	if !p.IsStale() {
		return nil
	}
	return p.Refresh(ctx)
}

// Refresh reloads the list from the backend.
func (p *PlaylistCache) Refresh(ctx context.Context) error {
	playlists, err := p.client.GetPlaylists(ctx)
	if err != nil {
		p.logger.Error("failed to load playlists", "error", err)
		err = fmt.Errorf("load playlists: %w", err)
		p.notify(ChangeLoading, err)
		return err
	}
	p.mu.Lock()
	p.playlists = playlists
	p.initialized = true
	p.invalidated = false
	p.lastLoadedAt = p.now()
	p.mu.Unlock()
	p.logger.Debug("loaded playlists", "count", len(playlists))
	p.notify(ChangeProjection, nil)
	return nil
}

// Get returns a playlist with its songs, fetching it on first access.
func (p *PlaylistCache) Get(ctx context.Context, id string) (*domain.Playlist, error) {
	p.mu.RLock()
	cached, ok := p.details[id]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}
	pl, err := p.client.GetPlaylistWithSongs(ctx, id)
	if err != nil {
		p.logger.Error("failed to load playlist", "error", err, "playlistID", id)
		return nil, err
	}
	p.mu.Lock()
	p.details[id] = pl
	p.mu.Unlock()
	return pl, nil
}

// Filter fuzzy-matches playlist names against query, best match first.
// An empty query returns the whole list.
func (p *PlaylistCache) Filter(query string) []*domain.Playlist {
	all := p.Playlists()
	if query == "" {
		return all
	}
	names := make([]string, len(all))
	for i, pl := range all {
		names[i] = pl.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)
	out := make([]*domain.Playlist, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, all[r.OriginalIndex])
	}
	return out
}

// Create adds a playlist and reloads the list.
func (p *PlaylistCache) Create(ctx context.Context, input domain.PlaylistInput) (*domain.Playlist, error) {
	pl, err := p.client.CreatePlaylist(ctx, input)
	if err != nil {
		return nil, err
	}
	return pl, p.afterMutation(ctx, pl.ID)
}

// Update renames or re-describes a playlist and reloads the list.
func (p *PlaylistCache) Update(ctx context.Context, id string, input domain.PlaylistInput) (*domain.Playlist, error) {
	pl, err := p.client.UpdatePlaylist(ctx, id, input)
	if err != nil {
		return nil, err
	}
	return pl, p.afterMutation(ctx, id)
}

// Delete removes a playlist and reloads the list.
func (p *PlaylistCache) Delete(ctx context.Context, id string) error {
	if err := p.client.DeletePlaylist(ctx, id); err != nil {
		return err
	}
	return p.afterMutation(ctx, id)
}

// AddSong appends a song to a playlist.
func (p *PlaylistCache) AddSong(ctx context.Context, playlistID, songID string) error {
	if err := p.client.AddSongToPlaylist(ctx, playlistID, songID); err != nil {
		return err
	}
	return p.afterMutation(ctx, playlistID)
}

// RemoveSong drops a song from a playlist.
func (p *PlaylistCache) RemoveSong(ctx context.Context, playlistID, songID string) error {
	if err := p.client.RemoveSongFromPlaylist(ctx, playlistID, songID); err != nil {
		return err
	}
	return p.afterMutation(ctx, playlistID)
}

func (p *PlaylistCache) afterMutation(ctx context.Context, id string) error {
	p.mu.Lock()
	delete(p.details, id)
	p.mu.Unlock()
	return p.Refresh(ctx)
}
