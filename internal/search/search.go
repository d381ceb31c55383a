// Package search ranks library records against free-text queries.
package search

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/wora/internal/domain"
)

// DefaultLimit caps the matches returned per entity type
const DefaultLimit = 20

// Index implements sahilm/fuzzy.Source over a fixed slice of items
type Index[T any] struct {
	items []T
	keys  []string // Pre-computed lowercase search keys
}

// NewIndex builds an index whose search key for each item is key(item).
func NewIndex[T any](items []T, key func(T) string) *Index[T] {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = strings.ToLower(key(item))
	}
	return &Index[T]{items: items, keys: keys}
}

// String returns the lowercase key at index i (implements fuzzy.Source)
func (idx *Index[T]) String(i int) string { return idx.keys[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *Index[T]) Len() int { return len(idx.items) }

// Find returns up to limit items ranked best first. An empty query matches nothing.
func (idx *Index[T]) Find(query string, limit int) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = idx.items[m.Index]
	}
	return out
}

// Searcher holds one index per entity type and is rebuilt after imports.
type Searcher struct {
	mu        sync.RWMutex
	limit     int
	albums    *Index[*domain.Album]
	songs     *Index[*domain.Song]
	artists   *Index[*domain.Artist]
	playlists *Index[*domain.Playlist]
}

func NewSearcher(limit int) *Searcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Searcher{limit: limit}
	s.RebuildLibrary(nil, nil)
	s.RebuildPlaylists(nil)
	return s
}

// RebuildLibrary replaces the album, song and artist indexes.
func (s *Searcher) RebuildLibrary(albums []*domain.Album, songs []*domain.Song) {
	albumIdx := NewIndex(albums, func(a *domain.Album) string { return a.Name + " " + a.Artist })
	songIdx := NewIndex(songs, func(x *domain.Song) string { return x.Name + " " + x.Artist })
	artistIdx := NewIndex(Artists(albums), func(a *domain.Artist) string { return a.Name })

	s.mu.Lock()
	s.albums, s.songs, s.artists = albumIdx, songIdx, artistIdx
	s.mu.Unlock()
}

// RebuildPlaylists replaces the playlist index.
func (s *Searcher) RebuildPlaylists(playlists []*domain.Playlist) {
	idx := NewIndex(playlists, func(p *domain.Playlist) string { return p.Name })

	s.mu.Lock()
	s.playlists = idx
	s.mu.Unlock()
}

// Search ranks every entity type against query.
func (s *Searcher) Search(query string) *domain.SearchResults {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &domain.SearchResults{
		Artists:   s.artists.Find(query, s.limit),
		Playlists: s.playlists.Find(query, s.limit),
		Albums:    s.albums.Find(query, s.limit),
		Songs:     s.songs.Find(query, s.limit),
	}
}

// Artists derives the artist list from album metadata, ordered by name.
func Artists(albums []*domain.Album) []*domain.Artist {
	byName := make(map[string]*domain.Artist)
	for _, a := range albums {
		if a.Artist == "" {
			continue
		}
		artist, ok := byName[a.Artist]
		if !ok {
			artist = &domain.Artist{Name: a.Artist}
			byName[a.Artist] = artist
		}
		artist.AlbumCount++
	}

	out := make([]*domain.Artist, 0, len(byName))
	for _, a := range byName {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y *domain.Artist) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name)),
			strings.Compare(x.Name, y.Name),
		)
	})
	return out
}
