package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmcdole/wora/internal/domain"
)

// fakeBackend is an in-memory domain.LibraryClient with hooks for
// blocking and failing individual calls.
type fakeBackend struct {
	mu          sync.Mutex
	albumPages  [][]*domain.Album
	songPages   [][]*domain.Song
	details     map[string]*domain.Album
	playlists   []*domain.Playlist
	pageCalls   []int
	searchCalls []string
	detailCalls map[string]int

	// pageHook runs before a page is returned; it may block or fail
	pageHook func(ctx context.Context, page int) error
	// searchFn replaces the default empty search
	searchFn func(ctx context.Context, query string) (*domain.SearchResults, error)

	events chan domain.Event
}

func newFakeBackend(pages ...[]*domain.Album) *fakeBackend {
	return &fakeBackend{
		albumPages:  pages,
		details:     make(map[string]*domain.Album),
		detailCalls: make(map[string]int),
		events:      make(chan domain.Event, 8),
	}
}

func (f *fakeBackend) GetAlbums(ctx context.Context, page int) ([]*domain.Album, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, page)
	hook := f.pageHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, page); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if page < 1 || page > len(f.albumPages) {
		return nil, nil
	}
	return slices.Clone(f.albumPages[page-1]), nil
}

func (f *fakeBackend) GetAlbumWithSongs(ctx context.Context, id string) (*domain.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[id]++
	a, ok := f.details[id]
	if !ok {
		return nil, domain.ErrAlbumNotFound
	}
	return a, nil
}

func (f *fakeBackend) GetSongs(ctx context.Context, page int) ([]*domain.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page < 1 || page > len(f.songPages) {
		return nil, nil
	}
	return slices.Clone(f.songPages[page-1]), nil
}

func (f *fakeBackend) Search(ctx context.Context, query string) (*domain.SearchResults, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	fn := f.searchFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, query)
	}
	return &domain.SearchResults{}, nil
}

func (f *fakeBackend) GetPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.playlists), nil
}

func (f *fakeBackend) GetPlaylistWithSongs(ctx context.Context, id string) (*domain.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.playlists {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrPlaylistNotFound
}

func (f *fakeBackend) CreatePlaylist(ctx context.Context, input domain.PlaylistInput) (*domain.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &domain.Playlist{ID: fmt.Sprintf("pl-%d", len(f.playlists)+1), Name: input.Name, Description: input.Description}
	f.playlists = append(f.playlists, p)
	return p, nil
}

func (f *fakeBackend) UpdatePlaylist(ctx context.Context, id string, input domain.PlaylistInput) (*domain.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.playlists {
		if p.ID == id {
			updated := *p
			updated.Name = input.Name
			updated.Description = input.Description
			f.playlists[i] = &updated
			return &updated, nil
		}
	}
	return nil, domain.ErrPlaylistNotFound
}

func (f *fakeBackend) DeletePlaylist(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.playlists {
		if p.ID == id {
			f.playlists = slices.Delete(f.playlists, i, i+1)
			return nil
		}
	}
	return domain.ErrPlaylistNotFound
}

func (f *fakeBackend) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.playlists {
		if p.ID == playlistID {
			updated := *p
			updated.SongIDs = append(slices.Clone(p.SongIDs), songID)
			updated.Songs = append(slices.Clone(p.Songs), &domain.Song{ID: songID, Name: songID})
			f.playlists[i] = &updated
			return nil
		}
	}
	return domain.ErrPlaylistNotFound
}

func (f *fakeBackend) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID string) error {
	return nil
}

func (f *fakeBackend) GetSettings(ctx context.Context) (*domain.Settings, error) {
	return &domain.Settings{Language: "en"}, nil
}

func (f *fakeBackend) UpdateSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error) {
	return &domain.Settings{Name: update.Name, Language: update.Language}, nil
}

func (f *fakeBackend) Subscribe() (<-chan domain.Event, func()) {
	return f.events, func() {}
}

func (f *fakeBackend) pagesFetched() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.pageCalls)
}

func (f *fakeBackend) searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.searchCalls)
}

// makeAlbums builds n albums with ids prefix-000.. and distinct names.
func makeAlbums(prefix string, n int) []*domain.Album {
	out := make([]*domain.Album, n)
	for i := range out {
		out[i] = &domain.Album{
			ID:       fmt.Sprintf("%s-%03d", prefix, i),
			Name:     fmt.Sprintf("%s album %03d", prefix, i),
			Artist:   fmt.Sprintf("artist %02d", i%7),
			Year:     1960 + i%40,
			Duration: time.Duration(30+i) * time.Minute,
		}
	}
	return out
}

func ids[T domain.Record](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.GetID()
	}
	return out
}

func quietOptions() Options {
	return Options{
		Debounce: 5 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newAlbums(f *fakeBackend, opts Options) *Collection[*domain.Album] {
	return NewCollection[*domain.Album]("albums",
		f.GetAlbums,
		func(ctx context.Context, q string) ([]*domain.Album, error) {
			res, err := f.Search(ctx, q)
			if err != nil {
				return nil, err
			}
			return res.Albums, nil
		},
		NewDurationResolver(f, opts.Logger),
		opts,
	)
}

// recorder collects change notifications.
type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) OnChange(c Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) kinds() []ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChangeKind, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Kind
	}
	return out
}
