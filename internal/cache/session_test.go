package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	songs   []*domain.Song
	start   int
	shuffle bool
	calls   int
}

func (p *fakePlayer) PlayQueue(ctx context.Context, songs []*domain.Song, start int, shuffle bool) error {
	p.songs, p.start, p.shuffle = songs, start, shuffle
	p.calls++
	return nil
}

func TestPlaylistCache_MutationsRefreshList(t *testing.T) {
	f := newFakeBackend()
	p := NewPlaylistCache(f, quietOptions())
	ctx := context.Background()

	require.NoError(t, p.EnsureFresh(ctx))
	assert.Empty(t, p.Playlists())

	created, err := p.Create(ctx, domain.PlaylistInput{Name: "Road Trip"})
	require.NoError(t, err)
	assert.Len(t, p.Playlists(), 1)

	require.NoError(t, p.AddSong(ctx, created.ID, "song-1"))
	pl, err := p.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"song-1"}, pl.SongIDs)

	_, err = p.Update(ctx, created.ID, domain.PlaylistInput{Name: "Night Drive"})
	require.NoError(t, err)
	assert.Equal(t, "Night Drive", p.Playlists()[0].Name)

	require.NoError(t, p.Delete(ctx, created.ID))
	assert.Empty(t, p.Playlists())

	_, err = p.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
}

func TestPlaylistCache_Filter(t *testing.T) {
	f := newFakeBackend()
	f.playlists = []*domain.Playlist{
		{ID: "1", Name: "Workout"},
		{ID: "2", Name: "Sunday Morning"},
		{ID: "3", Name: "Summer Nights"},
	}
	p := NewPlaylistCache(f, quietOptions())
	require.NoError(t, p.Refresh(context.Background()))

	assert.Len(t, p.Filter(""), 3)
	got := p.Filter("summ")
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
	assert.Empty(t, p.Filter("jazz"))
}

func TestPlaylistCache_Staleness(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := quietOptions()
	opts.TTL = time.Minute
	opts.Now = func() time.Time { return now }
	p := NewPlaylistCache(newFakeBackend(), opts)

	assert.True(t, p.IsStale())
	require.NoError(t, p.EnsureFresh(context.Background()))
	assert.False(t, p.IsStale())
	now = now.Add(time.Hour)
	assert.True(t, p.IsStale())
}

func TestSession_ResetEventRestoresAlbums(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5))
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return &domain.SearchResults{Albums: makeAlbums("z", 1)}, nil
	}
	s := NewSession(f, nil, quietOptions())
	ctx := context.Background()
	require.NoError(t, s.Albums.EnsureFresh(ctx))
	require.NoError(t, s.Albums.SetSort(ctx, domain.SortState{Key: domain.SortByYear, Direction: domain.SortDesc}))
	s.Albums.SearchNow(ctx, "z")

	s.HandleEvent(ctx, domain.Event{Kind: domain.EventResetAlbums})

	st := s.Albums.State()
	assert.False(t, st.Search.Active)
	assert.Equal(t, domain.DefaultSort, st.Sort)
	assert.Len(t, st.Projection, 5)
}

func TestSession_ListenDispatchesEvents(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 2))
	s := NewSession(f, nil, quietOptions())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan domain.EventKind, 1)
	go s.Listen(ctx, func(ev domain.Event) { seen <- ev.Kind })

	require.NoError(t, s.Albums.EnsureFresh(ctx))
	f.events <- domain.Event{Kind: domain.EventLibraryScanned}

	assert.Equal(t, domain.EventLibraryScanned, <-seen)
	assert.True(t, s.Albums.IsStale())
	assert.True(t, s.Songs.IsStale())
}

func TestSession_PlaySongs(t *testing.T) {
	f := newFakeBackend()
	f.details["al"] = &domain.Album{ID: "al", Songs: []*domain.Song{{ID: "1"}, {ID: "2"}}}
	player := &fakePlayer{}
	s := NewSession(f, player, quietOptions())
	ctx := context.Background()
	songs := []*domain.Song{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	require.NoError(t, s.PlaySongs(ctx, songs, 2, true))
	assert.Equal(t, 2, player.start)
	assert.True(t, player.shuffle)

	assert.ErrorIs(t, s.PlaySongs(ctx, songs, 3, false), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.PlaySongs(ctx, nil, 0, false), domain.ErrInvalidInput)

	require.NoError(t, s.PlayAlbum(ctx, "al", false))
	assert.Len(t, player.songs, 2)
	assert.ErrorIs(t, s.PlayAlbum(ctx, "missing", false), domain.ErrAlbumNotFound)

	noPlayer := NewSession(f, nil, quietOptions())
	assert.ErrorIs(t, noPlayer.PlaySongs(ctx, songs, 0, false), domain.ErrNoPlayer)
}

func TestSession_SongsDefaultToListView(t *testing.T) {
	s := NewSession(newFakeBackend(), nil, quietOptions())
	assert.Equal(t, domain.ViewGrid, s.Albums.ViewMode())
	assert.Equal(t, domain.ViewList, s.Songs.ViewMode())
}
