package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/wora/internal/domain"
)

// Collection names used in change notifications
const (
	AlbumsName    = "albums"
	SongsName     = "songs"
	PlaylistsName = "playlists"
)

// Session owns the caches for one UI session. Views receive it at
// construction and read through its collections; nothing else holds state.
type Session struct {
	Albums    *Collection[*domain.Album]
	Songs     *Collection[*domain.Song]
	Playlists *PlaylistCache

	client domain.LibraryClient
	player domain.Player
	logger *slog.Logger
}

// NewSession wires the collections to client. player may be nil when the
// session never starts playback.
func NewSession(client domain.LibraryClient, player domain.Player, opts Options) *Session {
	opts = opts.withDefaults()
	logger := opts.Logger

	albums := NewCollection[*domain.Album](AlbumsName,
		client.GetAlbums,
		func(ctx context.Context, q string) ([]*domain.Album, error) {
			res, err := client.Search(ctx, q)
			if err != nil {
				return nil, err
			}
			return res.Albums, nil
		},
		NewDurationResolver(client, logger),
		opts,
	)

	// Songs carry their own length and are listed in backend order
	songOpts := opts
	songOpts.DefaultView = domain.ViewList
	songs := NewCollection[*domain.Song](SongsName,
		client.GetSongs,
		func(ctx context.Context, q string) ([]*domain.Song, error) {
			res, err := client.Search(ctx, q)
			if err != nil {
				return nil, err
			}
			return res.Songs, nil
		},
		nil,
		songOpts,
	)

	return &Session{
		Albums:    albums,
		Songs:     songs,
		Playlists: NewPlaylistCache(client, opts),
		client:    client,
		player:    player,
		logger:    logger,
	}
}

// Subscribe registers o with every collection of the session.
func (s *Session) Subscribe(o Observer) {
	s.Albums.Subscribe(o)
	s.Songs.Subscribe(o)
	s.Playlists.Subscribe(o)
}

// Listen applies backend notifications until ctx is done or the event
// stream closes. Every event is also passed to onEvent when it is non-nil.
func (s *Session) Listen(ctx context.Context, onEvent func(domain.Event)) {
	events, unsubscribe := s.client.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, ev)
			if onEvent != nil {
				onEvent(ev)
			}
		}
	}
}

// HandleEvent applies one backend notification.
func (s *Session) HandleEvent(ctx context.Context, ev domain.Event) {
	var err error
	switch ev.Kind {
	case domain.EventResetAlbums:
		err = s.Albums.ResetState(ctx)
	case domain.EventResetSongs:
		err = s.Songs.ResetState(ctx)
	case domain.EventResetPlaylists:
		s.Playlists.Invalidate()
		err = s.Playlists.Refresh(ctx)
	case domain.EventLibraryScanned:
		s.Albums.Invalidate()
		s.Songs.Invalidate()
		s.Playlists.Invalidate()
	}
	if err != nil {
		s.logger.Error("failed to apply backend event", "error", err, "event", ev.Kind)
	}
}

// GlobalSearch queries every entity type at once.
func (s *Session) GlobalSearch(ctx context.Context, query string) (*domain.SearchResults, error) {
	res, err := s.client.Search(ctx, query)
	if err != nil {
		s.logger.Error("global search failed", "error", err, "query", query)
		return nil, err
	}
	return res, nil
}

// Settings returns the user preferences.
func (s *Session) Settings(ctx context.Context) (*domain.Settings, error) {
	return s.client.GetSettings(ctx)
}

// UpdateSettings stores user preferences.
func (s *Session) UpdateSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error) {
	return s.client.UpdateSettings(ctx, update)
}

// AlbumWithSongs returns an album and its songs.
func (s *Session) AlbumWithSongs(ctx context.Context, id string) (*domain.Album, error) {
	return s.client.GetAlbumWithSongs(ctx, id)
}

// PlaySongs plays songs starting at start.
func (s *Session) PlaySongs(ctx context.Context, songs []*domain.Song, start int, shuffle bool) error {
	if s.player == nil {
		return domain.ErrNoPlayer
	}
	if len(songs) == 0 {
		return fmt.Errorf("%w: nothing to play", domain.ErrInvalidInput)
	}
	if start < 0 || start >= len(songs) {
		return fmt.Errorf("%w: start index %d out of range", domain.ErrInvalidInput, start)
	}
	return s.player.PlayQueue(ctx, songs, start, shuffle)
}

// PlayAlbum loads an album's songs and plays them in track order.
func (s *Session) PlayAlbum(ctx context.Context, id string, shuffle bool) error {
	album, err := s.AlbumWithSongs(ctx, id)
	if err != nil {
		return err
	}
	return s.PlaySongs(ctx, album.Songs, 0, shuffle)
}

// PlayPlaylist plays a playlist from the beginning.
func (s *Session) PlayPlaylist(ctx context.Context, id string, shuffle bool) error {
	pl, err := s.Playlists.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.PlaySongs(ctx, pl.Songs, 0, shuffle)
}
