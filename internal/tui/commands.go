package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
)

// Command factories for async operations. Collections report their own
// progress through ChangeMsg, so most commands only surface errors.

const actionTimeout = 30 * time.Second

// listenCmd applies backend events to the session until ctx is done
func listenCmd(ctx context.Context, s *cache.Session, events chan<- domain.Event) tea.Cmd {
	return func() tea.Msg {
		s.Listen(ctx, forwardEvent(events))
		return nil
	}
}

// EnsureAlbumsCmd loads the first album page if the cache is stale
func EnsureAlbumsCmd(ctx context.Context, s *cache.Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.Albums.EnsureFresh(ctx); err != nil {
			return ErrMsg{Err: err, Context: "loading albums"}
		}
		return nil
	}
}

// EnsureSongsCmd loads the first song page if the cache is stale
func EnsureSongsCmd(ctx context.Context, s *cache.Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.Songs.EnsureFresh(ctx); err != nil {
			return ErrMsg{Err: err, Context: "loading songs"}
		}
		return nil
	}
}

// EnsurePlaylistsCmd loads playlists if the cache is stale
func EnsurePlaylistsCmd(ctx context.Context, s *cache.Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.Playlists.EnsureFresh(ctx); err != nil {
			return ErrMsg{Err: err, Context: "loading playlists"}
		}
		return nil
	}
}

// pager is the part of a collection the scroll and refresh commands use
type pager interface {
	Name() string
	Sort() domain.SortState
	OnItemsRendered(ctx context.Context, visibleStop int) (bool, error)
	Reset(ctx context.Context) error
	SetSort(ctx context.Context, s domain.SortState) error
}

// ItemsRenderedCmd passes the scroll hint to a collection
func ItemsRenderedCmd(ctx context.Context, c pager, visibleStop int) tea.Cmd {
	return func() tea.Msg {
		if _, err := c.OnItemsRendered(ctx, visibleStop); err != nil {
			return ErrMsg{Err: err, Context: "loading more " + c.Name()}
		}
		return nil
	}
}

// ResetCmd clears a collection and reloads its first page
func ResetCmd(ctx context.Context, c pager) tea.Cmd {
	return func() tea.Msg {
		if err := c.Reset(ctx); err != nil {
			return ErrMsg{Err: err, Context: "refreshing " + c.Name()}
		}
		return StatusMsg{Message: "Refreshed " + c.Name()}
	}
}

// SetSortCmd applies a sort; it may backfill every remaining page
func SetSortCmd(ctx context.Context, c pager, s domain.SortState) tea.Cmd {
	return func() tea.Msg {
		if err := c.SetSort(ctx, s); err != nil {
			return ErrMsg{Err: err, Context: "sorting " + c.Name()}
		}
		return StatusMsg{Message: "Sorted by " + s.String()}
	}
}

// RefreshPlaylistsCmd reloads the playlist list
func RefreshPlaylistsCmd(ctx context.Context, s *cache.Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.Playlists.Refresh(ctx); err != nil {
			return ErrMsg{Err: err, Context: "refreshing playlists"}
		}
		return StatusMsg{Message: "Refreshed playlists"}
	}
}

// OpenAlbumCmd loads an album with its songs
func OpenAlbumCmd(ctx context.Context, s *cache.Session, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		album, err := s.AlbumWithSongs(ctx, id)
		if err != nil {
			return ErrMsg{Err: err, Context: "opening album"}
		}
		return AlbumOpenedMsg{Album: album}
	}
}

// OpenPlaylistCmd loads a playlist with its songs
func OpenPlaylistCmd(ctx context.Context, s *cache.Session, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		pl, err := s.Playlists.Get(ctx, id)
		if err != nil {
			return ErrMsg{Err: err, Context: "opening playlist"}
		}
		return PlaylistOpenedMsg{Playlist: pl, Songs: pl.Songs}
	}
}

// PlaySongsCmd launches the player on songs starting at start
func PlaySongsCmd(ctx context.Context, s *cache.Session, title string, songs []*domain.Song, start int, shuffle bool) tea.Cmd {
	return func() tea.Msg {
		if err := s.PlaySongs(ctx, songs, start, shuffle); err != nil {
			return ErrMsg{Err: err, Context: "playing " + title}
		}
		return PlaybackStartedMsg{Title: title, Count: len(songs) - start, Shuffle: shuffle}
	}
}

// PlayAlbumCmd plays a whole album
func PlayAlbumCmd(ctx context.Context, s *cache.Session, album *domain.Album, shuffle bool) tea.Cmd {
	return func() tea.Msg {
		if err := s.PlayAlbum(ctx, album.ID, shuffle); err != nil {
			return ErrMsg{Err: err, Context: "playing " + album.Name}
		}
		return PlaybackStartedMsg{Title: album.Name, Shuffle: shuffle}
	}
}

// PlayPlaylistCmd plays a whole playlist
func PlayPlaylistCmd(ctx context.Context, s *cache.Session, pl *domain.Playlist, shuffle bool) tea.Cmd {
	return func() tea.Msg {
		if err := s.PlayPlaylist(ctx, pl.ID, shuffle); err != nil {
			return ErrMsg{Err: err, Context: "playing " + pl.Name}
		}
		return PlaybackStartedMsg{Title: pl.Name, Count: pl.SongCount(), Shuffle: shuffle}
	}
}

// CreatePlaylistCmd creates a new playlist
func CreatePlaylistCmd(ctx context.Context, s *cache.Session, name string) tea.Cmd {
	return func() tea.Msg {
		pl, err := s.Playlists.Create(ctx, domain.PlaylistInput{Name: name})
		if err != nil {
			return ErrMsg{Err: err, Context: "creating playlist"}
		}
		return PlaylistSavedMsg{Playlist: pl, Message: fmt.Sprintf("Created %q", pl.Name)}
	}
}

// RenamePlaylistCmd renames a playlist, keeping its description
func RenamePlaylistCmd(ctx context.Context, s *cache.Session, pl *domain.Playlist, name string) tea.Cmd {
	return func() tea.Msg {
		updated, err := s.Playlists.Update(ctx, pl.ID, domain.PlaylistInput{Name: name, Description: pl.Description})
		if err != nil {
			return ErrMsg{Err: err, Context: "renaming playlist"}
		}
		return PlaylistSavedMsg{Playlist: updated, Message: fmt.Sprintf("Renamed to %q", updated.Name)}
	}
}

// DeletePlaylistCmd deletes a playlist
func DeletePlaylistCmd(ctx context.Context, s *cache.Session, pl *domain.Playlist) tea.Cmd {
	return func() tea.Msg {
		if err := s.Playlists.Delete(ctx, pl.ID); err != nil {
			return ErrMsg{Err: err, Context: "deleting playlist"}
		}
		return PlaylistDeletedMsg{ID: pl.ID, Name: pl.Name}
	}
}

// AddToPlaylistCmd appends a song to a playlist
func AddToPlaylistCmd(ctx context.Context, s *cache.Session, pl *domain.Playlist, song *domain.Song) tea.Cmd {
	return func() tea.Msg {
		if err := s.Playlists.AddSong(ctx, pl.ID, song.ID); err != nil {
			return ErrMsg{Err: err, Context: "adding to playlist"}
		}
		return PlaylistSavedMsg{Playlist: pl, Message: fmt.Sprintf("Added %q to %q", song.Name, pl.Name)}
	}
}

// RemoveFromPlaylistCmd drops a song from a playlist and reopens it
func RemoveFromPlaylistCmd(ctx context.Context, s *cache.Session, pl *domain.Playlist, song *domain.Song) tea.Cmd {
	return func() tea.Msg {
		if err := s.Playlists.RemoveSong(ctx, pl.ID, song.ID); err != nil {
			return ErrMsg{Err: err, Context: "removing from playlist"}
		}
		fresh, err := s.Playlists.Get(ctx, pl.ID)
		if err != nil {
			return ErrMsg{Err: err, Context: "reloading playlist"}
		}
		return PlaylistOpenedMsg{Playlist: fresh, Songs: fresh.Songs}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
