package tui

import (
	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ChangeMsg carries a collection change from the session observer
type ChangeMsg struct {
	Change cache.Change
}

// EventMsg carries a backend notification after the session applied it
type EventMsg struct {
	Event domain.Event
}

// AlbumOpenedMsg signals that an album's songs have been loaded
type AlbumOpenedMsg struct {
	Album *domain.Album
}

// PlaylistOpenedMsg signals that a playlist's songs have been loaded
type PlaylistOpenedMsg struct {
	Playlist *domain.Playlist
	Songs    []*domain.Song
}

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Title   string
	Count   int
	Shuffle bool
}

// PlaylistSavedMsg signals a playlist create, rename or song change
type PlaylistSavedMsg struct {
	Playlist *domain.Playlist
	Message  string
}

// PlaylistDeletedMsg signals that a playlist was removed
type PlaylistDeletedMsg struct {
	ID   string
	Name string
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
