package domain

import "context"

// AlbumClient provides paged access to albums.
// Pages are 1-based; an empty page means the collection is exhausted.
type AlbumClient interface {
	GetAlbums(ctx context.Context, page int) ([]*Album, error)
	GetAlbumWithSongs(ctx context.Context, albumID string) (*Album, error)
}

// SongClient provides paged access to songs.
type SongClient interface {
	GetSongs(ctx context.Context, page int) ([]*Song, error)
}

// SearchClient runs a free-text search across every entity type.
type SearchClient interface {
	Search(ctx context.Context, query string) (*SearchResults, error)
}

// PlaylistClient provides playlist CRUD.
type PlaylistClient interface {
	GetPlaylists(ctx context.Context) ([]*Playlist, error)
	GetPlaylistWithSongs(ctx context.Context, playlistID string) (*Playlist, error)
	CreatePlaylist(ctx context.Context, input PlaylistInput) (*Playlist, error)
	UpdatePlaylist(ctx context.Context, playlistID string, input PlaylistInput) (*Playlist, error)
	DeletePlaylist(ctx context.Context, playlistID string) error
	AddSongToPlaylist(ctx context.Context, playlistID, songID string) error
	RemoveSongFromPlaylist(ctx context.Context, playlistID, songID string) error
}

// SettingsClient reads and writes user preferences.
type SettingsClient interface {
	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, update SettingsUpdate) (*Settings, error)
}

// EventSource delivers fire-and-forget notifications from the backend.
// The returned func unsubscribes and closes the channel.
type EventSource interface {
	Subscribe() (<-chan Event, func())
}

// LibraryClient is the full backend boundary consumed by the UI session.
type LibraryClient interface {
	AlbumClient
	SongClient
	SearchClient
	PlaylistClient
	SettingsClient
	EventSource
}

// Player plays an ordered list of songs starting at an index.
type Player interface {
	PlayQueue(ctx context.Context, songs []*Song, start int, shuffle bool) error
}
