package domain

import (
	"fmt"
	"time"
)

// Record is the common surface of browsable library entities.
// Coordinated collections dedupe, search and sort through it.
type Record interface {
	// GetID returns the backend identifier, unique within one collection
	GetID() string

	// GetName returns the primary display label
	GetName() string

	// GetArtist returns the secondary label (empty if unknown)
	GetArtist() string

	// GetYear returns the release year (0 if unknown)
	GetYear() int

	// GetDuration returns the precomputed runtime (0 if unknown)
	GetDuration() time.Duration
}

// Album is a release grouping songs under one artist.
type Album struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Artist   string        `json:"artist"`
	Year     int           `json:"year,omitempty"`
	Genre    string        `json:"genre,omitempty"`
	Duration time.Duration `json:"duration,omitempty"` // 0 when any song length is unknown
	CoverArt string        `json:"coverArt,omitempty"` // path to embedded/adjacent cover, if any
	AddedAt  int64         `json:"addedAt,omitempty"`

	// Songs is only populated by GetAlbumWithSongs
	Songs []*Song `json:"songs,omitempty"`
}

func (a *Album) GetID() string              { return a.ID }
func (a *Album) GetName() string            { return a.Name }
func (a *Album) GetArtist() string          { return a.Artist }
func (a *Album) GetYear() int               { return a.Year }
func (a *Album) GetDuration() time.Duration { return a.Duration }

// SongsDuration sums the lengths of the loaded songs. The second return
// is false when no song contributed a length.
func (a *Album) SongsDuration() (time.Duration, bool) {
	var total time.Duration
	for _, s := range a.Songs {
		total += s.Duration
	}
	return total, total > 0
}

// Song is a single playable track.
type Song struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Artist   string        `json:"artist"`
	AlbumID  string        `json:"albumId"`
	Album    string        `json:"album"`
	Year     int           `json:"year,omitempty"`
	Track    int           `json:"track,omitempty"`
	Disc     int           `json:"disc,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Path     string        `json:"path"`
}

func (s *Song) GetID() string              { return s.ID }
func (s *Song) GetName() string            { return s.Name }
func (s *Song) GetArtist() string          { return s.Artist }
func (s *Song) GetYear() int               { return s.Year }
func (s *Song) GetDuration() time.Duration { return s.Duration }

// Artist is derived from album metadata.
type Artist struct {
	Name       string `json:"name"`
	AlbumCount int    `json:"albumCount"`
}

// Playlist is a user-curated ordered list of songs.
type Playlist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	SongIDs     []string `json:"songIds"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`

	// Songs is only populated by GetPlaylistWithSongs
	Songs []*Song `json:"-"`
}

// SongCount returns the number of entries in the playlist.
func (p *Playlist) SongCount() int { return len(p.SongIDs) }

// PlaylistInput carries user-provided playlist fields for create/update.
type PlaylistInput struct {
	Name        string `validate:"required,min=2,max=100"`
	Description string `validate:"max=500"`
}

// Settings are user preferences persisted by the backend.
type Settings struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// SettingsUpdate carries the fields a user may change. Empty fields are left as-is.
type SettingsUpdate struct {
	Name     string `validate:"omitempty,min=1,max=64"`
	Language string `validate:"omitempty,oneof=en es"`
}

// SearchResults groups backend matches by entity type.
type SearchResults struct {
	Artists   []*Artist   `json:"artists"`
	Playlists []*Playlist `json:"playlists"`
	Albums    []*Album    `json:"albums"`
	Songs     []*Song     `json:"songs"`
}

// Empty reports whether no type produced a match.
func (r *SearchResults) Empty() bool {
	return r == nil || len(r.Artists)+len(r.Playlists)+len(r.Albums)+len(r.Songs) == 0
}

// FormatDuration renders a runtime as "1h 02m" or "4:05"; unknown is "--".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
