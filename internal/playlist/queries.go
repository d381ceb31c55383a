package playlist

import "github.com/mmcdole/wora/internal/domain"

// Queries provides synchronous reads.
type Queries struct {
	store Store
}

// NewQueries creates a new Queries instance.
func NewQueries(store Store) *Queries {
	return &Queries{store: store}
}

func (q *Queries) List() ([]*domain.Playlist, error) {
	return q.store.Playlists()
}

// WithSongs returns the playlist with Songs resolved in playlist order.
// Songs removed from the library by a rescan are left out.
func (q *Queries) WithSongs(id string) (*domain.Playlist, error) {
	p, err := q.store.Playlist(id)
	if err != nil {
		return nil, err
	}
	songs, err := q.store.Songs(p.SongIDs)
	if err != nil {
		return nil, err
	}
	p.Songs = songs
	return p, nil
}
