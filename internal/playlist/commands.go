package playlist

import (
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/mmcdole/wora/internal/domain"
)

// Commands provides playlist mutations.
type Commands struct {
	store  Store
	logger *slog.Logger
	now    func() int64
}

// NewCommands creates a new Commands instance.
func NewCommands(store Store, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{store: store, logger: logger, now: nowMillis}
}

func (c *Commands) Create(input domain.PlaylistInput) (*domain.Playlist, error) {
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	now := c.now()
	p := &domain.Playlist{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		SongIDs:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.SavePlaylist(p); err != nil {
		c.logger.Error("failed to create playlist", "error", err, "name", input.Name)
		return nil, err
	}
	c.logger.Info("created playlist", "playlistID", p.ID, "name", p.Name)
	return p, nil
}

func (c *Commands) Update(id string, input domain.PlaylistInput) (*domain.Playlist, error) {
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	return c.modify(id, func(p *domain.Playlist) error {
		p.Name = input.Name
		p.Description = input.Description
		return nil
	})
}

func (c *Commands) Delete(id string) error {
	if err := c.store.DeletePlaylist(id); err != nil {
		c.logger.Error("failed to delete playlist", "error", err, "playlistID", id)
		return err
	}
	c.logger.Info("deleted playlist", "playlistID", id)
	return nil
}

// AddSong appends a song. Adding a song already in the playlist is a no-op.
func (c *Commands) AddSong(playlistID, songID string) error {
	if _, err := c.store.Song(songID); err != nil {
		return err
	}
	_, err := c.modify(playlistID, func(p *domain.Playlist) error {
		if slices.Contains(p.SongIDs, songID) {
			return errUnchanged
		}
		p.SongIDs = append(p.SongIDs, songID)
		return nil
	})
	return err
}

// RemoveSong drops a song from the playlist; absent songs are ignored.
func (c *Commands) RemoveSong(playlistID, songID string) error {
	_, err := c.modify(playlistID, func(p *domain.Playlist) error {
		before := len(p.SongIDs)
		p.SongIDs = slices.DeleteFunc(p.SongIDs, func(id string) bool { return id == songID })
		if len(p.SongIDs) == before {
			return errUnchanged
		}
		return nil
	})
	return err
}

// modify loads, edits and saves a playlist, bumping UpdatedAt
func (c *Commands) modify(id string, edit func(*domain.Playlist) error) (*domain.Playlist, error) {
	p, err := c.store.Playlist(id)
	if err != nil {
		return nil, err
	}
	switch err := edit(p); err {
	case nil:
	case errUnchanged:
		return p, nil
	default:
		return nil, err
	}

	p.UpdatedAt = c.now()
	if err := c.store.SavePlaylist(p); err != nil {
		c.logger.Error("failed to save playlist", "error", err, "playlistID", id)
		return nil, err
	}
	c.logger.Debug("updated playlist", "playlistID", id, "songs", len(p.SongIDs))
	return p, nil
}
