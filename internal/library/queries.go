package library

import (
	"context"
	"strings"

	"github.com/mmcdole/wora/internal/domain"
)

// GetAlbums returns a 1-based page of albums in library order.
func (s *Service) GetAlbums(ctx context.Context, page int) ([]*domain.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	albums, err := s.store.AlbumsPage(page, s.pageSize)
	if err != nil {
		s.logger.Error("failed to read albums page", "error", err, "page", page)
		return nil, err
	}
	s.logger.Debug("served albums page", "page", page, "count", len(albums))
	return albums, nil
}

// GetSongs returns a 1-based page of songs in library order.
func (s *Service) GetSongs(ctx context.Context, page int) ([]*domain.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	songs, err := s.store.SongsPage(page, s.pageSize)
	if err != nil {
		s.logger.Error("failed to read songs page", "error", err, "page", page)
		return nil, err
	}
	s.logger.Debug("served songs page", "page", page, "count", len(songs))
	return songs, nil
}

func (s *Service) GetAlbumWithSongs(ctx context.Context, albumID string) (*domain.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	album, err := s.store.Album(albumID)
	if err != nil {
		return nil, err
	}
	songs, err := s.store.AlbumSongs(albumID)
	if err != nil {
		return nil, err
	}
	album.Songs = songs
	return album, nil
}

// Search ranks artists, playlists, albums and songs against query.
func (s *Service) Search(ctx context.Context, query string) (*domain.SearchResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	res := s.searcher.Search(query)
	s.logger.Debug("search complete",
		"query", query,
		"albums", len(res.Albums),
		"songs", len(res.Songs),
		"artists", len(res.Artists),
		"playlists", len(res.Playlists))
	return res, nil
}

func (s *Service) GetPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.playlists.List()
}

func (s *Service) GetPlaylistWithSongs(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.playlists.WithSongs(playlistID)
}

func (s *Service) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Settings()
}
