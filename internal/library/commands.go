package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/wora/internal/domain"
)

func (s *Service) CreatePlaylist(ctx context.Context, input domain.PlaylistInput) (*domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.playlists.Create(input)
	if err != nil {
		return nil, err
	}
	s.playlistsChanged()
	return p, nil
}

func (s *Service) UpdatePlaylist(ctx context.Context, playlistID string, input domain.PlaylistInput) (*domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.playlists.Update(playlistID, input)
	if err != nil {
		return nil, err
	}
	s.playlistsChanged()
	return p, nil
}

func (s *Service) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.playlists.Delete(playlistID); err != nil {
		return err
	}
	s.playlistsChanged()
	return nil
}

func (s *Service) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.playlists.AddSong(playlistID, songID); err != nil {
		return err
	}
	s.playlistsChanged()
	return nil
}

func (s *Service) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.playlists.RemoveSong(playlistID, songID); err != nil {
		return err
	}
	s.playlistsChanged()
	return nil
}

// playlistsChanged refreshes the playlist search index and tells listeners
func (s *Service) playlistsChanged() {
	if err := s.reindexPlaylists(); err != nil {
		s.logger.Error("failed to index playlists", "error", err)
	}
	s.hub.Publish(domain.Event{Kind: domain.EventResetPlaylists})
}

// UpdateSettings applies the non-empty fields of update. A language change
// publishes language-changed in addition to settings-updated.
func (s *Service) UpdateSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	update.Name = strings.TrimSpace(update.Name)
	update.Language = strings.ToLower(strings.TrimSpace(update.Language))
	if err := validateStruct(update); err != nil {
		return nil, err
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	current, err := s.store.Settings()
	if err != nil {
		return nil, err
	}
	next := *current
	if update.Name != "" {
		next.Name = update.Name
	}
	if update.Language != "" {
		next.Language = update.Language
	}
	if next == *current {
		return &next, nil
	}

	if err := s.store.SaveSettings(&next); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		return nil, err
	}
	s.logger.Info("settings updated", "language", next.Language)

	s.hub.Publish(domain.Event{Kind: domain.EventSettingsUpdated})
	if next.Language != current.Language {
		s.hub.Publish(domain.Event{Kind: domain.EventLanguageChanged, Language: next.Language})
	}
	return &next, nil
}

// ScanLibrary imports dir, replacing the library, and tells listeners to
// reset their album and song views.
func (s *Service) ScanLibrary(ctx context.Context, dir string, progress domain.ProgressFunc) (*domain.ScanResult, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	start := time.Now()
	lib, err := s.scanner.Scan(ctx, dir, progress)
	if err != nil {
		s.logger.Error("library scan failed", "error", err, "root", dir)
		return nil, err
	}
	if err := s.store.ReplaceLibrary(lib.Albums, lib.Songs); err != nil {
		s.logger.Error("failed to store library", "error", err, "root", dir)
		return nil, fmt.Errorf("import %s: %w", dir, err)
	}
	s.searcher.RebuildLibrary(lib.Albums, lib.Songs)

	result := &domain.ScanResult{
		Root:    dir,
		Albums:  len(lib.Albums),
		Songs:   len(lib.Songs),
		Skipped: lib.Skipped,
	}
	s.logger.Info("library imported",
		"root", dir,
		"albums", result.Albums,
		"songs", result.Songs,
		"elapsed", time.Since(start))

	s.hub.Publish(domain.Event{Kind: domain.EventResetAlbums})
	s.hub.Publish(domain.Event{Kind: domain.EventResetSongs})
	s.hub.Publish(domain.Event{Kind: domain.EventLibraryScanned, Scan: result})
	return result, nil
}
