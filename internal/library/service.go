// Package library is the local backend: paged library reads, search,
// playlists, settings and imports over the bbolt store.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/playlist"
	"github.com/mmcdole/wora/internal/scan"
	"github.com/mmcdole/wora/internal/search"
)

const DefaultPageSize = 50

// Store is the persistence the library service needs.
type Store interface {
	playlist.Store

	ReplaceLibrary(albums []*domain.Album, songs []*domain.Song) error
	AlbumsPage(page, size int) ([]*domain.Album, error)
	SongsPage(page, size int) ([]*domain.Song, error)
	AllAlbums() ([]*domain.Album, error)
	AllSongs() ([]*domain.Song, error)
	Album(id string) (*domain.Album, error)
	AlbumSongs(albumID string) ([]*domain.Song, error)
	Settings() (*domain.Settings, error)
	SaveSettings(settings *domain.Settings) error
}

// Service implements domain.LibraryClient over a local store.
type Service struct {
	store     Store
	playlists *playlist.Service
	searcher  *search.Searcher
	scanner   *scan.Scanner
	hub       *Hub
	pageSize  int
	logger    *slog.Logger

	// one import at a time
	scanMu sync.Mutex
	// serializes settings read-modify-write
	settingsMu sync.Mutex
}

var _ domain.LibraryClient = (*Service)(nil)

// NewService creates a library service and builds the search index from
// whatever the store already holds.
func NewService(store Store, pageSize int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	s := &Service{
		store:     store,
		playlists: playlist.NewService(store, logger),
		searcher:  search.NewSearcher(search.DefaultLimit),
		scanner:   scan.NewScanner(logger),
		hub:       NewHub(logger),
		pageSize:  pageSize,
		logger:    logger,
	}
	if err := s.reindexLibrary(); err != nil {
		s.logger.Error("failed to build search index", "error", err)
	}
	if err := s.reindexPlaylists(); err != nil {
		s.logger.Error("failed to index playlists", "error", err)
	}
	return s
}

func (s *Service) PageSize() int { return s.pageSize }

// Subscribe implements domain.EventSource.
func (s *Service) Subscribe() (<-chan domain.Event, func()) {
	return s.hub.Subscribe()
}

func (s *Service) reindexLibrary() error {
	albums, err := s.store.AllAlbums()
	if err != nil {
		return err
	}
	songs, err := s.store.AllSongs()
	if err != nil {
		return err
	}
	s.searcher.RebuildLibrary(albums, songs)
	return nil
}

func (s *Service) reindexPlaylists() error {
	playlists, err := s.store.Playlists()
	if err != nil {
		return err
	}
	s.searcher.RebuildPlaylists(playlists)
	return nil
}

var validate = validator.New()

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %q", domain.ErrInvalidInput, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
