// Package playlist manages user playlists persisted in the library store.
package playlist

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mmcdole/wora/internal/domain"
)

// Store is the persistence the playlist service needs.
type Store interface {
	SavePlaylist(p *domain.Playlist) error
	Playlist(id string) (*domain.Playlist, error)
	Playlists() ([]*domain.Playlist, error)
	DeletePlaylist(id string) error
	Song(id string) (*domain.Song, error)
	Songs(ids []string) ([]*domain.Song, error)
}

// Service exposes playlist reads (Queries) and mutations (Commands).
type Service struct {
	*Queries
	*Commands
}

// NewService creates a new playlist service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Queries:  NewQueries(store),
		Commands: NewCommands(store, logger),
	}
}

var validate = validator.New()

// errUnchanged short-circuits a modify that has nothing to save
var errUnchanged = errors.New("unchanged")

// validateInput normalizes and checks user input, wrapping failures in
// domain.ErrInvalidInput.
func validateInput(input domain.PlaylistInput) (domain.PlaylistInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return input, fmt.Errorf("%w: %s failed %q", domain.ErrInvalidInput, strings.ToLower(fe.Field()), fe.Tag())
		}
		return input, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return input, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }
