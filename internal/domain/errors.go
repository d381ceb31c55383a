package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrAlbumNotFound indicates the requested album does not exist
	ErrAlbumNotFound = errors.New("album not found")

	// ErrSongNotFound indicates the requested song does not exist
	ErrSongNotFound = errors.New("song not found")

	// ErrPlaylistNotFound indicates the requested playlist does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrInvalidSort indicates an unknown sort key or direction
	ErrInvalidSort = errors.New("invalid sort")

	// ErrInvalidViewMode indicates an unknown view mode
	ErrInvalidViewMode = errors.New("invalid view mode")

	// ErrInvalidInput indicates user input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoPlayer indicates no audio player could be launched
	ErrNoPlayer = errors.New("no audio player available")
)
