package domain

import (
	"fmt"
	"strings"
)

// SortKey names the field a collection is ordered by
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByArtist   SortKey = "artist"
	SortByYear     SortKey = "year"
	SortByDuration SortKey = "duration"
)

// SortKeys lists the keys in the order the UI cycles through them
func SortKeys() []SortKey {
	return []SortKey{SortByName, SortByArtist, SortByYear, SortByDuration}
}

// String returns the display name for the sort key
func (k SortKey) String() string {
	switch k {
	case SortByName:
		return "Name"
	case SortByArtist:
		return "Artist"
	case SortByYear:
		return "Year"
	case SortByDuration:
		return "Duration"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is a known key
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortByArtist, SortByYear, SortByDuration:
		return true
	}
	return false
}

// SortDirection is ascending or descending
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is a known direction
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Toggle returns the opposite direction
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// DefaultDirection returns the direction a key starts in when first selected
func DefaultDirection(key SortKey) SortDirection {
	switch key {
	case SortByYear, SortByDuration:
		return SortDesc // newest / longest first
	default:
		return SortAsc // A-Z
	}
}

// SortState is the user-selected ordering of a collection
type SortState struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort is name ascending
var DefaultSort = SortState{Key: SortByName, Direction: SortAsc}

// Validate returns ErrInvalidSort for unknown keys or directions
func (s SortState) Validate() error {
	if !s.Key.Valid() {
		return fmt.Errorf("%w: key %q", ErrInvalidSort, s.Key)
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidSort, s.Direction)
	}
	return nil
}

func (s SortState) String() string {
	arrow := "↑"
	if s.Direction == SortDesc {
		arrow = "↓"
	}
	return s.Key.String() + " " + arrow
}

// ParseSort builds a SortState from user strings; an empty direction takes the key default
func ParseSort(key, direction string) (SortState, error) {
	s := SortState{
		Key:       SortKey(strings.ToLower(strings.TrimSpace(key))),
		Direction: SortDirection(strings.ToLower(strings.TrimSpace(direction))),
	}
	if s.Direction == "" {
		s.Direction = DefaultDirection(s.Key)
	}
	return s, s.Validate()
}

// ViewMode is the presentation preference of a collection view
type ViewMode string

const (
	ViewGrid    ViewMode = "grid"
	ViewList    ViewMode = "list"
	ViewCompact ViewMode = "compact"
)

// ViewModes lists the modes in the order the UI cycles through them
func ViewModes() []ViewMode {
	return []ViewMode{ViewGrid, ViewList, ViewCompact}
}

// Valid reports whether m is a known mode
func (m ViewMode) Valid() bool {
	return m == ViewGrid || m == ViewList || m == ViewCompact
}

// Next returns the mode following m in cycle order
func (m ViewMode) Next() ViewMode {
	modes := ViewModes()
	for i, mode := range modes {
		if mode == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return ViewGrid
}

// ParseViewMode validates a user string
func ParseViewMode(s string) (ViewMode, error) {
	m := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
	}
	return m, nil
}
