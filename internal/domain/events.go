package domain

// EventKind identifies a backend push notification
type EventKind string

const (
	EventResetAlbums     EventKind = "reset-albums"
	EventResetSongs      EventKind = "reset-songs"
	EventResetPlaylists  EventKind = "reset-playlists"
	EventSettingsUpdated EventKind = "settings-updated"
	EventLanguageChanged EventKind = "language-changed"
	EventLibraryScanned  EventKind = "library-scanned"
)

// Event is a backend notification. Payload depends on Kind.
type Event struct {
	Kind EventKind
	// Language is set for EventLanguageChanged
	Language string
	// Scan is set for EventLibraryScanned
	Scan *ScanResult
}

// ScanResult summarizes a library import.
type ScanResult struct {
	Root    string
	Albums  int
	Songs   int
	Skipped int
}

// ProgressFunc reports scan progress: (files seen, songs imported).
type ProgressFunc func(seen, imported int)
