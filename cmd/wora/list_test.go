package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/library"
	"github.com/mmcdole/wora/internal/store"
)

func newTestSession(t *testing.T, albums, pageSize int) *cache.Session {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	var as []*domain.Album
	var songs []*domain.Song
	for i := 0; i < albums; i++ {
		a := &domain.Album{
			ID:       fmt.Sprintf("al-%02d", i),
			Name:     fmt.Sprintf("Record %02d", i),
			Artist:   "Band",
			Year:     1990 + i,
			Duration: time.Duration(i+1) * time.Minute,
		}
		as = append(as, a)
		songs = append(songs, &domain.Song{ID: a.ID + "-1", Name: "Track", AlbumID: a.ID, Track: 1, Duration: a.Duration})
	}
	require.NoError(t, st.ReplaceLibrary(as, songs))

	svc := library.NewService(st, pageSize, logger)
	return cache.NewSession(svc, nil, cache.Options{Logger: logger})
}

func TestProject(t *testing.T) {
	tests := []struct {
		name      string
		flags     listFlags
		wantLen   int
		wantFirst string
		wantErr   error
	}{
		{name: "first page", flags: listFlags{pages: 1}, wantLen: 4, wantFirst: "Record 00"},
		{name: "two pages", flags: listFlags{pages: 2}, wantLen: 8, wantFirst: "Record 00"},
		{name: "all pages", flags: listFlags{pages: 0}, wantLen: 10, wantFirst: "Record 00"},
		{name: "sort backfills", flags: listFlags{pages: 1, sort: "year"}, wantLen: 10, wantFirst: "Record 09"},
		{name: "explicit order", flags: listFlags{pages: 1, sort: "year", order: "asc"}, wantLen: 10, wantFirst: "Record 00"},
		{name: "query", flags: listFlags{pages: 1, query: "record 07"}, wantFirst: "Record 07"},
		{name: "bad sort", flags: listFlags{pages: 1, sort: "mood"}, wantErr: domain.ErrInvalidSort},
		{name: "negative pages", flags: listFlags{pages: -1}, wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, 10, 4)
			items, err := project(context.Background(), s.Albums, tt.flags)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, items)
			if tt.wantLen > 0 {
				assert.Len(t, items, tt.wantLen)
			}
			assert.Equal(t, tt.wantFirst, items[0].Name)
		})
	}
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	albums := []*domain.Album{
		{Name: "Kind of Blue", Artist: "Miles Davis", Year: 1959, Duration: 46 * time.Minute},
		{Name: "Untitled", Artist: "Unknown Artist"},
	}
	printRecords(&buf, albums, true)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Kind of Blue")
	assert.Contains(t, out, "1959")
	assert.Contains(t, out, "46:00")
	assert.Contains(t, out, "--")
	assert.Contains(t, out, "more available")
}

func TestFindPlaylist(t *testing.T) {
	s := newTestSession(t, 1, 4)
	ctx := context.Background()
	created, err := s.Playlists.Create(ctx, domain.PlaylistInput{Name: "Late Night"})
	require.NoError(t, err)
	require.NoError(t, s.Playlists.AddSong(ctx, created.ID, "al-00-1"))

	byID, err := findPlaylist(ctx, s.Playlists, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Late Night", byID.Name)
	require.Len(t, byID.Songs, 1)

	byName, err := findPlaylist(ctx, s.Playlists, "late night")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = findPlaylist(ctx, s.Playlists, "nope")
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
}
