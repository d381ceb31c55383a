// Package scan imports a music folder into library records.
package scan

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-flac/go-flac"
	"github.com/google/uuid"

	"github.com/mmcdole/wora/internal/domain"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// audioExtensions are the file types imported into the library
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png", "front.jpg"}

// idNamespace seeds the name-based ids so a rescan keeps them stable
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wora.library"))

// Library is the outcome of a scan, ordered for paging.
type Library struct {
	Albums  []*domain.Album
	Songs   []*domain.Song
	Skipped int
}

// Scanner walks a folder tree reading audio tags.
type Scanner struct {
	logger   *slog.Logger
	readTags func(io.ReadSeeker) (tag.Metadata, error)
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger, readTags: tag.ReadFrom}
}

// Scan imports every audio file under root. Files that cannot be opened are
// counted as skipped; files with unreadable tags are imported with fallbacks.
func (s *Scanner) Scan(ctx context.Context, root string, progress domain.ProgressFunc) (*Library, error) {
	start := time.Now()
	s.logger.Info("scanning music library", "root", root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: %w: not a directory", root, domain.ErrInvalidInput)
	}

	b := newBuilder()
	seen := 0

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		seen++
		song, albumArtist, err := s.readSong(root, path)
		if err != nil {
			s.logger.Warn("skipping file", "path", path, "error", err)
			b.skipped++
		} else {
			b.add(song, albumArtist)
		}
		if progress != nil {
			progress(seen, len(b.songs))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	lib := b.finish()
	s.logger.Info("library scan complete",
		"root", root,
		"albums", len(lib.Albums),
		"songs", len(lib.Songs),
		"skipped", lib.Skipped,
		"elapsed", time.Since(start))
	return lib, nil
}

// readSong reads one file's tags and returns the song plus its album artist
func (s *Scanner) readSong(root, path string) (*domain.Song, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	song := &domain.Song{
		ID:   uuid.NewSHA1(idNamespace, []byte("song:"+filepath.ToSlash(rel))).String(),
		Path: path,
	}

	var albumArtist string
	if m, err := s.readTags(f); err == nil {
		song.Name = strings.TrimSpace(m.Title())
		song.Artist = strings.TrimSpace(m.Artist())
		song.Album = strings.TrimSpace(m.Album())
		song.Year = m.Year()
		song.Track, _ = m.Track()
		song.Disc, _ = m.Disc()
		song.Duration = tagLength(m)
		albumArtist = strings.TrimSpace(m.AlbumArtist())
	} else {
		s.logger.Debug("tag read error", "path", path, "error", err)
	}
	if song.Duration == 0 && strings.EqualFold(filepath.Ext(path), ".flac") {
		song.Duration = flacLength(f)
	}

	// Fallbacks
	if song.Name == "" {
		song.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if song.Artist == "" {
		song.Artist = unknownArtist
	}
	if song.Album == "" {
		song.Album = unknownAlbum
	}
	if albumArtist == "" {
		albumArtist = song.Artist
	}
	return song, albumArtist, nil
}

// tagLength reads the ID3v2 TLEN frame (milliseconds). Other formats carry no
// length in their tags and report zero; FLAC falls back to flacLength.
func tagLength(m tag.Metadata) time.Duration {
	raw, ok := m.Raw()["TLEN"]
	if !ok {
		return 0
	}
	text, ok := raw.(string)
	if !ok {
		return 0
	}
	ms, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// flacLength reads the stream length from the FLAC STREAMINFO block
func flacLength(r io.ReadSeeker) time.Duration {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0
	}
	f, err := flac.ParseMetadata(r)
	if err != nil {
		return 0
	}
	for _, block := range f.Meta {
		if block.Type == flac.StreamInfo {
			return streamInfoLength(block.Data)
		}
	}
	return 0
}

// streamInfoLength decodes total samples over sample rate. The rate is 20 bits
// at byte 10; the sample count is the low 36 bits of bytes 13..17.
func streamInfoLength(data []byte) time.Duration {
	if len(data) < 18 {
		return 0
	}
	rate := uint64(data[10])<<12 | uint64(data[11])<<4 | uint64(data[12])>>4
	samples := uint64(data[13]&0x0f)<<32 | uint64(data[14])<<24 | uint64(data[15])<<16 |
		uint64(data[16])<<8 | uint64(data[17])
	if rate == 0 || samples == 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(rate) * float64(time.Second))
}

// builder groups songs into albums keyed by album artist and title
type builder struct {
	albums  map[string]*domain.Album
	songs   []*domain.Song
	skipped int
}

func newBuilder() *builder {
	return &builder{albums: make(map[string]*domain.Album)}
}

func (b *builder) add(song *domain.Song, albumArtist string) {
	key := albumArtist + "|" + song.Album
	album, ok := b.albums[key]
	if !ok {
		album = &domain.Album{
			ID:       uuid.NewSHA1(idNamespace, []byte("album:"+key)).String(),
			Name:     song.Album,
			Artist:   albumArtist,
			CoverArt: findCover(filepath.Dir(song.Path)),
		}
		b.albums[key] = album
	}
	if album.Year == 0 {
		album.Year = song.Year
	}
	if info, err := os.Stat(song.Path); err == nil {
		album.AddedAt = max(album.AddedAt, info.ModTime().Unix())
	}

	song.AlbumID = album.ID
	album.Songs = append(album.Songs, song)
	b.songs = append(b.songs, song)
}

// finish orders albums by artist then title and songs by album then disc/track
func (b *builder) finish() *Library {
	albums := make([]*domain.Album, 0, len(b.albums))
	for _, a := range b.albums {
		slices.SortStableFunc(a.Songs, func(x, y *domain.Song) int {
			return cmp.Or(
				cmp.Compare(x.Disc, y.Disc),
				cmp.Compare(x.Track, y.Track),
				strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name)),
				strings.Compare(x.ID, y.ID),
			)
		})
		a.Duration = albumDuration(a.Songs)
		albums = append(albums, a)
	}
	slices.SortFunc(albums, func(x, y *domain.Album) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(x.Artist), strings.ToLower(y.Artist)),
			strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name)),
			strings.Compare(x.ID, y.ID),
		)
	})

	songs := make([]*domain.Song, 0, len(b.songs))
	for _, a := range albums {
		songs = append(songs, a.Songs...)
	}
	return &Library{Albums: albums, Songs: songs, Skipped: b.skipped}
}

// albumDuration is the sum of song lengths, or zero when any is unknown
func albumDuration(songs []*domain.Song) time.Duration {
	var total time.Duration
	for _, s := range songs {
		if s.Duration <= 0 {
			return 0
		}
		total += s.Duration
	}
	return total
}

func findCover(dir string) string {
	for _, name := range coverNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
