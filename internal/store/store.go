package store

import (
	"cmp"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/wora/internal/domain"
)

// Bucket names
var (
	bucketAlbums     = []byte("albums")
	bucketSongs      = []byte("songs")
	bucketAlbumSongs = []byte("album_songs")
	bucketAlbumOrder = []byte("album_order") // ordinal -> album id
	bucketSongOrder  = []byte("song_order")  // ordinal -> song id
	bucketPlaylists  = []byte("playlists")
	bucketSettings   = []byte("settings")
)

var allBuckets = [][]byte{
	bucketAlbums, bucketSongs, bucketAlbumSongs, bucketAlbumOrder,
	bucketSongOrder, bucketPlaylists, bucketSettings,
}

// libraryBuckets are rebuilt from scratch on every import
var libraryBuckets = [][]byte{
	bucketAlbums, bucketSongs, bucketAlbumSongs, bucketAlbumOrder, bucketSongOrder,
}

const settingsKey = "settings"

// LibraryStore persists the music library, playlists and settings in BoltDB.
type LibraryStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*LibraryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LibraryStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *LibraryStore) Close() error {
	return s.db.Close()
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

// get decodes the value at key into dest. It reports false if the key is absent.
func (s *LibraryStore) get(bucket []byte, key string, dest any) (bool, error) {
	ck := cacheKey(bucket, key)

	s.mu.RLock()
	data, ok := s.cache[ck]
	s.mu.RUnlock()

	if !ok {
		err := s.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
				data = slices.Clone(v)
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		if data == nil {
			return false, nil
		}

		// Promote to memory cache
		s.mu.Lock()
		s.cache[ck] = data
		s.mu.Unlock()
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", ck, err)
	}
	return true, nil
}

func (s *LibraryStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()
	return nil
}

func (s *LibraryStore) delete(bucket []byte, key string) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		found = b.Get([]byte(key)) != nil
		return b.Delete([]byte(key))
	})

	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()
	return found, err
}

// forget drops cached entries of the given buckets
func (s *LibraryStore) forget(buckets ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.cache {
		for _, b := range buckets {
			if strings.HasPrefix(k, string(b)+":") {
				delete(s.cache, k)
				break
			}
		}
	}
}

func ordinal(n int) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(n))
	return k[:]
}

// page reads up to size ids from an ordinal index starting at (page-1)*size
func (s *LibraryStore) page(index []byte, page, size int) ([]string, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("%w: page %d size %d", domain.ErrInvalidInput, page, size)
	}
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(index).Cursor()
		for k, v := c.Seek(ordinal((page - 1) * size)); k != nil && len(ids) < size; k, v = c.Next() {
			ids = append(ids, string(v))
		}
		return nil
	})
	return ids, err
}

// all reads every id of an ordinal index in order
func (s *LibraryStore) all(index []byte) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(index).ForEach(func(_, v []byte) error {
			ids = append(ids, string(v))
			return nil
		})
	})
	return ids, err
}

func loadAll[T any](s *LibraryStore, bucket []byte, ids []string) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		item := new(T)
		ok, err := s.get(bucket, id, item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// === Library ===

// ReplaceLibrary swaps the whole library for a fresh import. Albums and songs
// are paged in the order given; album_songs keeps each album's song order.
func (s *LibraryStore) ReplaceLibrary(albums []*domain.Album, songs []*domain.Song) error {
	bySong := make(map[string][]string, len(albums))
	for _, song := range songs {
		bySong[song.AlbumID] = append(bySong[song.AlbumID], song.ID)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range libraryBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		ab, sb := tx.Bucket(bucketAlbums), tx.Bucket(bucketSongs)
		aob, sob, asb := tx.Bucket(bucketAlbumOrder), tx.Bucket(bucketSongOrder), tx.Bucket(bucketAlbumSongs)

		for i, a := range albums {
			stored := *a
			stored.Songs = nil
			data, err := json.Marshal(&stored)
			if err != nil {
				return err
			}
			if err := ab.Put([]byte(a.ID), data); err != nil {
				return err
			}
			if err := aob.Put(ordinal(i), []byte(a.ID)); err != nil {
				return err
			}
			ids, err := json.Marshal(bySong[a.ID])
			if err != nil {
				return err
			}
			if err := asb.Put([]byte(a.ID), ids); err != nil {
				return err
			}
		}
		for i, song := range songs {
			data, err := json.Marshal(song)
			if err != nil {
				return err
			}
			if err := sb.Put([]byte(song.ID), data); err != nil {
				return err
			}
			if err := sob.Put(ordinal(i), []byte(song.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace library: %w", err)
	}

	s.forget(libraryBuckets...)
	return nil
}

// AlbumsPage returns the 1-based page of albums; past the end it is empty.
func (s *LibraryStore) AlbumsPage(page, size int) ([]*domain.Album, error) {
	ids, err := s.page(bucketAlbumOrder, page, size)
	if err != nil {
		return nil, err
	}
	return loadAll[domain.Album](s, bucketAlbums, ids)
}

// SongsPage returns the 1-based page of songs.
func (s *LibraryStore) SongsPage(page, size int) ([]*domain.Song, error) {
	ids, err := s.page(bucketSongOrder, page, size)
	if err != nil {
		return nil, err
	}
	return loadAll[domain.Song](s, bucketSongs, ids)
}

func (s *LibraryStore) AllAlbums() ([]*domain.Album, error) {
	ids, err := s.all(bucketAlbumOrder)
	if err != nil {
		return nil, err
	}
	return loadAll[domain.Album](s, bucketAlbums, ids)
}

func (s *LibraryStore) AllSongs() ([]*domain.Song, error) {
	ids, err := s.all(bucketSongOrder)
	if err != nil {
		return nil, err
	}
	return loadAll[domain.Song](s, bucketSongs, ids)
}

func (s *LibraryStore) Album(id string) (*domain.Album, error) {
	var a domain.Album
	ok, err := s.get(bucketAlbums, id, &a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlbumNotFound, id)
	}
	return &a, nil
}

// AlbumSongs returns an album's songs in disc/track order.
func (s *LibraryStore) AlbumSongs(albumID string) ([]*domain.Song, error) {
	var ids []string
	ok, err := s.get(bucketAlbumSongs, albumID, &ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlbumNotFound, albumID)
	}
	return loadAll[domain.Song](s, bucketSongs, ids)
}

func (s *LibraryStore) Song(id string) (*domain.Song, error) {
	var song domain.Song
	ok, err := s.get(bucketSongs, id, &song)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSongNotFound, id)
	}
	return &song, nil
}

// Songs looks up songs by id, skipping ids no longer in the library.
func (s *LibraryStore) Songs(ids []string) ([]*domain.Song, error) {
	return loadAll[domain.Song](s, bucketSongs, ids)
}

// === Playlists ===

func (s *LibraryStore) SavePlaylist(p *domain.Playlist) error {
	return s.set(bucketPlaylists, p.ID, p)
}

func (s *LibraryStore) Playlist(id string) (*domain.Playlist, error) {
	var p domain.Playlist
	ok, err := s.get(bucketPlaylists, id, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, id)
	}
	return &p, nil
}

// Playlists returns all playlists, oldest first.
func (s *LibraryStore) Playlists() ([]*domain.Playlist, error) {
	var out []*domain.Playlist
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlaylists).ForEach(func(_, v []byte) error {
			var p domain.Playlist
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, &p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b *domain.Playlist) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *LibraryStore) DeletePlaylist(id string) error {
	found, err := s.delete(bucketPlaylists, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, id)
	}
	return nil
}

// === Settings ===

// Settings returns stored preferences, or English defaults before the first save.
func (s *LibraryStore) Settings() (*domain.Settings, error) {
	settings := domain.Settings{Language: "en"}
	if _, err := s.get(bucketSettings, settingsKey, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *LibraryStore) SaveSettings(settings *domain.Settings) error {
	return s.set(bucketSettings, settingsKey, settings)
}
