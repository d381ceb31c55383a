package cache

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_PaginatesUntilEmptyPage(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 50), makeAlbums("b", 50), makeAlbums("c", 0))
	c := newAlbums(f, quietOptions())
	ctx := context.Background()

	require.NoError(t, c.EnsureFresh(ctx))

	loaded, err := c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)

	s := c.State()
	assert.Len(t, s.Items, 100)
	assert.False(t, s.HasMore)
	assert.Equal(t, 3, s.PageCursor)
	assert.Equal(t, []int{1, 2, 3}, f.pagesFetched())

	// exhausted collections do not hit the backend again
	loaded, err = c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Len(t, f.pagesFetched(), 3)
}

func TestCollection_IngestIsIdempotent(t *testing.T) {
	page := makeAlbums("a", 20)
	withInnerDup := append(slices.Clone(page[:5]), page[0], page[1])
	f := newFakeBackend(page, page, withInnerDup)
	c := newAlbums(f, quietOptions())
	ctx := context.Background()

	for range 4 {
		_, err := c.LoadNextPage(ctx)
		require.NoError(t, err)
	}

	s := c.State()
	assert.Len(t, s.Items, 20)
	assert.Len(t, s.Projection, 20)
	seen := make(map[string]bool)
	for _, id := range ids(s.Items) {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	// non-empty pages advance the cursor even when every record was known
	assert.Equal(t, 4, s.PageCursor)
	assert.False(t, s.HasMore)
}

func TestCollection_ResetMatchesFreshLoad(t *testing.T) {
	pages := [][]*domain.Album{makeAlbums("a", 30), makeAlbums("b", 30)}
	ctx := context.Background()

	fresh := newAlbums(newFakeBackend(pages...), quietOptions())
	_, err := fresh.LoadNextPage(ctx)
	require.NoError(t, err)
	_, err = fresh.LoadNextPage(ctx)
	require.NoError(t, err)

	used := newAlbums(newFakeBackend(pages...), quietOptions())
	for range 3 {
		_, err := used.LoadNextPage(ctx)
		require.NoError(t, err)
	}
	require.False(t, used.HasMore())

	require.NoError(t, used.Reset(ctx))
	s := used.State()
	assert.Equal(t, 2, s.PageCursor)
	assert.True(t, s.HasMore)
	assert.Len(t, s.Items, 30)

	_, err = used.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(fresh.Projection()), ids(used.Projection()))
}

func TestCollection_SortIsStableAndTotal(t *testing.T) {
	albums := makeAlbums("a", 40)
	albums[3].Artist = ""
	albums[7].Year = 0
	albums[9].Name = albums[10].Name // equal primary for name sort
	for _, a := range albums {
		a.Duration = 0
	}
	f := newFakeBackend(albums)
	for i, a := range albums {
		songs := []*domain.Song{{ID: a.ID + "-s", Duration: time.Duration(i%5+1) * time.Minute}}
		f.details[a.ID] = &domain.Album{ID: a.ID, Songs: songs}
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	for _, key := range domain.SortKeys() {
		for _, dir := range []domain.SortDirection{domain.SortAsc, domain.SortDesc} {
			s := domain.SortState{Key: key, Direction: dir}
			t.Run(s.String(), func(t *testing.T) {
				require.NoError(t, c.SetSort(ctx, s))
				first := ids(c.Projection())
				require.NoError(t, c.SetSort(ctx, s))
				assert.Equal(t, first, ids(c.Projection()))
				assert.Len(t, first, len(albums))
				assert.True(t, slices.IsSortedFunc(c.Projection(), comparator(s, c.durationFunc())))
			})
		}
	}
}

func TestCollection_NullKeysSortLast(t *testing.T) {
	albums := makeAlbums("a", 6)
	albums[1].Year = 0
	albums[4].Year = 0
	f := newFakeBackend(albums)
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	for _, dir := range []domain.SortDirection{domain.SortAsc, domain.SortDesc} {
		require.NoError(t, c.SetSort(ctx, domain.SortState{Key: domain.SortByYear, Direction: dir}))
		got := ids(c.Projection())
		assert.Equal(t, []string{"a-001", "a-004"}, got[4:], "direction %s", dir)
	}
}

func TestCollection_DurationSortPlacesUnresolvedLast(t *testing.T) {
	albums := makeAlbums("a", 100)
	// two albums without a precomputed length whose songs have none either
	albums[17].Duration = 0
	albums[17].Name = "zz last"
	albums[42].Duration = 0
	albums[42].Name = "aa first"
	f := newFakeBackend(albums[:50], albums[50:])
	f.details[albums[17].ID] = &domain.Album{ID: albums[17].ID, Songs: []*domain.Song{{ID: "s1"}}}
	f.details[albums[42].ID] = &domain.Album{ID: albums[42].ID, Songs: []*domain.Song{{ID: "s2"}}}

	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))
	_, err := c.LoadNextPage(ctx)
	require.NoError(t, err)

	require.NoError(t, c.SetSort(ctx, domain.SortState{Key: domain.SortByDuration, Direction: domain.SortAsc}))

	got := ids(c.Projection())
	require.Len(t, got, 100)
	assert.Equal(t, []string{albums[42].ID, albums[17].ID}, got[98:])
	for i := 1; i < 98; i++ {
		prev, cur := c.Projection()[i-1], c.Projection()[i]
		assert.LessOrEqual(t, prev.Duration, cur.Duration)
	}
}

func TestCollection_DurationResolvedFromSongsAndCached(t *testing.T) {
	albums := makeAlbums("a", 3)
	albums[0].Duration = 0
	f := newFakeBackend(albums)
	f.details[albums[0].ID] = &domain.Album{ID: albums[0].ID, Songs: []*domain.Song{
		{ID: "s1", Duration: 2 * time.Minute},
		{ID: "s2", Duration: 3 * time.Minute},
	}}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	byDuration := domain.SortState{Key: domain.SortByDuration, Direction: domain.SortAsc}
	require.NoError(t, c.SetSort(ctx, byDuration))
	assert.Equal(t, albums[0].ID, c.Projection()[0].ID, "5 minute album sorts before 30+ minute ones")

	require.NoError(t, c.SetSort(ctx, domain.DefaultSort))
	require.NoError(t, c.SetSort(ctx, byDuration))
	assert.Equal(t, 1, f.detailCalls[albums[0].ID])
}

func TestCollection_SortBackfillsRemainingPages(t *testing.T) {
	p1, p2, p3 := makeAlbums("a", 10), makeAlbums("b", 10), makeAlbums("c", 10)
	p3[0].Year = 2100
	f := newFakeBackend(p1, p2, p3)
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	require.NoError(t, c.SetSort(ctx, domain.SortState{Key: domain.SortByYear, Direction: domain.SortDesc}))

	s := c.State()
	assert.Len(t, s.Items, 30)
	assert.False(t, s.HasMore)
	assert.Equal(t, p3[0].ID, s.Projection[0].ID)
	assert.Equal(t, []int{1, 2, 3, 4}, f.pagesFetched())
}

func TestCollection_BackfillFailureKeepsLoadedItems(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 10), makeAlbums("b", 10), makeAlbums("c", 10))
	boom := errors.New("backend down")
	f.pageHook = func(ctx context.Context, page int) error {
		if page == 3 {
			return boom
		}
		return nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	err := c.SetSort(ctx, domain.SortState{Key: domain.SortByArtist, Direction: domain.SortAsc})
	require.ErrorIs(t, err, boom)

	s := c.State()
	assert.Len(t, s.Items, 10)
	assert.True(t, s.HasMore)
	assert.Equal(t, 2, s.PageCursor)
	assert.Equal(t, domain.SortByArtist, s.Sort.Key)
	assert.True(t, slices.IsSortedFunc(s.Projection, comparator(s.Sort, c.durationFunc())))
}

func TestCollection_MergeKeepsRenderedOrder(t *testing.T) {
	p1 := makeAlbums("m", 20)
	p2 := makeAlbums("k", 5) // sorts before every "m" name
	f := newFakeBackend(p1, p2)
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))
	before := ids(c.Projection())

	_, err := c.LoadNextPage(ctx)
	require.NoError(t, err)

	after := ids(c.Projection())
	require.Len(t, after, 25)
	var kept []string
	for _, id := range after {
		if strings.HasPrefix(id, "m-") {
			kept = append(kept, id)
		}
	}
	assert.Equal(t, before, kept)
	assert.Equal(t, ids(sorted(c.State().Items, c.Sort(), c.durationFunc())), after)
}

func TestCollection_SingleFlightPagination(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5), makeAlbums("b", 5))
	started := make(chan struct{})
	release := make(chan struct{})
	f.pageHook = func(ctx context.Context, page int) error {
		if page == 1 {
			close(started)
			<-release
		}
		return nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loaded, err := c.LoadNextPage(ctx)
		assert.NoError(t, err)
		assert.True(t, loaded)
	}()
	<-started

	loaded, err := c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.True(t, c.State().Loading)

	close(release)
	wg.Wait()
	assert.Equal(t, []int{1}, f.pagesFetched())
	assert.False(t, c.State().Loading)
}

func TestCollection_ResetDiscardsInFlightPage(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5), makeAlbums("b", 5))
	ctx := context.Background()
	c := newAlbums(f, quietOptions())
	require.NoError(t, c.Reset(ctx))

	started := make(chan struct{})
	release := make(chan struct{})
	f.pageHook = func(ctx context.Context, page int) error {
		if page == 2 {
			close(started)
			<-release
		}
		return nil
	}

	done := make(chan bool)
	go func() {
		loaded, err := c.LoadNextPage(ctx)
		assert.NoError(t, err)
		done <- loaded
	}()
	<-started

	resetDone := make(chan error)
	go func() { resetDone <- c.Reset(ctx) }()
	require.Eventually(t, func() bool { return len(c.State().Items) == 0 }, time.Second, time.Millisecond)

	close(release)
	assert.False(t, <-done)
	require.NoError(t, <-resetDone)

	s := c.State()
	assert.Equal(t, ids(makeAlbums("a", 5)), ids(s.Items))
	assert.Equal(t, 2, s.PageCursor)
}

func TestCollection_FetchFailureIsRetryable(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5), makeAlbums("b", 5))
	ctx := context.Background()
	c := newAlbums(f, quietOptions())
	require.NoError(t, c.Reset(ctx))

	boom := errors.New("timeout")
	f.pageHook = func(ctx context.Context, page int) error { return boom }
	_, err := c.LoadNextPage(ctx)
	require.ErrorIs(t, err, boom)

	s := c.State()
	assert.True(t, s.HasMore)
	assert.Equal(t, 2, s.PageCursor)
	assert.False(t, s.Loading)

	f.pageHook = nil
	loaded, err := c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, c.State().Items, 10)
}

func TestCollection_FailedResetIsStale(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5))
	ctx := context.Background()
	c := newAlbums(f, quietOptions())
	require.NoError(t, c.EnsureFresh(ctx))
	assert.False(t, c.IsStale())

	down := errors.New("down")
	f.pageHook = func(ctx context.Context, page int) error { return down }
	require.ErrorIs(t, c.Reset(ctx), down)
	assert.Empty(t, c.State().Items)
	assert.True(t, c.IsStale())

	f.pageHook = nil
	require.NoError(t, c.EnsureFresh(ctx))
	assert.Len(t, c.State().Items, 5)
	assert.False(t, c.IsStale())
	assert.Equal(t, []int{1, 1, 1}, f.pagesFetched())
}

func TestCollection_SearchCancellation(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5))
	gates := map[string]chan struct{}{
		"a": make(chan struct{}), "ab": make(chan struct{}), "abc": make(chan struct{}),
	}
	received := make(chan string, 3)
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		received <- q
		<-gates[q]
		return &domain.SearchResults{Albums: []*domain.Album{{ID: "match-" + q, Name: q}}}, nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, q := range []string{"a", "ab", "abc"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SearchNow(ctx, q)
		}()
		assert.Equal(t, q, <-received)
	}

	// resolve newest first
	close(gates["abc"])
	close(gates["ab"])
	close(gates["a"])
	wg.Wait()

	s := c.State()
	assert.Equal(t, "abc", s.Search.Query)
	assert.Equal(t, []string{"match-abc"}, ids(s.Search.Results))
	assert.Equal(t, []string{"match-abc"}, ids(s.Projection))
	assert.False(t, s.Search.Fallback)
}

func TestCollection_SetQueryDebounces(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5))
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return &domain.SearchResults{Albums: []*domain.Album{{ID: "hit", Name: q}}}, nil
	}
	opts := quietOptions()
	opts.Debounce = 30 * time.Millisecond
	c := newAlbums(f, opts)
	ctx := context.Background()

	c.SetQuery(ctx, "a")
	c.SetQuery(ctx, "ab")
	c.SetQuery(ctx, "abc")
	assert.True(t, c.State().Search.Loading)

	require.Eventually(t, func() bool {
		s := c.State()
		return !s.Search.Loading && len(s.Projection) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"abc"}, f.searches())
}

func TestCollection_SearchFallsBackToLoadedItems(t *testing.T) {
	albums := makeAlbums("a", 10)
	albums[2].Name = "Abbey Road"
	albums[2].Artist = "The Beatles"
	albums[5].Name = "The Beatles (White Album)"
	albums[8].Name = "Beatles For Sale"
	f := newFakeBackend(albums)
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return &domain.SearchResults{Songs: []*domain.Song{{ID: "song"}}}, nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	c.SearchNow(ctx, "beatles")

	s := c.State()
	assert.True(t, s.Search.Active)
	assert.True(t, s.Search.Fallback)
	assert.ElementsMatch(t, []string{albums[2].ID, albums[5].ID, albums[8].ID}, ids(s.Projection))
	assert.Len(t, s.Items, 10)
}

func TestCollection_SearchErrorFallsBack(t *testing.T) {
	albums := makeAlbums("a", 4)
	albums[1].Name = "Blue Train"
	f := newFakeBackend(albums)
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return nil, errors.New("index unavailable")
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	c.SearchNow(ctx, "  BLUE ")

	s := c.State()
	assert.True(t, s.Search.Fallback)
	assert.Equal(t, []string{albums[1].ID}, ids(s.Projection))
}

func TestCollection_SearchLeavesPaginationAlone(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5), makeAlbums("b", 5))
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return &domain.SearchResults{Albums: makeAlbums("z", 2)}, nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	c.SearchNow(ctx, "z")
	loaded, err := c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, loaded, "no paging while a search is shown")
	assert.False(t, c.ShouldLoadMore(100))

	s := c.State()
	assert.Len(t, s.Items, 5)
	assert.Equal(t, 2, s.PageCursor)
	assert.Equal(t, ids(makeAlbums("z", 2)), ids(s.Projection))

	c.SetQuery(ctx, "")
	s = c.State()
	assert.False(t, s.Search.Active)
	assert.Equal(t, ids(sorted(s.Items, s.Sort, nil)), ids(s.Projection))
}

func TestCollection_SortDuringSearchOnlyResortsResults(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5), makeAlbums("b", 5))
	results := makeAlbums("z", 4)
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return &domain.SearchResults{Albums: results}, nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))
	c.SearchNow(ctx, "z")

	desc := domain.SortState{Key: domain.SortByName, Direction: domain.SortDesc}
	require.NoError(t, c.SetSort(ctx, desc))

	s := c.State()
	assert.Equal(t, []string{"z-003", "z-002", "z-001", "z-000"}, ids(s.Projection))
	assert.Len(t, s.Items, 5, "no backfill while searching")
	assert.Equal(t, []int{1}, f.pagesFetched())
}

func TestCollection_SetSortRejectsUnknownKeys(t *testing.T) {
	c := newAlbums(newFakeBackend(), quietOptions())
	err := c.SetSort(context.Background(), domain.SortState{Key: "color", Direction: domain.SortAsc})
	assert.ErrorIs(t, err, domain.ErrInvalidSort)
	assert.Equal(t, domain.DefaultSort, c.Sort())
}

func TestCollection_Staleness(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	opts := quietOptions()
	opts.TTL = time.Minute
	opts.Now = func() time.Time { return now }
	f := newFakeBackend(makeAlbums("a", 3))
	c := newAlbums(f, opts)
	ctx := context.Background()

	assert.True(t, c.IsStale())
	require.NoError(t, c.EnsureFresh(ctx))
	assert.False(t, c.IsStale())

	require.NoError(t, c.EnsureFresh(ctx))
	assert.Equal(t, []int{1}, f.pagesFetched(), "fresh cache is served without a fetch")

	now = now.Add(2 * time.Minute)
	assert.True(t, c.IsStale())
	require.NoError(t, c.EnsureFresh(ctx))
	assert.False(t, c.IsStale())

	c.Invalidate()
	assert.True(t, c.IsStale())
	assert.True(t, c.State().Stale)
}

func TestCollection_ShouldLoadMoreUsesLookahead(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 30), makeAlbums("b", 30))
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	tests := []struct {
		stop int
		want bool
	}{
		{stop: 0, want: false},
		{stop: 19, want: false},
		{stop: 20, want: true},
		{stop: 29, want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ShouldLoadMore(tt.stop), "stop=%d", tt.stop)
	}

	empty := newAlbums(newFakeBackend(makeAlbums("a", 3)), quietOptions())
	assert.True(t, empty.ShouldLoadMore(0))

	loaded, err := c.OnItemsRendered(ctx, 5)
	require.NoError(t, err)
	assert.False(t, loaded)

	loaded, err = c.OnItemsRendered(ctx, 25)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, c.State().Items, 60)
}

func TestCollection_ViewMode(t *testing.T) {
	c := newAlbums(newFakeBackend(), quietOptions())
	rec := &recorder{}
	c.Subscribe(rec)

	assert.Equal(t, domain.ViewGrid, c.ViewMode())
	require.NoError(t, c.SetViewMode(domain.ViewList))
	assert.Equal(t, domain.ViewList, c.ViewMode())
	assert.ErrorIs(t, c.SetViewMode("carousel"), domain.ErrInvalidViewMode)
	assert.Equal(t, []ChangeKind{ChangeViewMode}, rec.kinds())
}

func TestCollection_ResetStateRestoresDefaults(t *testing.T) {
	f := newFakeBackend(makeAlbums("a", 5))
	f.searchFn = func(ctx context.Context, q string) (*domain.SearchResults, error) {
		return &domain.SearchResults{Albums: makeAlbums("z", 1)}, nil
	}
	c := newAlbums(f, quietOptions())
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))
	require.NoError(t, c.SetSort(ctx, domain.SortState{Key: domain.SortByYear, Direction: domain.SortDesc}))
	require.NoError(t, c.SetViewMode(domain.ViewCompact))
	c.SearchNow(ctx, "z")

	require.NoError(t, c.ResetState(ctx))

	s := c.State()
	assert.False(t, s.Search.Active)
	assert.Empty(t, s.Search.Query)
	assert.Equal(t, domain.DefaultSort, s.Sort)
	assert.Equal(t, domain.ViewGrid, s.ViewMode)
	assert.Equal(t, ids(sorted(s.Items, s.Sort, nil)), ids(s.Projection))
	assert.Len(t, s.Items, 5)
}
