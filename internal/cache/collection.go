package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/wora/internal/domain"
)

// Defaults used when Options leaves a field zero
const (
	DefaultTTL       = 5 * time.Minute
	DefaultDebounce  = 300 * time.Millisecond
	DefaultLookahead = 10
)

// PageFunc fetches one 1-based page. An empty page means the collection is exhausted.
type PageFunc[T domain.Record] func(ctx context.Context, page int) ([]T, error)

// SearchFunc returns the backend matches of one entity type for query.
type SearchFunc[T domain.Record] func(ctx context.Context, query string) ([]T, error)

// Options tunes a Collection.
type Options struct {
	TTL         time.Duration
	Debounce    time.Duration
	Lookahead   int
	DefaultSort domain.SortState
	DefaultView domain.ViewMode
	Logger      *slog.Logger

	// Now is the clock used for staleness, mostly for tests
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Lookahead <= 0 {
		o.Lookahead = DefaultLookahead
	}
	if o.DefaultSort.Validate() != nil {
		o.DefaultSort = domain.DefaultSort
	}
	if !o.DefaultView.Valid() {
		o.DefaultView = domain.ViewGrid
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// SearchState is the search overlay as seen by views.
type SearchState[T domain.Record] struct {
	Query   string
	Results []T
	Active  bool
	Loading bool
	// Fallback is set when Results came from filtering loaded items locally
	Fallback bool
}

// Snapshot is a consistent copy of a collection's state.
type Snapshot[T domain.Record] struct {
	Items        []T
	Projection   []T
	PageCursor   int
	HasMore      bool
	Loading      bool
	Search       SearchState[T]
	Sort         domain.SortState
	ViewMode     domain.ViewMode
	Initialized  bool
	LastLoadedAt time.Time
	Stale        bool
}

// Collection coordinates the client-side view of one paged collection:
// incremental pagination, the search overlay, sort order and view mode.
// It is safe for concurrent use; only its own methods mutate state.
type Collection[T domain.Record] struct {
	name     string
	fetch    PageFunc[T]
	find     SearchFunc[T]
	resolver Resolver[T]
	opts     Options
	logger   *slog.Logger

	// lane serializes pagination and backfill
	lane     sync.Mutex
	debounce debouncer

	mu           sync.Mutex
	items        []T
	ids          map[string]struct{}
	projection   []T
	pageCursor   int
	hasMore      bool
	loading      bool
	generation   uint64
	search       SearchState[T]
	searchToken  uint64
	sort         domain.SortState
	sortVersion  uint64
	viewMode     domain.ViewMode
	initialized  bool
	invalidated  bool
	lastLoadedAt time.Time
	observers    []Observer
}

// NewCollection creates an empty collection. resolver may be nil when
// records always carry their runtime.
func NewCollection[T domain.Record](name string, fetch PageFunc[T], find SearchFunc[T], resolver Resolver[T], opts Options) *Collection[T] {
	opts = opts.withDefaults()
	return &Collection[T]{
		name:       name,
		fetch:      fetch,
		find:       find,
		resolver:   resolver,
		opts:       opts,
		logger:     opts.Logger.With("collection", name),
		debounce:   debouncer{delay: opts.Debounce},
		ids:        make(map[string]struct{}),
		pageCursor: 1,
		hasMore:    true,
		sort:       opts.DefaultSort,
		viewMode:   opts.DefaultView,
	}
}

// Name returns the collection name used in logs and change notifications.
func (c *Collection[T]) Name() string { return c.name }

// Subscribe registers an observer for change notifications.
func (c *Collection[T]) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

func (c *Collection[T]) notify(kind ChangeKind, err error) {
	c.mu.Lock()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()
	change := Change{Collection: c.name, Kind: kind, Err: err}
	for _, o := range observers {
		o.OnChange(change)
	}
}

// State returns a copy of the current state.
func (c *Collection[T]) State() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.search
	s.Results = slices.Clone(c.search.Results)
	return Snapshot[T]{
		Items:        slices.Clone(c.items),
		Projection:   slices.Clone(c.projection),
		PageCursor:   c.pageCursor,
		HasMore:      c.hasMore,
		Loading:      c.loading,
		Search:       s,
		Sort:         c.sort,
		ViewMode:     c.viewMode,
		Initialized:  c.initialized,
		LastLoadedAt: c.lastLoadedAt,
		Stale:        c.staleLocked(),
	}
}

// Projection returns the rows currently intended for display.
func (c *Collection[T]) Projection() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.projection)
}

// HasMore reports whether further pages may exist.
func (c *Collection[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Sort returns the current sort state.
func (c *Collection[T]) Sort() domain.SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// ViewMode returns the current view mode.
func (c *Collection[T]) ViewMode() domain.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMode
}

// IsStale is the single freshness predicate: never loaded, explicitly
// invalidated, or older than the TTL.
func (c *Collection[T]) IsStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked()
}

func (c *Collection[T]) staleLocked() bool {
	if !c.initialized || c.invalidated {
		return true
	}
	return c.opts.TTL > 0 && c.opts.Now().Sub(c.lastLoadedAt) > c.opts.TTL
}

// Invalidate marks the collection stale so the next EnsureFresh reloads it.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.invalidated = true
	c.mu.Unlock()
}

// EnsureFresh reloads from page one if the collection is stale.
func (c *Collection[T]) EnsureFresh(ctx context.Context) error {
	if !c.IsStale() {
		return nil
	}
	return c.Reset(ctx)
}

// LoadNextPage fetches the page at the cursor and ingests it. It is a no-op
// returning false while another fetch is in flight, once the collection is
// exhausted, or while a search is active.
func (c *Collection[T]) LoadNextPage(ctx context.Context) (bool, error) {
	if !c.lane.TryLock() {
		return false, nil
	}
	defer c.lane.Unlock()

	c.mu.Lock()
	if !c.hasMore || c.search.Active {
		c.mu.Unlock()
		return false, nil
	}
	page, gen, sortVersion := c.pageCursor, c.generation, c.sortVersion
	c.loading = true
	c.mu.Unlock()
	c.notify(ChangeLoading, nil)

	batch, err := c.fetch(ctx, page)
	if err == nil && len(batch) > 0 && c.Sort().Key == domain.SortByDuration {
		c.resolve(ctx, batch)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding page fetched before reset", "page", page)
		return false, nil
	}
	c.loading = false
	switch {
	case err != nil:
		c.mu.Unlock()
		c.logger.Error("failed to load page", "error", err, "page", page)
		err = fmt.Errorf("load %s page %d: %w", c.name, page, err)
		c.notify(ChangeLoading, err)
		return false, err

	case len(batch) == 0:
		c.hasMore = false
		c.mu.Unlock()
		c.logger.Debug("collection exhausted", "page", page)
		c.notify(ChangeLoading, nil)
		return false, nil
	}

	fresh := c.ingestLocked(batch)
	c.pageCursor++
	c.markLoadedLocked()
	if !c.search.Active {
		c.projection = c.mergeLocked(fresh, sortVersion == c.sortVersion)
	}
	total := len(c.items)
	c.mu.Unlock()

	c.logger.Debug("loaded page", "page", page, "fetched", len(batch), "new", len(fresh), "total", total)
	c.notify(ChangeProjection, nil)
	return true, nil
}

// Reset clears the collection and reloads page one, replacing whatever was
// there. Pagination results issued before the reset are discarded.
func (c *Collection[T]) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.items = nil
	c.ids = make(map[string]struct{})
	if !c.search.Active {
		c.projection = nil
	}
	c.pageCursor = 1
	c.hasMore = true
	c.loading = true
	c.mu.Unlock()
	c.notify(ChangeReset, nil)

	c.lane.Lock()
	defer c.lane.Unlock()

	batch, err := c.fetch(ctx, 1)
	if err == nil && len(batch) > 0 && c.Sort().Key == domain.SortByDuration {
		c.resolve(ctx, batch)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		// Items were cleared above; stay stale so EnsureFresh retries
		c.invalidated = true
		c.mu.Unlock()
		c.logger.Error("failed to reload collection", "error", err)
		err = fmt.Errorf("reset %s: %w", c.name, err)
		c.notify(ChangeLoading, err)
		return err
	}

	c.ingestLocked(batch)
	if len(batch) == 0 {
		c.hasMore = false
	} else {
		c.pageCursor = 2
	}
	c.markLoadedLocked()
	if !c.search.Active {
		c.projection = sorted(c.items, c.sort, c.durationFunc())
	}
	count := len(c.items)
	c.mu.Unlock()

	c.logger.Debug("reloaded collection", "count", count)
	c.notify(ChangeProjection, nil)
	return nil
}

// ResetState handles a backend reset notification: the search overlay is
// dropped, sort and view mode return to their defaults, learned durations
// are forgotten and page one is reloaded.
func (c *Collection[T]) ResetState(ctx context.Context) error {
	c.debounce.cancel()
	c.mu.Lock()
	c.searchToken++
	c.search = SearchState[T]{}
	c.sort = c.opts.DefaultSort
	c.sortVersion++
	c.viewMode = c.opts.DefaultView
	c.mu.Unlock()
	if c.resolver != nil {
		c.resolver.Forget()
	}
	c.notify(ChangeViewMode, nil)
	return c.Reset(ctx)
}

// ShouldLoadMore reports whether a view whose last visible row is
// visibleStop is within the lookahead of the end of the projection.
// An empty projection always qualifies, but views render no rows for it and
// send no hint; an empty collection is refilled through EnsureFresh instead.
func (c *Collection[T]) ShouldLoadMore(visibleStop int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || !c.hasMore || c.search.Active {
		return false
	}
	return visibleStop >= len(c.projection)-c.opts.Lookahead
}

// OnItemsRendered is the scroll hint from views. It loads the next page when
// the visible window nears the end; all LoadNextPage rules still apply.
func (c *Collection[T]) OnItemsRendered(ctx context.Context, visibleStop int) (bool, error) {
	if !c.ShouldLoadMore(visibleStop) {
		return false, nil
	}
	return c.LoadNextPage(ctx)
}

// SetViewMode changes the presentation preference and tells views to reset
// their scroll state.
func (c *Collection[T]) SetViewMode(mode domain.ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidViewMode, mode)
	}
	c.mu.Lock()
	c.viewMode = mode
	c.mu.Unlock()
	c.notify(ChangeViewMode, nil)
	return nil
}

// SetQuery updates the search overlay. An empty query restores the sorted
// base view at once; otherwise the backend search runs after the debounce
// delay and only the latest query's result is ever applied.
func (c *Collection[T]) SetQuery(ctx context.Context, query string) {
	token, query, ok := c.beginSearch(query)
	if !ok {
		c.debounce.cancel()
		c.notify(ChangeSearch, nil)
		return
	}
	c.notify(ChangeSearch, nil)
	c.debounce.schedule(func() { c.runSearch(ctx, token, query) })
}

// SearchNow is SetQuery without the debounce. It returns once the result
// has been applied or superseded.
func (c *Collection[T]) SearchNow(ctx context.Context, query string) {
	c.debounce.cancel()
	token, query, ok := c.beginSearch(query)
	c.notify(ChangeSearch, nil)
	if ok {
		c.runSearch(ctx, token, query)
	}
}

func (c *Collection[T]) beginSearch(query string) (uint64, string, bool) {
	query = strings.TrimSpace(query)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchToken++
	if query == "" {
		c.search = SearchState[T]{}
		c.projection = sorted(c.items, c.sort, c.durationFunc())
		return c.searchToken, "", false
	}
	c.search.Query = query
	c.search.Active = true
	c.search.Loading = true
	return c.searchToken, query, true
}

func (c *Collection[T]) runSearch(ctx context.Context, token uint64, query string) {
	if !c.currentToken(token) {
		return
	}

	matches, err := c.find(ctx, query)
	if err != nil {
		c.logger.Warn("backend search failed, filtering loaded items", "error", err, "query", query)
	}
	fallback := err != nil || len(matches) == 0
	if fallback {
		matches = c.filterLoaded(query)
	}
	matches = dedupe(matches)

	if c.Sort().Key == domain.SortByDuration {
		c.resolve(ctx, matches)
	}

	c.mu.Lock()
	if token != c.searchToken {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded search result", "query", query)
		return
	}
	results := sorted(matches, c.sort, c.durationFunc())
	c.search.Results = results
	c.search.Fallback = fallback
	c.search.Loading = false
	c.projection = slices.Clone(results)
	c.mu.Unlock()

	c.logger.Debug("search applied", "query", query, "results", len(results), "fallback", fallback)
	c.notify(ChangeSearch, nil)
}

func (c *Collection[T]) currentToken(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token == c.searchToken
}

func (c *Collection[T]) filterLoaded(query string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []T
	for _, item := range c.items {
		if matchesQuery(item, query) {
			out = append(out, item)
		}
	}
	return out
}

// SetSort changes the ordering. With a search active only the results are
// re-sorted. Otherwise the loaded items are re-sorted at once and then every
// remaining page is fetched so the final order spans the whole collection.
func (c *Collection[T]) SetSort(ctx context.Context, s domain.SortState) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.sort = s
	c.sortVersion++
	active := c.search.Active
	token := c.searchToken
	results := slices.Clone(c.search.Results)
	c.mu.Unlock()
	c.notify(ChangeSort, nil)

	if active {
		if s.Key == domain.SortByDuration {
			c.resolve(ctx, results)
		}
		c.mu.Lock()
		if token == c.searchToken && c.search.Active {
			c.search.Results = sorted(c.search.Results, c.sort, c.durationFunc())
			c.projection = slices.Clone(c.search.Results)
		}
		c.mu.Unlock()
		c.notify(ChangeProjection, nil)
		return nil
	}

	c.mu.Lock()
	c.projection = sorted(c.items, c.sort, c.durationFunc())
	c.mu.Unlock()
	c.notify(ChangeProjection, nil)

	return c.backfill(ctx)
}

// backfill fetches every remaining page and commits them in one step. The
// work is abandoned if a Reset intervenes; on a fetch error the partial
// result is dropped and the error returned.
func (c *Collection[T]) backfill(ctx context.Context) error {
	c.lane.Lock()
	defer c.lane.Unlock()

	c.mu.Lock()
	gen, page, more := c.generation, c.pageCursor, c.hasMore
	c.loading = more
	c.mu.Unlock()
	if more {
		c.notify(ChangeLoading, nil)
	}

	var pending []T
	start := time.Now()
	for more {
		if err := ctx.Err(); err != nil {
			return c.abortBackfill(gen, page, err)
		}
		batch, err := c.fetch(ctx, page)
		if err != nil {
			return c.abortBackfill(gen, page, err)
		}
		c.mu.Lock()
		superseded := gen != c.generation
		c.mu.Unlock()
		if superseded {
			c.logger.Debug("backfill superseded by reset", "page", page)
			return nil
		}
		if len(batch) == 0 {
			more = false
			break
		}
		pending = append(pending, batch...)
		page++
	}

	c.mu.Lock()
	key := c.sort.Key
	all := append(slices.Clone(c.items), pending...)
	c.mu.Unlock()
	if key == domain.SortByDuration {
		c.resolve(ctx, all)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	fresh := c.ingestLocked(pending)
	c.pageCursor = page
	c.hasMore = more
	if len(pending) > 0 {
		c.markLoadedLocked()
	}
	if !c.search.Active {
		c.projection = sorted(c.items, c.sort, c.durationFunc())
	}
	total := len(c.items)
	c.mu.Unlock()

	if len(pending) > 0 {
		c.logger.Info("backfilled collection for sort", "new", len(fresh), "total", total, "elapsed", time.Since(start))
	}
	c.notify(ChangeProjection, nil)
	return nil
}

func (c *Collection[T]) abortBackfill(gen uint64, page int, err error) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	c.mu.Unlock()
	c.logger.Error("backfill failed", "error", err, "page", page)
	err = fmt.Errorf("backfill %s page %d: %w", c.name, page, err)
	c.notify(ChangeLoading, err)
	return err
}

// ingestLocked appends the records whose ids are not yet known and returns them.
func (c *Collection[T]) ingestLocked(batch []T) []T {
	fresh := make([]T, 0, len(batch))
	for _, item := range batch {
		id := item.GetID()
		if _, dup := c.ids[id]; dup {
			continue
		}
		c.ids[id] = struct{}{}
		fresh = append(fresh, item)
	}
	c.items = append(c.items, fresh...)
	return fresh
}

// mergeLocked folds freshly ingested records into the displayed projection
// without moving rows already there. It re-derives the projection from
// items when the sort changed mid-fetch, the projection no longer matches
// items, or the batch dwarfs what is displayed.
func (c *Collection[T]) mergeLocked(fresh []T, sameSort bool) []T {
	compare := comparator(c.sort, c.durationFunc())
	existing := c.projection
	switch {
	case !sameSort,
		len(existing)+len(fresh) != len(c.items),
		len(fresh) > len(existing),
		!slices.IsSortedFunc(existing, compare):
		return sorted(c.items, c.sort, c.durationFunc())
	}
	incoming := slices.Clone(fresh)
	slices.SortStableFunc(incoming, compare)
	return mergeSorted(existing, incoming, compare)
}

func (c *Collection[T]) markLoadedLocked() {
	c.initialized = true
	c.invalidated = false
	c.lastLoadedAt = c.opts.Now()
}

func (c *Collection[T]) durationFunc() DurationFunc[T] {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.Duration
}

func (c *Collection[T]) resolve(ctx context.Context, items []T) {
	if c.resolver != nil && len(items) > 0 {
		c.resolver.Resolve(ctx, items)
	}
}

func dedupe[T domain.Record](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		if _, ok := seen[item.GetID()]; ok {
			continue
		}
		seen[item.GetID()] = struct{}{}
		out = append(out, item)
	}
	return out
}
