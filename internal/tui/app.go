package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/tui/components"
	"github.com/mmcdole/wora/internal/tui/styles"
)

// Tab is one of the top-level collections
type Tab int

const (
	TabAlbums Tab = iota
	TabSongs
	TabPlaylists
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabAlbums:
		return "Albums"
	case TabSongs:
		return "Songs"
	case TabPlaylists:
		return "Playlists"
	default:
		return "Unknown"
	}
}

// Layout: tab bar + context line above the body, status footer below
const (
	HeaderHeight = 2
	FooterHeight = 1

	statusTimeout = 4 * time.Second
)

type inputPurpose int

const (
	inputNone inputPurpose = iota
	inputCreate
	inputRename
)

// detailPane lists the songs of an opened album or playlist
type detailPane struct {
	title    string
	album    *domain.Album
	playlist *domain.Playlist
	songs    []*domain.Song
	view     components.CollectionView
}

// Model is the main Bubble Tea model for the application
type Model struct {
	ctx     context.Context
	session *cache.Session
	logger  *slog.Logger

	changes chan cache.Change
	events  chan domain.Event

	// Browsing
	tab    Tab
	views  [tabCount]components.CollectionView
	detail *detailPane

	// Search
	search        textinput.Model
	searching     bool
	playlistQuery string

	// Overlays
	spinner    spinner.Model
	sortModal  components.SortModal
	inputModal components.InputModal
	input      inputPurpose
	renaming   *domain.Playlist
	picker     components.PlaylistPicker
	confirm    *domain.Playlist // awaiting delete confirmation
	showHelp   bool

	// Dimensions
	width  int
	height int
	ready  bool

	status    string
	statusErr bool
}

// NewModel creates the application model. ctx bounds every background
// operation the UI starts.
func NewModel(ctx context.Context, session *cache.Session, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	changes := make(chan cache.Change, changeBuffer)
	session.Subscribe(cache.NewChannelObserver(changes))

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "search"
	search.CharLimit = 100

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle))

	m := Model{
		ctx:        ctx,
		session:    session,
		logger:     logger,
		changes:    changes,
		events:     make(chan domain.Event, eventBuffer),
		search:     search,
		spinner:    sp,
		sortModal:  components.NewSortModal(),
		inputModal: components.NewInputModal(),
		picker:     components.NewPlaylistPicker(),
	}
	m.views[TabAlbums] = components.NewCollectionView(session.Albums.ViewMode())
	m.views[TabSongs] = components.NewCollectionView(session.Songs.ViewMode())
	m.views[TabPlaylists] = components.NewCollectionView(domain.ViewList)
	m.views[TabAlbums].SetEmptyText("No albums. Run `wora scan` to import your music.")
	m.views[TabSongs].SetEmptyText("No songs. Run `wora scan` to import your music.")
	m.views[TabPlaylists].SetEmptyText("No playlists. Press n to create one.")
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForChange(m.changes),
		waitForEvent(m.events),
		listenCmd(m.ctx, m.session, m.events),
		EnsureAlbumsCmd(m.ctx, m.session),
		EnsurePlaylistsCmd(m.ctx, m.session),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLayout()
		return m, m.renderedCmd()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ChangeMsg:
		m.applyChange(msg.Change)
		return m, tea.Batch(waitForChange(m.changes), m.renderedCmd())

	case EventMsg:
		cmd := m.applyEvent(msg.Event)
		return m, tea.Batch(waitForEvent(m.events), cmd)

	case ErrMsg:
		m.logger.Error("ui action failed", "error", msg.Err, "context", msg.Context)
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.status, m.statusErr = "", false
		return m, nil

	case AlbumOpenedMsg:
		m.openDetail(&detailPane{title: msg.Album.Artist + " · " + msg.Album.Name, album: msg.Album, songs: msg.Album.Songs})
		return m, nil

	case PlaylistOpenedMsg:
		m.openDetail(&detailPane{title: msg.Playlist.Name, playlist: msg.Playlist, songs: msg.Songs})
		return m, nil

	case PlaybackStartedMsg:
		text := "Playing " + msg.Title
		if msg.Shuffle {
			text += " (shuffled)"
		}
		return m, m.setStatus(text, false)

	case PlaylistSavedMsg:
		m.syncCounts()
		cmd := m.setStatus(msg.Message, false)
		if d := m.detail; d != nil && d.playlist != nil && msg.Playlist != nil && d.playlist.ID == msg.Playlist.ID {
			cmd = tea.Batch(cmd, OpenPlaylistCmd(m.ctx, m.session, d.playlist.ID))
		}
		return m, cmd

	case PlaylistDeletedMsg:
		if m.detail != nil && m.detail.playlist != nil && m.detail.playlist.ID == msg.ID {
			m.detail = nil
		}
		m.syncCounts()
		return m, m.setStatus(fmt.Sprintf("Deleted %q", msg.Name), false)
	}

	return m, nil
}

// applyChange refreshes view state after a collection reported a change
func (m *Model) applyChange(c cache.Change) {
	tab, ok := tabFor(c.Collection)
	if !ok {
		return
	}
	if c.Err != nil {
		m.status, m.statusErr = c.Err.Error(), true
	}

	switch c.Kind {
	case cache.ChangeViewMode:
		m.views[tab].SetMode(m.viewModeFor(tab))
		m.views[tab].Home()
	case cache.ChangeSearch, cache.ChangeSort, cache.ChangeReset:
		m.views[tab].Home()
	}
	m.syncCounts()
}

// applyEvent reacts to a backend notification the session already applied
func (m *Model) applyEvent(ev domain.Event) tea.Cmd {
	switch ev.Kind {
	case domain.EventLibraryScanned:
		text := "Library updated"
		if ev.Scan != nil {
			text = fmt.Sprintf("Library updated: %d albums, %d songs", ev.Scan.Albums, ev.Scan.Songs)
		}
		m.detail = nil
		return tea.Batch(m.setStatus(text, false), m.ensureTabCmd(), EnsurePlaylistsCmd(m.ctx, m.session))
	case domain.EventLanguageChanged:
		return m.setStatus("Language set to "+ev.Language, false)
	case domain.EventSettingsUpdated:
		return m.setStatus("Settings updated", false)
	case domain.EventResetPlaylists:
		m.syncCounts()
	}
	return nil
}

func tabFor(collection string) (Tab, bool) {
	switch collection {
	case cache.AlbumsName:
		return TabAlbums, true
	case cache.SongsName:
		return TabSongs, true
	case cache.PlaylistsName:
		return TabPlaylists, true
	}
	return 0, false
}

func (m Model) viewModeFor(tab Tab) domain.ViewMode {
	switch tab {
	case TabAlbums:
		return m.session.Albums.ViewMode()
	case TabSongs:
		return m.session.Songs.ViewMode()
	}
	return domain.ViewList
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.status, m.statusErr = text, isErr
	return ClearStatusCmd(statusTimeout)
}

// syncCounts tells each view how many rows its collection currently projects
func (m *Model) syncCounts() {
	m.views[TabAlbums].SetCount(len(m.session.Albums.Projection()))
	m.views[TabSongs].SetCount(len(m.session.Songs.Projection()))
	m.views[TabPlaylists].SetCount(len(m.visiblePlaylists()))
}

func (m Model) visiblePlaylists() []*domain.Playlist {
	return m.session.Playlists.Filter(m.playlistQuery)
}

func (m *Model) openDetail(d *detailPane) {
	d.view = components.NewCollectionView(domain.ViewList)
	d.view.SetEmptyText("No songs")
	d.view.SetSize(m.width, m.bodyHeight())
	d.view.SetCount(len(d.songs))
	// Keep the cursor when a playlist is reopened after an edit
	if m.detail != nil && m.detail.playlist != nil && d.playlist != nil && m.detail.playlist.ID == d.playlist.ID {
		d.view.SetCursor(m.detail.view.Cursor())
	}
	m.detail = d
}

func (m Model) bodyHeight() int {
	return max(1, m.height-HeaderHeight-FooterHeight)
}

func (m *Model) updateLayout() {
	for i := range m.views {
		m.views[i].SetSize(m.width, m.bodyHeight())
	}
	if m.detail != nil {
		m.detail.view.SetSize(m.width, m.bodyHeight())
	}
	m.search.Width = max(10, m.width-4)
}

// activeView returns the view that receives navigation keys
func (m *Model) activeView() *components.CollectionView {
	if m.detail != nil {
		return &m.detail.view
	}
	return &m.views[m.tab]
}

// activePager returns the paged collection behind the current tab, if any
func (m Model) activePager() pager {
	switch m.tab {
	case TabAlbums:
		return m.session.Albums
	case TabSongs:
		return m.session.Songs
	}
	return nil
}

// renderedCmd reports the visible window of the current tab so the
// collection can fetch ahead
func (m Model) renderedCmd() tea.Cmd {
	p := m.activePager()
	if p == nil || m.detail != nil || !m.ready {
		return nil
	}
	view := m.views[m.tab]
	_, stop := view.VisibleRange()
	if stop < 0 {
		return nil
	}
	return ItemsRenderedCmd(m.ctx, p, stop)
}

func (m Model) ensureTabCmd() tea.Cmd {
	switch m.tab {
	case TabAlbums:
		return EnsureAlbumsCmd(m.ctx, m.session)
	case TabSongs:
		return EnsureSongsCmd(m.ctx, m.session)
	default:
		return EnsurePlaylistsCmd(m.ctx, m.session)
	}
}

func (m Model) currentQuery() string {
	switch m.tab {
	case TabAlbums:
		return m.session.Albums.State().Search.Query
	case TabSongs:
		return m.session.Songs.State().Search.Query
	default:
		return m.playlistQuery
	}
}

// applyQuery sends the search box text to the current collection
func (m *Model) applyQuery(q string) {
	switch m.tab {
	case TabAlbums:
		m.session.Albums.SetQuery(m.ctx, q)
	case TabSongs:
		m.session.Songs.SetQuery(m.ctx, q)
	default:
		m.playlistQuery = strings.TrimSpace(q)
		m.views[TabPlaylists].Home()
		m.syncCounts()
	}
}

func (m Model) selectedAlbum() *domain.Album {
	albums := m.session.Albums.Projection()
	if i := m.views[TabAlbums].Cursor(); i < len(albums) {
		return albums[i]
	}
	return nil
}

func (m Model) selectedSong() *domain.Song {
	if m.detail != nil {
		if i := m.detail.view.Cursor(); i < len(m.detail.songs) {
			return m.detail.songs[i]
		}
		return nil
	}
	if m.tab != TabSongs {
		return nil
	}
	songs := m.session.Songs.Projection()
	if i := m.views[TabSongs].Cursor(); i < len(songs) {
		return songs[i]
	}
	return nil
}

func (m Model) selectedPlaylist() *domain.Playlist {
	if m.detail != nil {
		return m.detail.playlist
	}
	if m.tab != TabPlaylists {
		return nil
	}
	playlists := m.visiblePlaylists()
	if i := m.views[TabPlaylists].Cursor(); i < len(playlists) {
		return playlists[i]
	}
	return nil
}

func (m Model) switchTab(tab Tab) (Model, tea.Cmd) {
	m.tab = tab
	m.detail = nil
	m.search.SetValue(m.currentQuery())
	m.syncCounts()
	return m, tea.Batch(m.ensureTabCmd(), m.renderedCmd())
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Overlays consume every key while visible
	if m.inputModal.IsVisible() {
		return m.handleInputKey(msg)
	}
	if m.sortModal.IsVisible() {
		_, sel := m.sortModal.HandleKey(msg.String())
		if sel != nil {
			if p := m.activePager(); p != nil {
				return m, SetSortCmd(m.ctx, p, *sel)
			}
		}
		return m, nil
	}
	if m.picker.IsVisible() {
		_, pl, song := m.picker.HandleKey(msg.String())
		if pl != nil && song != nil {
			return m, AddToPlaylistCmd(m.ctx, m.session, pl, song)
		}
		return m, nil
	}
	if m.confirm != nil {
		pl := m.confirm
		m.confirm = nil
		if key.Matches(msg, Keys.Confirm) {
			return m, DeletePlaylistCmd(m.ctx, m.session, pl)
		}
		return m, m.setStatus("Delete cancelled", false)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	view := m.activeView()
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, Keys.NextTab):
		return m.switchTab((m.tab + 1) % tabCount)

	case key.Matches(msg, Keys.PrevTab):
		return m.switchTab((m.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, Keys.Escape):
		if m.detail != nil {
			m.detail = nil
			return m, m.renderedCmd()
		}
		if m.currentQuery() != "" {
			m.search.SetValue("")
			m.applyQuery("")
		}
		return m, nil

	case key.Matches(msg, Keys.Up):
		view.MoveUp()
	case key.Matches(msg, Keys.Down):
		view.MoveDown()
	case key.Matches(msg, Keys.Left):
		view.MoveLeft()
	case key.Matches(msg, Keys.Right):
		view.MoveRight()
	case key.Matches(msg, Keys.PageUp):
		view.PageUp()
	case key.Matches(msg, Keys.PageDown):
		view.PageDown()
	case key.Matches(msg, Keys.Home):
		view.Home()
	case key.Matches(msg, Keys.End):
		view.End()

	case key.Matches(msg, Keys.Enter):
		return m, m.activate(false)
	case key.Matches(msg, Keys.Shuffle):
		return m, m.activate(true)

	case key.Matches(msg, Keys.Search):
		if m.detail != nil {
			return m, nil
		}
		m.searching = true
		m.search.SetValue(m.currentQuery())
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, Keys.Sort):
		if p := m.activePager(); p != nil && m.detail == nil {
			m.sortModal.Show(p.Sort())
		}
		return m, nil

	case key.Matches(msg, Keys.View):
		return m, m.cycleView()

	case key.Matches(msg, Keys.Refresh):
		if p := m.activePager(); p != nil {
			m.detail = nil
			return m, ResetCmd(m.ctx, p)
		}
		return m, RefreshPlaylistsCmd(m.ctx, m.session)

	case key.Matches(msg, Keys.NewPlaylist):
		m.input = inputCreate
		m.inputModal.Show("New playlist", "Name", "")
		return m, nil

	case key.Matches(msg, Keys.Rename):
		if pl := m.selectedPlaylist(); pl != nil {
			m.input = inputRename
			m.renaming = pl
			m.inputModal.Show("Rename playlist", "Name", pl.Name)
		}
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if m.detail != nil && m.detail.playlist != nil {
			if song := m.selectedSong(); song != nil {
				return m, RemoveFromPlaylistCmd(m.ctx, m.session, m.detail.playlist, song)
			}
			return m, nil
		}
		if pl := m.selectedPlaylist(); pl != nil {
			m.confirm = pl
			m.status, m.statusErr = fmt.Sprintf("Delete %q? (y to confirm)", pl.Name), false
		}
		return m, nil

	case key.Matches(msg, Keys.AddTo):
		if song := m.selectedSong(); song != nil {
			m.picker.Show(song, m.session.Playlists.Playlists())
		}
		return m, nil
	}

	return m, m.renderedCmd()
}

// activate opens or plays the selection
func (m *Model) activate(shuffle bool) tea.Cmd {
	if d := m.detail; d != nil {
		if len(d.songs) == 0 {
			return nil
		}
		start := d.view.Cursor()
		if shuffle {
			start = 0
		}
		return PlaySongsCmd(m.ctx, m.session, d.title, d.songs, start, shuffle)
	}

	switch m.tab {
	case TabAlbums:
		album := m.selectedAlbum()
		if album == nil {
			return nil
		}
		if shuffle {
			return PlayAlbumCmd(m.ctx, m.session, album, true)
		}
		return OpenAlbumCmd(m.ctx, m.session, album.ID)

	case TabSongs:
		songs := m.session.Songs.Projection()
		if len(songs) == 0 {
			return nil
		}
		start := m.views[TabSongs].Cursor()
		if shuffle {
			start = 0
		}
		return PlaySongsCmd(m.ctx, m.session, songs[start].Name, songs, start, shuffle)

	default:
		pl := m.selectedPlaylist()
		if pl == nil {
			return nil
		}
		if shuffle {
			return PlayPlaylistCmd(m.ctx, m.session, pl, true)
		}
		return OpenPlaylistCmd(m.ctx, m.session, pl.ID)
	}
}

// cycleView moves the current collection to its next presentation mode
func (m *Model) cycleView() tea.Cmd {
	if m.detail != nil {
		return nil
	}
	var err error
	switch m.tab {
	case TabAlbums:
		err = m.session.Albums.SetViewMode(m.session.Albums.ViewMode().Next())
	case TabSongs:
		err = m.session.Songs.SetViewMode(m.session.Songs.ViewMode().Next())
	default:
		v := &m.views[TabPlaylists]
		next := domain.ViewList
		if v.Mode() == domain.ViewList {
			next = domain.ViewCompact
		}
		v.SetMode(next)
		v.Home()
	}
	if err != nil {
		return m.setStatus(err.Error(), true)
	}
	return nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyQuery("")
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.applyQuery(m.search.Value())
	}
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.inputModal, cmd, submitted = m.inputModal.Update(msg)
	if !submitted {
		return m, cmd
	}

	name := strings.TrimSpace(m.inputModal.Value())
	if name == "" {
		m.inputModal.SetHint("Name is required")
		return m, nil
	}
	m.inputModal.Hide()

	purpose, target := m.input, m.renaming
	m.input, m.renaming = inputNone, nil
	switch purpose {
	case inputCreate:
		return m, CreatePlaylistCmd(m.ctx, m.session, name)
	case inputRename:
		if target != nil {
			return m, RenamePlaylistCmd(m.ctx, m.session, target, name)
		}
	}
	return m, nil
}
