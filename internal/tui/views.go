package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/tui/components"
	"github.com/mmcdole/wora/internal/tui/styles"
)

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.renderBody()
	if overlay := m.overlay(); overlay != "" {
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, overlay)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.renderContext(),
		lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body),
		m.renderFooter(),
	)
}

func (m Model) overlay() string {
	switch {
	case m.showHelp:
		return m.renderHelp()
	case m.inputModal.IsVisible():
		return m.inputModal.View()
	case m.sortModal.IsVisible():
		return m.sortModal.View()
	case m.picker.IsVisible():
		return m.picker.View()
	}
	return ""
}

func (m Model) renderTabs() string {
	var tabs []string
	for t := TabAlbums; t < tabCount; t++ {
		label := t.String()
		if n := m.tabCountLabel(t); n != "" {
			label += " " + n
		}
		if t == m.tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	left := strings.Join(tabs, " ")

	var right string
	if p := m.activePager(); p != nil {
		right = styles.DimStyle.Render(p.Sort().String() + " · " + string(m.viewModeFor(m.tab)))
	}
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// tabCountLabel is "(n)" or "(n+)" while more pages exist
func (m Model) tabCountLabel(t Tab) string {
	switch t {
	case TabAlbums:
		st := m.session.Albums.State()
		return countLabel(len(st.Items), st.HasMore, st.Initialized)
	case TabSongs:
		st := m.session.Songs.State()
		return countLabel(len(st.Items), st.HasMore, st.Initialized)
	default:
		return fmt.Sprintf("(%d)", len(m.session.Playlists.Playlists()))
	}
}

func countLabel(n int, more, initialized bool) string {
	if !initialized {
		return ""
	}
	if more {
		return fmt.Sprintf("(%d+)", n)
	}
	return fmt.Sprintf("(%d)", n)
}

// renderContext is the line under the tabs: search box, filter or breadcrumb
func (m Model) renderContext() string {
	switch {
	case m.detail != nil:
		return styles.AccentStyle.Render(styles.Truncate(m.detail.title, m.width)) +
			styles.DimStyle.Render(fmt.Sprintf("  %d songs · esc to go back", len(m.detail.songs)))
	case m.searching:
		return styles.FilterPromptStyle.Render("/ ") + m.search.View()
	}

	q := m.currentQuery()
	if q == "" {
		return ""
	}
	text := fmt.Sprintf("search: %s (esc to clear)", q)
	switch m.tab {
	case TabAlbums:
		if m.session.Albums.State().Search.Fallback {
			text += " · showing loaded matches"
		}
	case TabSongs:
		if m.session.Songs.State().Search.Fallback {
			text += " · showing loaded matches"
		}
	}
	return styles.DimStyle.Render(text)
}

func (m Model) renderBody() string {
	if d := m.detail; d != nil {
		return d.view.View(songRows(d.songs))
	}
	view := m.views[m.tab]
	switch m.tab {
	case TabAlbums:
		return view.View(recordRows(m.session.Albums.Projection()))
	case TabSongs:
		return view.View(recordRows(m.session.Songs.Projection()))
	default:
		return view.View(playlistRows(m.visiblePlaylists()))
	}
}

func recordRows[T domain.Record](items []T) []components.Row {
	rows := make([]components.Row, len(items))
	for i, item := range items {
		rows[i] = components.RowFromRecord(item)
	}
	return rows
}

func songRows(songs []*domain.Song) []components.Row {
	rows := make([]components.Row, len(songs))
	for i, s := range songs {
		rows[i] = components.RowFromRecord(s)
		if s.Track > 0 {
			rows[i].Title = fmt.Sprintf("%2d. %s", s.Track, s.Name)
		}
	}
	return rows
}

func playlistRows(playlists []*domain.Playlist) []components.Row {
	rows := make([]components.Row, len(playlists))
	for i, p := range playlists {
		rows[i] = components.Row{
			Title:    p.Name,
			Subtitle: p.Description,
			Note:     fmt.Sprintf("%d songs", p.SongCount()),
		}
	}
	return rows
}

func (m Model) loading() bool {
	switch m.tab {
	case TabAlbums:
		st := m.session.Albums.State()
		return st.Loading || st.Search.Loading
	case TabSongs:
		st := m.session.Songs.State()
		return st.Loading || st.Search.Loading
	}
	return false
}

func (m Model) renderFooter() string {
	var left string
	switch {
	case m.status != "" && m.statusErr:
		left = styles.ErrorStyle.Render(m.status)
	case m.loading():
		left = m.spinner.View() + " " + styles.DimStyle.Render("Loading...")
	case m.status != "":
		left = styles.DimStyle.Render(m.status)
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	var columns []string
	for _, group := range Keys.HelpGroups() {
		var lines []string
		for _, b := range group {
			h := b.Help()
			lines = append(lines, styles.HelpKeyStyle.Render(styles.Pad(h.Key, 8))+styles.HelpDescStyle.Render(h.Desc))
		}
		columns = append(columns, lipgloss.NewStyle().PaddingRight(3).Render(strings.Join(lines, "\n")))
	}
	return styles.ModalStyle.Render(
		styles.ModalTitleStyle.Render("Keys") + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top, columns...),
	)
}
