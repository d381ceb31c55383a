package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/tui/styles"
)

// PlaylistPicker chooses the playlist a song is added to
type PlaylistPicker struct {
	visible   bool
	song      *domain.Song
	playlists []*domain.Playlist
	cursor    int
}

func NewPlaylistPicker() PlaylistPicker {
	return PlaylistPicker{}
}

func (m *PlaylistPicker) Show(song *domain.Song, playlists []*domain.Playlist) {
	m.visible = true
	m.song = song
	m.playlists = playlists
	m.cursor = 0
}

func (m *PlaylistPicker) Hide() {
	m.visible = false
}

func (m PlaylistPicker) IsVisible() bool {
	return m.visible
}

// HandleKey returns (handled, playlist, song); playlist is non-nil once chosen.
func (m *PlaylistPicker) HandleKey(key string) (bool, *domain.Playlist, *domain.Song) {
	if !m.visible {
		return false, nil, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.playlists)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		m.visible = false
		if len(m.playlists) == 0 {
			return true, nil, nil
		}
		return true, m.playlists[m.cursor], m.song
	case "esc", "q":
		m.visible = false
	}
	return true, nil, nil
}

func (m PlaylistPicker) View() string {
	if !m.visible {
		return ""
	}

	const width = 30
	title := "Add to playlist"
	if m.song != nil {
		title = fmt.Sprintf("Add %q to", styles.Truncate(m.song.Name, 18))
	}

	var lines []string
	if len(m.playlists) == 0 {
		lines = append(lines, styles.DimStyle.Render(styles.Pad("No playlists (n to create)", width)))
	}
	for i, p := range m.playlists {
		text := styles.Pad(fmt.Sprintf("%s (%d)", p.Name, p.SongCount()), width)
		if i == m.cursor {
			lines = append(lines, lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight).Render(text))
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(styles.LightGray).Render(text))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}
