package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/tui/styles"
)

// SortModal is a small popup for choosing sort order
type SortModal struct {
	visible bool
	options []domain.SortKey
	cursor  int
	active  domain.SortState
}

// NewSortModal creates a new sort modal
func NewSortModal() SortModal {
	return SortModal{options: domain.SortKeys()}
}

// Show displays the modal with the cursor on the active key
func (m *SortModal) Show(active domain.SortState) {
	m.visible = true
	m.active = active
	m.cursor = 0
	for i, opt := range m.options {
		if opt == active.Key {
			m.cursor = i
			break
		}
	}
}

func (m *SortModal) Hide() {
	m.visible = false
}

func (m SortModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, selection).
// Choosing the active key again flips its direction.
func (m *SortModal) HandleKey(key string) (handled bool, selection *domain.SortState) {
	if !m.visible {
		return false, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		chosen := m.options[m.cursor]
		next := domain.SortState{Key: chosen, Direction: domain.DefaultDirection(chosen)}
		if chosen == m.active.Key {
			next.Direction = m.active.Direction.Toggle()
		}
		m.visible = false
		return true, &next
	case "esc", "s":
		m.visible = false
	}
	return true, nil // consume all keys when visible
}

func (m SortModal) View() string {
	if !m.visible {
		return ""
	}

	const width = 20
	var lines []string
	for i, opt := range m.options {
		isActive := opt == m.active.Key

		prefix, suffix := "  ", ""
		if isActive {
			prefix = "✓ "
			suffix = " ↑"
			if m.active.Direction == domain.SortDesc {
				suffix = " ↓"
			}
		}
		text := styles.Pad(prefix+opt.String()+suffix, width)

		style := lipgloss.NewStyle().Foreground(styles.LightGray)
		switch {
		case i == m.cursor:
			style = lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight)
		case isActive:
			style = lipgloss.NewStyle().Foreground(styles.Accent)
		}
		lines = append(lines, style.Render(text))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render("Sort by") + "\n" + strings.Join(lines, "\n"))
}
