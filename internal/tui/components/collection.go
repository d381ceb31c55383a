package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/tui/styles"
)

// Layout constants for the grid
const (
	CellWidth  = 26 // including border
	CellHeight = 5  // border + title, artist, meta lines

	// Border adds 1 char on each side
	BorderWidth = 2
	// Padding(0,1) inside the border
	HorizontalPadding = 2
)

// Row is the display form of one record
type Row struct {
	Title    string
	Subtitle string
	Year     int
	Duration time.Duration
	// Note replaces the year and duration columns when set
	Note string
}

// RowFromRecord builds a Row from any library record.
func RowFromRecord(r domain.Record) Row {
	return Row{
		Title:    r.GetName(),
		Subtitle: r.GetArtist(),
		Year:     r.GetYear(),
		Duration: r.GetDuration(),
	}
}

// CollectionView renders a projection as a grid, list or compact list and
// tracks the cursor and scroll position. It does not own the items.
type CollectionView struct {
	width, height int
	mode          domain.ViewMode
	count         int
	cursor        int
	offset        int // first visible line (grid row or list row)
	empty         string
}

func NewCollectionView(mode domain.ViewMode) CollectionView {
	return CollectionView{mode: mode, empty: "Nothing here yet"}
}

func (v *CollectionView) SetSize(width, height int) {
	v.width, v.height = width, height
	v.ensureVisible()
}

func (v *CollectionView) SetMode(mode domain.ViewMode) {
	v.mode = mode
	v.ensureVisible()
}

func (v CollectionView) Mode() domain.ViewMode { return v.mode }

func (v *CollectionView) SetEmptyText(text string) { v.empty = text }

// SetCount updates the number of items, clamping the cursor.
func (v *CollectionView) SetCount(n int) {
	v.count = n
	if v.cursor >= n {
		v.cursor = max(0, n-1)
	}
	v.ensureVisible()
}

func (v CollectionView) Cursor() int { return v.cursor }

func (v *CollectionView) SetCursor(i int) {
	v.cursor = min(max(0, i), max(0, v.count-1))
	v.ensureVisible()
}

// columns is the number of items per line
func (v CollectionView) columns() int {
	if v.mode != domain.ViewGrid {
		return 1
	}
	return max(1, v.width/CellWidth)
}

// lines is the number of visible lines
func (v CollectionView) lines() int {
	if v.mode != domain.ViewGrid {
		rows := v.height
		if v.mode == domain.ViewList {
			rows-- // header
		}
		return max(1, rows)
	}
	return max(1, v.height/CellHeight)
}

func (v *CollectionView) MoveUp()    { v.SetCursor(v.cursor - v.columns()) }
func (v *CollectionView) MoveDown()  { v.SetCursor(v.cursor + v.columns()) }
func (v *CollectionView) MoveLeft()  { v.SetCursor(v.cursor - 1) }
func (v *CollectionView) MoveRight() { v.SetCursor(v.cursor + 1) }
func (v *CollectionView) PageUp()    { v.SetCursor(v.cursor - v.columns()*v.lines()) }
func (v *CollectionView) PageDown()  { v.SetCursor(v.cursor + v.columns()*v.lines()) }
func (v *CollectionView) Home()      { v.SetCursor(0) }
func (v *CollectionView) End()       { v.SetCursor(v.count - 1) }

func (v *CollectionView) ensureVisible() {
	line := v.cursor / v.columns()
	if line < v.offset {
		v.offset = line
	}
	if line >= v.offset+v.lines() {
		v.offset = line - v.lines() + 1
	}
	maxOffset := max(0, (v.count+v.columns()-1)/v.columns()-v.lines())
	v.offset = min(max(0, v.offset), maxOffset)
}

// VisibleRange returns the first and last rendered item indexes. stop is
// -1 when nothing is rendered.
func (v CollectionView) VisibleRange() (start, stop int) {
	start = v.offset * v.columns()
	stop = min(v.count, start+v.columns()*v.lines()) - 1
	return start, stop
}

// View renders rows, which must have the length given to SetCount.
func (v CollectionView) View(rows []Row) string {
	if len(rows) == 0 {
		return styles.DimStyle.Render(v.empty)
	}
	start, stop := v.VisibleRange()
	switch v.mode {
	case domain.ViewGrid:
		return v.viewGrid(rows, start, stop)
	case domain.ViewCompact:
		return v.viewCompact(rows, start, stop)
	default:
		return v.viewList(rows, start, stop)
	}
}

func (v CollectionView) viewGrid(rows []Row, start, stop int) string {
	inner := CellWidth - BorderWidth - HorizontalPadding
	var lines []string
	for lineStart := start; lineStart <= stop; lineStart += v.columns() {
		var cells []string
		for i := lineStart; i < lineStart+v.columns() && i <= stop; i++ {
			r := rows[i]
			body := lipgloss.JoinVertical(lipgloss.Left,
				styles.TitleStyle.Render(styles.Pad(r.Title, inner)),
				styles.SubtitleStyle.Render(styles.Pad(r.Subtitle, inner)),
				styles.DimStyle.Render(styles.Pad(meta(r), inner)),
			)
			style := styles.GridCellStyle
			if i == v.cursor {
				style = styles.GridCellSelectedStyle
			}
			cells = append(cells, style.Render(body))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func (v CollectionView) viewList(rows []Row, start, stop int) string {
	yearW, durW := 6, 8
	rest := max(10, v.width-yearW-durW-4)
	titleW := rest * 3 / 5
	artistW := rest - titleW

	header := styles.DimStyle.Render(" " +
		styles.Pad("Title", titleW) + styles.Pad("Artist", artistW) +
		styles.Pad("Year", yearW) + styles.Pad("Time", durW))

	lines := []string{header}
	for i := start; i <= stop; i++ {
		r := rows[i]
		lines = append(lines, styles.RenderListRow([]styles.RowPart{
			{Text: styles.Pad(r.Title, titleW)},
			{Text: styles.Pad(r.Subtitle, artistW)},
			{Text: styles.Pad(listMeta(r, yearW), yearW+durW)},
		}, i == v.cursor, v.width))
	}
	return strings.Join(lines, "\n")
}

func (v CollectionView) viewCompact(rows []Row, start, stop int) string {
	var lines []string
	for i := start; i <= stop; i++ {
		r := rows[i]
		text := r.Title
		if r.Subtitle != "" {
			text += " · " + r.Subtitle
		}
		lines = append(lines, styles.RenderListRow([]styles.RowPart{
			{Text: styles.Truncate(text, max(1, v.width-2))},
		}, i == v.cursor, v.width))
	}
	return strings.Join(lines, "\n")
}

func meta(r Row) string {
	if r.Note != "" {
		return r.Note
	}
	parts := []string{}
	if r.Year > 0 {
		parts = append(parts, fmt.Sprint(r.Year))
	}
	parts = append(parts, domain.FormatDuration(r.Duration))
	return strings.Join(parts, " · ")
}

func listMeta(r Row, yearW int) string {
	if r.Note != "" {
		return r.Note
	}
	return styles.Pad(year(r.Year), yearW) + domain.FormatDuration(r.Duration)
}

func year(y int) string {
	if y <= 0 {
		return "--"
	}
	return fmt.Sprint(y)
}
