package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
)

// Buffer sizes for the session bridges. Collections coalesce, so a dropped
// change is recovered by the next one; views re-read the snapshot anyway.
const (
	changeBuffer = 64
	eventBuffer  = 16
)

// waitForChange returns a command that delivers the next collection change
func waitForChange(ch <-chan cache.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return ChangeMsg{Change: c}
	}
}

// waitForEvent returns a command that delivers the next backend event
func waitForEvent(ch <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// forwardEvent sends ev to ch without blocking the session listener
func forwardEvent(ch chan<- domain.Event) func(domain.Event) {
	return func(ev domain.Event) {
		select {
		case ch <- ev:
		default: // Non-blocking if channel full
		}
	}
}
