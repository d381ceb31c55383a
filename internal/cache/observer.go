package cache

// ChangeKind says which part of a collection's state moved.
type ChangeKind int

const (
	// ChangeProjection means the displayed rows changed
	ChangeProjection ChangeKind = iota
	// ChangeLoading means a fetch started or finished
	ChangeLoading
	// ChangeSearch means the search overlay started, resolved or cleared
	ChangeSearch
	// ChangeSort means the sort state changed
	ChangeSort
	// ChangeViewMode means views should reset scroll and layout state
	ChangeViewMode
	// ChangeReset means the collection was cleared and reloaded
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeProjection:
		return "projection"
	case ChangeLoading:
		return "loading"
	case ChangeSearch:
		return "search"
	case ChangeSort:
		return "sort"
	case ChangeViewMode:
		return "view-mode"
	case ChangeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change is delivered to observers after state has been updated.
type Change struct {
	Collection string
	Kind       ChangeKind
	Err        error
}

// Observer receives change notifications. Calls happen outside the state lock.
type Observer interface {
	OnChange(change Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) OnChange(c Change) { f(c) }

// NoOpObserver discards notifications.
type NoOpObserver struct{}

func (NoOpObserver) OnChange(Change) {}

// ChannelObserver forwards changes to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- Change
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- Change) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnChange sends the change to the channel (non-blocking if full).
func (o *ChannelObserver) OnChange(c Change) {
	select {
	case o.ch <- c:
	default: // Non-blocking if channel full
	}
}
