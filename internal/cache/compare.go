package cache

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/wora/internal/domain"
)

// DurationFunc returns the effective runtime of a record and whether it is known.
type DurationFunc[T domain.Record] func(T) (time.Duration, bool)

// precomputed reads the runtime carried by the record itself.
func precomputed[T domain.Record](r T) (time.Duration, bool) {
	d := r.GetDuration()
	return d, d > 0
}

// comparator builds a total order for s. Missing key values sort last
// regardless of direction; ties fall back to name then id, ascending.
func comparator[T domain.Record](s domain.SortState, duration DurationFunc[T]) func(a, b T) int {
	if duration == nil {
		duration = precomputed[T]
	}
	primary := func(a, b T) (int, bool, bool) {
		switch s.Key {
		case domain.SortByArtist:
			x, y := fold(a.GetArtist()), fold(b.GetArtist())
			return strings.Compare(x, y), x == "", y == ""
		case domain.SortByYear:
			x, y := a.GetYear(), b.GetYear()
			return cmp.Compare(x, y), x <= 0, y <= 0
		case domain.SortByDuration:
			x, okX := duration(a)
			y, okY := duration(b)
			return cmp.Compare(x, y), !okX, !okY
		default:
			x, y := fold(a.GetName()), fold(b.GetName())
			return strings.Compare(x, y), x == "", y == ""
		}
	}

	return func(a, b T) int {
		c, nullA, nullB := primary(a, b)
		switch {
		case nullA && !nullB:
			return 1
		case nullB && !nullA:
			return -1
		case !nullA:
			if s.Direction == domain.SortDesc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		if c := strings.Compare(fold(a.GetName()), fold(b.GetName())); c != 0 {
			return c
		}
		return strings.Compare(a.GetID(), b.GetID())
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// sorted returns a stably sorted copy of items.
func sorted[T domain.Record](items []T, s domain.SortState, duration DurationFunc[T]) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, comparator(s, duration))
	return out
}

// mergeSorted merges two slices that are each ordered by less. On ties the
// element from existing comes first, so already rendered rows keep their
// relative order.
func mergeSorted[T any](existing, incoming []T, compare func(a, b T) int) []T {
	out := make([]T, 0, len(existing)+len(incoming))
	i, j := 0, 0
	for i < len(existing) && j < len(incoming) {
		if compare(incoming[j], existing[i]) < 0 {
			out = append(out, incoming[j])
			j++
		} else {
			out = append(out, existing[i])
			i++
		}
	}
	out = append(out, existing[i:]...)
	return append(out, incoming[j:]...)
}

// matchesQuery is the local fallback predicate: case-insensitive substring
// over name and artist.
func matchesQuery[T domain.Record](r T, query string) bool {
	q := fold(query)
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.GetName()), q) ||
		strings.Contains(strings.ToLower(r.GetArtist()), q)
}
