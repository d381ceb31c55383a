package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/wora/internal/domain"
)

func TestHub_FanOut(t *testing.T) {
	h := NewHub(nil)
	a, unsubA := h.Subscribe()
	b, unsubB := h.Subscribe()
	defer unsubB()

	h.Publish(domain.Event{Kind: domain.EventResetAlbums})
	assert.Equal(t, domain.EventResetAlbums, (<-a).Kind)
	assert.Equal(t, domain.EventResetAlbums, (<-b).Kind)

	unsubA()
	unsubA()
	_, open := <-a
	assert.False(t, open)

	h.Publish(domain.Event{Kind: domain.EventResetSongs})
	assert.Equal(t, domain.EventResetSongs, (<-b).Kind)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	ch, unsub := h.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(domain.Event{Kind: domain.EventResetAlbums})
	}
	assert.Len(t, ch, subscriberBuffer)
}
