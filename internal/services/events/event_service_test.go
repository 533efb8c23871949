package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
)

func TestSubscribeReceivesMatchingTopics(t *testing.T) {
	bus := NewService(common.GetLogger())

	id, ch := bus.Subscribe(4, interfaces.EventScraperFinished)
	defer bus.Unsubscribe(id)

	bus.PublishSync(interfaces.Event{Type: interfaces.EventScraperFinished, Payload: map[string]any{"site": "lever"}})
	bus.PublishSync(interfaces.Event{Type: interfaces.EventReviewReady})

	select {
	case evt := <-ch:
		assert.Equal(t, interfaces.EventScraperFinished, evt.Type)
		assert.Equal(t, "lever", evt.Payload["site"])
		assert.False(t, evt.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event not received")
	}

	// The non-matching topic was filtered out.
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.Type)
	default:
	}
}

func TestPublishNeverBlocksAndDropsSlowSubscriber(t *testing.T) {
	bus := NewService(common.GetLogger())

	_, ch := bus.Subscribe(1)

	done := make(chan struct{})
	go func() {
		// Second publish overflows the buffer of 1; must not block.
		bus.Publish(interfaces.Event{Type: interfaces.EventReviewReady})
		bus.Publish(interfaces.Event{Type: interfaces.EventReviewExpiring})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	// The slow subscriber was quarantined: its channel drains then closes.
	evt, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, interfaces.EventReviewReady, evt.Type)
	_, ok = <-ch
	assert.False(t, ok, "channel should be closed after quarantine")
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewService(common.GetLogger())
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok)
}
