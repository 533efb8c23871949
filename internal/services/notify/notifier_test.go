package notify

import (
	"testing"
	"time"

	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/services/events"
)

func TestNotifierConsumesAndStops(t *testing.T) {
	bus := events.NewService(common.GetLogger())
	notifier := NewNotifier(bus, common.GetLogger())
	notifier.Start()

	bus.PublishSync(interfaces.Event{
		Type: interfaces.EventReviewReady,
		Payload: map[string]any{
			"application_id": "app_1",
			"company":        "Acme",
			"title":          "Backend Developer",
		},
		Timestamp: time.Now().UTC(),
	})
	bus.PublishSync(interfaces.Event{
		Type:      interfaces.EventScraperError,
		Payload:   map[string]any{"site": "infojobs", "error": "selector drift"},
		Timestamp: time.Now().UTC(),
	})

	done := make(chan struct{})
	go func() {
		notifier.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop")
	}
}
