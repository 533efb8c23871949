package notify

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
)

// Notifier surfaces operator-facing events in the log stream. The WS stream
// carries the same events to the UI; this keeps a durable trace when no UI
// is attached.
type Notifier struct {
	bus    interfaces.EventService
	logger arbor.ILogger
	subID  string
	done   chan struct{}
}

// NewNotifier creates the notifier. Call Start to begin consuming.
func NewNotifier(bus interfaces.EventService, logger arbor.ILogger) *Notifier {
	return &Notifier{bus: bus, logger: logger, done: make(chan struct{})}
}

// Start subscribes to the operator topics and consumes until Stop.
func (n *Notifier) Start() {
	id, ch := n.bus.Subscribe(64,
		interfaces.EventReviewReady,
		interfaces.EventReviewExpiring,
		interfaces.EventApplicationSubmitted,
		interfaces.EventScraperError,
	)
	n.subID = id

	go func() {
		defer close(n.done)
		for event := range ch {
			n.announce(event)
		}
	}()
}

// Stop unsubscribes and waits for the consumer to drain.
func (n *Notifier) Stop() {
	n.bus.Unsubscribe(n.subID)
	<-n.done
}

func (n *Notifier) announce(event interfaces.Event) {
	log := n.logger.Info()
	appID, _ := event.Payload["application_id"].(string)

	switch event.Type {
	case interfaces.EventReviewReady:
		company, _ := event.Payload["company"].(string)
		title, _ := event.Payload["title"].(string)
		log.Str("application_id", appID).
			Str("company", company).
			Str("title", title).
			Msg("ACTION REQUIRED: application ready for review")
	case interfaces.EventReviewExpiring:
		log.Str("application_id", appID).
			Msg("Review window closing soon")
	case interfaces.EventApplicationSubmitted:
		status, _ := event.Payload["status"].(string)
		signal, _ := event.Payload["signal"].(string)
		log.Str("application_id", appID).
			Str("status", status).
			Str("signal", signal).
			Msg("Application submitted")
	case interfaces.EventScraperError:
		site, _ := event.Payload["site"].(string)
		message, _ := event.Payload["error"].(string)
		n.logger.Warn().
			Str("site", site).
			Str("error", message).
			Msg("Scraper run failed")
	}
}
