package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
)

const defaultBuffer = 64

// subscriber is one registered bus client.
type subscriber struct {
	id    string
	types map[interfaces.EventType]bool // nil means all topics
	ch    chan interfaces.Event
}

// Service is the process-local best-effort pub/sub bus. Delivery is
// per-subscriber buffered; a subscriber that cannot keep up is dropped and
// its channel closed (slow-client quarantine). Distinct from the persisted
// audit events, which are durable and totally ordered per application.
type Service struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	logger      arbor.ILogger
}

// NewService creates the event bus.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for the given topics (all when empty).
func (s *Service) Subscribe(buffer int, types ...interfaces.EventType) (string, <-chan interfaces.Event) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	sub := &subscriber{
		id: uuid.New().String(),
		ch: make(chan interfaces.Event, buffer),
	}
	if len(types) > 0 {
		sub.types = make(map[interfaces.EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	s.mu.Lock()
	s.subscribers[sub.id] = sub
	s.mu.Unlock()

	s.logger.Debug().Str("subscriber_id", sub.id).Int("topics", len(types)).Msg("Event subscriber registered")
	return sub.id, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	sub, ok := s.subscribers[id]
	if ok {
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	if ok {
		close(sub.ch)
		s.logger.Debug().Str("subscriber_id", id).Msg("Event subscriber removed")
	}
}

// Publish delivers the event without ever blocking the caller. Subscribers
// whose buffers are full are quarantined.
func (s *Service) Publish(event interfaces.Event) {
	s.deliver(event)
}

// PublishSync delivers inline; sends are non-blocking either way. Kept as a
// distinct entry point so tests read naturally.
func (s *Service) PublishSync(event interfaces.Event) {
	s.deliver(event)
}

func (s *Service) deliver(event interfaces.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.mu.RLock()
	targets := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if sub.types == nil || sub.types[event.Type] {
			targets = append(targets, sub)
		}
	}
	s.mu.RUnlock()

	var dropped []string
	for _, sub := range targets {
		select {
		case sub.ch <- event:
		default:
			dropped = append(dropped, sub.id)
		}
	}

	for _, id := range dropped {
		s.logger.Warn().Str("subscriber_id", id).Str("event_type", string(event.Type)).
			Msg("Dropping slow event subscriber")
		s.Unsubscribe(id)
	}
}
