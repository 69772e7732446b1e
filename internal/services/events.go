package services

import (
	"time"

	"github.com/goccy/go-json"

	"booknest/internal/logging"
	"booknest/internal/metrics"
)

// Routing keys of the domain events.
const (
	EventLibraryToggled = "library.toggled"
	EventUserDeleted    = "user.deleted"
)

// Publisher sends a domain event to the broker. A nil Publisher disables
// events.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// LibraryToggledEvent is emitted after every successful toggle.
type LibraryToggledEvent struct {
	UserID string    `json:"userId"`
	BookID string    `json:"bookId"`
	Field  string    `json:"field"`
	Value  bool      `json:"value"`
	At     time.Time `json:"at"`
}

// UserDeletedEvent is emitted after an account is removed.
type UserDeletedEvent struct {
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// publish is fire-and-forget: a broker failure is logged and never fails the
// request that produced the event.
func publish(p Publisher, routingKey string, event interface{}) {
	if p == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Str("routing_key", routingKey).Msg("failed to encode event")
		metrics.EventsPublished.WithLabelValues(routingKey, "encode_error").Inc()
		return
	}
	if err := p.Publish(routingKey, body); err != nil {
		logging.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
		metrics.EventsPublished.WithLabelValues(routingKey, "error").Inc()
		return
	}
	metrics.EventsPublished.WithLabelValues(routingKey, "ok").Inc()
}
