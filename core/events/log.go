package events

import "github.com/rs/zerolog"

// LogPublisher writes the events to a logger.
//
// - implements events.Publisher
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher returns a publisher that logs at the info level.
func NewLogPublisher(logger zerolog.Logger) LogPublisher {
	return LogPublisher{logger: logger}
}

// Publish implements events.Publisher.
func (p LogPublisher) Publish(topic string, attrs ...Attr) {
	evt := p.logger.Info().Str("topic", topic)

	for _, attr := range attrs {
		evt = evt.Str(attr.Key, attr.Value)
	}

	evt.Msg("event")
}
