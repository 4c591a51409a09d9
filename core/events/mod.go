// Package events defines the notifications emitted by the contracts once a
// state change happened.
//
// An event is a topic with a list of attributes. The contracts publish them to
// a publisher which can log them, count them, or buffer them until the
// transaction that produced them commits.
package events

import (
	"strconv"
	"sync"

	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/serde"
	"golang.org/x/xerrors"
)

// Attr is a key/value attribute of an event.
type Attr struct {
	Key   string
	Value string
}

// String returns a text attribute.
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Uint64 returns a numeric attribute.
func Uint64(key string, value uint64) Attr {
	return Attr{Key: key, Value: strconv.FormatUint(value, 10)}
}

// Identity returns an attribute with the text form of the identity.
func Identity(key string, ident access.Identity) Attr {
	return Attr{Key: key, Value: access.TextOf(ident)}
}

// Event is a notification about a state change.
//
// - implements serde.Message
type Event struct {
	Topic string
	Attrs []Attr
}

// eventJSON is the JSON message of an event. The attributes are kept as a list
// to preserve their order.
type eventJSON struct {
	Topic string
	Attrs []Attr
}

// Get returns the value of the attribute with the key, or an empty string.
func (e Event) Get(key string) string {
	for _, attr := range e.Attrs {
		if attr.Key == key {
			return attr.Value
		}
	}

	return ""
}

// Serialize implements serde.Message.
func (e Event) Serialize(ctx serde.Context) ([]byte, error) {
	data, err := ctx.Marshal(eventJSON(e))
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Factory deserializes events.
//
// - implements serde.Factory
type Factory struct{}

// Deserialize implements serde.Factory.
func (Factory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return Factory{}.EventOf(ctx, data)
}

// EventOf returns the event of the data if appropriate, otherwise an error.
func (Factory) EventOf(ctx serde.Context, data []byte) (Event, error) {
	m := eventJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return Event{}, xerrors.Errorf("couldn't unmarshal: %v", err)
	}

	return Event(m), nil
}

// Publisher is the interface to emit events.
type Publisher interface {
	Publish(topic string, attrs ...Attr)
}

// Multi is a publisher that forwards the events to each of its publishers.
//
// - implements events.Publisher
type Multi []Publisher

// Publish implements events.Publisher.
func (m Multi) Publish(topic string, attrs ...Attr) {
	for _, p := range m {
		p.Publish(topic, attrs...)
	}
}

// Recorder is a publisher that keeps every event in memory.
//
// - implements events.Publisher
type Recorder struct {
	sync.Mutex
	events []Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish implements events.Publisher.
func (r *Recorder) Publish(topic string, attrs ...Attr) {
	r.Lock()
	r.events = append(r.events, Event{Topic: topic, Attrs: attrs})
	r.Unlock()
}

// GetEvents returns a copy of the recorded events.
func (r *Recorder) GetEvents() []Event {
	r.Lock()
	defer r.Unlock()

	return append([]Event{}, r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.Lock()
	defer r.Unlock()

	return len(r.events)
}

// Reset forgets the recorded events.
func (r *Recorder) Reset() {
	r.Lock()
	r.events = nil
	r.Unlock()
}
