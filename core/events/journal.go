package events

import "sync"

// Journal is a publisher that buffers the events of the transaction being
// executed. The owner of the transaction either flushes them to a sink once it
// commits, or discards them.
//
// - implements events.Publisher
type Journal struct {
	sync.Mutex
	pending []Event
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Publish implements events.Publisher. It stages the event.
func (j *Journal) Publish(topic string, attrs ...Attr) {
	j.Lock()
	j.pending = append(j.pending, Event{Topic: topic, Attrs: attrs})
	j.Unlock()
}

// Pending returns a copy of the staged events.
func (j *Journal) Pending() []Event {
	j.Lock()
	defer j.Unlock()

	return append([]Event{}, j.pending...)
}

// Flush publishes the staged events to the sink in order and empties the
// journal. The sink can be nil, in which case the events are only dropped.
func (j *Journal) Flush(sink Publisher) []Event {
	j.Lock()
	pending := j.pending
	j.pending = nil
	j.Unlock()

	if sink != nil {
		for _, e := range pending {
			sink.Publish(e.Topic, e.Attrs...)
		}
	}

	return pending
}

// Discard drops the staged events.
func (j *Journal) Discard() {
	j.Lock()
	j.pending = nil
	j.Unlock()
}
