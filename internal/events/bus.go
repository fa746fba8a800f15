package events

import (
	"sync"

	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/model"
)

const topicPrefix = "media:"

// DefaultCapacity is the buffer size of every subscription channel
const DefaultCapacity = 64

// Bus carries ready/timeout/completed/dismissed/advanced events from the
// engine to the surrounding screen. Delivery is synchronous and ordered per
// subscriber; a subscriber whose buffer is full misses events instead of
// stalling the publisher.
type Bus struct {
	em  *emitter.Emitter
	log *logrus.Entry
}

// NewBus creates a bus whose subscriptions buffer capacity events
func NewBus(capacity uint, log *logrus.Entry) *Bus {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bus{
		em:  emitter.New(capacity),
		log: log.WithField("component", "events"),
	}
}

// Publish delivers ev to every subscriber of its kind
func (b *Bus) Publish(ev model.Event) {
	b.log.WithFields(logrus.Fields{"item": ev.ItemID, "event": ev.String()}).Debug("publishing event")
	b.em.Emit(topicPrefix+string(ev.Kind), ev)
}

// Subscription is a typed view over one bus listener
type Subscription struct {
	C <-chan model.Event

	bus   *Bus
	topic string
	raw   <-chan emitter.Event
	done  chan struct{}
	once  sync.Once
}

// Subscribe listens to the given kinds, or to every kind when none is given
func (b *Bus) Subscribe(kinds ...model.EventKind) *Subscription {
	topic := topicPrefix + "*"
	if len(kinds) == 1 {
		topic = topicPrefix + string(kinds[0])
	}
	want := make(map[model.EventKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	raw := b.em.On(topic, emitter.Sync, emitter.Skip)
	out := make(chan model.Event, DefaultCapacity)
	s := &Subscription{C: out, bus: b, topic: topic, raw: raw, done: make(chan struct{})}

	go func() {
		defer close(out)
		for {
			select {
			case <-s.done:
				return
			case e, ok := <-raw:
				if !ok {
					return
				}
				if len(e.Args) == 0 {
					continue
				}
				ev, ok := e.Args[0].(model.Event)
				if !ok {
					continue
				}
				if len(want) > 0 && !want[ev.Kind] {
					continue
				}
				select {
				case out <- ev:
				case <-s.done:
					return
				}
			}
		}
	}()

	return s
}

// Close stops the subscription; it is safe to call more than once
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.bus.em.Off(s.topic, s.raw)
	})
}
