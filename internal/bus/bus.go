package bus

import (
	"sync"

	"github.com/matchdayhq/matchday-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Bus is an in-process fan-out broker keyed by topic name. It holds no
// history: a subscriber only sees events published after it subscribed.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]*Subscription
	nextID int64
}

// Subscription is one listener's stream for a single topic. Events arrive on
// C until Close is called. Closing one subscription never affects others on
// the same topic.
type Subscription struct {
	C chan comm.Event

	bus    *Bus
	topic  string
	id     int64
	closed bool
	mu     sync.Mutex
}

func New() *Bus {
	return &Bus{
		subs: make(map[string]map[int64]*Subscription),
	}
}

func (b *Bus) Subscribe(topic string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		C:     make(chan comm.Event, buffer),
		bus:   b,
		topic: topic,
		id:    b.nextID,
	}

	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[int64]*Subscription)
	}
	b.subs[topic][sub.id] = sub

	return sub
}

// Publish delivers the event to every current subscriber of the topic.
// The send never blocks the publisher: a subscriber whose buffer is full
// loses the event, which is acceptable because delivery is at-least-once
// end to end and clients re-pull state when they fall behind.
func (b *Bus) Publish(topic string, ev comm.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[topic] {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			continue
		}
		select {
		case sub.C <- ev:
		default:
			log.Warnf("bus: subscriber %d on topic %s is full, dropping event", sub.id, topic)
		}
		sub.mu.Unlock()
	}
}

func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.C)
	s.mu.Unlock()

	s.bus.mu.Lock()
	if subs, ok := s.bus.subs[s.topic]; ok {
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(s.bus.subs, s.topic)
		}
	}
	s.bus.mu.Unlock()
}
