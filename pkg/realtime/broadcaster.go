package realtime

import "sync"

// Subscriber receives published payloads on a buffered channel, in the
// order they were enqueued.
type Subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// C returns the delivery channel. It is closed when the subscriber is
// removed from its broadcaster.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// Send enqueues one payload for this subscriber. It reports false if the
// subscriber is closed or its buffer is full; a full buffer means the
// consumer stopped draining and the caller should treat it as gone.
func (s *Subscriber) Send(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- payload:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

// Broadcaster fans payloads out to registered subscribers. Slow
// subscribers never block fast ones; per subscriber, payloads arrive in
// publish order.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber whose channel buffers up to
// buffer payloads.
func (b *Broadcaster) Subscribe(buffer int) *Subscriber {
	sub := &Subscriber{ch: make(chan []byte, buffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Publish delivers payload to every subscriber and returns the ones that
// could not accept it, so the caller can detach them.
func (b *Broadcaster) Publish(payload []byte) []*Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	var failed []*Subscriber
	for sub := range b.subs {
		if !sub.Send(payload) {
			failed = append(failed, sub)
		}
	}
	return failed
}
