// Package events is the typed, in-process broadcast used by the client state
// containers. Publishing never blocks: a subscriber whose buffer is full
// misses the event.
package events

import "sync"

// Kind identifies an event.
type Kind string

const (
	AccountsChanged Kind = "accounts-changed"
	SessionExpired  Kind = "session-expired"
	ColumnsChanged  Kind = "columns-changed"
)

type subscriber struct {
	ch    chan Kind
	kinds map[Kind]bool
}

func (s *subscriber) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

// Bus fans events out to subscribers. The zero value is not usable; use New.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
}

func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Publish delivers k to every interested subscriber with room in its buffer.
func (b *Bus) Publish(k Kind) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.wants(k) {
			continue
		}
		select {
		case s.ch <- k:
		default:
		}
	}
}

// Subscribe registers for the given kinds (all kinds when none are given).
// The returned cancel func unregisters and closes the channel; it is safe to
// call more than once.
func (b *Bus) Subscribe(buffer int, kinds ...Kind) (<-chan Kind, func()) {
	if buffer < 1 {
		buffer = 1
	}
	s := &subscriber{ch: make(chan Kind, buffer), kinds: make(map[Kind]bool, len(kinds))}
	for _, k := range kinds {
		s.kinds[k] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}
