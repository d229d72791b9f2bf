package repository

import "sync"

// Notifier broadcasts change events for the rated-movie collection. Each
// append publishes the owning user's ID; consumers re-read the snapshot they
// care about and discard any derived state.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan string
}

// NewNotifier constructs an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan string)}
}

// Subscribe registers a listener and returns its channel together with a
// release function. The release function must be called when the consuming
// context ends; it is safe to call more than once.
func (n *Notifier) Subscribe() (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan string, 16)
	n.subs[id] = ch

	var once sync.Once
	release := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
	return ch, release
}

// Publish delivers a change event to every subscriber. Delivery is
// best-effort: a subscriber that has fallen behind its buffer is skipped
// rather than blocking the writer.
func (n *Notifier) Publish(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- userID:
		default:
		}
	}
}
