package usecase

import (
	"sync"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const subscriberBuffer = 16

// Broadcaster fans snapshots out to live subscribers.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan entity.Snapshot]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan entity.Snapshot]struct{}),
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; calling it more than once is safe.
func (that *Broadcaster) Subscribe() (<-chan entity.Snapshot, func()) {
	ch := make(chan entity.Snapshot, subscriberBuffer)

	that.mu.Lock()
	that.subs[ch] = struct{}{}
	that.mu.Unlock()

	return ch, func() { that.unsubscribe(ch) }
}

func (that *Broadcaster) unsubscribe(ch chan entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.subs[ch]; ok {
		delete(that.subs, ch)
		close(ch)
	}
}

// Publish never blocks. A lagging subscriber misses the snapshot and catches
// up with the next one.
func (that *Broadcaster) Publish(snapshot entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for ch := range that.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (that *Broadcaster) Subscribers() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subs)
}
