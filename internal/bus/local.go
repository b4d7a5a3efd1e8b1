package bus

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// LocalBus delivers events in-process. It backs LOCAL connectivity and is
// shared between engines in tests to simulate multiple peers without a
// network.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	queue    chan frame
	done     chan struct{}
	closed   bool
	logger   *zap.Logger
}

type subscription struct {
	owner   int
	handler Handler
}

type frame struct {
	event   string
	payload []byte
}

const localQueueDepth = 256

// NewLocalBus creates a local bus and starts its dispatch goroutine.
func NewLocalBus(logger *zap.Logger) *LocalBus {
	b := &LocalBus{
		handlers: make(map[string][]subscription),
		queue:    make(chan frame, localQueueDepth),
		done:     make(chan struct{}),
		logger:   logger,
	}
	go b.dispatch()
	return b
}

func (b *LocalBus) dispatch() {
	for {
		select {
		case f := <-b.queue:
			b.mu.RLock()
			subs := b.handlers[f.event]
			b.mu.RUnlock()
			for _, sub := range subs {
				sub.handler(f.payload)
			}
		case <-b.done:
			return
		}
	}
}

// Emit queues the payload for asynchronous delivery to every subscriber,
// including the emitter. Events are delivered in emission order.
func (b *LocalBus) Emit(event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for event %s: %w", event, err)
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return fmt.Errorf("bus is closed")
	}

	b.queue <- frame{event: event, payload: body}
	return nil
}

// Subscribe registers the handler for the event name on behalf of the
// default subscriber.
func (b *LocalBus) Subscribe(event string, h Handler) {
	b.subscribe(0, event, h)
}

func (b *LocalBus) subscribe(owner int, event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	for i, sub := range subs {
		if sub.owner == owner {
			b.logger.Warn("replacing existing bus handler",
				zap.String("event", event),
			)
			subs[i].handler = h
			return
		}
	}
	b.handlers[event] = append(subs, subscription{owner: owner, handler: h})
}

// Peer returns a view of this bus for an additional in-process subscriber.
// Each peer holds its own handler per event name, so several engines can
// share one local bus and every engine receives every event.
func (b *LocalBus) Peer(id int) Bus {
	return &localPeer{bus: b, id: id}
}

// Close stops the dispatch goroutine. Queued events are dropped.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}

type localPeer struct {
	bus *LocalBus
	id  int
}

func (p *localPeer) Emit(event string, payload any) error {
	return p.bus.Emit(event, payload)
}

func (p *localPeer) Subscribe(event string, h Handler) {
	p.bus.subscribe(p.id, event, h)
}

func (p *localPeer) Close() error {
	// The shared bus outlives individual peers.
	return nil
}
