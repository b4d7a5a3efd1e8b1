package bus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PeerBus is the networked bus for PEER_TO_PEER and SERVER_STRICT
// connectivity. It dials the relay hub over websocket; the relay echoes
// every frame to every connected peer including the sender, which is how an
// emitting peer receives its own events.
type PeerBus struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	closed   bool

	writeMu      sync.Mutex
	writeTimeout time.Duration

	done chan struct{}
}

// DialPeerBus connects to the relay at the given websocket URL and starts
// the read pump. Frames are dispatched sequentially in arrival order, which
// preserves the relay's per-connection ordering.
func DialPeerBus(url string, writeTimeout time.Duration, logger *zap.Logger) (*PeerBus, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", url, err)
	}

	b := &PeerBus{
		conn:         conn,
		logger:       logger,
		handlers:     make(map[string]Handler),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	go b.readPump()

	logger.Info("connected to relay", zap.String("url", url))
	return b, nil
}

func (b *PeerBus) readPump() {
	defer close(b.done)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.mu.RLock()
			closed := b.closed
			b.mu.RUnlock()
			if !closed {
				b.logger.Warn("relay connection lost", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			b.logger.Warn("dropping malformed frame from relay", zap.Error(err))
			continue
		}

		b.mu.RLock()
		h, ok := b.handlers[env.Event]
		b.mu.RUnlock()
		if !ok {
			continue
		}
		h(env.Payload)
	}
}

// Emit sends the event to the relay. Delivery back to this peer happens via
// the relay echo, never inline, so local and remote application share one
// ordering.
func (b *PeerBus) Emit(event string, payload any) error {
	frame, err := EncodeEnvelope(event, payload)
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.writeTimeout > 0 {
		if err := b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to write event %s to relay: %w", event, err)
	}
	return nil
}

// Subscribe registers the handler for the event name, replacing any previous
// handler.
func (b *PeerBus) Subscribe(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[event]; exists {
		b.logger.Warn("replacing existing bus handler", zap.String("event", event))
	}
	b.handlers[event] = h
}

// Close tears down the relay connection.
func (b *PeerBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.writeMu.Lock()
	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	b.writeMu.Unlock()

	err := b.conn.Close()

	select {
	case <-b.done:
	case <-time.After(time.Second):
	}
	return err
}
