// Package server implements the broadcast relay used by networked
// connectivity modes. The relay is intentionally dumb: every frame a peer
// sends is echoed to every connected peer, including the sender. The echo is
// what gives the peer bus its self-delivery semantics, so peers apply their
// own events through the same remote handlers as everyone else's.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/config"
)

const clientSendBuffer = 64

// Relay is the websocket hub. One goroutine per peer reads frames into the
// broadcast channel; the hub loop fans each frame out to every peer's send
// queue; one goroutine per peer drains that queue to the socket.
type Relay struct {
	cfg    config.ServerConfig
	logger *zap.Logger

	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[string]*relayPeer

	broadcast chan []byte
	done      chan struct{}
}

type relayPeer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewRelay creates a relay hub and starts its broadcast loop.
func NewRelay(cfg config.ServerConfig, logger *zap.Logger) *Relay {
	r := &Relay{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Peers are trusted processes, not browsers; no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers:     make(map[string]*relayPeer),
		broadcast: make(chan []byte, clientSendBuffer),
		done:      make(chan struct{}),
	}
	go r.loop()
	return r
}

// Handler returns the websocket endpoint peers dial.
func (r *Relay) Handler() http.Handler {
	return http.HandlerFunc(r.serveWS)
}

func (r *Relay) serveWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	peer := &relayPeer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	r.mu.Lock()
	r.peers[peer.id] = peer
	count := len(r.peers)
	r.mu.Unlock()

	r.logger.Info("peer connected",
		zap.String("peer_id", peer.id),
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Int("peers", count),
	)

	go r.writePump(peer)
	r.readPump(peer)
}

func (r *Relay) readPump(peer *relayPeer) {
	defer r.drop(peer)

	for {
		msgType, data, err := peer.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Warn("peer read failed",
					zap.String("peer_id", peer.id), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case r.broadcast <- data:
		case <-r.done:
			return
		}
	}
}

func (r *Relay) writePump(peer *relayPeer) {
	ticker := time.NewTicker(r.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-peer.send:
			if !ok {
				_ = peer.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = peer.conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout))
			if err := peer.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				r.logger.Warn("peer write failed",
					zap.String("peer_id", peer.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = peer.conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout))
			if err := peer.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-r.done:
			return
		}
	}
}

func (r *Relay) loop() {
	for {
		select {
		case data := <-r.broadcast:
			r.mu.Lock()
			for _, peer := range r.peers {
				select {
				case peer.send <- data:
				default:
					// A peer that cannot keep up would stall every table it
					// is subscribed to; cut it loose instead.
					r.logger.Warn("dropping slow peer",
						zap.String("peer_id", peer.id))
					r.removeLocked(peer)
				}
			}
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}

func (r *Relay) drop(peer *relayPeer) {
	r.mu.Lock()
	r.removeLocked(peer)
	count := len(r.peers)
	r.mu.Unlock()

	r.logger.Info("peer disconnected",
		zap.String("peer_id", peer.id),
		zap.Int("peers", count),
	)
}

func (r *Relay) removeLocked(peer *relayPeer) {
	if _, ok := r.peers[peer.id]; !ok {
		return
	}
	delete(r.peers, peer.id)
	close(peer.send)
	_ = peer.conn.Close()
}

// Shutdown stops the broadcast loop and closes every peer connection.
func (r *Relay) Shutdown(ctx context.Context) error {
	close(r.done)

	r.mu.Lock()
	for _, peer := range r.peers {
		r.removeLocked(peer)
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
