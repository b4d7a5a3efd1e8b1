package table

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/bus"
)

// Wire contract: one event per table operation, payloads are plain records,
// and `table` always carries the table's string id. Every peer subscribes
// the same remote handlers, so applying the event stream replays the same
// state everywhere.
const (
	EventJoin   = "table.join"
	EventLeave  = "table.leave"
	EventReady  = "table.ready"
	EventStart  = "table.start"
	EventEnd    = "table.end"
	EventTurn   = "table.turn"
	EventPlay   = "table.play"
	EventAttack = "table.attack"
)

type joinPayload struct {
	Table  string `json:"table"`
	Team   int    `json:"team"`
	Player string `json:"player"`
}

type leavePayload struct {
	Table string `json:"table"`
	Team  int    `json:"team"`
}

type readyPayload struct {
	Table string `json:"table"`
	Team  int    `json:"team"`
	State bool   `json:"state"`
	// Deck carries the serialized deck when readying, empty otherwise.
	Deck string `json:"deck,omitempty"`
}

type startPayload struct {
	Table string `json:"table"`
}

type endPayload struct {
	Table    string `json:"table"`
	Defeated int    `json:"defeated"`
}

type turnPayload struct {
	Table string `json:"table"`
}

type playPayload struct {
	Table string    `json:"table"`
	Card  string    `json:"card"`
	Slots [2]Target `json:"slots"`
}

type attackPayload struct {
	Table string    `json:"table"`
	Slots [2]Target `json:"slots"`
}

// RegisterHandlers subscribes every table event on the given bus, routing
// payloads to the manager's tables. Registration happens once during engine
// construction; nothing subscribes at package load time.
func (m *Manager) RegisterHandlers(b bus.Bus) {
	subscribe(m, b, EventJoin, func(t *Table, p joinPayload) ApplyResult {
		return t.RemoteJoin(p.Team, p.Player)
	})
	subscribe(m, b, EventLeave, func(t *Table, p leavePayload) ApplyResult {
		return t.RemoteLeave(p.Team)
	})
	subscribe(m, b, EventReady, func(t *Table, p readyPayload) ApplyResult {
		return t.RemoteSetReady(p.Team, p.State, p.Deck)
	})
	subscribe(m, b, EventStart, func(t *Table, p startPayload) ApplyResult {
		return t.RemoteStartGame()
	})
	subscribe(m, b, EventEnd, func(t *Table, p endPayload) ApplyResult {
		return t.RemoteEndGame(p.Defeated)
	})
	subscribe(m, b, EventTurn, func(t *Table, p turnPayload) ApplyResult {
		return t.RemoteNextTurn()
	})
	subscribe(m, b, EventPlay, func(t *Table, p playPayload) ApplyResult {
		return t.RemotePlayCard(p.Card, p.Slots)
	})
	subscribe(m, b, EventAttack, func(t *Table, p attackPayload) ApplyResult {
		return t.RemoteUnitAttack(p.Slots)
	})
}

// tablePayload is implemented by every event payload.
type tablePayload interface {
	tableID() string
}

func (p joinPayload) tableID() string   { return p.Table }
func (p leavePayload) tableID() string  { return p.Table }
func (p readyPayload) tableID() string  { return p.Table }
func (p startPayload) tableID() string  { return p.Table }
func (p endPayload) tableID() string    { return p.Table }
func (p turnPayload) tableID() string   { return p.Table }
func (p playPayload) tableID() string   { return p.Table }
func (p attackPayload) tableID() string { return p.Table }

func subscribe[P tablePayload](m *Manager, b bus.Bus, event string, apply func(*Table, P) ApplyResult) {
	b.Subscribe(event, func(raw []byte) {
		var p P
		if err := json.Unmarshal(raw, &p); err != nil {
			m.logger.Warn("dropping malformed table event",
				zap.String("event", event),
				zap.Error(err),
			)
			return
		}

		t, ok := m.Get(p.tableID())
		if !ok {
			// Tables this peer is not subscribed to are not an error.
			m.logger.Debug("event for unknown table",
				zap.String("event", event),
				zap.String("table_id", p.tableID()),
			)
			return
		}

		res := apply(t, p)
		switch res.Outcome {
		case OutcomeApplied:
		case OutcomeRejected:
			m.logger.Warn("remote event rejected",
				zap.String("event", event),
				zap.String("table_id", p.tableID()),
				zap.String("reason", res.Reason),
			)
		case OutcomeFatal:
			m.logger.Error("remote event aborted on inconsistent state",
				zap.String("event", event),
				zap.String("table_id", p.tableID()),
				zap.String("reason", res.Reason),
			)
		}
	})
}
