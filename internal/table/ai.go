package table

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/deck"
)

// aiDriver plays one AI team's turn through the same local-call surface a
// human uses, pacing itself with the configured per-action delay. It runs in
// three phases: play affordable characters until none fit, a combat scan
// that currently never attacks, then end the turn. The next-turn handler
// starts it on the peer driving the table; end-of-game stops it.
type aiDriver struct {
	t *Table

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func newAIDriver(t *Table) *aiDriver {
	return &aiDriver{t: t}
}

const (
	aiPhasePlay = iota
	aiPhaseCombat
	aiPhaseEndTurn
)

// Start activates the driver for the current AI turn. Starting a running
// driver is a no-op.
func (d *aiDriver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.stop = make(chan struct{})
	go d.run(d.stop)

	d.t.logger.Debug("ai driver started", zap.String("table_id", d.t.ID()))
}

// Stop deactivates the driver. Safe to call at any time, repeatedly.
func (d *aiDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	close(d.stop)
	d.running = false
}

func (d *aiDriver) run(stop chan struct{}) {
	delay := d.t.cfg.AIActionDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	phase := aiPhasePlay
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			next, done := d.step(phase)
			if done {
				d.Stop()
				return
			}
			phase = next
		}
	}
}

// step performs at most one action and returns the next phase. done means
// the turn is over and the driver should deactivate.
func (d *aiDriver) step(phase int) (next int, done bool) {
	t := d.t

	t.mu.Lock()
	if t.state != StateActive || t.teams[t.curTurn].Kind != KindAI {
		t.mu.Unlock()
		return phase, true
	}
	team := t.curTurn
	t.mu.Unlock()

	switch phase {
	case aiPhasePlay:
		if d.playOne(team) {
			// A play was issued; retry next tick once it has applied.
			return aiPhasePlay, false
		}
		return aiPhaseCombat, false
	case aiPhaseCombat:
		// Attack selection is not implemented; the driver never attacks.
		return aiPhaseEndTurn, false
	default:
		t.LocalNextTurn()
		return phase, true
	}
}

// playOne finds the first affordable character in hand and the first open
// slot, selects both, and issues the play. Spells and terrain are skipped.
func (d *aiDriver) playOne(team int) bool {
	t := d.t

	t.mu.Lock()
	side := t.teams[team]

	cardKey := ""
	for _, pc := range side.Deck.Cards(deck.ZoneHand) {
		if pc.Def.Type == cards.TypeCharacter && pc.Def.Cost <= side.EnergyCur {
			cardKey = pc.Key
			break
		}
	}
	slot := -1
	for i := range side.Slots {
		if side.Slots[i] == nil {
			slot = i
			break
		}
	}
	t.mu.Unlock()

	if cardKey == "" || slot < 0 {
		return false
	}

	t.selectCard(cardKey)
	t.selectSlot(team, slot)
	t.LocalPlayCard()
	return true
}
