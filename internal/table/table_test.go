package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/bus"
	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/deck"
)

// syncBus delivers every emitted event to its handler synchronously, which
// makes local-intent → remote-apply round trips deterministic in tests. It
// also records emitted event names so tests can assert that rejected intents
// never reach the wire.
type syncBus struct {
	handlers map[string]bus.Handler
	emitted  []string
}

func newSyncBus() *syncBus {
	return &syncBus{handlers: make(map[string]bus.Handler)}
}

func (b *syncBus) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.emitted = append(b.emitted, event)
	if h, ok := b.handlers[event]; ok {
		h(data)
	}
	return nil
}

func (b *syncBus) Subscribe(event string, h bus.Handler) {
	b.handlers[event] = h
}

func (b *syncBus) Close() error { return nil }

func (b *syncBus) count(event string) int {
	n := 0
	for _, e := range b.emitted {
		if e == event {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T, player string) (*Manager, *syncBus) {
	t.Helper()

	reg := cards.NewRegistry()
	require.NoError(t, reg.Load(cards.BaseSet()))

	sb := newSyncBus()
	m := NewManager(config.Default().Game, reg, sb, nil, player, zap.NewNop())
	m.RegisterHandlers(sb)
	return m, sb
}

func characterDeck(t *testing.T, m *Manager) *deck.Deck {
	t.Helper()

	d := deck.New()
	for _, def := range m.registry.All() {
		if d.Size() >= m.cfg.DeckSizeMax {
			break
		}
		if def.Type == cards.TypeCharacter {
			d.AddCard(def)
			d.AddCard(def)
		}
	}
	require.NoError(t, d.Validate(m.cfg.DeckSizeMin, m.cfg.DeckSizeMax))
	return d
}

// startPvP brings a two-human table to ACTIVE: Alice joins and readies
// locally, Bob's events arrive as remote truth, and Alice (owner) auto-starts.
func startPvP(t *testing.T, m *Manager, sb *syncBus) *Table {
	t.Helper()

	tbl := m.Create(Data{ID: 7, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	tbl.LocalJoin(0, "Alice")
	tbl.LocalJoin(1, "Bob")

	tbl.LocalSetReady(0, true, characterDeck(t, m))
	res := tbl.RemoteSetReady(1, true, characterDeck(t, m).Serialize())
	require.Equal(t, OutcomeApplied, res.Outcome)

	require.Equal(t, StateActive, tbl.State())
	return tbl
}

func TestJoinReadyStartScenario(t *testing.T) {
	m, sb := newTestManager(t, "Alice")

	tbl := m.Create(Data{ID: 7, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	require.Equal(t, StateIdle, tbl.State())

	tbl.LocalJoin(0, "Alice")
	assert.Equal(t, "Alice", tbl.Owner(), "first human to join owns the table")
	tbl.LocalJoin(1, "Bob")
	assert.Equal(t, "Alice", tbl.Owner(), "ownership stays with the first human")

	tbl.LocalSetReady(0, true, characterDeck(t, m))
	assert.Equal(t, StateIdle, tbl.State(), "one ready team must not start the game")

	res := tbl.RemoteSetReady(1, true, characterDeck(t, m).Serialize())
	require.Equal(t, OutcomeApplied, res.Outcome)

	assert.Equal(t, StateActive, tbl.State())
	assert.Len(t, tbl.Team(0).Deck.Cards(deck.ZoneHand), 3)
	assert.Len(t, tbl.Team(1).Deck.Cards(deck.ZoneHand), 3)
	assert.Equal(t, 1, tbl.CurrentTurn(), "team 1 opens the game")
	assert.Equal(t, 0, tbl.Round())
	assert.Equal(t, TurnActive, tbl.Team(1).TurnState)

	assert.Equal(t, 1, sb.count(EventStart))
	assert.Equal(t, 1, sb.count(EventTurn))
}

func TestTurnAlternation(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)

	// The start sequence already advanced once: team 1 at round 0.
	want := []struct{ turn, round int }{
		{0, 1}, {1, 1}, {0, 2}, {1, 2}, {0, 3},
	}
	for i, step := range want {
		tbl.LocalNextTurn()
		assert.Equal(t, step.turn, tbl.CurrentTurn(), "advance %d", i)
		assert.Equal(t, step.round, tbl.Round(), "advance %d", i)
		assert.Equal(t, TurnActive, tbl.Team(step.turn).TurnState)
		assert.Equal(t, TurnInactive, tbl.Team(1-step.turn).TurnState)
	}
}

func TestJoinRejectedWhileActive(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)

	joins := sb.count(EventJoin)
	tbl.LocalJoin(0, "Mallory")
	assert.Equal(t, joins, sb.count(EventJoin), "join on an active table must not emit")

	leaves := sb.count(EventLeave)
	tbl.LocalLeave(0)
	assert.Equal(t, leaves, sb.count(EventLeave), "leave on an active table must not emit")
}

func TestLeaveClearsDeck(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	tbl := m.Create(Data{ID: 3, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	tbl.LocalJoin(0, "Alice")
	res := tbl.RemoteSetReady(0, true, characterDeck(t, m).Serialize())
	require.Equal(t, OutcomeApplied, res.Outcome)
	require.NotZero(t, tbl.Team(0).Deck.Size())

	tbl.LocalLeave(0)

	side := tbl.Team(0)
	assert.False(t, side.Registered())
	assert.False(t, side.Ready)
	assert.Zero(t, side.Deck.Size(), "leaving destroys in-progress deck state")
}

func TestEnergyGating(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)

	// Bring the turn to Alice's team.
	tbl.LocalNextTurn()
	require.Equal(t, 0, tbl.CurrentTurn())

	side := tbl.Team(0)
	hand := side.Deck.Cards(deck.ZoneHand)
	require.NotEmpty(t, hand)
	card := hand[0]

	// Unaffordable: nothing is emitted and nothing changes.
	side.EnergyCur = card.Def.Cost - 1
	plays := sb.count(EventPlay)
	tbl.selectCard(card.Key)
	tbl.selectSlot(0, 0)
	tbl.LocalPlayCard()

	assert.Equal(t, plays, sb.count(EventPlay), "unaffordable play must not reach the wire")
	assert.Equal(t, card.Def.Cost-1, side.EnergyCur)
	_, zone, found := side.Deck.Find(card.Key)
	require.True(t, found)
	assert.Equal(t, deck.ZoneHand, zone)

	// Affordable: exactly the cost is deducted.
	side.EnergyCur = card.Def.Cost + 2
	tbl.selectCard(card.Key)
	tbl.selectSlot(0, 0)
	tbl.LocalPlayCard()

	assert.Equal(t, plays+1, sb.count(EventPlay))
	assert.Equal(t, 2, side.EnergyCur, "play must deduct exactly the card cost")
	_, zone, found = side.Deck.Find(card.Key)
	require.True(t, found)
	assert.Equal(t, deck.ZoneField, zone)
}

func TestSlotOccupancy(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)
	tbl.LocalNextTurn()
	require.Equal(t, 0, tbl.CurrentTurn())

	side := tbl.Team(0)
	side.EnergyCur = 20
	hand := side.Deck.Cards(deck.ZoneHand)
	require.GreaterOrEqual(t, len(hand), 2)
	first, second := hand[0], hand[1]

	tbl.selectCard(first.Key)
	tbl.selectSlot(0, 2)
	tbl.LocalPlayCard()

	require.Same(t, first, side.Slots[2])
	_, zone, _ := side.Deck.Find(first.Key)
	assert.Equal(t, deck.ZoneField, zone, "a played card leaves the hand")

	// The occupied slot must reject a second character.
	plays := sb.count(EventPlay)
	tbl.selectCard(second.Key)
	tbl.selectSlot(0, 2)
	tbl.LocalPlayCard()

	assert.Equal(t, plays, sb.count(EventPlay), "occupied slot must reject the play locally")
	assert.Same(t, first, side.Slots[2], "occupant must be untouched")
	_, zone, _ = side.Deck.Find(second.Key)
	assert.Equal(t, deck.ZoneHand, zone)
}

func TestDefeatResolution(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)
	require.Equal(t, 1, tbl.CurrentTurn())

	golem, ok := m.registry.Get("fire-golem")
	require.True(t, ok)
	imp, ok := m.registry.Get("fire-imp")
	require.True(t, ok)

	attacker := tbl.Team(1).Deck.AddCard(golem)
	require.NoError(t, tbl.Team(1).Deck.MoveCard(attacker, deck.ZoneDeck, deck.ZoneField))
	tbl.Team(1).Slots[0] = attacker
	attacker.ActionRemaining = true

	defender := tbl.Team(0).Deck.AddCard(imp)
	require.NoError(t, tbl.Team(0).Deck.MoveCard(defender, deck.ZoneDeck, deck.ZoneField))
	tbl.Team(0).Slots[1] = defender
	defender.Health = 1

	res := tbl.RemoteUnitAttack([2]Target{Target(1), Target(0)})
	require.Equal(t, OutcomeApplied, res.Outcome)

	assert.False(t, attacker.ActionRemaining, "attacking spends the unit's action")
	_, zone, found := tbl.Team(0).Deck.Find(defender.Key)
	require.True(t, found)
	assert.Equal(t, deck.ZoneDiscard, zone, "defeated unit goes to discard")
	assert.Nil(t, tbl.Team(0).Slots[1], "defeated unit's slot clears")

	assert.Equal(t, TargetUnselected, tbl.targets[0])
	assert.Equal(t, TargetUnselected, tbl.targets[1])
}

func TestAttackSpentActionRejected(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)

	golem, _ := m.registry.Get("fire-golem")
	sentinel, _ := m.registry.Get("ice-sentinel")

	attacker := tbl.Team(1).Deck.AddCard(golem)
	require.NoError(t, tbl.Team(1).Deck.MoveCard(attacker, deck.ZoneDeck, deck.ZoneField))
	tbl.Team(1).Slots[0] = attacker
	attacker.ActionRemaining = false

	defender := tbl.Team(0).Deck.AddCard(sentinel)
	require.NoError(t, tbl.Team(0).Deck.MoveCard(defender, deck.ZoneDeck, deck.ZoneField))
	tbl.Team(0).Slots[0] = defender
	healthBefore := defender.Health

	res := tbl.RemoteUnitAttack([2]Target{Target(0), Target(0)})
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, healthBefore, defender.Health)
}

func TestSpellPlaysRejected(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)
	tbl.LocalNextTurn()
	require.Equal(t, 0, tbl.CurrentTurn())

	bolt, ok := m.registry.Get("ember-bolt")
	require.True(t, ok)
	side := tbl.Team(0)
	pc := side.Deck.AddCard(bolt)
	require.NoError(t, side.Deck.MoveCard(pc, deck.ZoneDeck, deck.ZoneHand))
	side.EnergyCur = 20

	plays := sb.count(EventPlay)
	tbl.selectCard(pc.Key)
	tbl.LocalPlayCard()
	assert.Equal(t, plays, sb.count(EventPlay), "spells must be rejected locally")

	res := tbl.RemotePlayCard(pc.Key, [2]Target{TargetUnselected, TargetUnselected})
	assert.Equal(t, OutcomeRejected, res.Outcome, "spells must be rejected remotely")
}

func TestTerrainPlay(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)
	tbl.LocalNextTurn()
	require.Equal(t, 0, tbl.CurrentTurn())

	field, ok := m.registry.Get("glacial-field")
	require.True(t, ok)
	side := tbl.Team(0)
	pc := side.Deck.AddCard(field)
	require.NoError(t, side.Deck.MoveCard(pc, deck.ZoneDeck, deck.ZoneHand))
	side.EnergyCur = 20
	before := side.EnergyCur

	tbl.selectCard(pc.Key)
	tbl.LocalPlayCard()

	assert.Same(t, pc, side.Terrain)
	_, zone, _ := side.Deck.Find(pc.Key)
	assert.Equal(t, deck.ZoneTerrain, zone)
	assert.Equal(t, before-field.Cost, side.EnergyCur)
}

func TestReadyRejectedWhileActive(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)
	handBefore := len(tbl.HandCards(0))
	require.NotZero(t, handBefore)

	res := tbl.RemoteSetReady(0, true, "fire-imp:8")
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Len(t, tbl.HandCards(0), handBefore, "a mid-game ready must not rebuild the deck")
	assert.Equal(t, StateActive, tbl.State())
}

func TestReadyHonorsConfiguredDeckBounds(t *testing.T) {
	reg := cards.NewRegistry()
	require.NoError(t, reg.Load(cards.BaseSet()))

	cfg := config.Default().Game
	cfg.DeckSizeMin = 2
	cfg.DeckSizeMax = 4

	sb := newSyncBus()
	m := NewManager(cfg, reg, sb, nil, "Alice", zap.NewNop())
	m.RegisterHandlers(sb)

	tbl := m.Create(Data{ID: 6, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	tbl.LocalJoin(0, "Alice")

	// Ten cards are fine under the default bounds but not under this table's.
	imp, ok := reg.Get("fire-imp")
	require.True(t, ok)
	d := deck.New()
	for i := 0; i < 10; i++ {
		d.AddCard(imp)
	}

	readies := sb.count(EventReady)
	tbl.LocalSetReady(0, true, d)
	assert.Equal(t, readies, sb.count(EventReady), "an oversized deck must not ready")

	for d.Size() > cfg.DeckSizeMax {
		require.True(t, d.RemoveCard("fire-imp"))
	}
	tbl.LocalSetReady(0, true, d)
	assert.Equal(t, readies+1, sb.count(EventReady))
}

func TestMembershipExclusivity(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	t1 := m.Create(Data{ID: 1, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	t2 := m.Create(Data{ID: 2, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})

	t1.LocalJoin(0, "Alice")
	require.Equal(t, "Alice", t1.Team(0).Player)

	t2.LocalJoin(1, "Alice")
	assert.False(t, t1.Team(0).Registered(), "joining a second table must release the first membership")
	assert.Equal(t, "Alice", t2.Team(1).Player)
}

func TestForfeitEndsGame(t *testing.T) {
	m, sb := newTestManager(t, "Alice")
	tbl := startPvP(t, m, sb)
	tbl.LocalNextTurn()
	require.Equal(t, 0, tbl.CurrentTurn())

	// Alice holds the turn and concedes.
	tbl.LocalForfeit()

	assert.Equal(t, StateIdle, tbl.State(), "the table settles back to idle")
	assert.Equal(t, "Bob wins", tbl.VictoryMessage())
	assert.False(t, tbl.Team(0).Registered(), "humans are forced out after the game")
	assert.False(t, tbl.Team(1).Registered())
}

func TestEndGameRequiresOwner(t *testing.T) {
	m, sb := newTestManager(t, "Bob")
	tbl := m.Create(Data{ID: 7, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})

	// Alice joins first and owns the table; this peer plays Bob.
	tbl.LocalJoin(0, "Alice")
	tbl.LocalJoin(1, "Bob")
	res := tbl.RemoteSetReady(0, true, characterDeck(t, m).Serialize())
	require.Equal(t, OutcomeApplied, res.Outcome)
	tbl.LocalSetReady(1, true, characterDeck(t, m))

	// Bob's peer never observes both-ready as owner, so start comes in as
	// remote truth.
	require.Equal(t, OutcomeApplied, tbl.RemoteStartGame().Outcome)
	require.Equal(t, StateActive, tbl.State())

	ends := sb.count(EventEnd)
	tbl.LocalEndGame(0)
	assert.Equal(t, ends, sb.count(EventEnd), "only the owner may end the game")
	assert.Equal(t, StateActive, tbl.State())
}
