package table

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/bus"
	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/deck"
	"github.com/tcgframework/table-server-go/internal/rules"
)

// ConnectivityMode selects how a table's events reach other participants.
type ConnectivityMode int

const (
	// ModeLocal keeps all events in-process; used for PvE and tests.
	ModeLocal ConnectivityMode = iota
	// ModePeerToPeer replicates through the relay with the first-joined
	// human acting as arbiter for start/end decisions.
	ModePeerToPeer
	// ModeServerStrict routes through the relay with the server intended to
	// own draws and RNG. Draw authority delegation is a known gap; the mode
	// currently behaves like ModePeerToPeer.
	ModeServerStrict
)

func (m ConnectivityMode) String() string {
	switch m {
	case ModeLocal:
		return "LOCAL"
	case ModePeerToPeer:
		return "PEER_TO_PEER"
	case ModeServerStrict:
		return "SERVER_STRICT"
	default:
		return "UNKNOWN"
	}
}

// GameState is the table lifecycle state.
type GameState int

const (
	StateIdle GameState = iota
	StateActive
	StateOver
)

func (s GameState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	case StateOver:
		return "OVER"
	default:
		return "UNKNOWN"
	}
}

// Data describes a table at creation/reinitialization time.
type Data struct {
	ID   int
	Mode ConnectivityMode
	// Kinds fixes each team slot as human-joinable or AI-controlled.
	Kinds [2]TeamKind
}

// Table is one two-team game session. Every peer subscribed to a table holds
// a full replica and mutates it exclusively through the Remote* handlers, so
// the same event stream produces the same state everywhere. Local* methods
// are the intent surface: they validate against local state, emit the event,
// and let the remote handler (delivered back to this peer too) do the
// mutation.
type Table struct {
	mu sync.Mutex

	id    int
	mode  ConnectivityMode
	state GameState

	teams    [2]*Team
	curTurn  int
	curRound int
	// gamesPlayed seeds the start-of-game shuffle so replicas shuffle
	// identically and successive games on one table differ.
	gamesPlayed int

	// owner is the arbiter peer's player name for replicated modes: the
	// first human who joined while no other human was registered.
	owner string

	selectedCard string
	targets      [2]Target

	victory string

	cfg      config.GameConfig
	logger   *zap.Logger
	bus      bus.Bus
	display  Display
	registry *cards.Registry
	mgr      *Manager

	ai *aiDriver
}

// ID returns the table's wire identity.
func (t *Table) ID() string {
	return strconv.Itoa(t.id)
}

// Initialize resets the table for (re)use from the pool. It builds fresh
// teams per the requested kinds; AI teams come up registered and ready with
// a deterministic deck so a lone human can start a PvE game immediately.
func (t *Table) Initialize(data Data) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.id = data.ID
	t.mode = data.Mode
	t.state = StateIdle
	t.curTurn = 0
	t.curRound = 0
	t.gamesPlayed = 0
	t.owner = ""
	t.selectedCard = ""
	t.targets = [2]Target{TargetUnselected, TargetUnselected}
	t.victory = ""

	for i, kind := range data.Kinds {
		t.teams[i] = newTeam(kind, t.cfg.FieldSlots)
		if kind == KindAI {
			side := t.teams[i]
			side.Player = aiPlayerName
			side.Ready = true
			t.mgr.buildAIDeck(side.Deck)
		}
	}

	t.ai = newAIDriver(t)
	t.display.UpdateLobby(t)
}

// Disable tears the session down for pooling: the AI driver stops and every
// play card instance is released. The manager moves the slot to the
// free-list.
func (t *Table) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ai != nil {
		t.ai.Stop()
	}
	for _, side := range t.teams {
		if side == nil {
			continue
		}
		if side.Registered() && side.Kind == KindHuman {
			t.mgr.clearMembership(side.Player)
		}
		side.ReleaseCards()
	}
	t.state = StateIdle
}

func (t *Table) localPlayer() string {
	return t.mgr.player
}

func (t *Table) isOwner() bool {
	return t.owner != "" && t.owner == t.localPlayer()
}

// State, Owner, Round, CurrentTurn, Team and VictoryMessage expose snapshots
// for displays and tests.
func (t *Table) State() GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Table) Owner() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

func (t *Table) Round() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.curRound
}

func (t *Table) CurrentTurn() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.curTurn
}

func (t *Table) Team(i int) *Team {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.teams) {
		return nil
	}
	return t.teams[i]
}

func (t *Table) VictoryMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.victory
}

// TeamPlayer returns the registered player of the team, empty when vacant.
func (t *Table) TeamPlayer(team int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) {
		return ""
	}
	return t.teams[team].Player
}

// TeamReady reports whether the team's ready flag is set.
func (t *Table) TeamReady(team int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) {
		return false
	}
	return t.teams[team].Ready
}

// TeamTurnActive reports whether the team currently holds the turn.
func (t *Table) TeamTurnActive(team int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) {
		return false
	}
	return t.teams[team].TurnState == TurnActive
}

// TeamEnergy returns the team's current and maximum energy.
func (t *Table) TeamEnergy(team int) (cur, max int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) {
		return 0, 0
	}
	return t.teams[team].EnergyCur, t.teams[team].EnergyMax
}

// SlotCard returns the instance occupying the team's field slot, nil when
// empty.
func (t *Table) SlotCard(team, slot int) *deck.PlayCard {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) || slot < 0 || slot >= len(t.teams[team].Slots) {
		return nil
	}
	return t.teams[team].Slots[slot]
}

// HandCards returns a copy of the team's hand in order.
func (t *Table) HandCards(team int) []*deck.PlayCard {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) {
		return nil
	}
	hand := t.teams[team].Deck.Cards(deck.ZoneHand)
	return append([]*deck.PlayCard(nil), hand...)
}

func (t *Table) emit(event string, payload any) {
	if err := t.bus.Emit(event, payload); err != nil {
		t.logger.Error("failed to emit table event",
			zap.String("table_id", t.ID()),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// --- join / leave -----------------------------------------------------------

// LocalJoin requests that the named player take the given team slot. Only
// idle tables accept joins.
func (t *Table) LocalJoin(team int, player string) {
	t.mu.Lock()
	if t.state != StateIdle {
		t.logger.Debug("join rejected: table not idle",
			zap.String("table_id", t.ID()), zap.String("state", t.state.String()))
		t.mu.Unlock()
		return
	}
	if team < 0 || team >= len(t.teams) || t.teams[team].Kind == KindAI {
		t.logger.Debug("join rejected: team not joinable",
			zap.String("table_id", t.ID()), zap.Int("team", team))
		t.mu.Unlock()
		return
	}
	if t.teams[team].Registered() {
		t.logger.Debug("join rejected: team occupied",
			zap.String("table_id", t.ID()), zap.Int("team", team))
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.emit(EventJoin, joinPayload{Table: t.ID(), Team: team, Player: player})
}

// RemoteJoin registers the player into the team slot. A player may be a
// member of at most one table at a time, so any prior membership is released
// first. Ownership transfers to the joiner when no human was registered
// before.
func (t *Table) RemoteJoin(team int, player string) ApplyResult {
	// Release outside our own lock: the prior membership may live on a
	// different table whose lock we must not nest under ours.
	t.mgr.releasePlayer(player)

	t.mu.Lock()
	defer t.mu.Unlock()

	if team < 0 || team >= len(t.teams) {
		return rejectedf("team index %d out of range", team)
	}
	side := t.teams[team]
	if side.Kind == KindAI {
		return rejectedf("team %d is AI-controlled", team)
	}
	if side.Registered() {
		return rejectedf("team %d already registered to %q", team, side.Player)
	}

	humanRegistered := false
	for _, tm := range t.teams {
		if tm.Kind == KindHuman && tm.Registered() {
			humanRegistered = true
		}
	}
	if !humanRegistered {
		t.owner = player
		t.logger.Info("table ownership assigned",
			zap.String("table_id", t.ID()), zap.String("owner", player))
	}

	side.Player = player
	t.mgr.recordMembership(player, t, team)

	t.display.UpdateHandVisibility(t, team, player == t.localPlayer())
	t.display.UpdateLobby(t)

	t.logger.Info("player joined table",
		zap.String("table_id", t.ID()),
		zap.Int("team", team),
		zap.String("player", player),
	)
	return applied()
}

// LocalLeave requests that the given team's player leave. Only idle tables
// accept leaves.
func (t *Table) LocalLeave(team int) {
	t.mu.Lock()
	if t.state != StateIdle {
		t.logger.Debug("leave rejected: table not idle",
			zap.String("table_id", t.ID()), zap.String("state", t.state.String()))
		t.mu.Unlock()
		return
	}
	if team < 0 || team >= len(t.teams) || !t.teams[team].Registered() {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.emit(EventLeave, leavePayload{Table: t.ID(), Team: team})
}

// RemoteLeave unregisters the team and destroys its in-progress deck state.
func (t *Table) RemoteLeave(team int) ApplyResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applyLeave(team)
}

// applyLeave is the shared leave mutation. Callers hold the table lock.
func (t *Table) applyLeave(team int) ApplyResult {
	if team < 0 || team >= len(t.teams) {
		return rejectedf("team index %d out of range", team)
	}
	side := t.teams[team]
	if !side.Registered() {
		return rejectedf("team %d has no registered player", team)
	}

	player := side.Player
	side.Player = ""
	side.Ready = false
	side.ReleaseCards()
	t.mgr.clearMembership(player)

	t.display.UpdateHandVisibility(t, team, false)
	t.display.UpdateLobby(t)

	t.logger.Info("player left table",
		zap.String("table_id", t.ID()),
		zap.Int("team", team),
		zap.String("player", player),
	)
	return applied()
}

// --- ready / start ----------------------------------------------------------

// LocalSetReady toggles the caller's ready flag. Readying attaches the
// serialized composition of playerDeck; un-readying sends no deck.
func (t *Table) LocalSetReady(team int, state bool, playerDeck *deck.Deck) {
	t.mu.Lock()
	if team < 0 || team >= len(t.teams) {
		t.mu.Unlock()
		return
	}
	side := t.teams[team]
	if side.Kind != KindAI && side.Player != t.localPlayer() {
		t.logger.Debug("ready rejected: caller is not the team's player",
			zap.String("table_id", t.ID()), zap.Int("team", team))
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	serial := ""
	if state {
		if playerDeck == nil {
			t.logger.Debug("ready rejected: no deck supplied",
				zap.String("table_id", t.ID()), zap.Int("team", team))
			return
		}
		if err := playerDeck.Validate(t.cfg.DeckSizeMin, t.cfg.DeckSizeMax); err != nil {
			t.logger.Debug("ready rejected: invalid deck",
				zap.String("table_id", t.ID()), zap.Int("team", team), zap.Error(err))
			return
		}
		serial = playerDeck.Serialize()
	}

	t.emit(EventReady, readyPayload{Table: t.ID(), Team: team, State: state, Deck: serial})
}

// RemoteSetReady applies the ready flag and rebuilds the team's deck from
// the transmitted serial. Only idle tables accept readiness changes; a ready
// arriving mid-game must never rebuild a live deck. When the local process
// owns the table and observes
// both teams ready, it initiates start-game; this is the single place that
// transition originates, so replicas never race to start.
func (t *Table) RemoteSetReady(team int, state bool, serial string) ApplyResult {
	t.mu.Lock()

	if t.state != StateIdle {
		t.mu.Unlock()
		return rejectedf("ready in state %s", t.state)
	}
	if team < 0 || team >= len(t.teams) {
		t.mu.Unlock()
		return rejectedf("team index %d out of range", team)
	}
	side := t.teams[team]
	if !side.Registered() {
		t.mu.Unlock()
		return rejectedf("team %d has no registered player", team)
	}

	if err := side.Deck.Deserialize(t.registry, serial); err != nil {
		t.mu.Unlock()
		return fatalf("cannot rebuild team %d deck: %v", team, err)
	}
	side.Ready = state
	t.display.UpdateLobby(t)

	startGame := false
	if t.isOwner() && t.state == StateIdle {
		bothReady := true
		for _, tm := range t.teams {
			if !tm.Registered() || !tm.Ready {
				bothReady = false
			}
		}
		startGame = bothReady
	}
	t.mu.Unlock()

	if startGame {
		t.LocalStartGame()
	}
	return applied()
}

// LocalStartGame emits the start event. Readiness gating happens upstream in
// the owner's ready observation, so emission is unconditional.
func (t *Table) LocalStartGame() {
	t.emit(EventStart, startPayload{Table: t.ID()})
}

// RemoteStartGame enters ACTIVE: teams reset, decks shuffle from a shared
// seed, each team draws its starting hand, and the turn pointer is primed so
// the first next-turn event activates team 1 at round 0. The owner then
// kicks off that first turn.
func (t *Table) RemoteStartGame() ApplyResult {
	t.mu.Lock()

	if t.state != StateIdle {
		t.mu.Unlock()
		return rejectedf("start in state %s", t.state)
	}
	for i, side := range t.teams {
		if !side.Registered() {
			t.mu.Unlock()
			return rejectedf("team %d has no registered player", i)
		}
		if err := side.Deck.Validate(t.cfg.DeckSizeMin, t.cfg.DeckSizeMax); err != nil {
			t.mu.Unlock()
			return fatalf("team %d deck unusable: %v", i, err)
		}
	}

	t.state = StateActive
	t.curTurn = 0
	t.curRound = 0
	t.victory = ""
	t.clearSelection()
	t.gamesPlayed++

	seed := int64(t.id)<<20 | int64(t.gamesPlayed)
	for _, side := range t.teams {
		side.Reset(t.cfg)
		side.Deck.Shuffle(rand.New(rand.NewSource(seed)))
		for i := 0; i < t.cfg.StartingHandSize; i++ {
			side.DrawCard()
		}
	}

	t.display.UpdateLobby(t)
	t.display.UpdateTeamDisplays(t)

	firstTurn := t.isOwner() || t.mode == ModeLocal
	t.logger.Info("game started",
		zap.String("table_id", t.ID()),
		zap.String("mode", t.mode.String()),
	)
	t.mu.Unlock()

	if firstTurn {
		t.LocalNextTurn()
	}
	return applied()
}

// --- turns ------------------------------------------------------------------

// LocalNextTurn requests a turn advance. Any participant may call it; in
// practice the owner drives it after plays resolve.
func (t *Table) LocalNextTurn() {
	t.emit(EventTurn, turnPayload{Table: t.ID()})
}

// RemoteNextTurn closes the previous team's turn (none exists before the
// first advance of a game), moves the turn pointer, bumps the round on wrap,
// and runs the new team's turn-start hook. If the new team is AI-controlled
// the owning peer starts the scripted driver.
func (t *Table) RemoteNextTurn() ApplyResult {
	t.mu.Lock()

	if t.state != StateActive {
		t.mu.Unlock()
		return rejectedf("next turn in state %s", t.state)
	}

	prev := t.teams[t.curTurn]
	if prev.TurnState == TurnActive {
		prev.TurnEnd()
	}

	t.curTurn = (t.curTurn + 1) % len(t.teams)
	if t.curTurn == 0 {
		t.curRound++
	}

	next := t.teams[t.curTurn]
	next.TurnState = TurnActive
	next.TurnStart(t.cfg)

	t.display.UpdateTurn(t)
	t.display.UpdateTeamDisplays(t)

	driveAI := next.Kind == KindAI && (t.isOwner() || t.mode == ModeLocal)
	t.logger.Debug("turn advanced",
		zap.String("table_id", t.ID()),
		zap.Int("turn", t.curTurn),
		zap.Int("round", t.curRound),
	)
	t.mu.Unlock()

	if driveAI {
		t.ai.Start()
	}
	return applied()
}

// --- plays ------------------------------------------------------------------

// LocalPlayCard plays the currently selected hand card onto the acting
// team's resolved targets. Validation order: caller authorization, an active
// selection, the card's presence, energy, then type-specific target rules. A
// rejected play emits nothing.
func (t *Table) LocalPlayCard() {
	t.mu.Lock()

	if t.state != StateActive {
		t.mu.Unlock()
		return
	}
	side := t.teams[t.curTurn]
	if side.Kind != KindAI && side.Player != t.localPlayer() {
		t.logger.Debug("play rejected: caller does not hold the turn",
			zap.String("table_id", t.ID()), zap.Int("turn", t.curTurn))
		t.mu.Unlock()
		return
	}
	if t.selectedCard == "" {
		t.logger.Debug("play rejected: no card selected",
			zap.String("table_id", t.ID()))
		t.mu.Unlock()
		return
	}

	pc, zone, found := side.Deck.Find(t.selectedCard)
	if !found || zone != deck.ZoneHand {
		t.logger.Debug("play rejected: selected card not in hand",
			zap.String("table_id", t.ID()), zap.String("card", t.selectedCard))
		t.mu.Unlock()
		return
	}
	if _, ok := t.registry.Get(pc.Def.ID); !ok {
		t.logger.Warn("play rejected: unknown card definition",
			zap.String("table_id", t.ID()), zap.String("def_id", pc.Def.ID))
		t.mu.Unlock()
		return
	}
	if side.EnergyCur < pc.Def.Cost {
		t.logger.Debug("play rejected: insufficient energy",
			zap.String("table_id", t.ID()),
			zap.Int("cost", pc.Def.Cost),
			zap.Int("energy", side.EnergyCur),
		)
		t.mu.Unlock()
		return
	}
	if err := behaviorFor(pc.Def.Type).validateLocal(t, t.curTurn, pc); err != nil {
		t.logger.Debug("play rejected: invalid target",
			zap.String("table_id", t.ID()),
			zap.String("card_type", pc.Def.Type.String()),
			zap.Error(err),
		)
		t.mu.Unlock()
		return
	}

	payload := playPayload{Table: t.ID(), Card: pc.Key, Slots: t.targets}
	t.selectedCard = ""
	t.display.UpdateCardSelection(t, t.curTurn, "")
	t.mu.Unlock()

	t.emit(EventPlay, payload)
}

// RemotePlayCard applies a play: type dispatch moves the instance into its
// destination zone, then the cost is deducted from the acting team. Both
// selection targets clear as a post-condition.
func (t *Table) RemotePlayCard(cardKey string, slots [2]Target) ApplyResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return rejectedf("play in state %s", t.state)
	}
	side := t.teams[t.curTurn]

	pc, zone, found := side.Deck.Find(cardKey)
	if !found {
		return rejectedf("card %s not found in acting team's deck", cardKey)
	}
	if zone != deck.ZoneHand {
		return rejectedf("card %s is in %s, not hand", cardKey, zone)
	}

	res := behaviorFor(pc.Def.Type).applyRemote(t, t.curTurn, pc, slots)
	if res.Outcome != OutcomeApplied {
		t.clearSelection()
		return res
	}

	side.EnergyCur -= pc.Def.Cost
	t.clearSelection()
	t.display.UpdateTeamDisplays(t)

	t.logger.Debug("card played",
		zap.String("table_id", t.ID()),
		zap.Int("team", t.curTurn),
		zap.String("def_id", pc.Def.ID),
	)
	return applied()
}

// --- combat -----------------------------------------------------------------

// LocalUnitAttack emits an attack between the two currently targeted slots.
// Both teams must have a concrete slot targeted; the attacker is resolved
// from turn ownership.
func (t *Table) LocalUnitAttack() {
	t.mu.Lock()

	if t.state != StateActive {
		t.mu.Unlock()
		return
	}
	side := t.teams[t.curTurn]
	if side.Kind != KindAI && side.Player != t.localPlayer() {
		t.logger.Debug("attack rejected: caller does not hold the turn",
			zap.String("table_id", t.ID()), zap.Int("turn", t.curTurn))
		t.mu.Unlock()
		return
	}
	for team, target := range t.targets {
		if !target.IsSlot() || int(target) >= len(t.teams[team].Slots) {
			t.logger.Debug("attack rejected: target is not a slot",
				zap.String("table_id", t.ID()),
				zap.Int("team", team),
				zap.String("target", target.String()),
			)
			t.mu.Unlock()
			return
		}
	}

	attacker := t.teams[t.curTurn].Slots[int(t.targets[t.curTurn])]
	defender := t.teams[1-t.curTurn].Slots[int(t.targets[1-t.curTurn])]
	if attacker == nil || defender == nil {
		t.logger.Debug("attack rejected: empty slot targeted",
			zap.String("table_id", t.ID()))
		t.mu.Unlock()
		return
	}
	if !attacker.ActionRemaining {
		t.logger.Debug("attack rejected: unit already acted",
			zap.String("table_id", t.ID()), zap.String("card", attacker.Key))
		t.mu.Unlock()
		return
	}

	payload := attackPayload{Table: t.ID(), Slots: t.targets}
	t.mu.Unlock()

	t.emit(EventAttack, payload)
}

// RemoteUnitAttack resolves combat between the transmitted slots: the
// attacker is the current team's slot, damage applies through the rules
// engine, the attacker spends its action, and a defender at zero health
// moves to discard with its slot cleared. Both selection targets clear
// regardless of outcome.
func (t *Table) RemoteUnitAttack(slots [2]Target) ApplyResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.clearSelection()

	if t.state != StateActive {
		return rejectedf("attack in state %s", t.state)
	}
	for team, target := range slots {
		if !target.IsSlot() || int(target) >= len(t.teams[team].Slots) {
			return rejectedf("team %d target %s is not a valid slot", team, target)
		}
	}

	atkTeam, defTeam := t.curTurn, 1-t.curTurn
	attacker := t.teams[atkTeam].Slots[int(slots[atkTeam])]
	defender := t.teams[defTeam].Slots[int(slots[defTeam])]
	if attacker == nil {
		return rejectedf("attacker slot %s is empty", slots[atkTeam])
	}
	if defender == nil {
		return rejectedf("defender slot %s is empty", slots[defTeam])
	}
	if !attacker.ActionRemaining {
		return rejectedf("attacker %s has no action remaining", attacker.Key)
	}

	rules.ResolveAttack(attacker, defender)
	attacker.ActionRemaining = false

	t.display.UpdateSlotDisplay(t, atkTeam, slots[atkTeam])
	t.display.UpdateSlotDisplay(t, defTeam, slots[defTeam])

	if defender.Health <= 0 {
		if err := t.teams[defTeam].Deck.MoveCard(defender, deck.ZoneField, deck.ZoneDiscard); err != nil {
			return fatalf("cannot discard defeated unit %s: %v", defender.Key, err)
		}
		t.teams[defTeam].Slots[int(slots[defTeam])] = nil
		t.display.UpdateTeamDisplays(t)
		t.logger.Debug("unit defeated",
			zap.String("table_id", t.ID()),
			zap.Int("team", defTeam),
			zap.String("def_id", defender.Def.ID),
		)
	}
	return applied()
}

// --- end / forfeit ----------------------------------------------------------

// LocalEndGame ends the game, naming the defeated team. Only the table owner
// may call it.
func (t *Table) LocalEndGame(defeated int) {
	t.mu.Lock()
	if !t.isOwner() {
		t.logger.Debug("end game rejected: caller is not the owner",
			zap.String("table_id", t.ID()))
		t.mu.Unlock()
		return
	}
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.emit(EventEnd, endPayload{Table: t.ID(), Defeated: defeated})
}

// LocalForfeit concedes the game for the current-turn team. Only that team's
// player may forfeit.
func (t *Table) LocalForfeit() {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}
	side := t.teams[t.curTurn]
	if side.Kind != KindAI && side.Player != t.localPlayer() {
		t.logger.Debug("forfeit rejected: caller does not hold the turn",
			zap.String("table_id", t.ID()))
		t.mu.Unlock()
		return
	}
	defeated := t.curTurn
	t.mu.Unlock()

	t.emit(EventEnd, endPayload{Table: t.ID(), Defeated: defeated})
}

// RemoteEndGame finishes the session: the table shows OVER with the victory
// stamp, then settles back to IDLE with every human forced through a full
// leave. AI teams stay seated for the next game.
func (t *Table) RemoteEndGame(defeated int) ApplyResult {
	t.mu.Lock()

	if t.state != StateActive {
		t.mu.Unlock()
		return rejectedf("end game in state %s", t.state)
	}
	if defeated < 0 || defeated >= len(t.teams) {
		t.mu.Unlock()
		return rejectedf("defeated team index %d out of range", defeated)
	}

	winner := t.teams[1-defeated]
	t.state = StateOver
	if winner.Registered() {
		t.victory = fmt.Sprintf("%s wins", winner.Player)
	} else {
		t.victory = "game over"
	}
	t.display.UpdateLobby(t)

	t.state = StateIdle
	t.curTurn = 0
	t.curRound = 0
	t.clearSelection()
	for _, side := range t.teams {
		side.TurnState = TurnInactive
	}
	for team, side := range t.teams {
		if side.Kind == KindHuman && side.Registered() {
			t.applyLeave(team)
		}
	}
	t.display.UpdateLobby(t)

	t.logger.Info("game ended",
		zap.String("table_id", t.ID()),
		zap.Int("defeated", defeated),
		zap.String("result", t.victory),
	)
	t.mu.Unlock()

	t.ai.Stop()
	return applied()
}
