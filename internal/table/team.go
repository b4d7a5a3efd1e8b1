package table

import (
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/deck"
)

// TeamKind distinguishes human-registered teams from scripted ones.
type TeamKind int

const (
	KindHuman TeamKind = iota
	KindAI
)

func (k TeamKind) String() string {
	switch k {
	case KindHuman:
		return "HUMAN"
	case KindAI:
		return "AI"
	default:
		return "UNKNOWN"
	}
}

// TurnState marks whether a team currently holds the turn.
type TurnState int

const (
	TurnInactive TurnState = iota
	TurnActive
)

// Team is one side of a table: a registered player identity, a deck, a row
// of field slots, a terrain slot, and an energy pool. All access is
// serialized by the owning table's lock.
type Team struct {
	// Player is the registered player's name, empty while unregistered.
	Player string
	// Kind is fixed at table initialization.
	Kind TeamKind
	// Ready is the player's ready flag; readying attaches the deck.
	Ready bool
	// TurnState marks the team holding the current turn.
	TurnState TurnState

	EnergyCur int
	EnergyMax int

	// Deck owns every play card instance belonging to this team.
	Deck *deck.Deck
	// Slots hold at most one character instance each. A slotted card is
	// simultaneously in the deck's field zone.
	Slots []*deck.PlayCard
	// Terrain holds the active terrain card, mirroring the terrain zone.
	Terrain *deck.PlayCard
}

func newTeam(kind TeamKind, fieldSlots int) *Team {
	return &Team{
		Kind:  kind,
		Deck:  deck.New(),
		Slots: make([]*deck.PlayCard, fieldSlots),
	}
}

// Registered reports whether a player occupies this team.
func (tm *Team) Registered() bool {
	return tm.Player != ""
}

// Reset prepares the team for a fresh game: every instance returns to the
// deck zone, slots and terrain clear, and the energy pool refills to the
// starting rule. The ready flag is left untouched; it only clears on leave.
func (tm *Team) Reset(cfg config.GameConfig) {
	for _, zone := range []deck.Zone{deck.ZoneHand, deck.ZoneField, deck.ZoneTerrain, deck.ZoneDiscard} {
		for _, pc := range append([]*deck.PlayCard(nil), tm.Deck.Cards(zone)...) {
			_ = tm.Deck.MoveCard(pc, zone, deck.ZoneDeck)
			pc.ResetCombatState()
		}
	}
	for i := range tm.Slots {
		tm.Slots[i] = nil
	}
	tm.Terrain = nil
	tm.TurnState = TurnInactive
	tm.EnergyMax = cfg.EnergyStart
	tm.EnergyCur = tm.EnergyMax
}

// TurnStart applies the house energy rule and restores unit actions: max
// grows by the configured gain up to the cap, current refills to max, and
// every fielded unit may act again.
func (tm *Team) TurnStart(cfg config.GameConfig) {
	tm.EnergyMax += cfg.EnergyGain
	if tm.EnergyMax > cfg.EnergyCap {
		tm.EnergyMax = cfg.EnergyCap
	}
	tm.EnergyCur = tm.EnergyMax

	for _, pc := range tm.Slots {
		if pc != nil {
			pc.ActionRemaining = true
		}
	}
}

// TurnEnd closes out the team's turn.
func (tm *Team) TurnEnd() {
	tm.TurnState = TurnInactive
}

// DrawCard moves the top card of the team's deck into its hand.
func (tm *Team) DrawCard() *deck.PlayCard {
	return tm.Deck.Draw()
}

// SlotOccupied reports whether the given field slot holds a card. Out of
// range slots count as occupied so they can never be played onto.
func (tm *Team) SlotOccupied(slot int) bool {
	if slot < 0 || slot >= len(tm.Slots) {
		return true
	}
	return tm.Slots[slot] != nil
}

// ReleaseCards flushes every play card instance the team owns.
func (tm *Team) ReleaseCards() {
	tm.Deck.Clean()
	for i := range tm.Slots {
		tm.Slots[i] = nil
	}
	tm.Terrain = nil
}
