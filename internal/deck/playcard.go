package deck

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tcgframework/table-server-go/internal/cards"
)

// OwnerTag routes a play card to the display surface that renders it. The
// core never branches on it.
type OwnerTag int

const (
	OwnerTableHand OwnerTag = iota
	OwnerTableDeck
	OwnerDeckManager
	OwnerShowcase
)

// PlayCard is the mutable runtime instance of one card definition. Exactly
// one zone of exactly one deck owns a given instance at any time.
type PlayCard struct {
	// Key identifies this instance within its deck. Keys are derived from
	// the definition id and the instance ordinal so that every replica of a
	// table, rebuilding the same deck from the same serial, assigns the same
	// key to the same instance. Play events reference cards by key, so this
	// determinism is what lets them resolve on every peer.
	Key string
	// Def is this instance's private copy of the definition.
	Def cards.Definition

	// Health is current health for character cards.
	Health int
	// ActionRemaining is true while the unit may still attack this turn.
	ActionRemaining bool
	// Owner tags the display surface this instance belongs to.
	Owner OwnerTag
}

// NewPlayCard creates an instance of the given definition. ordinal is the
// number of instances of the same definition already present in the owning
// deck.
func NewPlayCard(def cards.Definition, owner OwnerTag, ordinal int) *PlayCard {
	pc := &PlayCard{
		Key:   instanceKey(def.ID, ordinal),
		Def:   def,
		Owner: owner,
	}
	if def.Character != nil {
		pc.Health = def.Character.Health
	}
	return pc
}

// instanceKey derives a stable uuid from the definition id and ordinal.
func instanceKey(defID string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s#%d", defID, ordinal))).String()
}

// ResetCombatState restores the instance to its just-played values.
func (pc *PlayCard) ResetCombatState() {
	if pc.Def.Character != nil {
		pc.Health = pc.Def.Character.Health
	}
	pc.ActionRemaining = true
}

// Attack returns the instance's attack value, zero for non-characters.
func (pc *PlayCard) Attack() int {
	if pc.Def.Character == nil {
		return 0
	}
	return pc.Def.Character.Attack
}

// Armor returns the instance's armor value, zero for non-characters.
func (pc *PlayCard) Armor() int {
	if pc.Def.Character == nil {
		return 0
	}
	return pc.Def.Character.Armor
}
