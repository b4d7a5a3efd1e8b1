package table

import (
	"errors"
	"fmt"

	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/deck"
)

// cardBehavior is the per-card-type play capability. behaviorFor is the only
// place that switches on a card's type; adding a card type means adding one
// implementation and one case here.
type cardBehavior interface {
	// validateLocal checks the type-specific target requirements against the
	// acting team's current selection. Callers hold the table lock.
	validateLocal(t *Table, team int, pc *deck.PlayCard) error
	// applyRemote moves the instance into its destination zone and updates
	// table state. Callers hold the table lock.
	applyRemote(t *Table, team int, pc *deck.PlayCard, slots [2]Target) ApplyResult
}

func behaviorFor(ct cards.Type) cardBehavior {
	switch ct {
	case cards.TypeCharacter:
		return characterBehavior{}
	case cards.TypeSpell:
		return spellBehavior{}
	case cards.TypeTerrain:
		return terrainBehavior{}
	default:
		return unknownBehavior{}
	}
}

// characterBehavior places a unit: the acting team must target one of its
// own unoccupied field slots.
type characterBehavior struct{}

func (characterBehavior) validateLocal(t *Table, team int, pc *deck.PlayCard) error {
	target := t.targets[team]
	if !target.IsSlot() {
		return fmt.Errorf("character %s needs a slot target, have %s", pc.Def.ID, target)
	}
	if t.teams[team].SlotOccupied(int(target)) {
		return fmt.Errorf("slot %d is occupied", int(target))
	}
	return nil
}

func (characterBehavior) applyRemote(t *Table, team int, pc *deck.PlayCard, slots [2]Target) ApplyResult {
	target := slots[team]
	if !target.IsSlot() {
		return rejectedf("character play without a slot target (%s)", target)
	}
	side := t.teams[team]
	if side.SlotOccupied(int(target)) {
		return rejectedf("slot %d already occupied", int(target))
	}

	if err := side.Deck.MoveCard(pc, deck.ZoneHand, deck.ZoneField); err != nil {
		return fatalf("cannot field card %s: %v", pc.Key, err)
	}
	pc.Owner = deck.OwnerTableDeck
	side.Slots[int(target)] = pc
	t.display.UpdateSlotDisplay(t, team, target)
	return applied()
}

// spellBehavior rejects every play until spell resolution exists. Rejecting
// locally keeps unplayable intents off the wire.
type spellBehavior struct{}

func (spellBehavior) validateLocal(_ *Table, _ int, pc *deck.PlayCard) error {
	return fmt.Errorf("spell %s: spell resolution not implemented", pc.Def.ID)
}

func (spellBehavior) applyRemote(_ *Table, _ int, pc *deck.PlayCard, _ [2]Target) ApplyResult {
	return rejectedf("spell %s: spell resolution not implemented", pc.Def.ID)
}

// terrainBehavior swaps the team's active terrain. No target is required.
type terrainBehavior struct{}

func (terrainBehavior) validateLocal(*Table, int, *deck.PlayCard) error {
	return nil
}

func (terrainBehavior) applyRemote(t *Table, team int, pc *deck.PlayCard, _ [2]Target) ApplyResult {
	side := t.teams[team]

	if prev := side.Terrain; prev != nil {
		if err := side.Deck.MoveCard(prev, deck.ZoneTerrain, deck.ZoneDiscard); err != nil {
			return fatalf("cannot discard previous terrain %s: %v", prev.Key, err)
		}
	}
	if err := side.Deck.MoveCard(pc, deck.ZoneHand, deck.ZoneTerrain); err != nil {
		return fatalf("cannot place terrain %s: %v", pc.Key, err)
	}
	side.Terrain = pc
	t.display.UpdateTeamDisplays(t)
	return applied()
}

type unknownBehavior struct{}

func (unknownBehavior) validateLocal(_ *Table, _ int, pc *deck.PlayCard) error {
	return errors.New("unknown card type")
}

func (unknownBehavior) applyRemote(_ *Table, _ int, pc *deck.PlayCard, _ [2]Target) ApplyResult {
	return rejectedf("unknown card type for %s", pc.Key)
}
