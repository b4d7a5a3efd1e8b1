package table

import (
	"strconv"

	"go.uber.org/zap"
)

// Target is one team's current selection: nothing, the opposing team
// itself, or a concrete field slot.
type Target int

const (
	// TargetUnselected means no selection is active for the team.
	TargetUnselected Target = -2
	// TargetTeam selects the team itself, for effects aimed at a player
	// rather than a slot.
	TargetTeam Target = -1
	// Values >= 0 select the field slot with that index.
)

// IsSlot reports whether the target names a concrete field slot.
func (s Target) IsSlot() bool {
	return s >= 0
}

func (s Target) String() string {
	switch s {
	case TargetUnselected:
		return "UNSELECTED"
	case TargetTeam:
		return "TEAM"
	default:
		return "SLOT_" + strconv.Itoa(int(s))
	}
}

// clearSelection drops the table's selected hand card and both teams'
// targets. Callers hold the table lock.
func (t *Table) clearSelection() {
	t.selectedCard = ""
	t.deselectTarget(0)
	t.deselectTarget(1)
}

// selectTarget sets a team's target, clearing any previous one first.
func (t *Table) selectTarget(team int, target Target) {
	t.deselectTarget(team)
	t.targets[team] = target
	t.display.UpdateSlotDisplay(t, team, target)
}

// deselectTarget returns a team's target to UNSELECTED.
func (t *Table) deselectTarget(team int) {
	if t.targets[team] == TargetUnselected {
		return
	}
	t.targets[team] = TargetUnselected
	t.display.UpdateSlotDisplay(t, team, TargetUnselected)
}

// InteractCard handles a tap on a hand card: tapping an unselected card
// selects it, tapping the selected card again deselects it, and tapping a
// different card moves the selection.
func (t *Table) InteractCard(team int, cardKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if team < 0 || team >= len(t.teams) {
		return
	}
	side := t.teams[team]
	if !side.Registered() {
		return
	}
	if side.Kind != KindAI && side.Player != t.localPlayer() {
		t.logger.Debug("card interaction from non-member ignored",
			zap.String("table_id", t.ID()), zap.Int("team", team))
		return
	}

	if t.selectedCard == cardKey {
		t.selectedCard = ""
		t.display.UpdateCardSelection(t, team, "")
		return
	}
	t.selectedCard = cardKey
	t.display.UpdateCardSelection(t, team, cardKey)
}

// InteractCardActivation handles an activation tap: it plays the named card
// only when it is already the selected card.
func (t *Table) InteractCardActivation(team int, cardKey string) {
	t.mu.Lock()
	if t.state != StateActive || team < 0 || team >= len(t.teams) {
		t.mu.Unlock()
		return
	}
	side := t.teams[team]
	if side.Kind != KindAI && side.Player != t.localPlayer() {
		t.mu.Unlock()
		return
	}
	if t.selectedCard != cardKey {
		t.logger.Debug("activation of unselected card ignored",
			zap.String("table_id", t.ID()), zap.String("card", cardKey))
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.LocalPlayCard()
}

// InteractTeam handles a tap on a team target. Only the opposing team's
// player may target a team, and re-tapping toggles the selection off.
func (t *Table) InteractTeam(team int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if team < 0 || team >= len(t.teams) {
		return
	}
	opposing := t.teams[1-team]
	if opposing.Kind != KindAI && opposing.Player != t.localPlayer() {
		return
	}

	if t.targets[team] == TargetTeam {
		t.deselectTarget(team)
		return
	}
	t.selectTarget(team, TargetTeam)
}

// InteractSlot handles a tap on a field slot, with toggle semantics.
func (t *Table) InteractSlot(team, slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if team < 0 || team >= len(t.teams) || slot < 0 || slot >= len(t.teams[team].Slots) {
		return
	}

	if t.targets[team] == Target(slot) {
		t.deselectTarget(team)
		return
	}
	t.selectTarget(team, Target(slot))
}

// selectCard and selectSlot are the AI driver's direct entry points; they
// skip the interaction-level ownership guards because the driver acts for
// the AI team by construction.
func (t *Table) selectCard(cardKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selectedCard = cardKey
}

func (t *Table) selectSlot(team int, slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if team < 0 || team >= len(t.teams) {
		return
	}
	t.selectTarget(team, Target(slot))
}
