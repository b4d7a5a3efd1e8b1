package table

// Display is the render layer the state machine calls into. All calls are
// fire and forget; the core never consumes a return value. The scene layer
// supplies a real implementation, tests and the relay run the no-op.
type Display interface {
	// UpdateLobby reflects a table state change (idle/active/over, victory
	// message, player roster).
	UpdateLobby(t *Table)
	// UpdateTurn reflects the current turn holder and round.
	UpdateTurn(t *Table)
	// UpdateTeamDisplays redraws both teams' stat panels.
	UpdateTeamDisplays(t *Table)
	// UpdateSlotDisplay redraws one team's slot highlight/stats.
	UpdateSlotDisplay(t *Table, team int, target Target)
	// UpdateCardSelection reflects the selected hand card, "" for none.
	UpdateCardSelection(t *Table, team int, cardKey string)
	// UpdateHandVisibility shows or hides a team's hand for the local
	// viewer; only the viewer's own hand is interactable.
	UpdateHandVisibility(t *Table, team int, visible bool)
}

// NopDisplay discards every update.
type NopDisplay struct{}

func (NopDisplay) UpdateLobby(*Table)                      {}
func (NopDisplay) UpdateTurn(*Table)                       {}
func (NopDisplay) UpdateTeamDisplays(*Table)               {}
func (NopDisplay) UpdateSlotDisplay(*Table, int, Target)   {}
func (NopDisplay) UpdateCardSelection(*Table, int, string) {}
func (NopDisplay) UpdateHandVisibility(*Table, int, bool)  {}
