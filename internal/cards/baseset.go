package cards

import (
	"encoding/json"
	"fmt"
	"os"
)

// BaseSet returns the built-in card set. Demos and tests run on it; scenes
// with their own card pool load a JSON file instead (see LoadFile).
func BaseSet() []Definition {
	return []Definition{
		{
			ID: "fire-golem", Name: "Fire Golem", Faction: "fire",
			Description: "A slow hulk of burning stone.",
			Type:        TypeCharacter, Cost: 3,
			Character: &CharacterStats{Health: 6, Armor: 1, Attack: 3},
		},
		{
			ID: "fire-imp", Name: "Fire Imp", Faction: "fire",
			Description: "Cheap, fast, and short-lived.",
			Type:        TypeCharacter, Cost: 1,
			Character: &CharacterStats{Health: 2, Armor: 0, Attack: 2},
		},
		{
			ID: "ice-sentinel", Name: "Ice Sentinel", Faction: "ice",
			Description: "Holds the line while the storm gathers.",
			Type:        TypeCharacter, Cost: 2,
			Character: &CharacterStats{Health: 4, Armor: 2, Attack: 1},
		},
		{
			ID: "ice-wraith", Name: "Ice Wraith", Faction: "ice",
			Description: "Slips between shields untouched.",
			Type:        TypeCharacter, Cost: 2,
			Character: &CharacterStats{Health: 3, Armor: 0, Attack: 3},
		},
		{
			ID: "stone-colossus", Name: "Stone Colossus", Faction: "earth",
			Description: "The mountain walks.",
			Type:        TypeCharacter, Cost: 5,
			Character: &CharacterStats{Health: 9, Armor: 2, Attack: 4},
		},
		{
			ID: "ember-bolt", Name: "Ember Bolt", Faction: "fire",
			Description: "A lance of flame.",
			Type:        TypeSpell, Cost: 2,
		},
		{
			ID: "glacial-field", Name: "Glacial Field", Faction: "ice",
			Description: "The board itself freezes over.",
			Type:        TypeTerrain, Cost: 1,
		},
		{
			ID: "scorched-earth", Name: "Scorched Earth", Faction: "fire",
			Description: "Nothing grows here again.",
			Type:        TypeTerrain, Cost: 2,
		},
	}
}

// LoadFile reads card definitions from a JSON file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card data file: %w", err)
	}

	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse card data file %s: %w", path, err)
	}
	return defs, nil
}
