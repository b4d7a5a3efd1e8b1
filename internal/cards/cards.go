package cards

import (
	"fmt"
	"sync"
)

// Type discriminates card behavior. Dispatching on it happens in exactly one
// place (the table's play pipeline); everything else treats cards uniformly.
type Type int

const (
	TypeCharacter Type = iota
	TypeSpell
	TypeTerrain
)

func (t Type) String() string {
	switch t {
	case TypeCharacter:
		return "CHARACTER"
	case TypeSpell:
		return "SPELL"
	case TypeTerrain:
		return "TERRAIN"
	default:
		return "UNKNOWN"
	}
}

// CharacterStats holds the attributes only character cards carry.
type CharacterStats struct {
	Health int `json:"health"`
	Armor  int `json:"armor"`
	Attack int `json:"attack"`
}

// Definition is one immutable card definition. Definitions are owned by the
// Registry and must never be mutated after load.
type Definition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Faction     string          `json:"faction"`
	Type        Type            `json:"type"`
	Cost        int             `json:"cost"`
	Character   *CharacterStats `json:"character,omitempty"`
}

// Registry is the process-wide lookup of card definitions, read-only after
// load.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
	ids  []string // insertion order, for deterministic listing
}

// NewRegistry creates an empty card registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

// Load adds the given definitions to the registry. Re-registering an id
// is rejected so a loaded definition can never change under a live game.
func (r *Registry) Load(defs []Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("card definition with empty id (name=%q)", def.Name)
		}
		if _, exists := r.defs[def.ID]; exists {
			return fmt.Errorf("duplicate card definition id %q", def.ID)
		}
		if def.Type == TypeCharacter && def.Character == nil {
			return fmt.Errorf("character card %q has no character stats", def.ID)
		}
		r.defs[def.ID] = def
		r.ids = append(r.ids, def.ID)
	}
	return nil
}

// Get looks up a definition by id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	return def, ok
}

// All returns every definition in load order.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.defs[id])
	}
	return out
}

// Count returns the number of loaded definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
