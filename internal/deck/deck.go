package deck

import (
	"fmt"
	"math/rand"

	"github.com/tcgframework/table-server-go/internal/cards"
)

// Zone is one of the five mutually exclusive locations a play card can
// occupy. A card is always in exactly one zone of exactly one deck.
type Zone int

const (
	ZoneDeck Zone = iota
	ZoneHand
	ZoneField
	ZoneTerrain
	ZoneDiscard

	zoneCount = 5
)

func (z Zone) String() string {
	switch z {
	case ZoneDeck:
		return "deck"
	case ZoneHand:
		return "hand"
	case ZoneField:
		return "field"
	case ZoneTerrain:
		return "terrain"
	case ZoneDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// Default size bounds for a constructed deck. Validation runs against the
// configured bounds; these are the out-of-the-box values the config defaults
// mirror, and what the sample deck builders size against.
const (
	SizeMin = 8
	SizeMax = 12
)

// Deck owns a team's play card instances, partitioned across zones.
// Not safe for concurrent use; the owning table serializes access.
type Deck struct {
	zones [zoneCount][]*PlayCard
}

// New creates an empty deck.
func New() *Deck {
	return &Deck{}
}

// AddCard creates a new instance of the given definition in the deck zone.
// The instance ordinal feeds the deterministic key, so adding the same
// composition in the same order yields the same keys on every replica.
func (d *Deck) AddCard(def cards.Definition) *PlayCard {
	pc := NewPlayCard(def, OwnerTableDeck, d.CountOf(def.ID))
	d.zones[ZoneDeck] = append(d.zones[ZoneDeck], pc)
	return pc
}

// RemoveCard removes one instance of the given definition id from the deck
// zone, newest first. Returns false if none is present.
func (d *Deck) RemoveCard(defID string) bool {
	zone := d.zones[ZoneDeck]
	for i := len(zone) - 1; i >= 0; i-- {
		if zone[i].Def.ID == defID {
			d.zones[ZoneDeck] = append(zone[:i], zone[i+1:]...)
			return true
		}
	}
	return false
}

// MoveCard transfers the instance from one zone to another. The instance
// leaves exactly one zone and enters exactly one other, so the multiset of
// instances across zones is conserved.
func (d *Deck) MoveCard(pc *PlayCard, from, to Zone) error {
	if from == to {
		return fmt.Errorf("cannot move card %s from %s to itself", pc.Key, from)
	}

	idx := -1
	for i, c := range d.zones[from] {
		if c.Key == pc.Key {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("card %s not found in %s zone", pc.Key, from)
	}

	d.zones[from] = append(d.zones[from][:idx], d.zones[from][idx+1:]...)
	d.zones[to] = append(d.zones[to], pc)
	return nil
}

// Draw moves the top card of the deck zone into the hand and returns it.
// Returns nil when the deck zone is empty.
func (d *Deck) Draw() *PlayCard {
	zone := d.zones[ZoneDeck]
	if len(zone) == 0 {
		return nil
	}

	pc := zone[len(zone)-1]
	d.zones[ZoneDeck] = zone[:len(zone)-1]
	pc.Owner = OwnerTableHand
	d.zones[ZoneHand] = append(d.zones[ZoneHand], pc)
	return pc
}

// Shuffle randomizes the deck zone order using the given source, so all
// peers of a table can shuffle identically from a shared seed.
func (d *Deck) Shuffle(rng *rand.Rand) {
	zone := d.zones[ZoneDeck]
	rng.Shuffle(len(zone), func(i, j int) {
		zone[i], zone[j] = zone[j], zone[i]
	})
}

// Cards returns the instances currently in the given zone. The returned
// slice is the deck's own backing storage; callers must not reorder it.
func (d *Deck) Cards(z Zone) []*PlayCard {
	return d.zones[z]
}

// Find locates an instance by key in any zone.
func (d *Deck) Find(key string) (*PlayCard, Zone, bool) {
	for z := Zone(0); z < zoneCount; z++ {
		for _, pc := range d.zones[z] {
			if pc.Key == key {
				return pc, z, true
			}
		}
	}
	return nil, 0, false
}

// Size returns the total number of instances across all zones.
func (d *Deck) Size() int {
	total := 0
	for z := Zone(0); z < zoneCount; z++ {
		total += len(d.zones[z])
	}
	return total
}

// CountOf returns how many instances of the definition exist across all
// zones.
func (d *Deck) CountOf(defID string) int {
	count := 0
	for z := Zone(0); z < zoneCount; z++ {
		for _, pc := range d.zones[z] {
			if pc.Def.ID == defID {
				count++
			}
		}
	}
	return count
}

// Composition returns the per-definition card counts across all zones.
func (d *Deck) Composition() map[string]int {
	comp := make(map[string]int)
	for z := Zone(0); z < zoneCount; z++ {
		for _, pc := range d.zones[z] {
			comp[pc.Def.ID]++
		}
	}
	return comp
}

// Validate reports whether the deck size lies within the given bounds.
func (d *Deck) Validate(min, max int) error {
	size := d.Size()
	if size < min || size > max {
		return fmt.Errorf("deck size %d outside valid range [%d,%d]", size, min, max)
	}
	return nil
}

// Clean flushes every zone, releasing all instances.
func (d *Deck) Clean() {
	for z := Zone(0); z < zoneCount; z++ {
		d.zones[z] = nil
	}
}

// Clone replaces this deck's contents with fresh instances matching the
// composition of other.
func (d *Deck) Clone(other *Deck) {
	d.Clean()
	for z := Zone(0); z < zoneCount; z++ {
		for _, pc := range other.zones[z] {
			d.AddCard(pc.Def)
		}
	}
}
