package deck

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tcgframework/table-server-go/internal/cards"
)

// The deck wire format is a compact list of definition-id/count pairs:
//
//	fire-imp:2,ice-sentinel:3
//
// It carries composition only. Instance identity, zone placement, and
// runtime state never cross the wire; the receiver rebuilds everything in
// the deck zone.

// Serialize encodes the deck's composition. Ids are sorted so equal
// compositions always produce equal strings.
func (d *Deck) Serialize() string {
	comp := d.Composition()
	ids := make([]string, 0, len(comp))
	for id := range comp {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+":"+strconv.Itoa(comp[id]))
	}
	return strings.Join(parts, ",")
}

// Deserialize replaces the deck's contents with fresh instances built from
// the serialized composition. An empty string yields an empty deck, which is
// how an un-ready event clears the transmitted deck.
func (d *Deck) Deserialize(reg *cards.Registry, serial string) error {
	d.Clean()
	if serial == "" {
		return nil
	}

	for _, part := range strings.Split(serial, ",") {
		id, countStr, ok := strings.Cut(part, ":")
		if !ok {
			return fmt.Errorf("malformed deck entry %q", part)
		}

		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			return fmt.Errorf("malformed card count in deck entry %q", part)
		}

		def, found := reg.Get(id)
		if !found {
			return fmt.Errorf("unknown card definition %q in deck serial", id)
		}

		for i := 0; i < count; i++ {
			d.AddCard(def)
		}
	}
	return nil
}
