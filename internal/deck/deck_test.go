package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgframework/table-server-go/internal/cards"
)

func testRegistry(t *testing.T) *cards.Registry {
	t.Helper()
	reg := cards.NewRegistry()
	require.NoError(t, reg.Load(cards.BaseSet()))
	return reg
}

func buildDeck(t *testing.T, reg *cards.Registry, counts map[string]int) *Deck {
	t.Helper()
	d := New()
	for id, n := range counts {
		def, ok := reg.Get(id)
		require.True(t, ok, "missing definition %s", id)
		for i := 0; i < n; i++ {
			d.AddCard(def)
		}
	}
	return d
}

func keyMultiset(d *Deck) map[string]int {
	keys := make(map[string]int)
	for z := Zone(0); z < zoneCount; z++ {
		for _, pc := range d.Cards(z) {
			keys[pc.Key]++
		}
	}
	return keys
}

func TestZoneConservation(t *testing.T) {
	reg := testRegistry(t)
	d := buildDeck(t, reg, map[string]int{"fire-imp": 4, "ice-sentinel": 4})
	before := keyMultiset(d)
	require.Len(t, before, 8)

	// Walk a card through every zone transition used by the game.
	pc := d.Draw()
	require.NotNil(t, pc)
	require.NoError(t, d.MoveCard(pc, ZoneHand, ZoneField))
	require.NoError(t, d.MoveCard(pc, ZoneField, ZoneDiscard))

	other := d.Draw()
	require.NotNil(t, other)
	require.NoError(t, d.MoveCard(other, ZoneHand, ZoneTerrain))

	after := keyMultiset(d)
	assert.Equal(t, before, after, "zone transfers must not duplicate or lose instances")
	for _, n := range after {
		assert.Equal(t, 1, n, "an instance must occupy exactly one zone")
	}
}

func TestMoveCardRejectsWrongZone(t *testing.T) {
	reg := testRegistry(t)
	d := buildDeck(t, reg, map[string]int{"fire-imp": 1})
	pc := d.Cards(ZoneDeck)[0]

	err := d.MoveCard(pc, ZoneHand, ZoneField)
	assert.Error(t, err, "moving a card out of a zone it does not occupy must fail")
	assert.Equal(t, 1, len(d.Cards(ZoneDeck)))
	assert.Empty(t, d.Cards(ZoneField))
}

func TestDrawFromEmptyDeck(t *testing.T) {
	d := New()
	assert.Nil(t, d.Draw())
}

func TestSerializeRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	original := buildDeck(t, reg, map[string]int{
		"fire-imp":      3,
		"fire-golem":    2,
		"ice-sentinel":  2,
		"glacial-field": 1,
	})

	// Scatter cards across zones; composition is what must survive.
	pc := original.Draw()
	require.NotNil(t, pc)
	require.NoError(t, original.MoveCard(pc, ZoneHand, ZoneField))

	restored := New()
	require.NoError(t, restored.Deserialize(reg, original.Serialize()))

	assert.Equal(t, original.Composition(), restored.Composition())
	assert.Equal(t, original.Size(), restored.Size())
	// Everything lands back in the deck zone.
	assert.Len(t, restored.Cards(ZoneDeck), restored.Size())
}

func TestDeserializeEmptyClearsDeck(t *testing.T) {
	reg := testRegistry(t)
	d := buildDeck(t, reg, map[string]int{"fire-imp": 2})

	require.NoError(t, d.Deserialize(reg, ""))
	assert.Zero(t, d.Size())
}

func TestDeserializeErrors(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name   string
		serial string
	}{
		{"missing count", "fire-imp"},
		{"bad count", "fire-imp:zero"},
		{"negative count", "fire-imp:-1"},
		{"unknown definition", "not-a-card:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			assert.Error(t, d.Deserialize(reg, tt.serial))
		})
	}
}

func TestValidateSizeBounds(t *testing.T) {
	reg := testRegistry(t)

	small := buildDeck(t, reg, map[string]int{"fire-imp": SizeMin - 1})
	assert.Error(t, small.Validate(SizeMin, SizeMax))

	ok := buildDeck(t, reg, map[string]int{"fire-imp": SizeMin})
	assert.NoError(t, ok.Validate(SizeMin, SizeMax))

	big := buildDeck(t, reg, map[string]int{"fire-imp": SizeMax + 1})
	assert.Error(t, big.Validate(SizeMin, SizeMax))

	// Bounds come from the caller, so a tighter house rule really applies.
	assert.Error(t, ok.Validate(2, SizeMin-1))
	assert.NoError(t, big.Validate(2, SizeMax+1))
}

func TestCloneCopiesCompositionNotInstances(t *testing.T) {
	reg := testRegistry(t)
	src := buildDeck(t, reg, map[string]int{"fire-golem": 2, "ice-wraith": 1})

	dst := New()
	dst.Clone(src)

	assert.Equal(t, src.Composition(), dst.Composition())
	// Same composition and ordinals yield the same keys, but the
	// instances themselves must be fresh.
	srcInstances := make(map[*PlayCard]bool)
	for _, pc := range src.Cards(ZoneDeck) {
		srcInstances[pc] = true
	}
	for _, pc := range dst.Cards(ZoneDeck) {
		assert.False(t, srcInstances[pc], "clone must create fresh instances")
	}
	for i, pc := range dst.Cards(ZoneDeck) {
		assert.Equal(t, src.Cards(ZoneDeck)[i].Key, pc.Key, "replicas rebuilding a deck must agree on keys")
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	reg := testRegistry(t)
	a := buildDeck(t, reg, map[string]int{"fire-imp": 4, "ice-wraith": 4})
	b := New()
	b.Clone(a)

	a.Shuffle(rand.New(rand.NewSource(42)))
	b.Shuffle(rand.New(rand.NewSource(42)))

	for i, pc := range a.Cards(ZoneDeck) {
		assert.Equal(t, pc.Def.ID, b.Cards(ZoneDeck)[i].Def.ID, "peers sharing a seed must shuffle identically")
	}
}
