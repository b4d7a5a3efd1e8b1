package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExistingReturnsLiveInstance(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	a := m.Create(Data{ID: 5, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	b := m.Create(Data{ID: 5, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindAI}})

	assert.Same(t, a, b, "create for an existing key returns the live instance")
	assert.Equal(t, ModeLocal, a.mode, "the existing instance is not reinitialized")
}

func TestDisableRecyclesSlot(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	a := m.Create(Data{ID: 1, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	m.Disable(a)

	_, found := m.Get("1")
	assert.False(t, found, "disabled tables leave the registry")

	b := m.Create(Data{ID: 2, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	assert.Same(t, a, b, "the freed slot is recycled newest-first")
	assert.Equal(t, "2", b.ID())
	assert.Equal(t, StateIdle, b.State())

	got, found := m.Get("2")
	require.True(t, found)
	assert.Same(t, b, got)
}

func TestDisableClearsMembership(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	tbl := m.Create(Data{ID: 1, Mode: ModePeerToPeer, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	tbl.LocalJoin(0, "Alice")
	require.Contains(t, m.memberships, "Alice")

	m.Disable(tbl)
	assert.NotContains(t, m.memberships, "Alice")
}

func TestDestroyReleasesInstance(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	a := m.Create(Data{ID: 1, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	m.Destroy(a)

	_, found := m.Get("1")
	assert.False(t, found)

	b := m.Create(Data{ID: 3, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	assert.NotSame(t, a, b, "destroyed instances are never reused")
}

func TestDisableAll(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	for id := 1; id <= 3; id++ {
		m.Create(Data{ID: id, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindHuman}})
	}
	m.DisableAll()

	for _, id := range []string{"1", "2", "3"} {
		_, found := m.Get(id)
		assert.False(t, found, "table %s should be disabled", id)
	}
}

func TestAIDeckIsValidAndDeterministic(t *testing.T) {
	m, _ := newTestManager(t, "Alice")

	tbl := m.Create(Data{ID: 1, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindAI}})
	side := tbl.Team(1)

	assert.True(t, side.Registered(), "AI teams come up registered")
	assert.True(t, side.Ready, "AI teams come up ready")
	assert.NoError(t, side.Deck.Validate(m.cfg.DeckSizeMin, m.cfg.DeckSizeMax))

	// A second replica must build byte-for-byte the same deck.
	m2, _ := newTestManager(t, "Bob")
	tbl2 := m2.Create(Data{ID: 1, Mode: ModeLocal, Kinds: [2]TeamKind{KindHuman, KindAI}})
	assert.Equal(t, side.Deck.Serialize(), tbl2.Team(1).Deck.Serialize())
}
