package table

import (
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/bus"
	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/deck"
)

// aiPlayerName is the scripted player's seat name on every AI team.
const aiPlayerName = "Golemancer"

type membership struct {
	table *Table
	team  int
}

// Manager owns every table of a peer process. Tables live in a single arena
// with a free-list of recycled indices and an id→index map for lookup, so
// disabling a table keeps its allocation for the next Create. The manager
// also holds the player→membership index backing the one-table-per-player
// invariant.
type Manager struct {
	mu sync.RWMutex

	arena []*Table
	free  []int
	index map[string]int

	memberships map[string]membership

	cfg      config.GameConfig
	registry *cards.Registry
	bus      bus.Bus
	display  Display
	player   string
	logger   *zap.Logger
}

// NewManager creates an empty table manager. player is this process's local
// player identity; it decides which tables' local intents this peer may
// issue and whether this peer is a table's owner.
func NewManager(cfg config.GameConfig, registry *cards.Registry, b bus.Bus, display Display, player string, logger *zap.Logger) *Manager {
	if display == nil {
		display = NopDisplay{}
	}
	return &Manager{
		index:       make(map[string]int),
		memberships: make(map[string]membership),
		cfg:         cfg,
		registry:    registry,
		bus:         b,
		display:     display,
		player:      player,
		logger:      logger,
	}
}

// Player returns the local player identity.
func (m *Manager) Player() string {
	return m.player
}

// Create returns a live table for the given data. An already-registered id
// is a caller misuse: the existing instance is returned untouched with a
// warning, since lookups should go through Get. Otherwise a slot is recycled
// from the free-list (newest first) or the arena grows, and the table is
// initialized and registered.
func (m *Manager) Create(data Data) *Table {
	key := strconv.Itoa(data.ID)

	m.mu.Lock()
	if idx, ok := m.index[key]; ok {
		t := m.arena[idx]
		m.mu.Unlock()
		m.logger.Warn("create called for existing table, returning live instance",
			zap.String("table_id", key))
		return t
	}

	var idx int
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = len(m.arena)
		m.arena = append(m.arena, nil)
	}
	if m.arena[idx] == nil {
		m.arena[idx] = &Table{
			cfg:      m.cfg,
			logger:   m.logger,
			bus:      m.bus,
			display:  m.display,
			registry: m.registry,
			mgr:      m,
		}
	}
	t := m.arena[idx]
	m.mu.Unlock()

	t.Initialize(data)

	m.mu.Lock()
	m.index[key] = idx
	m.mu.Unlock()

	m.logger.Info("table created",
		zap.String("table_id", key),
		zap.String("mode", data.Mode.String()),
		zap.Int("slot", idx),
	)
	return t
}

// Get looks a live table up by its wire id.
func (m *Manager) Get(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.arena[idx], true
}

// Disable tears a table down and recycles its arena slot. The instance stays
// allocated for the next Create.
func (m *Manager) Disable(t *Table) {
	t.Disable()

	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.index[t.ID()]; ok && m.arena[idx] == t {
		m.free = append(m.free, idx)
		delete(m.index, t.ID())
	}
}

// Destroy tears a table down and releases the instance permanently; the
// arena slot is still reusable.
func (m *Manager) Destroy(t *Table) {
	t.Disable()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.arena) - 1; i >= 0; i-- {
		if m.arena[i] == t {
			m.arena[i] = nil
			if _, ok := m.index[t.ID()]; ok {
				m.free = append(m.free, i)
			}
			break
		}
	}
	delete(m.index, t.ID())
}

// DisableAll disables every live table, back to front.
func (m *Manager) DisableAll() {
	for _, t := range m.liveTables() {
		m.Disable(t)
	}
}

// DestroyAll destroys every live table, back to front.
func (m *Manager) DestroyAll() {
	for _, t := range m.liveTables() {
		m.Destroy(t)
	}
}

func (m *Manager) liveTables() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()

	live := make([]*Table, 0, len(m.index))
	for i := len(m.arena) - 1; i >= 0; i-- {
		t := m.arena[i]
		if t == nil {
			continue
		}
		if _, ok := m.index[t.ID()]; ok {
			live = append(live, t)
		}
	}
	return live
}

// releasePlayer force-leaves the player's current table, if any. Called by
// the remote join handler before it takes the joining table's lock, so the
// prior table can be locked safely here.
func (m *Manager) releasePlayer(player string) {
	m.mu.RLock()
	mb, ok := m.memberships[player]
	m.mu.RUnlock()
	if !ok {
		return
	}

	m.logger.Info("releasing prior table membership",
		zap.String("player", player),
		zap.String("table_id", mb.table.ID()),
		zap.Int("team", mb.team),
	)

	mb.table.mu.Lock()
	mb.table.applyLeave(mb.team)
	mb.table.mu.Unlock()
}

func (m *Manager) recordMembership(player string, t *Table, team int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberships[player] = membership{table: t, team: team}
}

func (m *Manager) clearMembership(player string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.memberships, player)
}

// buildAIDeck fills d with a deterministic valid composition: two copies of
// every character definition, padded with terrain if the set is too small.
// Determinism matters because every peer builds the AI deck independently.
func (m *Manager) buildAIDeck(d *deck.Deck) {
	d.Clean()
	for _, def := range m.registry.All() {
		if d.Size() >= m.cfg.DeckSizeMax {
			return
		}
		if def.Type == cards.TypeCharacter {
			d.AddCard(def)
			if d.Size() < m.cfg.DeckSizeMax {
				d.AddCard(def)
			}
		}
	}
	for _, def := range m.registry.All() {
		if d.Size() >= m.cfg.DeckSizeMin {
			return
		}
		if def.Type == cards.TypeTerrain {
			d.AddCard(def)
		}
	}
}
