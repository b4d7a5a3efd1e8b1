// Package engine wires one peer process together: the card registry, the
// table manager, and the bus handler registration all hang off an explicit
// Engine value instead of package-level state, so tests can run several
// independent peers side by side.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/bus"
	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/table"
)

// Engine is one peer's full context: card definitions, table pool, local
// player identity, and the bus carrying table events.
type Engine struct {
	Cards  *cards.Registry
	Tables *table.Manager

	bus    bus.Bus
	player string
	logger *zap.Logger
}

// Options configures a peer engine.
type Options struct {
	// Player is the local player identity; empty is valid for a pure
	// spectator/relay peer.
	Player string
	// Display receives render callbacks; nil installs the no-op display.
	Display table.Display
}

// New builds an engine on the given bus and registers every table event
// handler. Card definitions come from cfg.Game.CardDataPath when set, the
// built-in base set otherwise.
func New(cfg *config.Config, b bus.Bus, opts Options, logger *zap.Logger) (*Engine, error) {
	registry := cards.NewRegistry()

	defs := cards.BaseSet()
	if cfg.Game.CardDataPath != "" {
		loaded, err := cards.LoadFile(cfg.Game.CardDataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load card data: %w", err)
		}
		defs = loaded
	}
	if err := registry.Load(defs); err != nil {
		return nil, fmt.Errorf("failed to populate card registry: %w", err)
	}

	mgr := table.NewManager(cfg.Game, registry, b, opts.Display, opts.Player, logger)
	mgr.RegisterHandlers(b)

	logger.Info("engine ready",
		zap.String("player", opts.Player),
		zap.Int("card_definitions", registry.Count()),
	)

	return &Engine{
		Cards:  registry,
		Tables: mgr,
		bus:    b,
		player: opts.Player,
		logger: logger,
	}, nil
}

// Player returns the local player identity.
func (e *Engine) Player() string {
	return e.player
}

// Close disables every table and closes the bus.
func (e *Engine) Close() error {
	e.Tables.DisableAll()
	return e.bus.Close()
}
