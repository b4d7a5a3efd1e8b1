// The demo runs a full PvE session inside one process: a human seat driven
// by this main loop against the scripted AI, replicated over the local bus
// exactly like a networked game would be.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tcgframework/table-server-go/internal/bus"
	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/deck"
	"github.com/tcgframework/table-server-go/internal/engine"
	"github.com/tcgframework/table-server-go/internal/table"
)

var rounds = flag.Int("rounds", 3, "rounds to play before ending the game")

func main() {
	flag.Parse()

	cfg := config.Default()
	cfg.Game.AIActionDelay = 300 * time.Millisecond

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	b := bus.NewLocalBus(logger)

	eng, err := engine.New(cfg, b, engine.Options{Player: "Demo"}, logger)
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}
	defer eng.Close()

	t := eng.Tables.Create(table.Data{
		ID:    1,
		Mode:  table.ModeLocal,
		Kinds: [2]table.TeamKind{table.KindHuman, table.KindAI},
	})

	t.LocalJoin(0, eng.Player())
	waitUntil(func() bool { return t.Owner() == eng.Player() })

	t.LocalSetReady(0, true, demoDeck(eng.Cards, cfg.Game.DeckSizeMax))
	waitUntil(func() bool { return t.State() == table.StateActive })
	logger.Info("game running", zap.String("table_id", t.ID()))

	// The AI drives its own turns; this loop plays the human seat by
	// passing every turn until enough rounds have elapsed.
	for t.State() == table.StateActive && t.Round() < *rounds {
		if t.CurrentTurn() == 0 && t.TeamTurnActive(0) {
			logger.Info("passing human turn", zap.Int("round", t.Round()))
			t.LocalNextTurn()
		}
		time.Sleep(200 * time.Millisecond)
	}

	if t.State() == table.StateActive {
		t.LocalEndGame(0)
		waitUntil(func() bool { return t.State() == table.StateIdle })
	}

	logger.Info("demo finished",
		zap.Int("rounds", t.Round()),
		zap.String("result", t.VictoryMessage()),
	)
}

// demoDeck builds a valid deck from the base set: two copies of each
// character definition.
func demoDeck(reg *cards.Registry, max int) *deck.Deck {
	d := deck.New()
	for _, def := range reg.All() {
		if d.Size() >= max {
			break
		}
		if def.Type == cards.TypeCharacter {
			d.AddCard(def)
			d.AddCard(def)
		}
	}
	return d
}

func waitUntil(cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
