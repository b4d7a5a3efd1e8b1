// A networked peer: dials the relay, joins one seat of a table, readies a
// base-set deck, and passes its turns. Run two of these against the same
// relay and table id to watch a replicated session converge.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tcgframework/table-server-go/internal/bus"
	"github.com/tcgframework/table-server-go/internal/cards"
	"github.com/tcgframework/table-server-go/internal/config"
	"github.com/tcgframework/table-server-go/internal/deck"
	"github.com/tcgframework/table-server-go/internal/engine"
	"github.com/tcgframework/table-server-go/internal/table"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	player     = flag.String("player", "", "player name (overrides config)")
	tableID    = flag.Int("table", 1, "table id to join")
	team       = flag.Int("team", 0, "team slot to join (0 or 1)")
	rounds     = flag.Int("rounds", 5, "rounds after which the owner ends the game")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *player != "" {
		cfg.Server.PlayerName = *player
	}
	if cfg.Server.PlayerName == "" {
		fmt.Fprintln(os.Stderr, "A player name is required (-player or server.player_name)")
		os.Exit(1)
	}
	if cfg.Server.RelayURL == "" {
		fmt.Fprintln(os.Stderr, "A relay URL is required (server.relay_url)")
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	b, err := bus.DialPeerBus(cfg.Server.RelayURL, cfg.Server.WriteTimeout, logger)
	if err != nil {
		logger.Fatal("failed to dial relay",
			zap.String("relay_url", cfg.Server.RelayURL), zap.Error(err))
	}

	eng, err := engine.New(cfg, b, engine.Options{Player: cfg.Server.PlayerName}, logger)
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}
	defer eng.Close()

	t := eng.Tables.Create(table.Data{
		ID:    *tableID,
		Mode:  table.ModePeerToPeer,
		Kinds: [2]table.TeamKind{table.KindHuman, table.KindHuman},
	})

	// The join only takes effect once its echo comes back from the relay;
	// readying before that would be rejected against the still-empty seat.
	t.LocalJoin(*team, eng.Player())
	if !waitUntil(func() bool { return t.TeamPlayer(*team) == eng.Player() }) {
		logger.Fatal("join was not acknowledged by the relay",
			zap.String("table_id", t.ID()), zap.Int("team", *team))
	}
	t.LocalSetReady(*team, true, baseDeck(eng.Cards, cfg.Game.DeckSizeMax))

	logger.Info("seated, waiting for the game",
		zap.String("table_id", t.ID()),
		zap.Int("team", *team),
		zap.String("player", eng.Player()),
	)

	started := false
	for {
		time.Sleep(250 * time.Millisecond)

		switch t.State() {
		case table.StateActive:
			started = true
			if t.Owner() == eng.Player() && t.Round() >= *rounds {
				logger.Info("round limit reached, ending game", zap.Int("round", t.Round()))
				t.LocalEndGame(1 - *team)
				continue
			}
			if t.CurrentTurn() == *team && t.TeamTurnActive(*team) {
				logger.Info("passing turn", zap.Int("round", t.Round()))
				t.LocalNextTurn()
			}
		case table.StateIdle:
			if started {
				logger.Info("game finished", zap.String("result", t.VictoryMessage()))
				return
			}
		}
	}
}

// baseDeck builds a valid deck from the base set characters.
func baseDeck(reg *cards.Registry, max int) *deck.Deck {
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

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return false
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
