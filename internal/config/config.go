package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tcgframework/table-server-go/internal/deck"
)

// Config holds the full configuration for a table server process.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
}

// ServerConfig configures the relay endpoint and peer identity.
type ServerConfig struct {
	// Address the relay hub listens on (cmd/server) or the peer connects to.
	Address string `mapstructure:"address"`
	// RelayURL is the websocket URL a peer bus dials, e.g. ws://host:port/bus.
	RelayURL string `mapstructure:"relay_url"`
	// PlayerName is this process's local player identity.
	PlayerName string `mapstructure:"player_name"`

	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// GameConfig holds the house rules shared by every peer of a table.
// All peers of one table must run with identical values or replicas diverge.
type GameConfig struct {
	StartingHandSize int `mapstructure:"starting_hand_size"`
	DeckSizeMin      int `mapstructure:"deck_size_min"`
	DeckSizeMax      int `mapstructure:"deck_size_max"`
	FieldSlots       int `mapstructure:"field_slots"`

	// Energy rule: max starts at EnergyStart, grows by EnergyGain each
	// owning-team turn start up to EnergyCap, and current refills to max.
	EnergyStart int `mapstructure:"energy_start"`
	EnergyGain  int `mapstructure:"energy_gain"`
	EnergyCap   int `mapstructure:"energy_cap"`

	// AIActionDelay is the pause between scripted AI actions.
	AIActionDelay time.Duration `mapstructure:"ai_action_delay"`

	// CardDataPath optionally points at a JSON card definition file.
	// When empty the built-in base set is used.
	CardDataPath string `mapstructure:"card_data_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8089")
	v.SetDefault("server.relay_url", "")
	v.SetDefault("server.player_name", "")
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.ping_interval", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.starting_hand_size", 3)
	v.SetDefault("game.deck_size_min", deck.SizeMin)
	v.SetDefault("game.deck_size_max", deck.SizeMax)
	v.SetDefault("game.field_slots", 5)
	v.SetDefault("game.energy_start", 3)
	v.SetDefault("game.energy_gain", 1)
	v.SetDefault("game.energy_cap", 10)
	v.SetDefault("game.ai_action_delay", 1500*time.Millisecond)
	v.SetDefault("game.card_data_path", "")
}

// Load reads configuration from the given file path. A missing file is not an
// error; defaults apply and TABLE_* environment variables may override.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TABLE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for tests and
// the local demo.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks invariants between related settings.
func (c *Config) Validate() error {
	if c.Game.DeckSizeMin <= 0 || c.Game.DeckSizeMax < c.Game.DeckSizeMin {
		return fmt.Errorf("invalid deck size bounds [%d,%d]", c.Game.DeckSizeMin, c.Game.DeckSizeMax)
	}
	if c.Game.FieldSlots <= 0 {
		return fmt.Errorf("field_slots must be positive, got %d", c.Game.FieldSlots)
	}
	if c.Game.StartingHandSize < 0 || c.Game.StartingHandSize > c.Game.DeckSizeMin {
		return fmt.Errorf("starting_hand_size %d exceeds minimum deck size %d", c.Game.StartingHandSize, c.Game.DeckSizeMin)
	}
	if c.Game.EnergyStart < 0 || c.Game.EnergyCap < c.Game.EnergyStart {
		return fmt.Errorf("invalid energy rule: start=%d cap=%d", c.Game.EnergyStart, c.Game.EnergyCap)
	}
	return nil
}
