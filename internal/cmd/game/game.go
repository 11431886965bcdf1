// Package game parses game command flags and starts the game server.
package game

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/deception/internal/platform/cmd"
	"github.com/louisbranch/deception/internal/platform/logging"
	server "github.com/louisbranch/deception/internal/services/game/app"
)

// Config holds game command configuration.
type Config struct {
	Port          int           `env:"DECEPTION_GAME_PORT" envDefault:"8082"`
	Addr          string        `env:"DECEPTION_GAME_ADDR"`
	Store         string        `env:"DECEPTION_GAME_STORE" envDefault:"bbolt"`
	DBPath        string        `env:"DECEPTION_GAME_DB_PATH" envDefault:"data/game.db"`
	LockTimeout   time.Duration `env:"DECEPTION_GAME_LOCK_TIMEOUT" envDefault:"2s"`
	MaxAttempts   int           `env:"DECEPTION_GAME_MAX_ATTEMPTS" envDefault:"3"`
	TurnOrder     bool          `env:"DECEPTION_GAME_TURN_ORDER" envDefault:"false"`
	Agents        bool          `env:"DECEPTION_GAME_AGENTS" envDefault:"true"`
	AgentInterval time.Duration `env:"DECEPTION_GAME_AGENT_INTERVAL" envDefault:"500ms"`
	Logging       logging.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The game server listen address (overrides -port)")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Record store backend: bbolt, sqlite or memory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the game database file")
	fs.BoolVar(&cfg.TurnOrder, "turn-order", cfg.TurnOrder, "Enforce round-robin discussion turns")
	fs.BoolVar(&cfg.Agents, "agents", cfg.Agents, "Let automated players act")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig maps the command configuration onto the server settings.
func (c Config) ServerConfig() server.Config {
	addr := c.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", c.Port)
	}
	return server.Config{
		Addr:          addr,
		Store:         c.Store,
		DBPath:        c.DBPath,
		LockTimeout:   c.LockTimeout,
		MaxAttempts:   c.MaxAttempts,
		TurnOrder:     c.TurnOrder,
		Agents:        c.Agents,
		AgentInterval: c.AgentInterval,
	}
}

// Run starts the game server.
func Run(ctx context.Context, cfg Config) error {
	logger := logging.New(cfg.Logging, entrypoint.ServiceGame)
	options := entrypoint.RunOptions{Logger: &logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceGame, options, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig(), logger)
	})
}
