// Package seed creates demo games against a running game server.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	entrypoint "github.com/louisbranch/deception/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/deception/internal/platform/grpc"
	"github.com/louisbranch/deception/internal/platform/logging"
	gamegrpc "github.com/louisbranch/deception/internal/services/game/api/grpc/game"
)

// Preset names a table shape to seed.
type Preset string

const (
	// PresetDemo seeds one table of four humans and two automated players.
	PresetDemo Preset = "demo"
	// PresetBots seeds one fully automated table.
	PresetBots Preset = "bots"
	// PresetFull seeds one table at the twelve-player maximum.
	PresetFull Preset = "full"
)

type tableShape struct {
	humans    int
	automated int
}

var presets = map[Preset]tableShape{
	PresetDemo: {humans: 4, automated: 2},
	PresetBots: {humans: 0, automated: 6},
	PresetFull: {humans: 8, automated: 4},
}

// Config holds seed command configuration.
type Config struct {
	GRPCAddr string        `env:"DECEPTION_GAME_ADDR" envDefault:"localhost:8082"`
	Timeout  time.Duration `env:"DECEPTION_SEED_TIMEOUT" envDefault:"10s"`
	Preset   Preset
	Games    int
	Seed     int64
	Logging  logging.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	var preset string
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "game server address")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.StringVar(&preset, "preset", string(PresetDemo), "table preset (demo, bots, full)")
	fs.IntVar(&cfg.Games, "games", 1, "number of games to create")
	fs.Int64Var(&cfg.Seed, "seed", 0, "deal seed for the first game, incremented per game (0 = server chooses)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Preset = Preset(preset)
	if err := validatePreset(cfg.Preset); err != nil {
		return Config{}, err
	}
	if cfg.Games <= 0 {
		return Config{}, fmt.Errorf("games must be positive, got %d", cfg.Games)
	}
	return cfg, nil
}

// Run creates cfg.Games games and writes one line per game to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	shape, ok := presets[cfg.Preset]
	if !ok {
		return validatePreset(cfg.Preset)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger := logging.New(cfg.Logging, "seed")
	conn, err := platformgrpc.DialWithHealth(ctx, cfg.GRPCAddr, gamegrpc.ServiceName, 0, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	client := gamegrpc.NewClient(conn)

	for i := 0; i < cfg.Games; i++ {
		fields := map[string]any{
			"num_human_players":     shape.humans,
			"num_automated_players": shape.automated,
		}
		if cfg.Seed != 0 {
			fields["seed"] = strconv.FormatInt(cfg.Seed+int64(i), 10)
		}
		req, err := structpb.NewStruct(fields)
		if err != nil {
			return fmt.Errorf("build create request: %w", err)
		}
		resp, err := client.Call(ctx, gamegrpc.MethodCreateGame, req)
		if err != nil {
			return fmt.Errorf("create game %d: %w", i+1, err)
		}
		game := resp.Fields["game"].GetStructValue()
		fmt.Fprintf(out, "%s\tseed=%s\tplayers=%d\n",
			game.Fields["game_id"].GetStringValue(),
			resp.Fields["seed"].GetStringValue(),
			len(game.Fields["players"].GetListValue().GetValues()),
		)
	}
	return nil
}

func validatePreset(preset Preset) error {
	if _, ok := presets[preset]; ok {
		return nil
	}
	return fmt.Errorf("unknown preset %q (valid presets: demo, bots, full)", preset)
}
