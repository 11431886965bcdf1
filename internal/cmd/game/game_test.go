package game

import (
	"flag"
	"testing"
	"time"

	"github.com/louisbranch/deception/internal/platform/logging"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("game", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8082 {
		t.Fatalf("expected default port 8082, got %d", cfg.Port)
	}
	if cfg.Addr != "" {
		t.Fatalf("expected empty addr, got %q", cfg.Addr)
	}
	if cfg.Store != "bbolt" || cfg.DBPath != "data/game.db" {
		t.Fatalf("unexpected store defaults %q %q", cfg.Store, cfg.DBPath)
	}
	if cfg.LockTimeout != 2*time.Second || cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected dispatch defaults %s %d", cfg.LockTimeout, cfg.MaxAttempts)
	}
	if cfg.TurnOrder || !cfg.Agents || cfg.AgentInterval != 500*time.Millisecond {
		t.Fatalf("unexpected agent defaults %+v", cfg)
	}
	if cfg.Logging.Format != logging.FormatJSON || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if got := cfg.ServerConfig().Addr; got != ":8082" {
		t.Fatalf("expected :8082, got %q", got)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("DECEPTION_GAME_STORE", "sqlite")
	t.Setenv("DECEPTION_GAME_LOCK_TIMEOUT", "750ms")
	t.Setenv("DECEPTION_GAME_TURN_ORDER", "true")
	t.Setenv("DECEPTION_LOG_FORMAT", "console")

	cfg, err := ParseConfig(flag.NewFlagSet("game", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Store != "sqlite" || cfg.LockTimeout != 750*time.Millisecond || !cfg.TurnOrder {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if cfg.Logging.Format != logging.FormatConsole {
		t.Fatalf("expected console logging, got %q", cfg.Logging.Format)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("game", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9001", "-addr", "127.0.0.1:9999", "-store", "memory", "-agents=false"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", cfg.Port)
	}
	server := cfg.ServerConfig()
	if server.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", server.Addr)
	}
	if server.Store != "memory" || server.Agents {
		t.Fatalf("expected flag overrides, got %+v", server)
	}
}
