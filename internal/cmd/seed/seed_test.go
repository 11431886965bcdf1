package seed

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/deception/internal/platform/logging"
	server "github.com/louisbranch/deception/internal/services/game/app"
)

func TestValidatePreset(t *testing.T) {
	if err := validatePreset(PresetDemo); err != nil {
		t.Fatalf("expected demo to be valid: %v", err)
	}
	if err := validatePreset("unknown"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("seed", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Preset != PresetDemo || cfg.Games != 1 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.GRPCAddr != "localhost:8082" {
		t.Fatalf("expected default addr, got %q", cfg.GRPCAddr)
	}
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	if _, err := ParseConfig(flag.NewFlagSet("seed", flag.ContinueOnError), []string{"-preset", "huge"}); err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if _, err := ParseConfig(flag.NewFlagSet("seed", flag.ContinueOnError), []string{"-games", "0"}); err == nil {
		t.Fatal("expected error for zero games")
	}
}

func TestRunCreatesGames(t *testing.T) {
	srv, err := server.New(context.Background(), server.Config{Addr: "127.0.0.1:0", Store: server.StoreMemory}, logging.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	var out bytes.Buffer
	cfg := Config{GRPCAddr: srv.Addr(), Timeout: 5 * time.Second, Preset: PresetFull, Games: 2, Seed: 7}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 games, got %q", out.String())
	}
	if !strings.Contains(lines[0], "seed=7\tplayers=12") || !strings.Contains(lines[1], "seed=8\t") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
