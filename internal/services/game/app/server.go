package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/deception/internal/platform/id"
	"github.com/louisbranch/deception/internal/platform/timeouts"
	"github.com/louisbranch/deception/internal/services/game/agent"
	gamegrpc "github.com/louisbranch/deception/internal/services/game/api/grpc/game"
	"github.com/louisbranch/deception/internal/services/game/api/grpc/interceptors"
	grpcmeta "github.com/louisbranch/deception/internal/services/game/api/grpc/metadata"
	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/core/random"
	"github.com/louisbranch/deception/internal/services/game/domain/engine"
	"github.com/louisbranch/deception/internal/services/game/domain/validator"
	"github.com/louisbranch/deception/internal/services/game/storage"
	"github.com/louisbranch/deception/internal/services/game/storage/lock"
)

// Config holds the settings the server needs after the command has parsed
// its environment and flags.
type Config struct {
	Addr          string
	Store         string
	DBPath        string
	LockTimeout   time.Duration
	MaxAttempts   int
	TurnOrder     bool
	Agents        bool
	AgentInterval time.Duration
}

const defaultAgentInterval = 500 * time.Millisecond

// Server hosts the deception game service.
type Server struct {
	listener      net.Listener
	grpcServer    *grpc.Server
	health        *health.Server
	store         storage.Store
	agents        *agent.Runner
	agentInterval time.Duration
	logger        zerolog.Logger
}

// New creates a configured game server listening on cfg.Addr.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	store, err := openStore(ctx, cfg.Store, cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	chain := validator.Default()
	if cfg.TurnOrder {
		chain = chain.Append(validator.DiscussionTurn)
	}
	lockTimeout := cfg.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = timeouts.GameLock
	}
	dispatcher := &engine.Dispatcher{
		Records:     store,
		Mailboxes:   store,
		Locker:      lock.NewKeyed(lockTimeout),
		Catalog:     cat,
		Chain:       chain,
		MaxAttempts: cfg.MaxAttempts,
		NewID:       id.NewID,
		NewSeed:     random.NewSeed,
		Logger:      logger.With().Str("component", "engine").Logger(),
	}

	var runner *agent.Runner
	var agents gamegrpc.AgentRunner
	if cfg.Agents {
		seed, err := random.NewSeed()
		if err != nil {
			_ = listener.Close()
			_ = store.Close()
			return nil, fmt.Errorf("seed agent oracle: %w", err)
		}
		runner = agent.NewRunner(dispatcher, agent.NewRandomOracle(seed), logger.With().Str("component", "agent").Logger())
		agents = runner
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			interceptors.LoggingInterceptor(logger),
			interceptors.ErrorInterceptor(),
		),
	)
	healthServer := health.NewServer()
	gamegrpc.RegisterGameServiceServer(grpcServer, gamegrpc.NewGameService(dispatcher, agents))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(gamegrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	interval := cfg.AgentInterval
	if interval <= 0 {
		interval = defaultAgentInterval
	}
	return &Server{
		listener:      listener,
		grpcServer:    grpcServer,
		health:        healthServer,
		store:         store,
		agents:        runner,
		agentInterval: interval,
		logger:        logger,
	}, nil
}

// Addr returns the listener address for the game server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a game server until the context ends.
func Run(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	srv, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the game server and the automated-player loop, and blocks
// until either stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	s.logger.Info().Str("addr", s.Addr()).Msg("game server listening")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.grpcServer.Serve(s.listener)
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	})
	if s.agents != nil {
		g.Go(func() error {
			return s.agents.Run(gctx, s.agentInterval)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.stop()
		return nil
	})
	return g.Wait()
}

// stop drains in-flight calls, forcing the server closed after
// timeouts.Shutdown.
func (s *Server) stop() {
	if s.health != nil {
		s.health.Shutdown()
	}
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeouts.Shutdown):
		s.logger.Warn().Dur("timeout", timeouts.Shutdown).Msg("graceful stop timed out")
		s.grpcServer.Stop()
	}
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error().Err(err).Msg("close game store")
	}
}
