// Package server wires the coordinator runtime: storage, the game service,
// the HTTP ingest surface, and the expired-session sweeper.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/highroll/internal/game/service"
	platformcmd "github.com/louisbranch/highroll/internal/platform/cmd"
	"github.com/louisbranch/highroll/internal/platform/timeouts"
	rewardsqlite "github.com/louisbranch/highroll/internal/reward/sqlite"
	sessionsqlite "github.com/louisbranch/highroll/internal/storage/sqlite"
)

// Config defines the inputs for the coordinator process.
type Config struct {
	HTTPAddr          string        `env:"HIGHROLL_HTTP_ADDR" envDefault:":8080"`
	SessionDBPath     string        `env:"HIGHROLL_SESSION_DB_PATH"`
	RewardDBPath      string        `env:"HIGHROLL_REWARD_DB_PATH"`
	DedupCapacity     int           `env:"HIGHROLL_DEDUP_CAPACITY" envDefault:"1000"`
	MaxRollAttempts   int           `env:"HIGHROLL_MAX_ROLL_ATTEMPTS" envDefault:"3"`
	SweepInterval     time.Duration `env:"HIGHROLL_SWEEP_INTERVAL" envDefault:"1m"`
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// LoadConfig reads the coordinator configuration from the environment.
func LoadConfig() Config {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		log.Printf("config parse failed, using defaults: %v", err)
	}
	if strings.TrimSpace(cfg.SessionDBPath) == "" {
		cfg.SessionDBPath = filepath.Join("data", "sessions.db")
	}
	if strings.TrimSpace(cfg.RewardDBPath) == "" {
		cfg.RewardDBPath = filepath.Join("data", "rewards.db")
	}
	return cfg
}

// Server hosts the coordinator HTTP process and its storage lifecycle.
type Server struct {
	httpAddr        string
	httpServer      *http.Server
	sessions        *sessionsqlite.Store
	rewards         *rewardsqlite.Store
	service         *service.Service
	sweepInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewServer builds a configured coordinator server.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	sessions, err := sessionsqlite.Open(cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	rewards, err := rewardsqlite.Open(cfg.RewardDBPath)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("open reward store: %w", err)
	}

	opts := []service.Option{}
	if cfg.DedupCapacity > 0 {
		opts = append(opts, service.WithDedupCapacity(cfg.DedupCapacity))
	}
	if cfg.MaxRollAttempts > 0 {
		opts = append(opts, service.WithMaxAttempts(cfg.MaxRollAttempts))
	}
	svc := service.New(sessions, rewards, opts...)

	server := &Server{
		httpAddr:        httpAddr,
		sessions:        sessions,
		rewards:         rewards,
		service:         svc,
		sweepInterval:   cfg.SweepInterval,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	server.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           server.routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return server, nil
}

// Run creates and serves a coordinator until the context ends.
func Run(ctx context.Context) error {
	server, err := NewServer(LoadConfig())
	if err != nil {
		return fmt.Errorf("init coordinator server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve coordinator: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server and the expiry sweeper until the
// context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("coordinator server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		s.sweepExpired(sweepCtx)
	}()

	serveErr := make(chan error, 1)
	log.Printf("coordinator listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		stopSweeper()
		<-sweeperDone
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		stopSweeper()
		<-sweeperDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// sweepExpired periodically deletes sessions whose TTL has elapsed.
func (s *Server) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.sessions.DeleteExpired(ctx, time.Now())
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("expired session sweep failed: %v", err)
				}
				continue
			}
			if deleted > 0 {
				log.Printf("expired sessions swept count=%d", deleted)
			}
		}
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			log.Printf("close session store: %v", err)
		}
	}
	if s.rewards != nil {
		if err := s.rewards.Close(); err != nil {
			log.Printf("close reward store: %v", err)
		}
	}
}
