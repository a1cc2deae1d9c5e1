package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/auth"
	"github.com/mkunboxing/mathletes/internal/auth/jwt"
	"github.com/mkunboxing/mathletes/internal/config"
	"github.com/mkunboxing/mathletes/internal/db/repository"
	"github.com/mkunboxing/mathletes/internal/game"
	"github.com/mkunboxing/mathletes/internal/game/queue"
	"github.com/mkunboxing/mathletes/internal/game/timer"
	"github.com/mkunboxing/mathletes/internal/logging"
	"github.com/mkunboxing/mathletes/internal/server"
	"github.com/mkunboxing/mathletes/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool   *pgxpool.Pool
	redis  *redis.Client
	http   *http.Server
	timers *timer.Manager
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			Issuer: cfg.Name,
		},
	}, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	clock := clockwork.NewRealClock()
	timers := timer.NewManager(clock, logger)
	hub := ws.NewHub(logger)
	store := game.NewSessionStore(redisClient, logger)
	generator := game.NewGenerator(0)

	gameSvc := game.NewService(
		store,
		generator,
		timers,
		game.NewHubEvents(hub, logger),
		userRepo,
		hub,
		clock,
		game.Options{
			MatchCountdown:      cfg.Game.MatchCountdown,
			DisconnectGrace:     cfg.Game.DisconnectGrace,
			RandomMatchDuration: cfg.Game.RandomMatchDuration,
		},
		logger,
	)

	gameHandler := game.NewHandler(gameSvc, queue.NewManager(), hub, clock, cfg.Game.MatchCountdown, logger)
	wsHandler := game.NewWSHandler(authSvc, gameHandler, logger)
	sessionHandlers := game.NewHTTPHandlers(gameSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, authHandlers, sessionHandlers, wsHandler)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
		timers: timers,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.timers.StopAll()
	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
