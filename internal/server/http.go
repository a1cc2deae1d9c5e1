package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/auth"
	"github.com/mkunboxing/mathletes/internal/config"
	"github.com/mkunboxing/mathletes/internal/game"
)

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(
	cfg *config.App,
	logger zerolog.Logger,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	authSvc *auth.Service,
	authHandlers *auth.HTTPHandlers,
	sessionHandlers *game.HTTPHandlers,
	wsHandler *game.WSHandler,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth endpoints
	mux.HandleFunc("POST /v1/auth/register", authHandlers.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandlers.Login)

	// Session endpoints
	mux.Handle("POST /v1/sessions", auth.RequireAuth(http.HandlerFunc(sessionHandlers.Create)))
	mux.Handle("GET /v1/sessions/{id}", auth.RequireAuth(http.HandlerFunc(sessionHandlers.Get)))
	mux.Handle("GET /v1/users/me/sessions", auth.RequireAuth(http.HandlerFunc(sessionHandlers.MySessions)))

	// WebSocket endpoint; authenticates via query-string token.
	mux.Handle("GET /ws/game", wsHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})

	handler := corsHandler.Handler(auth.Middleware(authSvc, logger)(mux))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return redisClient.Ping(ctx).Err()
}
