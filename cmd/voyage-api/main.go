// README: Entry point; loads config, runs migrations, wires services and serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"voyage/internal/ai"
	"voyage/internal/config"
	httptransport "voyage/internal/http"
	"voyage/internal/infra"
	"voyage/internal/maps"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/conversation"
	"voyage/internal/modules/itinerary"
	"voyage/internal/modules/planner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("voyage-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := infra.Migrate(ctx, cfg.DB.DSN, logger); err != nil {
		return err
	}
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	completer, err := ai.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}

	var places planner.PlaceFinder
	if cfg.Maps.APIKey != "" {
		svc, err := maps.NewPlacesService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		places = svc
	}

	var quota planner.Quota
	if usage := aiusage.NewService(aiusage.NewStore(dbPool), cfg.AI.MonthlyQuota); usage != nil {
		quota = usage
	}

	plans := itinerary.NewService(itinerary.NewStore(dbPool))
	plannerSvc := planner.NewService(planner.Deps{
		Completer: completer,
		Plans:     plans,
		Log:       conversation.NewRedisStore(redisClient, cfg.Conversation.HistoryLimit, logger),
		Quota:     quota,
		Places:    places,
		Logger:    logger,
	})

	gin.SetMode(gin.ReleaseMode)
	handler := httptransport.NewServer(httptransport.ServerDeps{
		Plans:         plans,
		Planner:       plannerSvc,
		Verifier:      verifier,
		Logger:        logger,
		ProviderName:  completer.Name(),
		PlacesEnabled: places != nil,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "provider", completer.Name(), "places", places != nil)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newVerifier prefers Firebase when a project is configured and falls back to HS256 JWTs.
func newVerifier(ctx context.Context, cfg config.Config) (infra.TokenVerifier, error) {
	if cfg.Firebase.ProjectID != "" {
		return infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	}
	return infra.NewJWTVerifier(cfg.JWT.Secret)
}
