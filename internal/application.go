package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/lifebattle-backend/internal/config"
	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
	"github.com/rocketscienceinc/lifebattle-backend/internal/repository"
	"github.com/rocketscienceinc/lifebattle-backend/internal/repository/storage"
	"github.com/rocketscienceinc/lifebattle-backend/internal/service"
	"github.com/rocketscienceinc/lifebattle-backend/internal/telemetry"
	"github.com/rocketscienceinc/lifebattle-backend/internal/usecase"
	"github.com/rocketscienceinc/lifebattle-backend/transport/rest"
	"github.com/rocketscienceinc/lifebattle-backend/transport/websocket"
)

type store interface {
	repository.GameRepository
	repository.ResultRepository
}

type redisStore struct {
	repository.GameRepository
	repository.ResultRepository
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	shutdownTracing, err := telemetry.Setup(ctx, conf.Telemetry.Enabled, conf.Telemetry.Endpoint, conf.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("could not set up tracing: %w", err)
	}

	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Error("could not flush traces", "error", err)
		}
	}()

	games, closeStore, err := newStore(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	oracle := service.NewFallbackOracle(logger.With("component", "oracle"), newOracle(logger, conf), conf.Oracle.Seed)

	gameLogger := logger.With("component", "game")
	manager := usecase.NewGameManager(gameLogger, oracle, usecase.Rules{
		Width:        conf.Game.Width,
		Height:       conf.Game.Height,
		StepsPerTurn: conf.Game.StepsPerTurn,
		MaxTurns:     conf.Game.MaxTurns,
		LogSize:      conf.Game.LogSize,
	})
	runner := usecase.NewRunner(gameLogger, manager, conf.Game.TickInterval)
	gameUseCase := usecase.NewGameUseCase(ctx, gameLogger, manager, runner, games, games, usecase.NewBroadcaster())
	defer gameUseCase.Close()

	if conf.Game.Autostart {
		snapshot, err := gameUseCase.Start(ctx)
		if err != nil {
			return fmt.Errorf("could not start game: %w", err)
		}

		log.Info("game autostarted", "session_id", snapshot.SessionID)
	}

	server := rest.New(logger.With("component", "rest"), gameUseCase, rest.Options{
		AllowedOrigins:    conf.HTTP.AllowedOrigins,
		RequestsPerSecond: conf.HTTP.RequestsPerSecond,
		Burst:             conf.HTTP.Burst,
	})
	server.Handle("GET /ws", websocket.New(ctx, logger.With("component", "websocket"), gameUseCase, conf.HTTP.AllowedOrigins))

	log.Info("Starting HTTP server", "port", conf.HTTPPort)
	if err = server.Start(ctx, conf.HTTPPort); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func newStore(ctx context.Context, log *slog.Logger, conf *config.Config) (store, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("Redis disabled, using in-memory storage")
		return repository.NewMemoryStore(), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStore := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return redisStore{
		GameRepository:   repository.NewGameRepository(redisStorage.Connection, conf.Redis.SnapshotTTL),
		ResultRepository: repository.NewResultRepository(redisStorage.Connection),
	}, closeStore, nil
}

type moveOracle interface {
	RequestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error)
}

func newOracle(logger *slog.Logger, conf *config.Config) moveOracle {
	if conf.Oracle.Kind != config.OracleLLM {
		return service.NewRandomBot(conf.Oracle.Seed)
	}

	return service.NewLLMOracle(logger.With("component", "llm"), service.LLMConfig{
		URL:           conf.Oracle.LLM.URL,
		Model:         conf.Oracle.LLM.Model,
		APIKey:        conf.Oracle.LLM.APIKey,
		Temperature:   conf.Oracle.LLM.Temperature,
		Timeout:       conf.Oracle.Timeout,
		RatePerSecond: conf.Oracle.RatePerSecond,
		Burst:         conf.Oracle.Burst,
		HTTPClient:    &http.Client{Timeout: conf.Oracle.Timeout},
	})
}
