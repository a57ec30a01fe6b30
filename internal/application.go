package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sawaplay/domino-backend/internal/config"
	"github.com/sawaplay/domino-backend/internal/domino"
	"github.com/sawaplay/domino-backend/internal/repository"
	"github.com/sawaplay/domino-backend/internal/repository/storage"
	"github.com/sawaplay/domino-backend/internal/repository/storage/sqlite"
	"github.com/sawaplay/domino-backend/internal/service"
	"github.com/sawaplay/domino-backend/transport/rest"
	"github.com/sawaplay/domino-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// settingDefaults are seeded on startup when absent; operators tune the
// real values through the settings table.
var settingDefaults = map[string]string{
	repository.SettingEntryFee: "10",
	repository.SettingWinFee:   "18",
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

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite schema: %w", err)
	}

	db := sqliteStorage.Connection

	playerRepo := repository.NewPlayerRepository(redisStorage)
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	matchRepo := repository.NewMatchRepository(db)

	if err = settingsRepo.EnsureDefaults(ctx, settingDefaults); err != nil {
		return fmt.Errorf("could not seed settings: %w", err)
	}

	hub := websocket.NewHub(logger)

	settlement := service.NewSettlementService(logger, db, userRepo, matchRepo, playerRepo)

	store := domino.NewStore()
	engine := domino.NewEngine(logger, store, hub, settlement, conf.Domino.TurnDuration())
	defer engine.Close()

	forfeits := service.NewForfeitSupervisor(logger, engine, hub, conf.Domino.ForfeitGrace())
	defer forfeits.Close()

	// a stale forfeit timer must never outlive its match
	engine.SetConcludeHook(forfeits.ClearMatch)

	matchmaking := service.NewMatchmakingService(logger, db, userRepo, queueRepo, matchRepo, playerRepo, settingsRepo, engine, hub)
	resume := service.NewResumeService(logger, queueRepo, matchRepo, playerRepo, engine)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpServer := rest.New(logger)
		if httpErr := httpServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, matchmaking, resume, forfeits, engine)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
