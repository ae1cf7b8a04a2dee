package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-engine/internal/transport/console"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

// shutdownTimeout bounds how long Run waits for the console driver after cancellation.
var shutdownTimeout = 2 * time.Second

// RunApp - runs the application over stdin and stdout.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	return Run(context.Background(), logger, conf, os.Stdin, os.Stdout)
}

// Run wires the engine and serves commands from in until in is exhausted or a signal arrives.
func Run(ctx context.Context, logger *slog.Logger, conf *config.Config, in io.Reader, out io.Writer) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	starter, err := conf.Game.Starter()
	if err != nil {
		return fmt.Errorf("invalid starting player: %w", err)
	}

	policy, err := conf.Game.Policy()
	if err != nil {
		return fmt.Errorf("invalid restart policy: %w", err)
	}

	var snapshotRepo repository.SnapshotRepository
	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err := redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		snapshotRepo = repository.NewSnapshotRepository(redisStorage.Connection, conf.Redis.SnapshotTTL)
	}

	gameController := tictactoe.NewGameController(logger, starter, policy)
	gameManager := usecase.NewGameManager(logger, gameController, snapshotRepo)
	consoleServer := console.New(logger, gameManager)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting console session", "starter", starter, "policy", policy, "redis", conf.Redis.Enabled)
		errCh <- consoleServer.Run(ctx, in, out)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("console session error: %w", err)
		}

		log.Info("Console session finished")
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	// the deferred storage Close must not run while the driver is still publishing
	select {
	case err = <-errCh:
		if err != nil {
			log.Error("console session stopped with error", "error", err)
		}
	case <-time.After(shutdownTimeout):
		log.Warn("console session did not stop in time", "timeout", shutdownTimeout)
	}

	return nil
}
