package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type snapshotRepo interface {
	CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error
	DeleteByID(ctx context.Context, sessionID string) error
}

type gameController interface {
	TryMove(row, col int) error
	Restart()
	State() entity.GameState
	Starter() entity.Player
}

// GameManager runs commands against the controller and publishes the resulting snapshot.
// Without a snapshot repository it works purely in memory.
type GameManager struct {
	logger *slog.Logger

	controller   gameController
	snapshotRepo snapshotRepo

	sessionID string
	now       func() time.Time
}

func NewGameManager(logger *slog.Logger, controller gameController, snapshotRepo snapshotRepo) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		controller:   controller,
		snapshotRepo: snapshotRepo,

		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// Start publishes the initial snapshot of the current session.
func (that *GameManager) Start(ctx context.Context) (*entity.Snapshot, error) {
	snapshot := that.Current()

	if err := that.publish(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to publish initial snapshot: %w", err)
	}

	return snapshot, nil
}

// MakeTurn applies a move. A rejected move is reported through accepted, never through err,
// which is reserved for snapshot store failures.
func (that *GameManager) MakeTurn(ctx context.Context, row, col int) (*entity.Snapshot, bool, error) {
	log := that.logger.With("method", "MakeTurn", "session_id", that.sessionID)

	if err := that.controller.TryMove(row, col); err != nil {
		log.Debug("turn rejected", "reason", err)

		return that.Current(), false, nil
	}

	snapshot := that.Current()
	if err := that.publish(ctx, snapshot); err != nil {
		return snapshot, true, fmt.Errorf("failed to publish snapshot: %w", err)
	}

	return snapshot, true, nil
}

// Restart drops the finished session's snapshot and starts a new session under a new id.
func (that *GameManager) Restart(ctx context.Context) (*entity.Snapshot, error) {
	log := that.logger.With("method", "Restart")

	previous := that.sessionID
	if that.snapshotRepo != nil {
		if err := that.snapshotRepo.DeleteByID(ctx, previous); err != nil {
			log.Error("failed to delete previous snapshot", "session_id", previous, "error", err)
		}
	}

	that.controller.Restart()
	that.sessionID = uuid.NewString()

	log.Info("session replaced", "previous_session_id", previous, "session_id", that.sessionID)

	snapshot := that.Current()
	if err := that.publish(ctx, snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to publish snapshot: %w", err)
	}

	return snapshot, nil
}

// Current returns the snapshot of the live session without publishing it.
func (that *GameManager) Current() *entity.Snapshot {
	state := that.controller.State()

	return &entity.Snapshot{
		SessionID: that.sessionID,
		Starter:   that.controller.Starter(),
		State:     state,
		Moves:     state.Board.Count(entity.PlayerX) + state.Board.Count(entity.PlayerO),
		UpdatedAt: that.now().UTC(),
	}
}

func (that *GameManager) SessionID() string {
	return that.sessionID
}

func (that *GameManager) publish(ctx context.Context, snapshot *entity.Snapshot) error {
	if that.snapshotRepo == nil {
		return nil
	}

	if err := that.snapshotRepo.CreateOrUpdate(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	return nil
}
