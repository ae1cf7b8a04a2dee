package tictactoe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// RestartPolicy decides who starts the next session.
type RestartPolicy string

const (
	// RestartAlternate hands the first move to the player who did not start the previous session.
	RestartAlternate RestartPolicy = "alternate"
	// RestartFixed always gives the first move to the configured starter.
	RestartFixed RestartPolicy = "fixed"
)

var ErrUnknownRestartPolicy = errors.New("unknown restart policy")

func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch policy := RestartPolicy(s); policy {
	case RestartAlternate, RestartFixed:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRestartPolicy, s)
	}
}

// GameController owns the state of one session at a time. It is not safe for concurrent
// use: callers issue commands one after another.
type GameController struct {
	logger *slog.Logger
	policy RestartPolicy

	initialStarter entity.Player
	starter        entity.Player
	state          entity.GameState
}

func NewGameController(logger *slog.Logger, starter entity.Player, policy RestartPolicy) *GameController {
	if !starter.Valid() {
		starter = entity.PlayerX
	}

	if policy != RestartFixed {
		policy = RestartAlternate
	}

	return &GameController{
		logger:         logger.With("component", "game_controller"),
		policy:         policy,
		initialStarter: starter,
		starter:        starter,
		state:          entity.NewGameState(entity.EmptyBoard(), starter),
	}
}

// ApplyMove places the active player's mark and reports whether the move was accepted.
func (that *GameController) ApplyMove(row, col int) bool {
	return that.TryMove(row, col) == nil
}

// TryMove is ApplyMove with the rejection reason. A rejected move leaves the state untouched.
func (that *GameController) TryMove(row, col int) error {
	log := that.logger.With("method", "TryMove", "row", row, "col", col)

	if err := that.validateMove(row, col); err != nil {
		log.Debug("move rejected", "reason", err)

		return err
	}

	player := that.state.ActivePlayer

	board, err := entity.PlaceMark(that.state.Board, row, col, player)
	if err != nil {
		// validateMove covers every PlaceMark precondition
		return fmt.Errorf("%w: %w", apperror.ErrInvalidCell, err)
	}

	next := player
	if !entity.Evaluate(board).IsTerminal() {
		next = player.Opponent()
	}

	that.state = entity.NewGameState(board, next)

	log.Debug("move accepted", "player", player)

	if outcome := that.state.Outcome; outcome.IsTerminal() {
		log.Info("game concluded", "status", outcome.Status, "winner", outcome.Winner)
	}

	return nil
}

func (that *GameController) validateMove(row, col int) error {
	if that.state.Outcome.IsTerminal() {
		return apperror.ErrGameFinished
	}

	if !entity.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCell, row, col)
	}

	if that.state.Board.At(row, col) != entity.Empty {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, row, col)
	}

	return nil
}

// Restart replaces the session with a fresh one, whatever the current outcome.
func (that *GameController) Restart() {
	that.starter = that.nextStarter()
	that.state = entity.NewGameState(entity.EmptyBoard(), that.starter)

	that.logger.Info("game restarted", "starter", that.starter, "policy", that.policy)
}

func (that *GameController) nextStarter() entity.Player {
	if that.policy == RestartFixed {
		return that.initialStarter
	}
	return that.starter.Opponent()
}

// State returns board, active player and outcome together.
func (that *GameController) State() entity.GameState {
	return that.state
}

func (that *GameController) Board() entity.Board {
	return that.state.Board
}

func (that *GameController) ActivePlayer() entity.Player {
	return that.state.ActivePlayer
}

func (that *GameController) Outcome() entity.Outcome {
	return that.state.Outcome
}

// Starter is the player who made, or will make, the first move of the current session.
func (that *GameController) Starter() entity.Player {
	return that.starter
}

func (that *GameController) Policy() RestartPolicy {
	return that.policy
}

func (that *GameController) AcceptingMoves() bool {
	return !that.state.Outcome.IsTerminal()
}
