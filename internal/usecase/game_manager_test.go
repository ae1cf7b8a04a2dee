package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

var errRedisDown = errors.New("redis down")

type mockSnapshotRepo struct {
	mock.Mock
}

func (that *mockSnapshotRepo) CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error {
	args := that.Called(ctx, snapshot)
	return args.Error(0)
}

func (that *mockSnapshotRepo) DeleteByID(ctx context.Context, sessionID string) error {
	args := that.Called(ctx, sessionID)
	return args.Error(0)
}

func newManager(t *testing.T, repo snapshotRepo) *GameManager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	controller := tictactoe.NewGameController(logger, entity.PlayerX, tictactoe.RestartAlternate)

	return NewGameManager(logger, controller, repo)
}

func TestGameManager_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("Publishes the initial snapshot", func(t *testing.T) {
		// Given: a manager with a snapshot repository
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)

		repo.On("CreateOrUpdate", mock.Anything, mock.MatchedBy(func(s *entity.Snapshot) bool {
			return s.SessionID == manager.SessionID() && s.Moves == 0
		})).Return(nil).Once()

		// When: the session starts
		snapshot, err := manager.Start(ctx)

		// Then: an empty board is published
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyBoard(), snapshot.State.Board)
		assert.Equal(t, entity.PlayerX, snapshot.Starter)
		repo.AssertExpectations(t)
	})

	t.Run("Returns store errors", func(t *testing.T) {
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)

		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(errRedisDown).Once()

		snapshot, err := manager.Start(ctx)

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, snapshot)
	})
}

func TestGameManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted turn is published", func(t *testing.T) {
		// Given: a manager with a snapshot repository
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)

		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(nil).Once()

		// When: X plays the center
		snapshot, accepted, err := manager.MakeTurn(ctx, 1, 1)

		// Then: the move is accepted and published
		require.NoError(t, err)
		assert.True(t, accepted)
		assert.Equal(t, 1, snapshot.Moves)
		assert.Equal(t, entity.PlayerO, snapshot.State.ActivePlayer)
		repo.AssertExpectations(t)
	})

	t.Run("Rejected turn is neither an error nor published", func(t *testing.T) {
		// Given: X holds the center
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)

		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(nil).Once()
		_, accepted, err := manager.MakeTurn(ctx, 1, 1)
		require.NoError(t, err)
		require.True(t, accepted)

		// When: O taps the center
		snapshot, accepted, err := manager.MakeTurn(ctx, 1, 1)

		// Then: it is refused without touching the store again
		require.NoError(t, err)
		assert.False(t, accepted)
		assert.Equal(t, 1, snapshot.Moves)
		repo.AssertNumberOfCalls(t, "CreateOrUpdate", 1)
	})

	t.Run("Store failure keeps the accepted move", func(t *testing.T) {
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)

		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(errRedisDown).Once()

		snapshot, accepted, err := manager.MakeTurn(ctx, 0, 0)

		require.ErrorIs(t, err, errRedisDown)
		assert.True(t, accepted)
		assert.Equal(t, entity.Mark(entity.PlayerX), snapshot.State.Board.At(0, 0))
	})

	t.Run("Works without a store", func(t *testing.T) {
		manager := newManager(t, nil)

		for _, m := range [][2]int{{0, 0}, {1, 1}, {0, 1}, {2, 2}, {0, 2}} {
			_, accepted, err := manager.MakeTurn(ctx, m[0], m[1])
			require.NoError(t, err)
			require.True(t, accepted)
		}

		assert.Equal(t, entity.Win(entity.PlayerX), manager.Current().State.Outcome)
	})
}

func TestGameManager_Restart(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces the session and its snapshot", func(t *testing.T) {
		// Given: a session with one move
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)
		previous := manager.SessionID()

		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(nil)
		repo.On("DeleteByID", mock.Anything, previous).Return(nil).Once()

		_, _, err := manager.MakeTurn(ctx, 0, 0)
		require.NoError(t, err)

		// When: restarting
		snapshot, err := manager.Restart(ctx)

		// Then: the old snapshot is dropped and a new session with O to start is published
		require.NoError(t, err)
		assert.NotEqual(t, previous, snapshot.SessionID)
		assert.Equal(t, entity.PlayerO, snapshot.Starter)
		assert.Equal(t, entity.PlayerO, snapshot.State.ActivePlayer)
		assert.Equal(t, entity.EmptyBoard(), snapshot.State.Board)
		assert.Equal(t, 0, snapshot.Moves)
		repo.AssertExpectations(t)
	})

	t.Run("Delete failure does not block the restart", func(t *testing.T) {
		repo := &mockSnapshotRepo{}
		manager := newManager(t, repo)

		repo.On("DeleteByID", mock.Anything, manager.SessionID()).Return(errRedisDown).Once()
		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(nil).Once()

		snapshot, err := manager.Restart(ctx)

		require.NoError(t, err)
		assert.Equal(t, entity.InProgress(), snapshot.State.Outcome)
	})
}
