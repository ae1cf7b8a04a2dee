package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository keeps the latest snapshot of a session for out-of-process observers.
// The engine only writes and deletes; GetByID is the read side those observers use.
type SnapshotRepository interface {
	CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error
	GetByID(ctx context.Context, sessionID string) (*entity.Snapshot, error)
	DeleteByID(ctx context.Context, sessionID string) error
}

type dbSnapshot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotRepository stores snapshots under "session:<id>". A zero ttl keeps them forever.
func NewSnapshotRepository(client *redis.Client, ttl time.Duration) SnapshotRepository {
	return &dbSnapshot{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (that *dbSnapshot) CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	err = that.client.Set(ctx, sessionKey(snapshot.SessionID), snapshotJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}

	return nil
}

func (that *dbSnapshot) GetByID(ctx context.Context, sessionID string) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, sessionKey(sessionID)).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Snapshot{}, ErrSnapshotNotFound
	}

	if err != nil {
		return &entity.Snapshot{}, fmt.Errorf("failed to get snapshot by id: %w", err)
	}

	var existing entity.Snapshot
	if err = json.Unmarshal([]byte(response), &existing); err != nil {
		return &entity.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &existing, nil
}

func (that *dbSnapshot) DeleteByID(ctx context.Context, sessionID string) error {
	deleted, err := that.client.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot by id: %w", err)
	}

	if deleted == 0 {
		return ErrSnapshotNotFound
	}

	return nil
}
