package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/t3ttt/internal/apperror"
	"github.com/rocketscienceinc/t3ttt/internal/entity"
)

const sessionKeyPrefix = "session:"

// SessionRepository keeps the board of every open page session.
type SessionRepository interface {
	Save(ctx context.Context, id string, board entity.Board) error
	GetByID(ctx context.Context, id string) (entity.Board, error)
	// Touch restarts the ttl of a live session.
	Touch(ctx context.Context, id string) error
	DeleteByID(ctx context.Context, id string) error
}

type dbSession struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionRepository stores boards as JSON under "session:<id>", each save renews the ttl.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &dbSession{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbSession) Save(ctx context.Context, id string, board entity.Board) error {
	boardJSON, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("could not marshal board: %w", err)
	}

	if err = that.client.Set(ctx, sessionKeyPrefix+id, boardJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByID(ctx context.Context, id string) (entity.Board, error) {
	response, err := that.client.Get(ctx, sessionKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Board{}, apperror.ErrSessionNotFound
	}

	if err != nil {
		return entity.Board{}, fmt.Errorf("failed to get session by id: %w", err)
	}

	var board entity.Board
	if err = json.Unmarshal([]byte(response), &board); err != nil {
		return entity.Board{}, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return board, nil
}

func (that *dbSession) Touch(ctx context.Context, id string) error {
	key := sessionKeyPrefix + id

	var (
		found bool
		err   error
	)

	if that.ttl > 0 {
		found, err = that.client.Expire(ctx, key, that.ttl).Result()
	} else {
		var exists int64
		exists, err = that.client.Exists(ctx, key).Result()
		found = exists > 0
	}

	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	if !found {
		return apperror.ErrSessionNotFound
	}

	return nil
}

func (that *dbSession) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session by id: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrSessionNotFound
	}

	return nil
}
