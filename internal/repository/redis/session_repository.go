package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-writing-be/internal/repository/contract"
	"ai-writing-be/pkg/citation"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "citation:session:"

// SessionRepository shares work session counters between instances through
// Redis INCR. The owner lives next to the counter and every write refreshes
// both TTLs.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

var _ contract.WorkSessionRepository = (*SessionRepository)(nil)

func key(historyID string) string {
	return keyPrefix + historyID
}

func ownerKey(historyID string) string {
	return keyPrefix + historyID + ":owner"
}

func (r *SessionRepository) Start(ctx context.Context, userID string) (string, error) {
	id := uuid.NewString()
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, ownerKey(id), userID, r.ttl)
		pipe.Set(ctx, key(id), 0, r.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("start work session: %w", err)
	}
	return id, nil
}

func (r *SessionRepository) checkOwner(ctx context.Context, userID, historyID string) error {
	owner, err := r.rdb.Get(ctx, ownerKey(historyID)).Result()
	if errors.Is(err, goredis.Nil) {
		return citation.ErrUnknownSession
	}
	if err != nil {
		return fmt.Errorf("read work session %s: %w", historyID, err)
	}
	if owner != userID {
		return citation.ErrUnknownSession
	}
	return nil
}

func (r *SessionRepository) Count(ctx context.Context, userID, historyID string) (int, error) {
	if err := r.checkOwner(ctx, userID, historyID); err != nil {
		return 0, err
	}
	n, err := r.rdb.Get(ctx, key(historyID)).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read work session %s: %w", historyID, err)
	}
	return n, nil
}

func (r *SessionRepository) Increment(ctx context.Context, userID, historyID string) (int, error) {
	if err := r.checkOwner(ctx, userID, historyID); err != nil {
		return 0, err
	}
	var incr *goredis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key(historyID))
		pipe.Expire(ctx, key(historyID), r.ttl)
		pipe.Expire(ctx, ownerKey(historyID), r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment work session %s: %w", historyID, err)
	}
	return int(incr.Val()), nil
}

func (r *SessionRepository) Reset(ctx context.Context, userID, historyID string) error {
	if err := r.checkOwner(ctx, userID, historyID); err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, key(historyID), 0, r.ttl).Err(); err != nil {
		return fmt.Errorf("reset work session %s: %w", historyID, err)
	}
	return nil
}
