package memory

import (
	"context"
	"fmt"
	"time"

	"ai-writing-be/internal/repository/contract"
	"ai-writing-be/pkg/citation"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps work session counters in process memory. Each
// session holds two entries: its owner under the id and its counter under
// id+":count". Both expire ttl after the last write.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

var _ contract.WorkSessionRepository = (*SessionRepository)(nil)

func countKey(historyID string) string {
	return historyID + ":count"
}

func (r *SessionRepository) Start(ctx context.Context, userID string) (string, error) {
	id := uuid.NewString()
	r.cache.Set(id, userID, r.ttl)
	r.cache.Set(countKey(id), 0, r.ttl)
	return id, nil
}

func (r *SessionRepository) owned(userID, historyID string) bool {
	owner, found := r.cache.Get(historyID)
	if !found {
		return false
	}
	s, ok := owner.(string)
	return ok && s == userID
}

func (r *SessionRepository) Count(ctx context.Context, userID, historyID string) (int, error) {
	if !r.owned(userID, historyID) {
		return 0, citation.ErrUnknownSession
	}
	if x, found := r.cache.Get(countKey(historyID)); found {
		return x.(int), nil
	}
	return 0, nil
}

func (r *SessionRepository) Increment(ctx context.Context, userID, historyID string) (int, error) {
	if !r.owned(userID, historyID) {
		return 0, citation.ErrUnknownSession
	}
	r.cache.Set(historyID, userID, r.ttl)
	// Add fails when the counter exists, which is the common case.
	_ = r.cache.Add(countKey(historyID), 0, r.ttl)
	n, err := r.cache.IncrementInt(countKey(historyID), 1)
	if err != nil {
		return 0, fmt.Errorf("increment work session %s: %w", historyID, err)
	}
	return n, nil
}

func (r *SessionRepository) Reset(ctx context.Context, userID, historyID string) error {
	if !r.owned(userID, historyID) {
		return citation.ErrUnknownSession
	}
	r.cache.Set(countKey(historyID), 0, r.ttl)
	return nil
}
