package contract

import "context"

// WorkSessionRepository counts persisted citation operations per history id.
// A session belongs to the user that started it; any other user, or an id
// that was never started or has expired, gets citation.ErrUnknownSession.
// Increment must be atomic so concurrent requests never lose an update.
type WorkSessionRepository interface {
	Start(ctx context.Context, userID string) (string, error)
	Count(ctx context.Context, userID, historyID string) (int, error)
	Increment(ctx context.Context, userID, historyID string) (int, error)
	Reset(ctx context.Context, userID, historyID string) error
}
