// README: Per-request arbitration attempt keys in Redis (SetNX fast path).
package arbitration

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"freta/internal/types"
)

const attemptTTL = 24 * time.Hour

// AttemptStore records which arbitration attempt currently owns a request.
// It is a fast-path filter only; the conditional status write in the request
// store remains the authoritative guard.
type AttemptStore struct {
	redis *redis.Client
}

func NewAttemptStore(rdb *redis.Client) *AttemptStore {
	return &AttemptStore{redis: rdb}
}

func attemptKey(requestID types.ID) string {
	return "arbitration:request:" + string(requestID)
}

// Claim registers attemptID for the request. Returns true when this attempt
// owns the request (fresh claim or replay of its own key).
func (s *AttemptStore) Claim(ctx context.Context, requestID types.ID, attemptID string) (bool, error) {
	ok, err := s.redis.SetNX(ctx, attemptKey(requestID), attemptID, attemptTTL).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	owner, err := s.redis.Get(ctx, attemptKey(requestID)).Result()
	if err != nil {
		return false, err
	}
	return owner == attemptID, nil
}

// Release frees the key if this attempt still owns it, so a failed attempt
// does not block later ones for the key's full TTL.
func (s *AttemptStore) Release(ctx context.Context, requestID types.ID, attemptID string) error {
	owner, err := s.redis.Get(ctx, attemptKey(requestID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if owner != attemptID {
		return nil
	}
	return s.redis.Del(ctx, attemptKey(requestID)).Err()
}
