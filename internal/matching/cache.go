package matching

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/go-redis/redis/v8"
)

// RecommendationCache stores ranked results per user so a feed refresh
// does not rescore the whole pool. A nil client disables caching.
type RecommendationCache struct {
    client *redis.Client
    ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
    return &RecommendationCache{client: client, ttl: ttl}
}

func (c *RecommendationCache) key(userID int64) string {
    return fmt.Sprintf("recommendations:%d", userID)
}

// Get returns the cached list for a user, or nil on miss. Cache failures
// are reported as misses, never as request failures.
func (c *RecommendationCache) Get(ctx context.Context, userID int64) []*ScoredCandidate {
    if c == nil || c.client == nil {
        return nil
    }

    data, err := c.client.Get(ctx, c.key(userID)).Bytes()
    if err != nil {
        return nil
    }

    var cached []*ScoredCandidate
    if err := json.Unmarshal(data, &cached); err != nil {
        return nil
    }

    return cached
}

func (c *RecommendationCache) Set(ctx context.Context, userID int64, candidates []*ScoredCandidate) {
    if c == nil || c.client == nil {
        return
    }

    data, err := json.Marshal(candidates)
    if err != nil {
        return
    }

    c.client.Set(ctx, c.key(userID), data, c.ttl)
}

// Invalidate drops the cached list after anything that changes ranking
// inputs (a like, a preference refresh).
func (c *RecommendationCache) Invalidate(ctx context.Context, userID int64) {
    if c == nil || c.client == nil {
        return
    }

    c.client.Del(ctx, c.key(userID))
}
