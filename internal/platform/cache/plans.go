package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adolago/studypath/internal/planner"
)

// Plans caches built study plans for a short TTL so bursts of plan requests
// do not hammer the store. Every cache failure degrades to a rebuild.
type Plans struct {
	cache *Cache
	ttl   time.Duration
}

// NewPlans creates a plan cache with the given TTL.
func NewPlans(cache *Cache, ttl time.Duration) *Plans {
	return &Plans{cache: cache, ttl: ttl}
}

// GetPlan returns a cached plan for the exact (learner, limit, filter)
// combination.
func (p *Plans) GetPlan(ctx context.Context, learnerID string, limit int, topicFilter string) (planner.Plan, bool) {
	raw, err := p.cache.Client.Get(ctx, planKey(learnerID, limit, topicFilter)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("plan cache read failed", "learner_id", learnerID, "error", err)
		}
		return planner.Plan{}, false
	}

	var plan planner.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		slog.Warn("plan cache entry corrupt, ignoring", "learner_id", learnerID, "error", err)
		return planner.Plan{}, false
	}
	return plan, true
}

// SetPlan stores a plan under its request signature.
func (p *Plans) SetPlan(ctx context.Context, learnerID string, limit int, topicFilter string, plan planner.Plan) {
	raw, err := json.Marshal(plan)
	if err != nil {
		slog.Warn("plan cache encode failed", "learner_id", learnerID, "error", err)
		return
	}
	if err := p.cache.Client.Set(ctx, planKey(learnerID, limit, topicFilter), raw, p.ttl).Err(); err != nil {
		slog.Warn("plan cache write failed", "learner_id", learnerID, "error", err)
	}
}

// InvalidatePlans drops every cached plan for a learner. Called after each
// recorded attempt, since any attempt can reshape the plan.
func (p *Plans) InvalidatePlans(ctx context.Context, learnerID string) {
	pattern := fmt.Sprintf("plan:%s:*", learnerID)
	iter := p.cache.Client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := p.cache.Client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("plan cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("plan cache scan failed", "learner_id", learnerID, "error", err)
	}
}

func planKey(learnerID string, limit int, topicFilter string) string {
	return fmt.Sprintf("plan:%s:%d:%s", learnerID, limit, topicFilter)
}
