package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// decisionCacheKey builds the Redis key for one decision. The owner goes
// into the key because the outcome depends on it; a dash marks unassigned
// resources.
func (s *Service) decisionCacheKey(p Principal, object string, level Level, res Resource) string {
	owner := "-"
	if res.OwnerID != nil {
		owner = *res.OwnerID
	}
	return fmt.Sprintf("%sdecide:%s:%s:%s:%s:%s",
		s.cachePrefix, p.ID, strings.Join(p.RoleIDs, ","), object, level, owner)
}

// cachedDecision returns a previously cached decision, if any.
func (s *Service) cachedDecision(ctx context.Context, p Principal, object string, level Level, res Resource) (Decision, bool) {
	if s.redisClient == nil {
		return Decision{}, false
	}

	val, err := s.redisClient.Get(ctx, s.decisionCacheKey(p, object, level, res)).Result()
	if err == redis.Nil {
		return Decision{}, false
	}
	if err != nil {
		s.log.Warnw("decision cache read failed", "error", err)
		return Decision{}, false
	}

	if allowed := val != ""; allowed {
		return Decision{Allowed: true, Scope: Scope(val), Reason: "cached result"}, true
	}
	return Decision{Reason: "cached result"}, true
}

// cacheDecision stores a decision. Allowed decisions cache the granting
// scope, denials cache the empty string.
func (s *Service) cacheDecision(ctx context.Context, p Principal, object string, level Level, res Resource, d Decision) {
	if s.redisClient == nil {
		return
	}

	val := ""
	if d.Allowed {
		val = string(d.Scope)
	}
	if err := s.redisClient.Set(ctx, s.decisionCacheKey(p, object, level, res), val, s.cacheTTL).Err(); err != nil {
		s.log.Warnw("decision cache write failed", "error", err)
	}
}

// invalidateCache drops every cached entry under the service prefix. Any
// role or permission mutation can change any decision, so invalidation is
// wholesale rather than targeted.
func (s *Service) invalidateCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}

	keys, err := s.redisClient.Keys(ctx, s.cachePrefix+"*").Result()
	if err != nil {
		s.log.Warnw("cache invalidation scan failed", "error", err)
		return
	}
	if len(keys) > 0 {
		if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
			s.log.Warnw("cache invalidation failed", "error", err)
		}
	}
}

// ClearAllCache removes every cached entry under the service prefix.
func (s *Service) ClearAllCache(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}

	keys, err := s.redisClient.Keys(ctx, s.cachePrefix+"*").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.redisClient.Del(ctx, keys...).Err()
	}
	return nil
}

// WarmPermissionCache preloads the name -> id mapping of every permission
// definition.
func (s *Service) WarmPermissionCache(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}

	defs, err := s.ListPermissions(ctx)
	if err != nil {
		return err
	}

	pipe := s.redisClient.Pipeline()
	for _, def := range defs {
		pipe.Set(ctx, s.cachePrefix+"permission:"+def.Name, def.ID, s.cacheTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// CacheStats returns cache statistics
func (s *Service) CacheStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"prefix":        s.cachePrefix,
		"redis_enabled": s.redisClient != nil,
		"ttl_minutes":   s.cacheTTL.Minutes(),
	}

	if s.redisClient != nil {
		if keys, err := s.redisClient.Keys(ctx, s.cachePrefix+"*").Result(); err == nil {
			stats["cache_keys_count"] = len(keys)
		}
	}
	return stats
}
