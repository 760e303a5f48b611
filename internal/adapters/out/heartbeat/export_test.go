package heartbeat

import "context"

func (s *RedisStore) PruneExpired(ctx context.Context, ids ...any) error {
	return s.pruneExpired(ctx, ids...)
}
