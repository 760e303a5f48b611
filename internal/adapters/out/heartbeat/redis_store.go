// Package heartbeat stores worker heartbeats in Redis, or in process memory
// when no Redis is configured.
package heartbeat

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"artfactory/internal/core/domain/model/worker"

	"github.com/redis/go-redis/v9"
)

const (
	workersKey = "artfactory:workers"
	keyPrefix  = "artfactory:worker:"
)

// RedisStore keeps one hash per worker plus a set of worker ids.
//
//	artfactory:workers          set  {worker-1, worker-2}
//	artfactory:worker:worker-1  hash {name, state, current_item, processed, failed, started_at, last_seen}
//
// Hashes expire after ttl so a worker that vanished without deregistering
// eventually disappears; List prunes ids whose hash has expired.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// pruneScript drops ids from the worker set whose hash no longer exists. It
// checks again inside Redis, so a worker that beat after List read its hash
// stays registered.
var pruneScript = redis.NewScript(`
local removed = 0
for _, id in ipairs(ARGV) do
	if redis.call("EXISTS", KEYS[2] .. id) == 0 then
		removed = removed + redis.call("SREM", KEYS[1], id)
	end
end
return removed
`)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func workerKey(workerID string) string {
	return keyPrefix + workerID
}

func (s *RedisStore) Beat(ctx context.Context, hb worker.Heartbeat) error {
	if err := hb.Validate(); err != nil {
		return err
	}

	key := workerKey(hb.WorkerID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"name":         hb.Name,
			"state":        string(hb.State),
			"current_item": hb.CurrentItem,
			"processed":    hb.Processed,
			"failed":       hb.Failed,
			"started_at":   hb.StartedAt.UTC().Format(time.RFC3339Nano),
			"last_seen":    hb.LastSeen.UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, s.ttl)
		pipe.SAdd(ctx, workersKey, hb.WorkerID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store heartbeat of %s: %w", hb.WorkerID, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]worker.Heartbeat, error) {
	ids, err := s.client.SMembers(ctx, workersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	if len(ids) == 0 {
		return []worker.Heartbeat{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, workerKey(id))
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read heartbeats: %w", err)
	}

	beats := make([]worker.Heartbeat, 0, len(ids))
	var expired []any
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			expired = append(expired, ids[i])
			continue
		}
		hb, parseErr := parseHeartbeat(ids[i], fields)
		if parseErr != nil {
			return nil, parseErr
		}
		beats = append(beats, hb)
	}

	if len(expired) > 0 {
		if err = s.pruneExpired(ctx, expired...); err != nil {
			return nil, err
		}
	}
	return beats, nil
}

func (s *RedisStore) pruneExpired(ctx context.Context, ids ...any) error {
	if err := pruneScript.Run(ctx, s.client, []string{workersKey, keyPrefix}, ids...).Err(); err != nil {
		return fmt.Errorf("prune expired workers: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, workerID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, workerKey(workerID))
		pipe.SRem(ctx, workersKey, workerID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove worker %s: %w", workerID, err)
	}
	return nil
}

func parseHeartbeat(workerID string, fields map[string]string) (worker.Heartbeat, error) {
	state, err := worker.ParseState(fields["state"])
	if err != nil {
		return worker.Heartbeat{}, err
	}
	hb := worker.Heartbeat{
		WorkerID:    workerID,
		Name:        fields["name"],
		State:       state,
		CurrentItem: fields["current_item"],
	}

	if hb.Processed, err = parseCounter(fields["processed"]); err != nil {
		return worker.Heartbeat{}, fmt.Errorf("heartbeat %s processed: %w", workerID, err)
	}
	if hb.Failed, err = parseCounter(fields["failed"]); err != nil {
		return worker.Heartbeat{}, fmt.Errorf("heartbeat %s failed: %w", workerID, err)
	}
	if hb.StartedAt, err = parseTime(fields["started_at"]); err != nil {
		return worker.Heartbeat{}, fmt.Errorf("heartbeat %s started_at: %w", workerID, err)
	}
	if hb.LastSeen, err = parseTime(fields["last_seen"]); err != nil {
		return worker.Heartbeat{}, fmt.Errorf("heartbeat %s last_seen: %w", workerID, err)
	}
	return hb, nil
}

func parseCounter(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
