package infra

import (
	"context"
	"strconv"
	"strings"
	"time"

	"runrun-importer/runrun/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores da importação em hashes do Redis.
//
// Chaves (prefixo padrão "runrun:import"):
//
//	<prefix>:total                 requests:<outcome>, rows:<outcome>
//	<prefix>:run:<run_id>          idem, por execução (expira em ttl)
//	<prefix>:run:<run_id>:endpoint "<METHOD> <endpoint>:<outcome>"
//	<prefix>:run:<run_id>:board    "<board_id>:<outcome>"
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas às chaves por execução. total é cumulativo e não expira.
	ttl time.Duration
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "runrun:import",
		ttl:    7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Prefix() string { return s.prefix }

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	outcome := ev.Outcome
	if outcome == "" {
		outcome = domain.OutcomeError
	}
	field := string(ev.Kind) + "s:" + outcome

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	runID := strings.TrimSpace(ev.RunID)
	if runID != "" {
		runKey := s.prefix + ":run:" + runID
		pipe.HIncrBy(ctx, runKey, field, 1)
		s.expire(ctx, pipe, runKey)

		switch ev.Kind {
		case domain.StatsRequest:
			route := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Endpoint))
			if route != "" {
				pipe.HIncrBy(ctx, runKey+":endpoint", route+":"+outcome, 1)
				s.expire(ctx, pipe, runKey+":endpoint")
			}
		case domain.StatsRow:
			if ev.BoardID != 0 {
				pipe.HIncrBy(ctx, runKey+":board", strconv.FormatInt(ev.BoardID, 10)+":"+outcome, 1)
				s.expire(ctx, pipe, runKey+":board")
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatsStore) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}
