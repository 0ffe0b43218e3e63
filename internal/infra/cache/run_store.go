package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const (
	runKeyPrefix  = "leads:run:"
	recentRunsKey = "leads:runs:recent"
	recentRunsCap = 50
)

var ErrRunNotFound = errors.New("ingestion run not found")

// RunStore keeps ingestion run records in Redis for a limited time.
type RunStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRunStore(client *redis.Client, ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RunStore{Client: client, TTL: ttl}
}

func (s *RunStore) Save(ctx context.Context, rec usecase.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "runs: marshal record")
	}

	pipe := s.Client.TxPipeline()
	pipe.Set(ctx, runKeyPrefix+rec.RunID, data, s.TTL)
	pipe.LPush(ctx, recentRunsKey, rec.RunID)
	pipe.LTrim(ctx, recentRunsKey, 0, recentRunsCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "runs: save %s", rec.RunID)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, runID string) (*usecase.RunRecord, error) {
	data, err := s.Client.Get(ctx, runKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "runs: get %s", runID)
	}

	var rec usecase.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrapf(err, "runs: decode %s", runID)
	}
	return &rec, nil
}

// Recent lists the newest run ids, most recent first. Expired runs may
// still be listed.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > recentRunsCap {
		limit = recentRunsCap
	}
	ids, err := s.Client.LRange(ctx, recentRunsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "runs: list recent")
	}
	return ids, nil
}

func (s *RunStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
