package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// RunLog keeps the most recent batch runs, newest first.
type RunLog interface {
	Append(ctx context.Context, run model.SyncRun) error
	Recent(ctx context.Context, n int) ([]model.SyncRun, error)
}

type RedisRunLog struct {
	rdb  *redis.Client
	key  string
	size int
}

func NewRedisRunLog(rdb *redis.Client, key string, size int) *RedisRunLog {
	return &RedisRunLog{rdb: rdb, key: key, size: size}
}

func (l *RedisRunLog) Append(ctx context.Context, run model.SyncRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal sync run: %w", err)
	}
	pipe := l.rdb.TxPipeline()
	pipe.LPush(ctx, l.key, payload)
	pipe.LTrim(ctx, l.key, 0, int64(l.size-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

func (l *RedisRunLog) Recent(ctx context.Context, n int) ([]model.SyncRun, error) {
	if n <= 0 || n > l.size {
		n = l.size
	}
	items, err := l.rdb.LRange(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading sync runs: %w", err)
	}
	runs := make([]model.SyncRun, 0, len(items))
	for _, item := range items {
		var run model.SyncRun
		if err := json.Unmarshal([]byte(item), &run); err != nil {
			continue // skip entries written by an incompatible version
		}
		runs = append(runs, run)
	}
	return runs, nil
}

type MemoryRunLog struct {
	mu   sync.Mutex
	runs []model.SyncRun
	size int
}

func NewMemoryRunLog(size int) *MemoryRunLog {
	if size <= 0 {
		size = 20
	}
	return &MemoryRunLog{size: size}
}

func (l *MemoryRunLog) Append(_ context.Context, run model.SyncRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append([]model.SyncRun{run}, l.runs...)
	if len(l.runs) > l.size {
		l.runs = l.runs[:l.size]
	}
	return nil
}

func (l *MemoryRunLog) Recent(_ context.Context, n int) ([]model.SyncRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.runs) {
		n = len(l.runs)
	}
	out := make([]model.SyncRun, n)
	copy(out, l.runs[:n])
	return out, nil
}
