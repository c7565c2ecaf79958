package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker guards a batch run so runs never overlap. ok is false when another
// holder has the lock; release must be called once when ok is true.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
    if redis.call("get", KEYS[1]) == ARGV[1] then
        return redis.call("del", KEYS[1])
    else
        return 0
    end
`)

// extendScript pushes the expiry out only while we still own the key.
var extendScript = redis.NewScript(`
    if redis.call("get", KEYS[1]) == ARGV[1] then
        return redis.call("pexpire", KEYS[1], ARGV[2])
    else
        return 0
    end
`)

// RedisLocker renews its key every ttl/3 until release. ttl bounds how long a
// crashed holder blocks the next run.
type RedisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(), bool, error) {
	lockValue := uuid.NewString()

	// SET key value NX PX ttl
	ok, err := l.rdb.SetNX(ctx, l.key, lockValue, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	logger.Debug("Acquired lock %s (value %s)", l.key, lockValue)

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go l.keepAlive(lockValue, stop, renewed)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-renewed
			l.release(lockValue)
		})
	}
	return release, true, nil
}

func (l *RedisLocker) keepAlive(lockValue string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			ok, err := extendScript.Run(ctx, l.rdb, []string{l.key}, lockValue, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil {
				// transient; the next tick retries before the key can expire
				logger.Warn("Failed to extend lock %s: %v", l.key, err)
				continue
			}
			if ok == 0 {
				logger.Error("Lock %s was lost before the run finished", l.key)
				return
			}
			logger.Debug("Extended lock %s by %s", l.key, l.ttl)
		}
	}
}

func (l *RedisLocker) release(lockValue string) {
	// the run's ctx may already be cancelled by shutdown
	relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deleted, err := releaseScript.Run(relCtx, l.rdb, []string{l.key}, lockValue).Int64()
	if err != nil {
		logger.Error("Failed to release lock %s: %v", l.key, err)
	} else if deleted == 1 {
		logger.Debug("Released lock %s", l.key)
	} else {
		logger.Warn("Did not release lock %s; it expired or was taken by another holder", l.key)
	}
}

// LocalLocker is the single-process lock used when Redis is disabled.
type LocalLocker struct {
	mu sync.Mutex
}

func (l *LocalLocker) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
