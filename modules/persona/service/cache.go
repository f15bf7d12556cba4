package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	platformredis "github.com/andreypavlenko/crmcore/internal/platform/redis"
	"github.com/andreypavlenko/crmcore/modules/persona/model"
)

const invalidateChannel = "persona:cache:invalidate"

// keywordCache is the classifier's process-local snapshot of the
// keyword dictionary and persona priority table. It is rebuilt lazily
// whenever its generation lags the live generation counter, which is
// bumped locally on mutation and remotely via Redis Pub/Sub so that
// every process converges without sharing the snapshot itself (spec
// §4.2; cross-process signal decision recorded in DESIGN.md's Open
// Questions).
type keywordCache struct {
	mu         sync.RWMutex
	generation int64
	built      int64
	keywords   []*model.Keyword
	priorities map[string]int // personaID -> priority
}

func newKeywordCache() *keywordCache {
	// generation starts ahead of built so the first snapshot is stale
	// and the first Classify loads the dictionary.
	return &keywordCache{generation: 1}
}

func (c *keywordCache) bump() {
	atomic.AddInt64(&c.generation, 1)
}

func (c *keywordCache) snapshot() ([]*model.Keyword, map[string]int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stale := atomic.LoadInt64(&c.built) != atomic.LoadInt64(&c.generation)
	return c.keywords, c.priorities, stale
}

func (c *keywordCache) store(keywords []*model.Keyword, priorities map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keywords = keywords
	c.priorities = priorities
	atomic.StoreInt64(&c.built, atomic.LoadInt64(&c.generation))
}

// subscribeInvalidation listens on the shared Redis channel and bumps
// the local generation counter on every message, including this
// process's own publishes (a harmless redundant rebuild). Runs until
// ctx is cancelled; call as `go subscribeInvalidation(ctx, rdb, cache, log)`.
func subscribeInvalidation(ctx context.Context, rdb *platformredis.Client, cache *keywordCache, log *logger.Logger) {
	sub := rdb.Subscribe(ctx, invalidateChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			cache.bump()
			if log != nil {
				log.Debug("persona cache invalidated by pub/sub signal")
			}
		}
	}
}

func publishInvalidation(ctx context.Context, rdb *platformredis.Client, log *logger.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Publish(ctx, invalidateChannel, "1").Err(); err != nil && log != nil {
		log.Warn("failed to publish persona cache invalidation")
	}
}
