package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ReplayCache 记录窗口期内已处理的签名请求
//
// 时间戳允许前后各偏差 maxSkew, 因此记录保留 2*maxSkew.
type ReplayCache struct {
	mu    sync.Mutex
	cache *bigcache.BigCache
}

// NewReplayCache 创建重放缓存, maxSkew 与 SignedCaller 一致
func NewReplayCache(maxSkew time.Duration) (*ReplayCache, error) {
	if maxSkew <= 0 {
		return nil, fmt.Errorf("replay window must be positive, got %s", maxSkew)
	}
	cfg := bigcache.DefaultConfig(2 * maxSkew)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 10000
	cfg.MaxEntrySize = 64
	cfg.CleanWindow = maxSkew
	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create replay cache: %w", err)
	}
	return &ReplayCache{cache: cache}, nil
}

// Seen 首次出现返回 false 并记录, 再次出现返回 true
func (r *ReplayCache) Seen(caller common.Address, digest []byte) (bool, error) {
	key := caller.Hex() + hexutil.Encode(digest)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.cache.Get(key); err == nil {
		return true, nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, err
	}
	if err := r.cache.Set(key, []byte{1}); err != nil {
		return false, err
	}
	return false, nil
}

// Close 释放缓存
func (r *ReplayCache) Close() error {
	return r.cache.Close()
}
