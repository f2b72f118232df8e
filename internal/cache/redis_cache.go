// Package cache 基于 Redis 提供分类树快照缓存和 token 黑名单。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"careerpath_go/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	// ActiveSnapshotKey 保存全部启用节点的平铺 JSON
	ActiveSnapshotKey = "taxonomy:active"
	// GenerationKey 每次写操作自增，回填快照前用它判断读取期间是否发生过变更
	GenerationKey = "taxonomy:generation"
	// TokenBlacklistPrefix 与登出时写入的 key 前缀保持一致
	TokenBlacklistPrefix = "token_blacklist:"

	DefaultSnapshotTTL = 5 * time.Minute
)

// TaxonomyCache 缓存 AllActive 的结果，任意写操作后由服务层调用 Invalidate。
// 快照和代数分开存放：读取时同时拿到代数，回填时只有代数未变才写入，
// 避免读取期间发生的变更被旧快照覆盖。
type TaxonomyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaxonomyCache(client *redis.Client, ttl time.Duration) *TaxonomyCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &TaxonomyCache{client: client, ttl: ttl}
}

// GetActive 返回缓存的快照和当前代数；未命中时 hit 为 false 且 err 为 nil，gen 仍然有效。
func (c *TaxonomyCache) GetActive(ctx context.Context) ([]model.FilterNode, int64, bool, error) {
	vals, err := c.client.MGet(ctx, ActiveSnapshotKey, GenerationKey).Result()
	if err != nil {
		return nil, 0, false, err
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, false, err
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false, nil
	}
	var nodes []model.FilterNode
	if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
		// 格式损坏的快照按未命中处理，带着 gen 回填时会被覆盖
		return nil, gen, false, nil
	}
	return nodes, gen, true, nil
}

// SetActive 仅在代数仍为 gen 时写入快照，返回是否写入。
// WATCH 保证检查和写入之间插入的 Invalidate 会让本次写入放弃。
func (c *TaxonomyCache) SetActive(ctx context.Context, nodes []model.FilterNode, gen int64) (bool, error) {
	if nodes == nil {
		nodes = []model.FilterNode{}
	}
	raw, err := json.Marshal(nodes)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, GenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ActiveSnapshotKey, raw, c.ttl)
			return nil
		})
		if errors.Is(err, redis.TxFailedErr) {
			return nil
		}
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, GenerationKey)
	return stored, err
}

// Invalidate 自增代数并删除快照，两步在同一个事务里执行。
func (c *TaxonomyCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, ActiveSnapshotKey)
		return nil
	})
	return err
}

func parseGeneration(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected taxonomy generation value %T", v)
	}
	gen, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode taxonomy generation: %w", err)
	}
	return gen, nil
}

// TokenBlacklist 记录已登出的 access token，过期时间与 token 剩余有效期一致。
type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func (b *TokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	return b.client.Set(ctx, TokenBlacklistPrefix+token, 1, ttl).Err()
}

func (b *TokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, TokenBlacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
