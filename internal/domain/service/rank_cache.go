package service

import (
	"sync"

	"BizMap-App/internal/domain/model"
)

// RankCache 全域（最新四半期・スコープなし）トップ3のプロセス内キャッシュ。
// メトリクスごとに1エントリを保持し、計算時の四半期コードを記録する。
// 最新四半期が変わったエントリは無効として扱われ再計算される。
type RankCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cachedRank
}

type cacheKey struct {
	Tier   model.Tier
	Metric model.Metric
}

type cachedRank struct {
	Quarter string
	Entries []model.RankEntry
}

// NewRankCache 新しいRankCacheを作成
func NewRankCache() *RankCache {
	return &RankCache{
		entries: make(map[cacheKey]cachedRank),
	}
}

// Get 指定四半期のキャッシュ済みランキングを返す。
// キャッシュされた四半期がquarterと異なる場合はヒットしない。
func (c *RankCache) Get(tier model.Tier, metric model.Metric, quarter string) ([]model.RankEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[cacheKey{Tier: tier, Metric: metric}]
	if !ok || cached.Quarter != quarter {
		return nil, false
	}
	return cached.Entries, true
}

// Put 計算済みランキングを四半期コードとともに保存する
func (c *RankCache) Put(tier model.Tier, metric model.Metric, quarter string, entries []model.RankEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{Tier: tier, Metric: metric}] = cachedRank{Quarter: quarter, Entries: entries}
}

// Invalidate 指定ティア・メトリクスのエントリを破棄する
func (c *RankCache) Invalidate(tier model.Tier, metric model.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{Tier: tier, Metric: metric})
}
