package usecase

import (
	"context"
	"fmt"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/service"
)

// RankScopeGlobal スコープなし（最新四半期・全域）のランキング指定
const RankScopeGlobal = "global"

// RankUseCase トップ3ランキングの取得。
// スコープが "global" の場合はキャッシュされた全域スナップショットから、
// エリアコード指定の場合は集計済みメトリクスからローカルに計算する。
type RankUseCase interface {
	Rank(ctx context.Context, tier model.Tier, codes []string, global bool, metric model.Metric, quarter string) ([]model.RankEntry, error)
}

type rankUseCaseImpl struct {
	aggregator service.MetricsAggregatorService
	ranking    service.RankingService
}

// NewRankUseCase 新しいRankUseCaseインスタンスを作成
func NewRankUseCase(aggregator service.MetricsAggregatorService, ranking service.RankingService) RankUseCase {
	return &rankUseCaseImpl{
		aggregator: aggregator,
		ranking:    ranking,
	}
}

func (u *rankUseCaseImpl) Rank(ctx context.Context, tier model.Tier, codes []string, global bool, metric model.Metric, quarter string) ([]model.RankEntry, error) {
	if global {
		return u.ranking.RankGlobal(ctx, tier, metric, quarter)
	}

	if len(codes) == 0 {
		return []model.RankEntry{}, nil
	}

	snapshots, err := u.aggregator.AggregateMetrics(ctx, tier, codes, quarter, "")
	if err != nil {
		return nil, fmt.Errorf("ランキング用メトリクス集計失敗: %w", err)
	}

	features := make([]model.AreaFeature, len(snapshots))
	for i := range snapshots {
		features[i] = model.AreaFeature{
			Code:     snapshots[i].AreaCode,
			Tier:     tier,
			Snapshot: &snapshots[i],
		}
	}
	return u.ranking.RankViewport(features, metric), nil
}
