package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/service"
)

// ViewportMetricsUseCase ビューポート変更1回分のオーケストレーション。
// ティア解決 → 境界ボックスクエリ → 四半期メトリクス付加 →
// ランキング・商圏変化指標のマージ、の一連の流れを実行する。
type ViewportMetricsUseCase interface {
	QueryViewport(ctx context.Context, req *model.ViewportRequest) (*model.ViewportResponse, error)
}

type viewportMetricsUseCaseImpl struct {
	registry        *service.SessionRegistry
	viewportService service.ViewportQueryService
	aggregator      service.MetricsAggregatorService
	ranking         service.RankingService
}

// NewViewportMetricsUseCase 新しいViewportMetricsUseCaseインスタンスを作成
func NewViewportMetricsUseCase(
	registry *service.SessionRegistry,
	viewportService service.ViewportQueryService,
	aggregator service.MetricsAggregatorService,
	ranking service.RankingService,
) ViewportMetricsUseCase {
	return &viewportMetricsUseCaseImpl{
		registry:        registry,
		viewportService: viewportService,
		aggregator:      aggregator,
		ranking:         ranking,
	}
}

func (u *viewportMetricsUseCaseImpl) QueryViewport(ctx context.Context, req *model.ViewportRequest) (*model.ViewportResponse, error) {
	res := service.ResolveTier(req.Zoom)
	session := u.registry.Acquire(req.SessionID)

	response := &model.ViewportResponse{
		SessionID:  session.ID(),
		Tier:       res.Tier,
		Accumulate: res.Accumulate,
		Status:     "ok",
		Features:   []model.AreaFeature{},
	}

	features, err := u.viewportService.QueryViewport(ctx, session, res, req.BBox, req.Metric, req.IndustryCode)
	if err != nil {
		return nil, fmt.Errorf("ビューポートクエリ失敗: %w", err)
	}
	if len(features) == 0 {
		return response, nil
	}

	codes := make([]string, len(features))
	for i, f := range features {
		codes[i] = f.Code
	}

	// 四半期メトリクスを付加する（フォールバック込み）
	snapshots, err := u.aggregator.AggregateMetrics(ctx, res.Tier, codes, req.Quarter, req.IndustryCode)
	if err != nil {
		var noData *model.NoDataError
		if errors.As(err, &noData) {
			// 「データなし」は描画可能な状態であり、エラーとして返さない
			response.Status = "no_data"
			response.Features = features
			return response, nil
		}
		return nil, err
	}

	byCode := make(map[string]*model.MetricSnapshot, len(snapshots))
	for i := range snapshots {
		byCode[snapshots[i].AreaCode] = &snapshots[i]
	}
	for i := range features {
		if snap, ok := byCode[features[i].Code]; ok {
			features[i].Snapshot = snap
			response.Quarter = snap.ResolvedQuarter
		}
	}

	// ビューポート内トップ3のランクラベルを付与する
	entries := u.ranking.RankViewport(features, req.Metric)
	rankByCode := make(map[string]int, len(entries))
	for _, e := range entries {
		rankByCode[e.AreaCode] = e.Rank
	}
	for i := range features {
		features[i].Rank = rankByCode[features[i].Code]
	}

	// 商圏変化指標のマージ。ストア障害時は全件unclassifiedのまま描画を続ける
	if response.Quarter != "" {
		if err := u.ranking.MergeTrend(ctx, res.Tier, response.Quarter, features); err != nil {
			log.Printf("⚠️ 商圏変化指標のマージ失敗、unclassifiedで継続: %v", err)
			for i := range features {
				if features[i].Trend == "" {
					features[i].Trend = model.TrendUnclassified
				}
			}
		}
	}

	response.Features = features
	return response, nil
}
