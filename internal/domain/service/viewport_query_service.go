package service

import (
	"context"
	"fmt"
	"log"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

// ViewportQueryService ビューポート1回分のフィーチャー取得。
// ストアクエリが失敗した場合は空リストへ縮退する（ビューポート全体を
// 失敗させるより描画の劣化を優先する）。
type ViewportQueryService interface {
	QueryViewport(ctx context.Context, session *ViewportSession, res Resolution, bbox model.BoundingBox, metric model.Metric, industryCode string) ([]model.AreaFeature, error)
}

type viewportQueryServiceImpl struct {
	areaRepo repository.AreaRepository
}

// NewViewportQueryService ViewportQueryServiceの新しいインスタンスを作成
func NewViewportQueryService(areaRepo repository.AreaRepository) ViewportQueryService {
	return &viewportQueryServiceImpl{areaRepo: areaRepo}
}

// QueryViewport ティアに応じた境界ボックスクエリを1回発行する。
// 商圏ティアではセッションの既出セットに対して重複排除を行い、
// 建物ティアではポリゴンを取得せず店舗数上位のマーカーのみ返す。
func (s *viewportQueryServiceImpl) QueryViewport(ctx context.Context, session *ViewportSession, res Resolution, bbox model.BoundingBox, metric model.Metric, industryCode string) ([]model.AreaFeature, error) {
	if err := bbox.Validate(); err != nil {
		return nil, fmt.Errorf("境界ボックスの検証失敗: %w", err)
	}

	// 非累積ティアへの遷移は累積セットを破棄する。クライアントは
	// ズームアウト時に商圏レイヤーを捨てるため、再び商圏ティアに
	// 戻ったときは全フィーチャーを再送する必要がある。
	if !res.Accumulate && session != nil {
		session.Reset()
	}

	if res.Tier == model.TierBuilding {
		features, err := s.areaRepo.GetMarkersByBoundingBox(ctx, bbox, model.BuildingMarkerLimit)
		if err != nil {
			log.Printf("⚠️ 建物マーカー取得失敗、空リストへ縮退: %v", err)
			return []model.AreaFeature{}, nil
		}
		return features, nil
	}

	scheme, err := model.SchemeFor(res.Tier)
	if err != nil {
		return nil, err
	}

	features, err := s.areaRepo.GetByBoundingBox(ctx, scheme, bbox, model.SplitIndustryCodes(industryCode))
	if err != nil {
		log.Printf("⚠️ ビューポートクエリ失敗 (tier=%s)、空リストへ縮退: %v", res.Tier, err)
		return []model.AreaFeature{}, nil
	}

	if res.Accumulate && session != nil {
		scope := sessionScope{Tier: res.Tier, Metric: metric, Industry: industryCode}
		features = session.FilterNew(scope, features)
	}

	return features, nil
}
