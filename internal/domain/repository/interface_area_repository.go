package repository

import (
	"context"

	"BizMap-App/internal/domain/model"
)

// AreaRepository ティアごとのエリアジオメトリに対する境界ボックス検索
type AreaRepository interface {
	// GetByBoundingBox 境界ボックスと交差するエリアフィーチャーを取得する。
	// 業種コードが指定された場合はそのコードを扱うエリアに絞り込む。
	GetByBoundingBox(ctx context.Context, scheme model.TierScheme, bbox model.BoundingBox, industryCodes []string) ([]model.AreaFeature, error)

	// GetMarkersByBoundingBox 建物ティア用のマーカー取得。ポリゴンは取得せず、
	// 店舗数上位limit件のみを返す（描画コストの上限）。
	GetMarkersByBoundingBox(ctx context.Context, bbox model.BoundingBox, limit int) ([]model.AreaFeature, error)
}
