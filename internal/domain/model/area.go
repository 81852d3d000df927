package model

import "github.com/paulmach/orb/geojson"

// AreaFeature 1つの空間ユニット（区・洞・商圏・建物）。
// コードはティア内で一意。建物マーカーなどポイント参照のみの
// フィーチャーはGeometryがnilになる。
type AreaFeature struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Tier     Tier              `json:"tier"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Centroid *Location         `json:"centroid,omitempty"`

	// 付加情報（集計・ランキング後に設定される）
	Snapshot *MetricSnapshot `json:"snapshot,omitempty"`
	Rank     int             `json:"rank,omitempty"`  // 1〜3、圏外は0
	Trend    TrendLabel      `json:"trend,omitempty"` // 商圏変化指標
}

// HasRank サーバー側で事前計算されたランクを持つかどうか
func (f *AreaFeature) HasRank() bool {
	return f.Rank >= 1 && f.Rank <= 3
}
