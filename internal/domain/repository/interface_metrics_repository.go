package repository

import (
	"context"

	"BizMap-App/internal/domain/model"
)

// RevenueAgg エリアコードごとの売上集計行
type RevenueAgg struct {
	Revenue          int64
	TransactionCount int64
}

// StoreAgg エリアコードごとの店舗集計行
type StoreAgg struct {
	StoreCount int64
	OpenCount  int64
	CloseCount int64
}

// MetricsRepository 四半期メトリクスのグループ別集計クエリ
type MetricsRepository interface {
	// LatestQuarter 指定エリアのいずれかに行が存在する最新の四半期コードを返す。
	// 1件も存在しない場合は空文字列を返す（エラーではない）。
	LatestQuarter(ctx context.Context, scheme model.TierScheme, codes []string) (string, error)

	// SumRevenue (ティア, エリアコード, 四半期, 業種) で絞った売上合計をエリアコード別に返す
	SumRevenue(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (map[string]RevenueAgg, error)

	// SumStores 店舗数・開業数・廃業数の合計をエリアコード別に返す
	SumStores(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (map[string]StoreAgg, error)

	// SumPopulation 常住人口の合計をエリアコード別に返す
	SumPopulation(ctx context.Context, scheme model.TierScheme, codes []string, quarter string) (map[string]int64, error)

	// TopAreasByMetric 指定四半期の全域スナップショットからメトリクス上位limit件を返す。
	// 並び順はメトリクス値（廃業数のみ昇順、他は降順）、第2キーはエリアコード昇順で
	// 決定的であること。
	TopAreasByMetric(ctx context.Context, scheme model.TierScheme, quarter string, metric model.Metric, limit int) ([]model.AreaMetricValue, error)
}
