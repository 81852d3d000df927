package model

import "fmt"

// Metric 集計・ランキング対象のメトリクス種別
type Metric string

const (
	MetricRevenue    Metric = "revenue"    // 売上金額
	MetricPopulation Metric = "population" // 常住人口
	MetricOpening    Metric = "opening"    // 開業数
	MetricClosing    Metric = "closing"    // 廃業数
)

// ParseMetric クエリパラメータからMetricに変換
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricRevenue, MetricPopulation, MetricOpening, MetricClosing:
		return m, nil
	default:
		return "", fmt.Errorf("未知のメトリクス: %s", s)
	}
}

// Ascending 昇順でランキングするメトリクスかどうか。
// 廃業数のみ「少ないほど上位」なので昇順になる。
func (m Metric) Ascending() bool {
	return m == MetricClosing
}

// MetricSnapshot 1エリア・1四半期の集計メトリクス。
// 四半期コードは "YYYYQ" 形式の固定長文字列で、辞書順がそのまま時系列順になる。
type MetricSnapshot struct {
	AreaCode         string  `json:"area_code"`
	Quarter          string  `json:"quarter"`           // リクエストされた四半期コード
	ResolvedQuarter  string  `json:"resolved_quarter"`  // 実際にデータを取得した四半期コード（フォールバック時に異なる）
	Revenue          int64   `json:"revenue"`           // 売上金額（32bit超の値を許容）
	TransactionCount int64   `json:"transaction_count"` // 取引件数
	StoreCount       int64   `json:"store_count"`       // 店舗数
	OpenCount        int64   `json:"open_count"`        // 開業数
	CloseCount       int64   `json:"close_count"`       // 廃業数
	Population       int64   `json:"population"`        // 常住人口
	OpenRate         float64 `json:"open_rate"`         // 開業率 [0,100]
	CloseRate        float64 `json:"close_rate"`        // 廃業率 [0,100]
	IndustryCode     string  `json:"industry_code,omitempty"`
}

// Rate 分母0のとき0を返す割合計算（NaN/Infを出さない）
func Rate(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// RankEntry 導出されるランキングエントリ（保存されない）
type RankEntry struct {
	AreaCode string `json:"area_code"`
	Metric   Metric `json:"metric"`
	Rank     int    `json:"rank"` // 1〜3のみ
}

// AreaMetricValue ランキング計算用の (エリアコード, メトリクス値) ペア
type AreaMetricValue struct {
	AreaCode string
	Value    int64
}
