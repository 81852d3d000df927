package model

// TrendLabel 商圏変化指標のラベル。
// リクエストされた四半期に分類行が存在しない場合は最新の分類済み
// 四半期へフォールバックし、それでも該当しないエリアはUnclassifiedになる。
// Unclassifiedはエラーではなく描画可能な状態として扱う。
type TrendLabel string

const (
	TrendStable       TrendLabel = "stable"       // 정체（停滞・安定）
	TrendDeclining    TrendLabel = "declining"    // 상권축소（商圏縮小）
	TrendAtRisk       TrendLabel = "at-risk"      // 다이나믹ではない衰退リスク
	TrendEmerging     TrendLabel = "emerging"     // 상권확장（商圏拡大）
	TrendUnclassified TrendLabel = "unclassified" // 分類行なし
)

// TrendClassification (エリアコード, 四半期) ごとの分類行
type TrendClassification struct {
	AreaCode string     `json:"area_code"`
	Quarter  string     `json:"quarter"`
	Label    TrendLabel `json:"label"`
}
