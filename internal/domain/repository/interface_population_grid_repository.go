package repository

import (
	"context"

	"BizMap-App/internal/domain/model"
)

// PopulationGridRepository 固定グリッドセルと生活人口観測行の参照。
// ストア層は (セルID, 時間コード) ごとの粒度フィールド合計のみを計算し、
// 時間帯区分への分類と複合合計の導出は集計層が行う。
type PopulationGridRepository interface {
	// GetCellsByBoundingBox 境界ボックスと交差するグリッドセルを取得する。
	// 実装は浮動小数点誤差で境界線上のセルを取りこぼさないよう、検索範囲に
	// わずかな余裕（100m程度）を持たせてよい。そのため境界のすぐ外側に
	// 接するセルが結果に含まれることがある。
	GetCellsByBoundingBox(ctx context.Context, bbox model.BoundingBox) ([]model.GridCell, error)

	// GetObservationSums 指定セルIDの観測行を (セルID, 時間コード) で
	// グループ化した粒度合計として返す。観測のないセルは行が返らない。
	GetObservationSums(ctx context.Context, cellIDs []int) ([]model.PopulationObservationSum, error)
}
