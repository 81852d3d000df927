package service

import "BizMap-App/internal/domain/model"

// Resolution ズームレベルから決まる解像度と累積モード
type Resolution struct {
	Tier       model.Tier
	Accumulate bool // trueの場合、結果は既存の累積セットにマージされる
}

// ResolveTier ズームレベル（値が大きいほどズームアウト）を解像度ティアに変換する。
// 商圏ティアのみ累積モード：商圏は数が多く、パン操作のたびに全件を
// 再描画すると描画コストが大きいため、既出フィーチャーは再送しない。
func ResolveTier(zoom int) Resolution {
	switch {
	case zoom >= model.ZoomGuThreshold:
		return Resolution{Tier: model.TierGu}
	case zoom >= model.ZoomDongThreshold:
		return Resolution{Tier: model.TierDong}
	case zoom >= model.ZoomCommercialThreshold:
		return Resolution{Tier: model.TierCommercial, Accumulate: true}
	default:
		return Resolution{Tier: model.TierBuilding}
	}
}
