package repository

import (
	"context"

	"BizMap-App/internal/domain/model"
)

// TrendRepository 商圏変化指標（トレンド分類）の参照
type TrendRepository interface {
	// GetClassifications 指定四半期・エリアコードの分類ラベルをエリアコード別に返す。
	// 該当行がないエリアはマップに含まれない。
	GetClassifications(ctx context.Context, scheme model.TierScheme, quarter string, codes []string) (map[string]model.TrendLabel, error)

	// HasClassifications このティア・四半期に分類行が1件でも存在するかを返す。
	// バッチ内のエリアに該当行がないだけなのか、四半期自体が未分類なのかを
	// 区別するために使う（後者のみ四半期フォールバックの対象になる）。
	HasClassifications(ctx context.Context, scheme model.TierScheme, quarter string) (bool, error)

	// LatestClassifiedQuarter このティアで分類行が存在する最新の四半期コードを返す。
	// 1件も存在しない場合は空文字列を返す。
	LatestClassifiedQuarter(ctx context.Context, scheme model.TierScheme) (string, error)
}
