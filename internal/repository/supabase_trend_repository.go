package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
	"BizMap-App/internal/infrastructure/database"
)

// SupabaseTrendRepository 商圏変化指標のSupabase (PostgREST) 実装。
// DB直接接続が使えない環境向けの代替実装。
type SupabaseTrendRepository struct {
	client *database.SupabaseClient
}

// NewSupabaseTrendRepository SupabaseTrendRepositoryの新しいインスタンスを作成
func NewSupabaseTrendRepository(client *database.SupabaseClient) repository.TrendRepository {
	return &SupabaseTrendRepository{
		client: client,
	}
}

// trendRow Supabaseのレスポンス行
type trendRow struct {
	AreaCode    string `json:"area_code"`
	QuarterCode string `json:"quarter_code"`
	Label       string `json:"label"`
}

// GetClassifications 指定四半期・エリアコードの分類ラベルをエリアコード別に返す
func (r *SupabaseTrendRepository) GetClassifications(ctx context.Context, scheme model.TierScheme, quarter string, codes []string) (map[string]model.TrendLabel, error) {
	data, count, err := r.client.GetClient().
		From(scheme.TrendTable()).
		Select("area_code,quarter_code,label", "exact", false).
		Eq("quarter_code", quarter).
		In("area_code", codes).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("商圏変化指標の取得失敗: %w", err)
	}
	_ = count

	var trendRows []trendRow
	if err := json.Unmarshal([]byte(data), &trendRows); err != nil {
		return nil, fmt.Errorf("商圏変化指標のJSONアンマーシャル失敗: %w", err)
	}

	result := make(map[string]model.TrendLabel)
	for _, row := range trendRows {
		result[row.AreaCode] = model.TrendLabel(row.Label)
	}
	return result, nil
}

// HasClassifications このティア・四半期に分類行が1件でも存在するかを返す
func (r *SupabaseTrendRepository) HasClassifications(ctx context.Context, scheme model.TierScheme, quarter string) (bool, error) {
	data, count, err := r.client.GetClient().
		From(scheme.TrendTable()).
		Select("area_code", "exact", false).
		Eq("quarter_code", quarter).
		Limit(1, "").
		Execute()
	if err != nil {
		return false, fmt.Errorf("分類行の存在確認失敗: %w", err)
	}
	_ = data
	return count > 0, nil
}

// LatestClassifiedQuarter このティアで分類行が存在する最新の四半期コードを返す。
// 四半期コードは固定長なので辞書順の最大値がそのまま最新になる。
// TODO: PostgRESTのOrder+Limitで四半期コードのみ取得するよう効率化
func (r *SupabaseTrendRepository) LatestClassifiedQuarter(ctx context.Context, scheme model.TierScheme) (string, error) {
	data, count, err := r.client.GetClient().
		From(scheme.TrendTable()).
		Select("quarter_code", "exact", false).
		Execute()
	if err != nil {
		return "", fmt.Errorf("分類済み四半期の取得失敗: %w", err)
	}
	_ = count

	var trendRows []trendRow
	if err := json.Unmarshal([]byte(data), &trendRows); err != nil {
		return "", fmt.Errorf("分類済み四半期のJSONアンマーシャル失敗: %w", err)
	}

	latest := ""
	for _, row := range trendRows {
		if row.QuarterCode > latest {
			latest = row.QuarterCode
		}
	}
	return latest, nil
}
