package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
	"BizMap-App/internal/infrastructure/database"
)

// PostgresTrendRepository 商圏変化指標のPostgreSQL実装
type PostgresTrendRepository struct {
	client  *database.PostgreSQLClient
	timeout time.Duration
}

// NewPostgresTrendRepository PostgresTrendRepositoryの新しいインスタンスを作成
func NewPostgresTrendRepository(client *database.PostgreSQLClient, timeout time.Duration) repository.TrendRepository {
	return &PostgresTrendRepository{
		client:  client,
		timeout: timeout,
	}
}

// GetClassifications 指定四半期・エリアコードの分類ラベルをエリアコード別に返す
func (r *PostgresTrendRepository) GetClassifications(ctx context.Context, scheme model.TierScheme, quarter string, codes []string) (map[string]model.TrendLabel, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT area_code, label
		FROM %s
		WHERE quarter_code = $1 AND area_code = ANY($2)
	`, scheme.TrendTable())

	rows, err := r.client.DB.QueryContext(ctx, query, quarter, pq.Array(codes))
	if err != nil {
		return nil, classifyStoreErr("trend_classifications", r.timeout, err)
	}
	defer rows.Close()

	result := make(map[string]model.TrendLabel)
	for rows.Next() {
		var code, label string
		if err := rows.Scan(&code, &label); err != nil {
			return nil, fmt.Errorf("分類行のスキャンエラー: %w", err)
		}
		result[code] = model.TrendLabel(label)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("trend_classifications", r.timeout, err)
	}
	return result, nil
}

// HasClassifications このティア・四半期に分類行が1件でも存在するかを返す
func (r *PostgresTrendRepository) HasClassifications(ctx context.Context, scheme model.TierScheme, quarter string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE quarter_code = $1)`, scheme.TrendTable())

	var exists bool
	if err := r.client.DB.QueryRowContext(ctx, query, quarter).Scan(&exists); err != nil {
		return false, classifyStoreErr("has_classifications", r.timeout, err)
	}
	return exists, nil
}

// LatestClassifiedQuarter このティアで分類行が存在する最新の四半期コードを返す
func (r *PostgresTrendRepository) LatestClassifiedQuarter(ctx context.Context, scheme model.TierScheme) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT MAX(quarter_code) FROM %s`, scheme.TrendTable())

	var latest sql.NullString
	if err := r.client.DB.QueryRowContext(ctx, query).Scan(&latest); err != nil {
		return "", classifyStoreErr("latest_classified_quarter", r.timeout, err)
	}
	if !latest.Valid {
		return "", nil
	}
	return latest.String, nil
}
