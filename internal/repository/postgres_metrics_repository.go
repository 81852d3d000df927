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

// PostgresMetricsRepository 四半期メトリクスのグループ別集計クエリ実装。
// 四半期コードは固定長 "YYYYQ" なので、MAX()の辞書順比較がそのまま
// 時系列順の比較になる。
type PostgresMetricsRepository struct {
	client  *database.PostgreSQLClient
	timeout time.Duration
}

// NewPostgresMetricsRepository PostgresMetricsRepositoryの新しいインスタンスを作成
func NewPostgresMetricsRepository(client *database.PostgreSQLClient, timeout time.Duration) repository.MetricsRepository {
	return &PostgresMetricsRepository{
		client:  client,
		timeout: timeout,
	}
}

// LatestQuarter 売上・店舗・人口のいずれかに行が存在する最新の四半期コードを返す。
// codesが空の場合はティア全域を対象にする。1件も存在しない場合は空文字列。
func (r *PostgresMetricsRepository) LatestQuarter(ctx context.Context, scheme model.TierScheme, codes []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	scopeClause := ""
	var args []interface{}
	if len(codes) > 0 {
		scopeClause = "WHERE area_code = ANY($1)"
		args = append(args, pq.Array(codes))
	}

	query := fmt.Sprintf(`
		SELECT MAX(q) FROM (
			SELECT MAX(quarter_code) AS q FROM %s %s
			UNION ALL
			SELECT MAX(quarter_code) AS q FROM %s %s
			UNION ALL
			SELECT MAX(quarter_code) AS q FROM %s %s
		) latest
	`, scheme.SalesTable(), scopeClause, scheme.StoresTable(), scopeClause, scheme.PopulationTable(), scopeClause)

	var latest sql.NullString
	if err := r.client.DB.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return "", classifyStoreErr("latest_quarter", r.timeout, err)
	}
	if !latest.Valid {
		return "", nil
	}
	return latest.String, nil
}

// SumRevenue 売上金額・取引件数の合計をエリアコード別に返す
func (r *PostgresMetricsRepository) SumRevenue(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (map[string]repository.RevenueAgg, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT area_code,
			COALESCE(SUM(revenue), 0) AS revenue,
			COALESCE(SUM(transaction_count), 0) AS transaction_count
		FROM %s
		WHERE quarter_code = $1 AND area_code = ANY($2)
	`, scheme.SalesTable())

	args := []interface{}{quarter, pq.Array(codes)}
	if len(industryCodes) > 0 {
		query += " AND industry_code = ANY($3)"
		args = append(args, pq.Array(industryCodes))
	}
	query += " GROUP BY area_code"

	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyStoreErr("sum_revenue", r.timeout, err)
	}
	defer rows.Close()

	result := make(map[string]repository.RevenueAgg)
	for rows.Next() {
		var code string
		var agg repository.RevenueAgg
		if err := rows.Scan(&code, &agg.Revenue, &agg.TransactionCount); err != nil {
			return nil, fmt.Errorf("売上集計行のスキャンエラー: %w", err)
		}
		result[code] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("sum_revenue", r.timeout, err)
	}
	return result, nil
}

// SumStores 店舗数・開業数・廃業数の合計をエリアコード別に返す
func (r *PostgresMetricsRepository) SumStores(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (map[string]repository.StoreAgg, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT area_code,
			COALESCE(SUM(store_count), 0) AS store_count,
			COALESCE(SUM(open_count), 0) AS open_count,
			COALESCE(SUM(close_count), 0) AS close_count
		FROM %s
		WHERE quarter_code = $1 AND area_code = ANY($2)
	`, scheme.StoresTable())

	args := []interface{}{quarter, pq.Array(codes)}
	if len(industryCodes) > 0 {
		query += " AND industry_code = ANY($3)"
		args = append(args, pq.Array(industryCodes))
	}
	query += " GROUP BY area_code"

	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyStoreErr("sum_stores", r.timeout, err)
	}
	defer rows.Close()

	result := make(map[string]repository.StoreAgg)
	for rows.Next() {
		var code string
		var agg repository.StoreAgg
		if err := rows.Scan(&code, &agg.StoreCount, &agg.OpenCount, &agg.CloseCount); err != nil {
			return nil, fmt.Errorf("店舗集計行のスキャンエラー: %w", err)
		}
		result[code] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("sum_stores", r.timeout, err)
	}
	return result, nil
}

// SumPopulation 常住人口の合計をエリアコード別に返す
func (r *PostgresMetricsRepository) SumPopulation(ctx context.Context, scheme model.TierScheme, codes []string, quarter string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT area_code, COALESCE(SUM(resident_population), 0) AS population
		FROM %s
		WHERE quarter_code = $1 AND area_code = ANY($2)
		GROUP BY area_code
	`, scheme.PopulationTable())

	rows, err := r.client.DB.QueryContext(ctx, query, quarter, pq.Array(codes))
	if err != nil {
		return nil, classifyStoreErr("sum_population", r.timeout, err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var code string
		var population int64
		if err := rows.Scan(&code, &population); err != nil {
			return nil, fmt.Errorf("人口集計行のスキャンエラー: %w", err)
		}
		result[code] = population
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("sum_population", r.timeout, err)
	}
	return result, nil
}

// TopAreasByMetric 全域スナップショットからメトリクス上位limit件を返す。
// 第2ソートキーをエリアコード昇順にすることで、同値時の順序を
// ストアの偶発的な行順に依存させず決定的にする。
func (r *PostgresMetricsRepository) TopAreasByMetric(ctx context.Context, scheme model.TierScheme, quarter string, metric model.Metric, limit int) ([]model.AreaMetricValue, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var table, column string
	switch metric {
	case model.MetricRevenue:
		table, column = scheme.SalesTable(), "revenue"
	case model.MetricPopulation:
		table, column = scheme.PopulationTable(), "resident_population"
	case model.MetricOpening:
		table, column = scheme.StoresTable(), "open_count"
	case model.MetricClosing:
		table, column = scheme.StoresTable(), "close_count"
	default:
		return nil, fmt.Errorf("未知のメトリクス: %s", metric)
	}

	direction := "DESC"
	if metric.Ascending() {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT area_code, COALESCE(SUM(%s), 0) AS value
		FROM %s
		WHERE quarter_code = $1
		GROUP BY area_code
		ORDER BY value %s, area_code ASC
		LIMIT $2
	`, column, table, direction)

	rows, err := r.client.DB.QueryContext(ctx, query, quarter, limit)
	if err != nil {
		return nil, classifyStoreErr("top_areas", r.timeout, err)
	}
	defer rows.Close()

	var values []model.AreaMetricValue
	for rows.Next() {
		var v model.AreaMetricValue
		if err := rows.Scan(&v.AreaCode, &v.Value); err != nil {
			return nil, fmt.Errorf("ランキング行のスキャンエラー: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("top_areas", r.timeout, err)
	}
	return values, nil
}
