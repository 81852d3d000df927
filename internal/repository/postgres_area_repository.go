package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
	"BizMap-App/internal/infrastructure/database"
)

// PostgresAreaRepository PostGISの空間インデックスを使った境界ボックス検索
type PostgresAreaRepository struct {
	client  *database.PostgreSQLClient
	timeout time.Duration
}

// NewPostgresAreaRepository PostgresAreaRepositoryの新しいインスタンスを作成
func NewPostgresAreaRepository(client *database.PostgreSQLClient, timeout time.Duration) repository.AreaRepository {
	return &PostgresAreaRepository{
		client:  client,
		timeout: timeout,
	}
}

// GetByBoundingBox 境界ボックスと交差するエリアフィーチャーを取得する。
// 業種コード指定時は、その業種の売上行を持つエリアに絞り込む。
// ジオメトリの解析に失敗したフィーチャーはスキップし、バッチ全体は中断しない。
func (r *PostgresAreaRepository) GetByBoundingBox(ctx context.Context, scheme model.TierScheme, bbox model.BoundingBox, industryCodes []string) ([]model.AreaFeature, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT
			a.area_code, a.area_name,
			ST_AsGeoJSON(ST_Transform(a.geom, 4326)) AS geometry
		FROM %s a
		WHERE ST_Intersects(ST_Transform(a.geom, 4326), ST_MakeEnvelope($1, $2, $3, $4, 4326))
	`, scheme.AreaTable())

	args := []interface{}{bbox.MinLng, bbox.MinLat, bbox.MaxLng, bbox.MaxLat}
	if len(industryCodes) > 0 {
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM %s m
			WHERE m.area_code = a.area_code AND m.industry_code = ANY($5)
		)`, scheme.SalesTable())
		args = append(args, pq.Array(industryCodes))
	}
	query += `
		ORDER BY a.area_code`

	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyStoreErr("area_bbox", r.timeout, err)
	}
	defer rows.Close()

	var features []model.AreaFeature
	for rows.Next() {
		var code, name string
		var rawGeom []byte
		if err := rows.Scan(&code, &name, &rawGeom); err != nil {
			return nil, fmt.Errorf("エリアフィーチャーのスキャンエラー: %w", err)
		}

		geom, err := ParseGeometry(rawGeom)
		if err != nil {
			// 不正なジオメトリ1件でビューポート全体を失敗させない
			log.Printf("⚠️ ジオメトリ解析失敗のためスキップ (tier=%s, code=%s): %v", scheme.Tier(), code, err)
			continue
		}

		features = append(features, model.AreaFeature{
			Code:     code,
			Name:     name,
			Tier:     scheme.Tier(),
			Geometry: geom,
			Centroid: CentroidLocation(geom),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("area_bbox", r.timeout, err)
	}

	return features, nil
}

// GetMarkersByBoundingBox 建物ティア用のマーカー取得。ポリゴンは取得せず、
// 店舗数上位limit件のみを返して描画コストを抑える。
func (r *PostgresAreaRepository) GetMarkersByBoundingBox(ctx context.Context, bbox model.BoundingBox, limit int) ([]model.AreaFeature, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			b.building_code, b.building_name,
			ST_X(b.location) AS lng, ST_Y(b.location) AS lat
		FROM buildings b
		WHERE ST_Intersects(b.location, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY b.store_count DESC, b.building_code
		LIMIT $5
	`

	rows, err := r.client.DB.QueryContext(ctx, query, bbox.MinLng, bbox.MinLat, bbox.MaxLng, bbox.MaxLat, limit)
	if err != nil {
		return nil, classifyStoreErr("building_markers", r.timeout, err)
	}
	defer rows.Close()

	var features []model.AreaFeature
	for rows.Next() {
		var code, name string
		var lng, lat float64
		if err := rows.Scan(&code, &name, &lng, &lat); err != nil {
			return nil, fmt.Errorf("建物マーカーのスキャンエラー: %w", err)
		}
		features = append(features, model.AreaFeature{
			Code:     code,
			Name:     name,
			Tier:     model.TierBuilding,
			Centroid: &model.Location{Latitude: lat, Longitude: lng},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("building_markers", r.timeout, err)
	}

	return features, nil
}
