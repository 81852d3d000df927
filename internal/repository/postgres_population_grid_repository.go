package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
	"BizMap-App/internal/infrastructure/database"
)

// gridBBoxPadding 境界線上のセルを取りこぼさないための余裕（約100m）
const gridBBoxPadding = 0.001

// PostgresPopulationGridRepository 固定グリッドと生活人口観測のPostgreSQL実装。
// ストア層では粒度フィールド（性別×年齢バケット28項目）の単純合計のみを
// 計算し、時間帯区分への分類と複合合計は集計層に委ねる。
type PostgresPopulationGridRepository struct {
	client  *database.PostgreSQLClient
	timeout time.Duration
}

// NewPostgresPopulationGridRepository PostgresPopulationGridRepositoryの新しいインスタンスを作成
func NewPostgresPopulationGridRepository(client *database.PostgreSQLClient, timeout time.Duration) repository.PopulationGridRepository {
	return &PostgresPopulationGridRepository{
		client:  client,
		timeout: timeout,
	}
}

// GetCellsByBoundingBox 境界ボックスと交差するグリッドセルを取得する
func (r *PostgresPopulationGridRepository) GetCellsByBoundingBox(ctx context.Context, bbox model.BoundingBox) ([]model.GridCell, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	padded := PadBoundingBox(bbox, gridBBoxPadding)
	query := `
		SELECT id, ST_AsGeoJSON(geometry) AS geometry, geohash
		FROM grid_cells
		WHERE ST_Intersects(geometry, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY id
	`

	rows, err := r.client.DB.QueryContext(ctx, query, padded.MinLng, padded.MinLat, padded.MaxLng, padded.MaxLat)
	if err != nil {
		return nil, classifyStoreErr("grid_cells_bbox", r.timeout, err)
	}
	defer rows.Close()

	var cells []model.GridCell
	for rows.Next() {
		var cell model.GridCell
		var rawGeom []byte
		if err := rows.Scan(&cell.ID, &rawGeom, &cell.Geohash); err != nil {
			return nil, fmt.Errorf("グリッドセルのスキャンエラー: %w", err)
		}

		geom, err := ParseGeometry(rawGeom)
		if err != nil {
			log.Printf("⚠️ セルジオメトリの解析失敗のためスキップ (id=%d): %v", cell.ID, err)
			continue
		}
		cell.Geometry = geom
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("grid_cells_bbox", r.timeout, err)
	}
	return cells, nil
}

// GetObservationSums 観測行を (セルID, 時間コード) でグループ化した粒度合計として返す。
// カラムは male_00_04 のように性別＋年齢バケットで命名されている。
func (r *PostgresPopulationGridRepository) GetObservationSums(ctx context.Context, cellIDs []int) ([]model.PopulationObservationSum, error) {
	if len(cellIDs) == 0 {
		return []model.PopulationObservationSum{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var sumCols []string
	for _, label := range model.AgeBucketLabels {
		sumCols = append(sumCols, fmt.Sprintf("COALESCE(SUM(male_%s), 0)", label))
	}
	for _, label := range model.AgeBucketLabels {
		sumCols = append(sumCols, fmt.Sprintf("COALESCE(SUM(female_%s), 0)", label))
	}

	query := fmt.Sprintf(`
		SELECT cell_id, time_code, %s
		FROM population_observations
		WHERE cell_id = ANY($1)
		GROUP BY cell_id, time_code
		ORDER BY cell_id, time_code
	`, strings.Join(sumCols, ", "))

	ids := make([]int64, len(cellIDs))
	for i, id := range cellIDs {
		ids[i] = int64(id)
	}

	rows, err := r.client.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, classifyStoreErr("observation_sums", r.timeout, err)
	}
	defer rows.Close()

	var sums []model.PopulationObservationSum
	for rows.Next() {
		var row model.PopulationObservationSum
		dest := make([]interface{}, 0, 2+2*model.AgeBucketCount)
		dest = append(dest, &row.CellID, &row.TimeCode)
		for i := 0; i < model.AgeBucketCount; i++ {
			dest = append(dest, &row.Counts.Male[i])
		}
		for i := 0; i < model.AgeBucketCount; i++ {
			dest = append(dest, &row.Counts.Female[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("観測合計行のスキャンエラー: %w", err)
		}
		sums = append(sums, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("observation_sums", r.timeout, err)
	}
	return sums, nil
}
