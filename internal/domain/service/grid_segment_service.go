package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

// GridSegmentService 固定グリッドの時間帯別生活人口集計。
// ストア層は (セルID, 時間コード) ごとの粒度合計のみを返し、
// 時間帯区分へのバケット化と複合合計の導出はこの層で行う
// （空間クエリを軽く保ち、算術をDBなしで単体テスト可能にするため）。
type GridSegmentService interface {
	// GridTimeSegments 境界ボックスと交差する全セルについて時間帯別統計を返す。
	// 観測が1件もないセルもSegmentsが空のまま必ず含まれる（外部結合の意味論）。
	GridTimeSegments(ctx context.Context, bbox model.BoundingBox) ([]model.GridCellSegments, error)
}

type gridSegmentServiceImpl struct {
	gridRepo repository.PopulationGridRepository
}

// NewGridSegmentService GridSegmentServiceの新しいインスタンスを作成
func NewGridSegmentService(gridRepo repository.PopulationGridRepository) GridSegmentService {
	return &gridSegmentServiceImpl{gridRepo: gridRepo}
}

func (s *gridSegmentServiceImpl) GridTimeSegments(ctx context.Context, bbox model.BoundingBox) ([]model.GridCellSegments, error) {
	if err := bbox.Validate(); err != nil {
		return nil, fmt.Errorf("境界ボックスの検証失敗: %w", err)
	}

	cells, err := s.gridRepo.GetCellsByBoundingBox(ctx, bbox)
	if err != nil {
		return nil, fmt.Errorf("グリッドセルの取得失敗: %w", err)
	}
	if len(cells) == 0 {
		return []model.GridCellSegments{}, nil
	}

	cellIDs := make([]int, len(cells))
	for i, c := range cells {
		cellIDs[i] = c.ID
	}

	sums, err := s.gridRepo.GetObservationSums(ctx, cellIDs)
	if err != nil {
		return nil, fmt.Errorf("生活人口観測の取得失敗: %w", err)
	}

	// 時間コードを3区分にバケット化し、セル×区分で粒度フィールドを合算する
	bySegment := make(map[int]map[model.DaySegment]*model.GenderAgeCounts)
	for _, row := range sums {
		segment := model.DaySegmentFor(row.TimeCode)
		if segment == model.InvalidTimeCode {
			log.Printf("⚠️ 範囲外の時間コードをスキップ: cell=%d time_code=%d", row.CellID, row.TimeCode)
			continue
		}
		segments, ok := bySegment[row.CellID]
		if !ok {
			segments = make(map[model.DaySegment]*model.GenderAgeCounts)
			bySegment[row.CellID] = segments
		}
		counts, ok := segments[segment]
		if !ok {
			counts = &model.GenderAgeCounts{}
			segments[segment] = counts
		}
		counts.Add(row.Counts)
	}

	// 観測のないセルも空のSegmentsで必ず出力する
	results := make([]model.GridCellSegments, 0, len(cells))
	for _, cell := range cells {
		result := model.GridCellSegments{
			CellID:   cell.ID,
			Geometry: cell.Geometry,
			Geohash:  cell.Geohash,
			Segments: []model.GridSegmentStats{},
		}
		for _, segment := range []model.DaySegment{model.SegmentNight, model.SegmentDaytime, model.SegmentEvening} {
			counts, ok := bySegment[cell.ID][segment]
			if !ok {
				continue // 観測のない区分は0埋めせず省略する
			}
			result.Segments = append(result.Segments, model.GridSegmentStats{
				Segment: segment,
				Counts:  *counts,
				Totals:  DeriveTotals(*counts),
			})
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].CellID < results[j].CellID })
	return results, nil
}

// DeriveTotals 粒度フィールド28項目から9つの複合合計を導出する。
// 年齢バケットは5歳刻み14区分で、0〜19歳が4区分、以降は10歳ごとに2区分ずつ。
func DeriveTotals(counts model.GenderAgeCounts) model.SegmentTotals {
	totals := model.SegmentTotals{}
	bandSum := func(from, to int) int64 {
		var sum int64
		for i := from; i <= to; i++ {
			sum += counts.Male[i] + counts.Female[i]
		}
		return sum
	}

	for i := 0; i < model.AgeBucketCount; i++ {
		totals.Male += counts.Male[i]
		totals.Female += counts.Female[i]
	}
	totals.Total = totals.Male + totals.Female
	totals.Age00_19 = bandSum(0, 3)
	totals.Age20s = bandSum(4, 5)
	totals.Age30s = bandSum(6, 7)
	totals.Age40s = bandSum(8, 9)
	totals.Age50s = bandSum(10, 11)
	totals.Age60Plus = bandSum(12, 13)
	return totals
}
