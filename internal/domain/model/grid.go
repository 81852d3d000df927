package model

import "github.com/paulmach/orb/geojson"

// DaySegment 時間帯区分。生データの時間コード（0〜23）は保存時には
// 区分化されず、集計時に3区分へバケット化される。
type DaySegment string

const (
	SegmentNight     DaySegment = "0-8"   // [0,8)
	SegmentDaytime   DaySegment = "8-16"  // [8,16)
	SegmentEvening   DaySegment = "16-24" // [16,24)
	InvalidTimeCode  DaySegment = ""      // 範囲外の時間コード
	AgeBucketCount              = 14      // 5歳刻みの年齢バケット数（65歳以上を含む）
)

// DaySegmentFor 時間コード（0〜23）を3つの時間帯区分に分類する
func DaySegmentFor(timeCode int) DaySegment {
	switch {
	case timeCode >= 0 && timeCode < 8:
		return SegmentNight
	case timeCode >= 8 && timeCode < 16:
		return SegmentDaytime
	case timeCode >= 16 && timeCode < 24:
		return SegmentEvening
	default:
		return InvalidTimeCode
	}
}

// AgeBucketLabels 年齢バケットのラベル（DBカラム名のサフィックスと一致）
var AgeBucketLabels = [AgeBucketCount]string{
	"00_04", "05_09", "10_14", "15_19",
	"20_24", "25_29", "30_34", "35_39",
	"40_44", "45_49", "50_54", "55_59",
	"60_64", "65_plus",
}

// GridCell 固定250mメッシュセル（行政境界とは独立）
type GridCell struct {
	ID       int               `json:"id"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Geohash  string            `json:"geohash"`
}

// GenderAgeCounts 性別×年齢バケットの粒度フィールド（28項目）。
// ストア層ではこの粒度の単純合計のみを計算し、複合合計は集計層で導出する。
type GenderAgeCounts struct {
	Male   [AgeBucketCount]int64 `json:"male"`
	Female [AgeBucketCount]int64 `json:"female"`
}

// Add 粒度フィールドを項目ごとに加算する
func (c *GenderAgeCounts) Add(other GenderAgeCounts) {
	for i := 0; i < AgeBucketCount; i++ {
		c.Male[i] += other.Male[i]
		c.Female[i] += other.Female[i]
	}
}

// SegmentTotals 集計層で導出される9つの複合合計
type SegmentTotals struct {
	Total     int64 `json:"total"`
	Male      int64 `json:"male"`
	Female    int64 `json:"female"`
	Age00_19  int64 `json:"age_00_19"`
	Age20s    int64 `json:"age_20s"`
	Age30s    int64 `json:"age_30s"`
	Age40s    int64 `json:"age_40s"`
	Age50s    int64 `json:"age_50s"`
	Age60Plus int64 `json:"age_60_plus"`
}

// PopulationObservationSum ストア層が返す (セルID, 時間コード) ごとの粒度合計行
type PopulationObservationSum struct {
	CellID   int             `json:"cell_id"`
	TimeCode int             `json:"time_code"` // 0〜23、区分化前の生コード
	Counts   GenderAgeCounts `json:"counts"`
}

// GridSegmentStats 1セル・1時間帯区分の集計結果
type GridSegmentStats struct {
	Segment DaySegment      `json:"segment"`
	Counts  GenderAgeCounts `json:"counts"`
	Totals  SegmentTotals   `json:"totals"`
}

// GridCellSegments グリッドセルごとの時間帯別統計。
// 観測行が1件もないセルもSegmentsが空のまま必ず出力される。
type GridCellSegments struct {
	CellID   int                `json:"cell_id"`
	Geometry *geojson.Geometry  `json:"geometry,omitempty"`
	Geohash  string             `json:"geohash"`
	Segments []GridSegmentStats `json:"segments"`
}
