package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BoundingBox ビューポートの境界ボックス（経度・緯度）
type BoundingBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// ParseBoundingBox "min_lng,min_lat,max_lng,max_lat" 形式の文字列を解析する
func ParseBoundingBox(s string) (BoundingBox, error) {
	coords := strings.Split(s, ",")
	if len(coords) != 4 {
		return BoundingBox{}, fmt.Errorf("bboxは4つの座標が必要です: min_lng,min_lat,max_lng,max_lat")
	}

	values := make([]float64, 4)
	for i, c := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bbox座標の解析失敗: %s", c)
		}
		values[i] = v
	}

	bbox := BoundingBox{MinLng: values[0], MinLat: values[1], MaxLng: values[2], MaxLat: values[3]}
	if err := bbox.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return bbox, nil
}

// Validate 境界ボックスのバリデーション
func (b BoundingBox) Validate() error {
	if b.MinLng >= b.MaxLng {
		return fmt.Errorf("経度の最小値は最大値より小さい必要があります")
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("緯度の最小値は最大値より小さい必要があります")
	}
	if b.MinLng < -180 || b.MaxLng > 180 {
		return fmt.Errorf("経度は-180から180の範囲内である必要があります")
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("緯度は-90から90の範囲内である必要があります")
	}
	return nil
}

// ToBound orb.Bound に変換する
func (b BoundingBox) ToBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// ViewportRequest ビューポート変更1回分のリクエスト
type ViewportRequest struct {
	Zoom         int         `json:"zoom"`
	BBox         BoundingBox `json:"bbox"`
	Metric       Metric      `json:"metric"`
	Quarter      string      `json:"quarter,omitempty"`
	IndustryCode string      `json:"industry_code,omitempty"` // 単一コードまたはカンマ区切り
	SessionID    string      `json:"session_id,omitempty"`
}

// IndustryCodes カンマ区切りの業種コードをスライスに分解する
func (r *ViewportRequest) IndustryCodes() []string {
	return SplitIndustryCodes(r.IndustryCode)
}

// SplitIndustryCodes カンマ区切りの業種コード文字列を正規化して分解する
func SplitIndustryCodes(s string) []string {
	if s == "" {
		return nil
	}
	var codes []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// ViewportResponse ビューポートクエリの結果
type ViewportResponse struct {
	SessionID  string        `json:"session_id"`
	Tier       Tier          `json:"tier"`
	Accumulate bool          `json:"accumulate"`
	Quarter    string        `json:"quarter,omitempty"` // 実際にデータを取得した四半期
	Status     string        `json:"status"`            // "ok" または "no_data"
	Features   []AreaFeature `json:"features"`
}

// GridStatsResponse グリッド時間帯統計の結果
type GridStatsResponse struct {
	Cells []GridCellSegments `json:"cells"`
}
