package repository

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"BizMap-App/internal/domain/model"
)

// ParseGeometry ST_AsGeoJSONの出力をorbのGeoJSONジオメトリとして解析する。
// ポリゴン・マルチポリゴンの両方を受け付ける。
func ParseGeometry(raw []byte) (*geojson.Geometry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("空のジオメトリ")
	}
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("GeoJSONジオメトリの解析失敗: %w", err)
	}
	return geom, nil
}

// CentroidLocation ジオメトリの重心をLocationとして返す。
// ポイントジオメトリはそのまま座標を返す。
func CentroidLocation(geom *geojson.Geometry) *model.Location {
	if geom == nil {
		return nil
	}
	g := geom.Geometry()
	if point, ok := g.(orb.Point); ok {
		return &model.Location{Latitude: point.Lat(), Longitude: point.Lon()}
	}
	centroid, _ := planar.CentroidArea(g)
	return &model.Location{Latitude: centroid.Lat(), Longitude: centroid.Lon()}
}

// PadBoundingBox 境界ボックスに少し余裕を持たせる（境界線上のセル取りこぼし対策）
func PadBoundingBox(bbox model.BoundingBox, padding float64) model.BoundingBox {
	bound := bbox.ToBound().Pad(padding)
	return model.BoundingBox{
		MinLng: bound.Min.Lon(),
		MinLat: bound.Min.Lat(),
		MaxLng: bound.Max.Lon(),
		MaxLat: bound.Max.Lat(),
	}
}
