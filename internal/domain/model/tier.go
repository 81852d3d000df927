package model

import "fmt"

// Tier 地図ズームレベルに対応する空間解像度ティア
type Tier string

const (
	TierCity       Tier = "city"       // 市全体
	TierGu         Tier = "gu"         // 区（自治区）
	TierDong       Tier = "dong"       // 洞（行政洞）
	TierCommercial Tier = "commercial" // 商圏（名前付き商業地区）
	TierBuilding   Tier = "building"   // 建物（マーカーのみ）
)

// ズームレベルの閾値（値が大きいほどズームアウト）
const (
	ZoomGuThreshold         = 7 // zoom >= 7 → 区
	ZoomDongThreshold       = 5 // 5 <= zoom < 7 → 洞
	ZoomCommercialThreshold = 3 // 3 <= zoom < 5 → 商圏（累積モード）
	// zoom < 3 → 建物マーカー
)

// BuildingMarkerLimit 最大ズーム時に描画する建物マーカーの上限（店舗数上位N件）
const BuildingMarkerLimit = 35

// TierScheme ティアごとのテーブル構成を返すインターフェース。
// ティアの追加・削除がコンパイル時にチェックされるよう、
// 文字列からの動的なテーブル解決ではなく実装を1ティア1つずつ用意する。
type TierScheme interface {
	Tier() Tier
	AreaTable() string       // 境界ジオメトリテーブル
	SalesTable() string      // 四半期推定売上テーブル
	StoresTable() string     // 四半期店舗（開業・廃業）テーブル
	PopulationTable() string // 四半期常住人口テーブル
	TrendTable() string      // 商圏変化指標テーブル
	HasPolygon() bool        // ポリゴン取得の有無（建物はマーカーのみ）
}

type cityScheme struct{}

func (cityScheme) Tier() Tier              { return TierCity }
func (cityScheme) AreaTable() string       { return "city_areas" }
func (cityScheme) SalesTable() string      { return "city_quarterly_sales" }
func (cityScheme) StoresTable() string     { return "city_quarterly_stores" }
func (cityScheme) PopulationTable() string { return "city_quarterly_population" }
func (cityScheme) TrendTable() string      { return "city_trend_classifications" }
func (cityScheme) HasPolygon() bool        { return true }

type guScheme struct{}

func (guScheme) Tier() Tier              { return TierGu }
func (guScheme) AreaTable() string       { return "gu_areas" }
func (guScheme) SalesTable() string      { return "gu_quarterly_sales" }
func (guScheme) StoresTable() string     { return "gu_quarterly_stores" }
func (guScheme) PopulationTable() string { return "gu_quarterly_population" }
func (guScheme) TrendTable() string      { return "gu_trend_classifications" }
func (guScheme) HasPolygon() bool        { return true }

type dongScheme struct{}

func (dongScheme) Tier() Tier              { return TierDong }
func (dongScheme) AreaTable() string       { return "dong_areas" }
func (dongScheme) SalesTable() string      { return "dong_quarterly_sales" }
func (dongScheme) StoresTable() string     { return "dong_quarterly_stores" }
func (dongScheme) PopulationTable() string { return "dong_quarterly_population" }
func (dongScheme) TrendTable() string      { return "dong_trend_classifications" }
func (dongScheme) HasPolygon() bool        { return true }

type commercialScheme struct{}

func (commercialScheme) Tier() Tier              { return TierCommercial }
func (commercialScheme) AreaTable() string       { return "commercial_areas" }
func (commercialScheme) SalesTable() string      { return "commercial_quarterly_sales" }
func (commercialScheme) StoresTable() string     { return "commercial_quarterly_stores" }
func (commercialScheme) PopulationTable() string { return "commercial_quarterly_population" }
func (commercialScheme) TrendTable() string      { return "commercial_trend_classifications" }
func (commercialScheme) HasPolygon() bool        { return true }

type buildingScheme struct{}

func (buildingScheme) Tier() Tier              { return TierBuilding }
func (buildingScheme) AreaTable() string       { return "buildings" }
func (buildingScheme) SalesTable() string      { return "building_quarterly_sales" }
func (buildingScheme) StoresTable() string     { return "building_quarterly_stores" }
func (buildingScheme) PopulationTable() string { return "building_quarterly_population" }
func (buildingScheme) TrendTable() string      { return "building_trend_classifications" }
func (buildingScheme) HasPolygon() bool        { return false }

// SchemeFor ティアに対応するTierSchemeを返す
func SchemeFor(t Tier) (TierScheme, error) {
	switch t {
	case TierCity:
		return cityScheme{}, nil
	case TierGu:
		return guScheme{}, nil
	case TierDong:
		return dongScheme{}, nil
	case TierCommercial:
		return commercialScheme{}, nil
	case TierBuilding:
		return buildingScheme{}, nil
	default:
		return nil, fmt.Errorf("未知のティア: %s", t)
	}
}

// ParseTier クエリパラメータからTierに変換
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, err := SchemeFor(t); err != nil {
		return "", err
	}
	return t, nil
}
