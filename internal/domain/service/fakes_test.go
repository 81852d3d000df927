package service

import (
	"context"
	"fmt"
	"sort"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

// fakeAreaRepository テスト用のインメモリAreaRepository
type fakeAreaRepository struct {
	features    []model.AreaFeature
	markers     []model.AreaFeature
	err         error
	queryCount  int
	lastLimit   int
	lastScheme  model.TierScheme
	lastFilters []string
}

func (f *fakeAreaRepository) GetByBoundingBox(ctx context.Context, scheme model.TierScheme, bbox model.BoundingBox, industryCodes []string) ([]model.AreaFeature, error) {
	f.queryCount++
	f.lastScheme = scheme
	f.lastFilters = industryCodes
	if f.err != nil {
		return nil, f.err
	}
	result := make([]model.AreaFeature, len(f.features))
	copy(result, f.features)
	return result, nil
}

func (f *fakeAreaRepository) GetMarkersByBoundingBox(ctx context.Context, bbox model.BoundingBox, limit int) ([]model.AreaFeature, error) {
	f.queryCount++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.markers) > limit {
		return f.markers[:limit], nil
	}
	return f.markers, nil
}

// metricRows テスト用の四半期メトリクス行
type metricRows struct {
	revenue    map[string]repository.RevenueAgg
	stores     map[string]repository.StoreAgg
	population map[string]int64
}

// fakeMetricsRepository 四半期コードごとにデータを持つインメモリMetricsRepository
type fakeMetricsRepository struct {
	quarters      map[string]metricRows // 四半期コード → 行
	revenueErr    error
	storesErr     error
	populationErr error
	latestCalls   int
	sumCalls      int
	topCalls      int
}

func (f *fakeMetricsRepository) LatestQuarter(ctx context.Context, scheme model.TierScheme, codes []string) (string, error) {
	f.latestCalls++
	latest := ""
	for quarter, rows := range f.quarters {
		if len(rows.revenue) == 0 && len(rows.stores) == 0 && len(rows.population) == 0 {
			continue
		}
		if quarter > latest {
			latest = quarter
		}
	}
	return latest, nil
}

func (f *fakeMetricsRepository) SumRevenue(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (map[string]repository.RevenueAgg, error) {
	f.sumCalls++
	if f.revenueErr != nil {
		return nil, f.revenueErr
	}
	result := make(map[string]repository.RevenueAgg)
	for _, code := range codes {
		if agg, ok := f.quarters[quarter].revenue[code]; ok {
			result[code] = agg
		}
	}
	return result, nil
}

func (f *fakeMetricsRepository) SumStores(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (map[string]repository.StoreAgg, error) {
	f.sumCalls++
	if f.storesErr != nil {
		return nil, f.storesErr
	}
	result := make(map[string]repository.StoreAgg)
	for _, code := range codes {
		if agg, ok := f.quarters[quarter].stores[code]; ok {
			result[code] = agg
		}
	}
	return result, nil
}

func (f *fakeMetricsRepository) SumPopulation(ctx context.Context, scheme model.TierScheme, codes []string, quarter string) (map[string]int64, error) {
	f.sumCalls++
	if f.populationErr != nil {
		return nil, f.populationErr
	}
	result := make(map[string]int64)
	for _, code := range codes {
		if pop, ok := f.quarters[quarter].population[code]; ok {
			result[code] = pop
		}
	}
	return result, nil
}

func (f *fakeMetricsRepository) TopAreasByMetric(ctx context.Context, scheme model.TierScheme, quarter string, metric model.Metric, limit int) ([]model.AreaMetricValue, error) {
	f.topCalls++
	rows, ok := f.quarters[quarter]
	if !ok {
		return nil, nil
	}

	var values []model.AreaMetricValue
	switch metric {
	case model.MetricRevenue:
		for code, agg := range rows.revenue {
			values = append(values, model.AreaMetricValue{AreaCode: code, Value: agg.Revenue})
		}
	case model.MetricPopulation:
		for code, pop := range rows.population {
			values = append(values, model.AreaMetricValue{AreaCode: code, Value: pop})
		}
	case model.MetricOpening:
		for code, agg := range rows.stores {
			values = append(values, model.AreaMetricValue{AreaCode: code, Value: agg.OpenCount})
		}
	case model.MetricClosing:
		for code, agg := range rows.stores {
			values = append(values, model.AreaMetricValue{AreaCode: code, Value: agg.CloseCount})
		}
	}

	SortByMetric(values, metric)
	if len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

// fakeTrendRepository 四半期ごとの分類行を持つインメモリTrendRepository
type fakeTrendRepository struct {
	quarters map[string]map[string]model.TrendLabel
	err      error
	calls    int
}

func (f *fakeTrendRepository) GetClassifications(ctx context.Context, scheme model.TierScheme, quarter string, codes []string) (map[string]model.TrendLabel, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]model.TrendLabel)
	for _, code := range codes {
		if label, ok := f.quarters[quarter][code]; ok {
			result[code] = label
		}
	}
	return result, nil
}

func (f *fakeTrendRepository) HasClassifications(ctx context.Context, scheme model.TierScheme, quarter string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return len(f.quarters[quarter]) > 0, nil
}

func (f *fakeTrendRepository) LatestClassifiedQuarter(ctx context.Context, scheme model.TierScheme) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	latest := ""
	for quarter, rows := range f.quarters {
		if len(rows) > 0 && quarter > latest {
			latest = quarter
		}
	}
	return latest, nil
}

// fakeGridRepository セルと観測合計行を持つインメモリPopulationGridRepository
type fakeGridRepository struct {
	cells    []model.GridCell
	sums     []model.PopulationObservationSum
	cellsErr error
	sumsErr  error
}

func (f *fakeGridRepository) GetCellsByBoundingBox(ctx context.Context, bbox model.BoundingBox) ([]model.GridCell, error) {
	if f.cellsErr != nil {
		return nil, f.cellsErr
	}
	cells := make([]model.GridCell, len(f.cells))
	copy(cells, f.cells)
	sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })
	return cells, nil
}

func (f *fakeGridRepository) GetObservationSums(ctx context.Context, cellIDs []int) ([]model.PopulationObservationSum, error) {
	if f.sumsErr != nil {
		return nil, f.sumsErr
	}
	requested := make(map[int]struct{}, len(cellIDs))
	for _, id := range cellIDs {
		requested[id] = struct{}{}
	}
	var result []model.PopulationObservationSum
	for _, sum := range f.sums {
		if _, ok := requested[sum.CellID]; ok {
			result = append(result, sum)
		}
	}
	return result, nil
}

// fakeSnapshotRepository ウォームスタート検証用のインメモリRankSnapshotRepository
type fakeSnapshotRepository struct {
	snapshots map[string]*repository.RankSnapshot
	saveCalls int
}

func snapshotKey(tier model.Tier, metric model.Metric) string {
	return fmt.Sprintf("%s_%s", tier, metric)
}

func (f *fakeSnapshotRepository) Save(ctx context.Context, snapshot *repository.RankSnapshot, ttlHours int) error {
	if f.snapshots == nil {
		f.snapshots = make(map[string]*repository.RankSnapshot)
	}
	f.saveCalls++
	f.snapshots[snapshotKey(snapshot.Tier, snapshot.Metric)] = snapshot
	return nil
}

func (f *fakeSnapshotRepository) Load(ctx context.Context, tier model.Tier, metric model.Metric) (*repository.RankSnapshot, error) {
	return f.snapshots[snapshotKey(tier, metric)], nil
}

// testBBox テストで使う江南区周辺の境界ボックス
func testBBox() model.BoundingBox {
	return model.BoundingBox{MinLng: 127.0, MinLat: 37.48, MaxLng: 127.12, MaxLat: 37.55}
}
