package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

func gangnamRows() metricRows {
	return metricRows{
		revenue: map[string]repository.RevenueAgg{
			"11680": {Revenue: 1234567890123, TransactionCount: 45000},
		},
		stores: map[string]repository.StoreAgg{
			"11680": {StoreCount: 200, OpenCount: 10, CloseCount: 4},
		},
		population: map[string]int64{
			"11680": 530000,
		},
	}
}

// TestAggregateMetrics_Basic 3系統の集計結果がエリアコードで突き合わされる
func TestAggregateMetrics_Basic(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{"20252": gangnamRows()}}
	aggregator := NewMetricsAggregatorService(repo)

	snapshots, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "20252", "")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	snap := snapshots[0]
	assert.Equal(t, "11680", snap.AreaCode)
	assert.Equal(t, "20252", snap.ResolvedQuarter)
	assert.Equal(t, int64(1234567890123), snap.Revenue) // 32bit超の売上
	assert.Equal(t, int64(200), snap.StoreCount)
	assert.Equal(t, int64(530000), snap.Population)
	assert.InDelta(t, 5.0, snap.OpenRate, 1e-9)
	assert.InDelta(t, 2.0, snap.CloseRate, 1e-9)
}

// TestAggregateMetrics_QuarterFallback 四半期20253に行がなく20252にある場合、
// 20252のスナップショットが返り、解決済み四半期が報告される
func TestAggregateMetrics_QuarterFallback(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{
		"20252": gangnamRows(),
		"20253": {}, // 空の四半期
	}}
	aggregator := NewMetricsAggregatorService(repo)

	snapshots, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "20253", "")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "20253", snapshots[0].Quarter)
	assert.Equal(t, "20252", snapshots[0].ResolvedQuarter)
	assert.Equal(t, int64(1234567890123), snapshots[0].Revenue)
}

// TestAggregateMetrics_QuarterAutoResolve 四半期省略時は最新四半期が解決される
func TestAggregateMetrics_QuarterAutoResolve(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{
		"20244": gangnamRows(),
		"20252": gangnamRows(),
	}}
	aggregator := NewMetricsAggregatorService(repo)

	snapshots, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "", "")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "20252", snapshots[0].ResolvedQuarter)
}

// TestAggregateMetrics_NoData どの四半期にもデータがなければNoDataError
func TestAggregateMetrics_NoData(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{}}
	aggregator := NewMetricsAggregatorService(repo)

	_, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "", "")
	var noData *model.NoDataError
	assert.ErrorAs(t, err, &noData)

	_, err = aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "20253", "")
	assert.ErrorAs(t, err, &noData)
}

// TestAggregateMetrics_ZeroFill 一部のメトリクスに行がないエリアは0で埋める
// （nullにしない）
func TestAggregateMetrics_ZeroFill(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{
		"20252": {
			revenue: map[string]repository.RevenueAgg{
				"11680": {Revenue: 1000, TransactionCount: 5},
			},
			// 店舗・人口の行はない
		},
	}}
	aggregator := NewMetricsAggregatorService(repo)

	snapshots, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "20252", "")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	snap := snapshots[0]
	assert.Equal(t, int64(0), snap.StoreCount)
	assert.Equal(t, int64(0), snap.Population)
	// 分母0の割合は0（NaN・ゼロ除算を出さない）
	assert.Equal(t, 0.0, snap.OpenRate)
	assert.Equal(t, 0.0, snap.CloseRate)
}

// TestAggregateMetrics_RatesWithinRange 開業率・廃業率は常に[0,100]の範囲
func TestAggregateMetrics_RatesWithinRange(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{
		"20252": {
			stores: map[string]repository.StoreAgg{
				"A": {StoreCount: 10, OpenCount: 10, CloseCount: 0},
				"B": {StoreCount: 100, OpenCount: 1, CloseCount: 99},
				"C": {StoreCount: 0, OpenCount: 0, CloseCount: 0},
			},
		},
	}}
	aggregator := NewMetricsAggregatorService(repo)

	snapshots, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"A", "B", "C"}, "20252", "")
	require.NoError(t, err)
	for _, snap := range snapshots {
		assert.GreaterOrEqual(t, snap.OpenRate, 0.0, "area=%s", snap.AreaCode)
		assert.LessOrEqual(t, snap.OpenRate, 100.0, "area=%s", snap.AreaCode)
		assert.GreaterOrEqual(t, snap.CloseRate, 0.0, "area=%s", snap.AreaCode)
		assert.LessOrEqual(t, snap.CloseRate, 100.0, "area=%s", snap.AreaCode)
	}
}

// TestAggregateMetrics_SubQueryFailureFailsWhole 並行サブクエリの1つが失敗すると
// 集計全体が失敗する（部分結果では返さない）
func TestAggregateMetrics_SubQueryFailureFailsWhole(t *testing.T) {
	repo := &fakeMetricsRepository{
		quarters:   map[string]metricRows{"20252": gangnamRows()},
		revenueErr: fmt.Errorf("query failed"),
	}
	aggregator := NewMetricsAggregatorService(repo)

	_, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "20252", "")
	assert.Error(t, err)
}

// TestAggregateMetrics_TimeoutPropagates タイムアウトはStoreTimeoutErrorとして伝播する
func TestAggregateMetrics_TimeoutPropagates(t *testing.T) {
	repo := &fakeMetricsRepository{
		quarters:  map[string]metricRows{"20252": gangnamRows()},
		storesErr: &model.StoreTimeoutError{Op: "sum_stores"},
	}
	aggregator := NewMetricsAggregatorService(repo)

	_, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, []string{"11680"}, "20252", "")
	var timeout *model.StoreTimeoutError
	assert.True(t, errors.As(err, &timeout))
}

// TestAggregateMetrics_EmptyCodes エリアコードなしは空スライス
func TestAggregateMetrics_EmptyCodes(t *testing.T) {
	aggregator := NewMetricsAggregatorService(&fakeMetricsRepository{})

	snapshots, err := aggregator.AggregateMetrics(context.Background(), model.TierGu, nil, "20252", "")
	assert.NoError(t, err)
	assert.Empty(t, snapshots)
}
