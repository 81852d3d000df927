package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

func rankTestRepo() *fakeMetricsRepository {
	return &fakeMetricsRepository{quarters: map[string]metricRows{
		"20252": {
			revenue: map[string]repository.RevenueAgg{
				"A": {Revenue: 500},
				"B": {Revenue: 900},
				"C": {Revenue: 100},
				"D": {Revenue: 300},
			},
			stores: map[string]repository.StoreAgg{
				"A": {CloseCount: 5},
				"B": {CloseCount: 2},
				"C": {CloseCount: 8},
			},
		},
	}}
}

// TestRankGlobal_TopThreeDescending 売上は降順で上位3件のみ
func TestRankGlobal_TopThreeDescending(t *testing.T) {
	svc := NewRankingService(rankTestRepo(), &fakeTrendRepository{}, nil, NewRankCache())

	entries, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "20252")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "B", entries[0].AreaCode)
	assert.Equal(t, "A", entries[1].AreaCode)
	assert.Equal(t, "D", entries[2].AreaCode)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

// TestRankGlobal_ClosingAscending 廃業数は昇順（廃業が少ないほど上位）
func TestRankGlobal_ClosingAscending(t *testing.T) {
	svc := NewRankingService(rankTestRepo(), &fakeTrendRepository{}, nil, NewRankCache())

	entries, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricClosing, "20252")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "B", entries[0].AreaCode) // 廃業2件
	assert.Equal(t, "A", entries[1].AreaCode) // 廃業5件
	assert.Equal(t, "C", entries[2].AreaCode) // 廃業8件
}

// TestRankGlobal_CacheHit 同一四半期の2回目はリポジトリを呼ばない
func TestRankGlobal_CacheHit(t *testing.T) {
	repo := rankTestRepo()
	svc := NewRankingService(repo, &fakeTrendRepository{}, nil, NewRankCache())

	first, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "20252")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.topCalls)

	second, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "20252")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.topCalls, "キャッシュヒット時はクエリを発行しない")
	assert.Equal(t, first, second)
}

// TestRankGlobal_QuarterChangeInvalidates 最新四半期が進むとキャッシュは無効になり再計算される
func TestRankGlobal_QuarterChangeInvalidates(t *testing.T) {
	repo := rankTestRepo()
	svc := NewRankingService(repo, &fakeTrendRepository{}, nil, NewRankCache())

	_, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.topCalls)

	// 新しい四半期のデータが到着
	repo.quarters["20253"] = metricRows{
		revenue: map[string]repository.RevenueAgg{
			"C": {Revenue: 9000},
			"A": {Revenue: 100},
		},
	}

	entries, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.topCalls, "四半期が変わったらキャッシュを再計算する")
	require.Len(t, entries, 2)
	assert.Equal(t, "C", entries[0].AreaCode)
}

// TestRankGlobal_TieBreakByAreaCode 同値の場合はエリアコード昇順で決定的
func TestRankGlobal_TieBreakByAreaCode(t *testing.T) {
	repo := &fakeMetricsRepository{quarters: map[string]metricRows{
		"20252": {
			revenue: map[string]repository.RevenueAgg{
				"Z": {Revenue: 100},
				"M": {Revenue: 100},
				"A": {Revenue: 100},
			},
		},
	}}
	svc := NewRankingService(repo, &fakeTrendRepository{}, nil, NewRankCache())

	entries, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "20252")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "A", entries[0].AreaCode)
	assert.Equal(t, "M", entries[1].AreaCode)
	assert.Equal(t, "Z", entries[2].AreaCode)
}

// TestRankGlobal_NoData 四半期が解決できなければNoDataError
func TestRankGlobal_NoData(t *testing.T) {
	svc := NewRankingService(&fakeMetricsRepository{}, &fakeTrendRepository{}, nil, NewRankCache())

	_, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "")
	var noData *model.NoDataError
	assert.ErrorAs(t, err, &noData)
}

// TestRankGlobal_WarmStartFromSnapshot 永続化スナップショットから
// クエリなしでキャッシュを温められる
func TestRankGlobal_WarmStartFromSnapshot(t *testing.T) {
	repo := rankTestRepo()
	snapshotRepo := &fakeSnapshotRepository{}
	snapshotRepo.Save(context.Background(), &repository.RankSnapshot{
		Tier:    model.TierGu,
		Metric:  model.MetricRevenue,
		Quarter: "20252",
		Entries: []model.RankEntry{
			{AreaCode: "B", Metric: model.MetricRevenue, Rank: 1},
			{AreaCode: "A", Metric: model.MetricRevenue, Rank: 2},
			{AreaCode: "D", Metric: model.MetricRevenue, Rank: 3},
		},
	}, rankSnapshotTTLHours)
	saveCallsBefore := snapshotRepo.saveCalls

	svc := NewRankingService(repo, &fakeTrendRepository{}, snapshotRepo, NewRankCache())

	entries, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "20252")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.topCalls, "スナップショット復元時はクエリを発行しない")
	require.Len(t, entries, 3)
	assert.Equal(t, "B", entries[0].AreaCode)
	assert.Equal(t, saveCallsBefore, snapshotRepo.saveCalls)
}

// TestRankGlobal_SavesSnapshotAfterCompute 計算後のランキングは永続化される
func TestRankGlobal_SavesSnapshotAfterCompute(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepository{}
	svc := NewRankingService(rankTestRepo(), &fakeTrendRepository{}, snapshotRepo, NewRankCache())

	_, err := svc.RankGlobal(context.Background(), model.TierGu, model.MetricRevenue, "20252")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshotRepo.saveCalls)

	saved := snapshotRepo.snapshots[snapshotKey(model.TierGu, model.MetricRevenue)]
	require.NotNil(t, saved)
	assert.Equal(t, "20252", saved.Quarter)
	assert.Len(t, saved.Entries, 3)
}

// TestRankViewport_LocalCompute スナップショット付きフィーチャーからローカル計算
func TestRankViewport_LocalCompute(t *testing.T) {
	svc := NewRankingService(&fakeMetricsRepository{}, &fakeTrendRepository{}, nil, NewRankCache())

	features := []model.AreaFeature{
		{Code: "A", Snapshot: &model.MetricSnapshot{Population: 300}},
		{Code: "B", Snapshot: &model.MetricSnapshot{Population: 900}},
		{Code: "C"}, // スナップショットなしは対象外
		{Code: "D", Snapshot: &model.MetricSnapshot{Population: 500}},
		{Code: "E", Snapshot: &model.MetricSnapshot{Population: 100}},
	}

	entries := svc.RankViewport(features, model.MetricPopulation)
	require.Len(t, entries, 3)
	assert.Equal(t, "B", entries[0].AreaCode)
	assert.Equal(t, "D", entries[1].AreaCode)
	assert.Equal(t, "A", entries[2].AreaCode)
}

// TestRankViewport_PrecomputedRanksPassThrough 全フィーチャーにランクが
// 付与済みの場合はそのまま使う
func TestRankViewport_PrecomputedRanksPassThrough(t *testing.T) {
	svc := NewRankingService(&fakeMetricsRepository{}, &fakeTrendRepository{}, nil, NewRankCache())

	features := []model.AreaFeature{
		{Code: "X", Rank: 2, Snapshot: &model.MetricSnapshot{Revenue: 500}},
		{Code: "Y", Rank: 1, Snapshot: &model.MetricSnapshot{Revenue: 900}},
		{Code: "Z"}, // スナップショットなしのフィーチャーは完全性判定に影響しない
	}

	entries := svc.RankViewport(features, model.MetricRevenue)
	require.Len(t, entries, 2)
	assert.Equal(t, "Y", entries[0].AreaCode)
	assert.Equal(t, "X", entries[1].AreaCode)
}

// TestRankViewport_PartialPrecomputedFallsBackToLocal ランク未付与の
// スナップショット付きフィーチャーが混ざっている場合は部分的な事前計算結果を
// 使わず、全スナップショットからローカルに再計算する
func TestRankViewport_PartialPrecomputedFallsBackToLocal(t *testing.T) {
	svc := NewRankingService(&fakeMetricsRepository{}, &fakeTrendRepository{}, nil, NewRankCache())

	features := []model.AreaFeature{
		{Code: "X", Rank: 1, Snapshot: &model.MetricSnapshot{Revenue: 500}},
		{Code: "Y", Rank: 2, Snapshot: &model.MetricSnapshot{Revenue: 300}},
		// ランク未付与だが値は最大 → 事前計算結果をそのまま使うと圏外に隠れる
		{Code: "Z", Snapshot: &model.MetricSnapshot{Revenue: 99999}},
	}

	entries := svc.RankViewport(features, model.MetricRevenue)
	require.Len(t, entries, 3)
	assert.Equal(t, "Z", entries[0].AreaCode)
	assert.Equal(t, "X", entries[1].AreaCode)
	assert.Equal(t, "Y", entries[2].AreaCode)
}

// TestMergeTrend_LabelsApplied 分類行のあるエリアにラベルが付与される
func TestMergeTrend_LabelsApplied(t *testing.T) {
	trendRepo := &fakeTrendRepository{quarters: map[string]map[string]model.TrendLabel{
		"20252": {
			"A": model.TrendEmerging,
			"B": model.TrendAtRisk,
		},
	}}
	svc := NewRankingService(&fakeMetricsRepository{}, trendRepo, nil, NewRankCache())

	features := []model.AreaFeature{{Code: "A"}, {Code: "B"}, {Code: "C"}}
	err := svc.MergeTrend(context.Background(), model.TierCommercial, "20252", features)
	require.NoError(t, err)

	assert.Equal(t, model.TrendEmerging, features[0].Trend)
	assert.Equal(t, model.TrendAtRisk, features[1].Trend)
	// 分類行のないエリアはunclassified（エラーにはしない）
	assert.Equal(t, model.TrendUnclassified, features[2].Trend)
}

// TestMergeTrend_FallbackToLatestClassified 要求四半期に分類行がなければ
// 分類済みの最新四半期へフォールバックする
func TestMergeTrend_FallbackToLatestClassified(t *testing.T) {
	trendRepo := &fakeTrendRepository{quarters: map[string]map[string]model.TrendLabel{
		"20244": {"A": model.TrendStable},
		"20251": {"A": model.TrendDeclining},
	}}
	svc := NewRankingService(&fakeMetricsRepository{}, trendRepo, nil, NewRankCache())

	features := []model.AreaFeature{{Code: "A"}}
	err := svc.MergeTrend(context.Background(), model.TierCommercial, "20252", features)
	require.NoError(t, err)
	assert.Equal(t, model.TrendDeclining, features[0].Trend)
}

// TestMergeTrend_NoFallbackWhenQuarterClassified 要求四半期にこのティアの
// 分類行が存在する場合、バッチ内のエリアに該当行がなくても古い四半期へは
// フォールバックせず全件unclassifiedになる
func TestMergeTrend_NoFallbackWhenQuarterClassified(t *testing.T) {
	trendRepo := &fakeTrendRepository{quarters: map[string]map[string]model.TrendLabel{
		"20251": {"A": model.TrendDeclining},
		"20252": {"X": model.TrendStable}, // バッチ外のエリアのみ分類済み
	}}
	svc := NewRankingService(&fakeMetricsRepository{}, trendRepo, nil, NewRankCache())

	features := []model.AreaFeature{{Code: "A"}}
	err := svc.MergeTrend(context.Background(), model.TierCommercial, "20252", features)
	require.NoError(t, err)
	assert.Equal(t, model.TrendUnclassified, features[0].Trend, "古い四半期のラベルを当ててはいけない")
}

// TestMergeTrend_EmptyFeatures フィーチャーなしは何もしない
func TestMergeTrend_EmptyFeatures(t *testing.T) {
	trendRepo := &fakeTrendRepository{}
	svc := NewRankingService(&fakeMetricsRepository{}, trendRepo, nil, NewRankCache())

	err := svc.MergeTrend(context.Background(), model.TierCommercial, "20252", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, trendRepo.calls)
}
