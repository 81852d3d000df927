package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

// MetricsAggregatorService エリアごとの四半期メトリクス集計。
// 要求された四半期が空の場合はデータの存在する最新四半期へフォールバックする。
type MetricsAggregatorService interface {
	// AggregateMetrics エリアコードごとのMetricSnapshotを返す。
	// quarterが空文字列の場合はデータの存在する最新四半期を自動解決する。
	// どの四半期にもデータが存在しない場合はNoDataErrorを返す。
	AggregateMetrics(ctx context.Context, tier model.Tier, codes []string, quarter string, industryCode string) ([]model.MetricSnapshot, error)
}

type metricsAggregatorImpl struct {
	metricsRepo repository.MetricsRepository
}

// NewMetricsAggregatorService MetricsAggregatorServiceの新しいインスタンスを作成
func NewMetricsAggregatorService(metricsRepo repository.MetricsRepository) MetricsAggregatorService {
	return &metricsAggregatorImpl{metricsRepo: metricsRepo}
}

// aggregateRows 並行発行した3系統の集計クエリの結果
type aggregateRows struct {
	revenue    map[string]repository.RevenueAgg
	stores     map[string]repository.StoreAgg
	population map[string]int64
}

// empty 3系統すべてに行が1件もないかどうか
func (r *aggregateRows) empty() bool {
	return len(r.revenue) == 0 && len(r.stores) == 0 && len(r.population) == 0
}

func (s *metricsAggregatorImpl) AggregateMetrics(ctx context.Context, tier model.Tier, codes []string, quarter string, industryCode string) ([]model.MetricSnapshot, error) {
	if len(codes) == 0 {
		return []model.MetricSnapshot{}, nil
	}

	scheme, err := model.SchemeFor(tier)
	if err != nil {
		return nil, err
	}
	industryCodes := model.SplitIndustryCodes(industryCode)

	// 四半期コード未指定の場合は最新四半期を解決する
	requested := quarter
	resolved := quarter
	if resolved == "" {
		latest, err := s.metricsRepo.LatestQuarter(ctx, scheme, codes)
		if err != nil {
			return nil, fmt.Errorf("最新四半期の解決失敗: %w", err)
		}
		if latest == "" {
			return nil, &model.NoDataError{Tier: tier, Codes: codes}
		}
		requested = latest
		resolved = latest
	}

	rows, err := s.fetchParallel(ctx, scheme, codes, resolved, industryCodes)
	if err != nil {
		return nil, err
	}

	// 要求された四半期に行が1件もない場合、データの存在する最新四半期で
	// 1回だけ再クエリする（解決済み四半期はスナップショットで報告される）
	if rows.empty() {
		latest, err := s.metricsRepo.LatestQuarter(ctx, scheme, codes)
		if err != nil {
			return nil, fmt.Errorf("フォールバック四半期の解決失敗: %w", err)
		}
		if latest == "" {
			return nil, &model.NoDataError{Tier: tier, Codes: codes}
		}
		if latest != resolved {
			log.Printf("📉 四半期 %s にデータなし、%s へフォールバック (tier=%s)", resolved, latest, tier)
			resolved = latest
			rows, err = s.fetchParallel(ctx, scheme, codes, resolved, industryCodes)
			if err != nil {
				return nil, err
			}
		}
		if rows.empty() {
			return nil, &model.NoDataError{Tier: tier, Codes: codes}
		}
	}

	return mergeSnapshots(codes, requested, resolved, industryCode, rows), nil
}

// fetchParallel 売上・店舗・人口の3系統の集計クエリを並行発行する。
// 1つでも失敗した場合は集計全体を失敗させる（売上を黙って0にすると
// ランキングを誤らせるため、部分結果では返さない）。
func (s *metricsAggregatorImpl) fetchParallel(ctx context.Context, scheme model.TierScheme, codes []string, quarter string, industryCodes []string) (*aggregateRows, error) {
	rows := &aggregateRows{}
	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		m, err := s.metricsRepo.SumRevenue(ctx, scheme, codes, quarter, industryCodes)
		if err != nil {
			errCh <- fmt.Errorf("売上集計クエリ失敗: %w", err)
			return
		}
		rows.revenue = m
	}()
	go func() {
		defer wg.Done()
		m, err := s.metricsRepo.SumStores(ctx, scheme, codes, quarter, industryCodes)
		if err != nil {
			errCh <- fmt.Errorf("店舗集計クエリ失敗: %w", err)
			return
		}
		rows.stores = m
	}()
	go func() {
		defer wg.Done()
		m, err := s.metricsRepo.SumPopulation(ctx, scheme, codes, quarter)
		if err != nil {
			errCh <- fmt.Errorf("人口集計クエリ失敗: %w", err)
			return
		}
		rows.population = m
	}()

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeSnapshots 3系統の集計結果をエリアコードで突き合わせる。
// 行のないメトリクスはnullではなく0で埋める（下流の除算を安全にするため）。
// どのメトリクスにも行がないエリアは結果に含めない。
func mergeSnapshots(codes []string, requested, resolved, industryCode string, rows *aggregateRows) []model.MetricSnapshot {
	snapshots := make([]model.MetricSnapshot, 0, len(codes))
	for _, code := range codes {
		rev, hasRev := rows.revenue[code]
		store, hasStore := rows.stores[code]
		pop, hasPop := rows.population[code]
		if !hasRev && !hasStore && !hasPop {
			continue
		}

		snapshots = append(snapshots, model.MetricSnapshot{
			AreaCode:         code,
			Quarter:          requested,
			ResolvedQuarter:  resolved,
			Revenue:          rev.Revenue,
			TransactionCount: rev.TransactionCount,
			StoreCount:       store.StoreCount,
			OpenCount:        store.OpenCount,
			CloseCount:       store.CloseCount,
			Population:       pop,
			OpenRate:         model.Rate(store.OpenCount, store.StoreCount),
			CloseRate:        model.Rate(store.CloseCount, store.StoreCount),
			IndustryCode:     industryCode,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].AreaCode < snapshots[j].AreaCode
	})
	return snapshots
}
