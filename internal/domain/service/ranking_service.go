package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

// rankLimit ランキングは上位3件のみ。圏外のエリアにはランクを付与しない。
const rankLimit = 3

// rankSnapshotTTLHours 永続化スナップショットの有効期限
const rankSnapshotTTLHours = 24

// RankingService トップ3ランキングの計算と商圏変化指標のマージ
type RankingService interface {
	// RankGlobal 全域（スコープなし・最新四半期）のトップ3をキャッシュ経由で返す。
	// quarterが空文字列の場合はデータの存在する最新四半期を解決する。
	RankGlobal(ctx context.Context, tier model.Tier, metric model.Metric, quarter string) ([]model.RankEntry, error)

	// RankViewport 現在のビューポートのフィーチャーセットからトップ3を計算する。
	// 事前計算済みランクを持つフィーチャーがあればそれをそのまま使用する。
	RankViewport(features []model.AreaFeature, metric model.Metric) []model.RankEntry

	// MergeTrend フィーチャーに商圏変化指標ラベルを付与する。
	// 要求四半期に分類行がなければ分類済みの最新四半期へフォールバックし、
	// それでも該当しないエリアはunclassifiedになる（エラーにはならない）。
	MergeTrend(ctx context.Context, tier model.Tier, quarter string, features []model.AreaFeature) error
}

type rankingServiceImpl struct {
	metricsRepo  repository.MetricsRepository
	trendRepo    repository.TrendRepository
	snapshotRepo repository.RankSnapshotRepository // nil可（ウォームスタートなし）
	cache        *RankCache
}

// NewRankingService RankingServiceの新しいインスタンスを作成。
// snapshotRepoはnilでもよく、その場合キャッシュは純粋にプロセス内のみになる。
func NewRankingService(metricsRepo repository.MetricsRepository, trendRepo repository.TrendRepository, snapshotRepo repository.RankSnapshotRepository, cache *RankCache) RankingService {
	return &rankingServiceImpl{
		metricsRepo:  metricsRepo,
		trendRepo:    trendRepo,
		snapshotRepo: snapshotRepo,
		cache:        cache,
	}
}

func (s *rankingServiceImpl) RankGlobal(ctx context.Context, tier model.Tier, metric model.Metric, quarter string) ([]model.RankEntry, error) {
	scheme, err := model.SchemeFor(tier)
	if err != nil {
		return nil, err
	}

	if quarter == "" {
		latest, err := s.metricsRepo.LatestQuarter(ctx, scheme, nil)
		if err != nil {
			return nil, fmt.Errorf("最新四半期の解決失敗: %w", err)
		}
		if latest == "" {
			return nil, &model.NoDataError{Tier: tier}
		}
		quarter = latest
	}

	if entries, ok := s.cache.Get(tier, metric, quarter); ok {
		return entries, nil
	}

	// 永続化スナップショットからのウォームスタート（設定時のみ）
	if s.snapshotRepo != nil {
		if snap, err := s.snapshotRepo.Load(ctx, tier, metric); err != nil {
			log.Printf("⚠️ ランクスナップショットの読込失敗: %v", err)
		} else if snap != nil && snap.Quarter == quarter {
			s.cache.Put(tier, metric, quarter, snap.Entries)
			return snap.Entries, nil
		}
	}

	values, err := s.metricsRepo.TopAreasByMetric(ctx, scheme, quarter, metric, rankLimit)
	if err != nil {
		return nil, fmt.Errorf("全域ランキングクエリ失敗: %w", err)
	}

	entries := make([]model.RankEntry, 0, rankLimit)
	for i, v := range values {
		if i >= rankLimit {
			break
		}
		entries = append(entries, model.RankEntry{AreaCode: v.AreaCode, Metric: metric, Rank: i + 1})
	}

	s.cache.Put(tier, metric, quarter, entries)

	if s.snapshotRepo != nil {
		snap := &repository.RankSnapshot{Tier: tier, Metric: metric, Quarter: quarter, Entries: entries}
		if err := s.snapshotRepo.Save(ctx, snap, rankSnapshotTTLHours); err != nil {
			log.Printf("⚠️ ランクスナップショットの保存失敗: %v", err)
		}
	}

	return entries, nil
}

func (s *rankingServiceImpl) RankViewport(features []model.AreaFeature, metric model.Metric) []model.RankEntry {
	// 広域の事前処理パスで付与済みのランクがあればそれを優先する。
	// ただしランク未付与のスナップショット付きフィーチャーが混ざっている場合、
	// その中により高い値のエリアが隠れている可能性があるため、部分的な
	// 事前計算結果は信用せずローカル計算へフォールバックする
	var precomputed []model.RankEntry
	complete := true
	for _, f := range features {
		if f.HasRank() {
			precomputed = append(precomputed, model.RankEntry{AreaCode: f.Code, Metric: metric, Rank: f.Rank})
		} else if f.Snapshot != nil {
			complete = false
		}
	}
	if len(precomputed) > 0 && complete {
		sort.Slice(precomputed, func(i, j int) bool { return precomputed[i].Rank < precomputed[j].Rank })
		if len(precomputed) > rankLimit {
			precomputed = precomputed[:rankLimit]
		}
		return precomputed
	}

	// ローカル計算：スナップショット付きフィーチャーのみ対象
	candidates := make([]model.AreaMetricValue, 0, len(features))
	for _, f := range features {
		if f.Snapshot == nil {
			continue
		}
		candidates = append(candidates, model.AreaMetricValue{
			AreaCode: f.Code,
			Value:    metricValue(f.Snapshot, metric),
		})
	}

	SortByMetric(candidates, metric)

	entries := make([]model.RankEntry, 0, rankLimit)
	for i, c := range candidates {
		if i >= rankLimit {
			break
		}
		entries = append(entries, model.RankEntry{AreaCode: c.AreaCode, Metric: metric, Rank: i + 1})
	}
	return entries
}

func (s *rankingServiceImpl) MergeTrend(ctx context.Context, tier model.Tier, quarter string, features []model.AreaFeature) error {
	if len(features) == 0 {
		return nil
	}

	scheme, err := model.SchemeFor(tier)
	if err != nil {
		return err
	}

	codes := make([]string, len(features))
	for i, f := range features {
		codes[i] = f.Code
	}

	labels, err := s.trendRepo.GetClassifications(ctx, scheme, quarter, codes)
	if err != nil {
		return fmt.Errorf("商圏変化指標の取得失敗: %w", err)
	}

	// バッチに該当行がない場合、このティアの四半期自体が未分類のときだけ
	// 分類済みの最新四半期で再取得する。四半期に分類行はあるがバッチ内の
	// エリアに該当しないだけなら、古い四半期のラベルを当てずにunclassified扱いにする
	if len(labels) == 0 {
		exists, err := s.trendRepo.HasClassifications(ctx, scheme, quarter)
		if err != nil {
			return fmt.Errorf("分類行の存在確認失敗: %w", err)
		}
		if !exists {
			fallback, err := s.trendRepo.LatestClassifiedQuarter(ctx, scheme)
			if err != nil {
				return fmt.Errorf("分類済み四半期の解決失敗: %w", err)
			}
			if fallback != "" && fallback != quarter {
				log.Printf("📉 四半期 %s に分類行なし、%s の分類を適用 (tier=%s)", quarter, fallback, tier)
				labels, err = s.trendRepo.GetClassifications(ctx, scheme, fallback, codes)
				if err != nil {
					return fmt.Errorf("フォールバック分類の取得失敗: %w", err)
				}
			}
		}
	}

	for i := range features {
		if label, ok := labels[features[i].Code]; ok {
			features[i].Trend = label
		} else {
			features[i].Trend = model.TrendUnclassified
		}
	}
	return nil
}

// metricValue スナップショットから指定メトリクスの値を取り出す
func metricValue(snap *model.MetricSnapshot, metric model.Metric) int64 {
	switch metric {
	case model.MetricRevenue:
		return snap.Revenue
	case model.MetricPopulation:
		return snap.Population
	case model.MetricOpening:
		return snap.OpenCount
	case model.MetricClosing:
		return snap.CloseCount
	default:
		return 0
	}
}

// SortByMetric メトリクスの比較規則で決定的にソートする。
// 廃業数のみ昇順（廃業が少ないほど上位）、他は降順。
// 同値の場合はエリアコード昇順で順序を安定させる。
func SortByMetric(values []model.AreaMetricValue, metric model.Metric) {
	sort.Slice(values, func(i, j int) bool {
		if values[i].Value != values[j].Value {
			if metric.Ascending() {
				return values[i].Value < values[j].Value
			}
			return values[i].Value > values[j].Value
		}
		return values[i].AreaCode < values[j].AreaCode
	})
}
