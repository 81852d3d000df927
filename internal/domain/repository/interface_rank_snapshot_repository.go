package repository

import (
	"context"

	"BizMap-App/internal/domain/model"
)

// RankSnapshot 全域ランキングの永続化スナップショット
type RankSnapshot struct {
	Tier    model.Tier        `json:"tier"`
	Metric  model.Metric      `json:"metric"`
	Quarter string            `json:"quarter"`
	Entries []model.RankEntry `json:"entries"`
}

// RankSnapshotRepository 全域トップ3スナップショットのTTL付き永続化。
// プロセス再起動時のウォームスタート用で、未設定（nil）でも動作に支障はない。
type RankSnapshotRepository interface {
	// Save スナップショットをTTL付きで保存する
	Save(ctx context.Context, snapshot *RankSnapshot, ttlHours int) error

	// Load 保存済みスナップショットを取得する。存在しない・期限切れの場合はnilを返す。
	Load(ctx context.Context, tier model.Tier, metric model.Metric) (*RankSnapshot, error)
}
