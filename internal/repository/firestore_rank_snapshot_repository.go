package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/repository"
)

// FirestoreRankSnapshotRepository 全域トップ3スナップショットのFirestore永続化。
// プロセス再起動後のウォームスタート用で、expireAtフィールドによる
// TTLポリシーで期限切れドキュメントが削除される。
type FirestoreRankSnapshotRepository struct {
	client *firestore.Client
}

// NewFirestoreRankSnapshotRepository 新しいFirestoreRankSnapshotRepositoryインスタンスを作成
func NewFirestoreRankSnapshotRepository(client *firestore.Client) *FirestoreRankSnapshotRepository {
	return &FirestoreRankSnapshotRepository{
		client: client,
	}
}

// firestoreRankSnapshot Firestoreのスナップショットドキュメント
type firestoreRankSnapshot struct {
	Tier     string              `firestore:"tier"`
	Metric   string              `firestore:"metric"`
	Quarter  string              `firestore:"quarter"`
	Entries  []firestoreRankItem `firestore:"entries"`
	ExpireAt time.Time           `firestore:"expireAt"`
}

type firestoreRankItem struct {
	AreaCode string `firestore:"area_code"`
	Rank     int    `firestore:"rank"`
}

func snapshotDocID(tier model.Tier, metric model.Metric) string {
	return fmt.Sprintf("%s_%s", tier, metric)
}

// Save スナップショットをTTL付きで保存する
func (r *FirestoreRankSnapshotRepository) Save(ctx context.Context, snapshot *repository.RankSnapshot, ttlHours int) error {
	items := make([]firestoreRankItem, len(snapshot.Entries))
	for i, e := range snapshot.Entries {
		items[i] = firestoreRankItem{AreaCode: e.AreaCode, Rank: e.Rank}
	}

	doc := firestoreRankSnapshot{
		Tier:     string(snapshot.Tier),
		Metric:   string(snapshot.Metric),
		Quarter:  snapshot.Quarter,
		Entries:  items,
		ExpireAt: time.Now().Add(time.Duration(ttlHours) * time.Hour),
	}

	docID := snapshotDocID(snapshot.Tier, snapshot.Metric)
	if _, err := r.client.Collection("rankSnapshots").Doc(docID).Set(ctx, doc); err != nil {
		return fmt.Errorf("ランクスナップショットの保存に失敗しました: %w", err)
	}

	log.Printf("✅ Rank snapshot saved: %s (expires in %d hours)", docID, ttlHours)
	return nil
}

// Load 保存済みスナップショットを取得する。存在しない・期限切れの場合はnilを返す。
func (r *FirestoreRankSnapshotRepository) Load(ctx context.Context, tier model.Tier, metric model.Metric) (*repository.RankSnapshot, error) {
	docID := snapshotDocID(tier, metric)
	doc, err := r.client.Collection("rankSnapshots").Doc(docID).Get(ctx)
	if err != nil {
		// Firestoreのエラータイプをチェック
		if status := err.Error(); strings.Contains(status, "NotFound") || strings.Contains(status, "not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("ランクスナップショットの取得に失敗しました: %w", err)
	}

	var data firestoreRankSnapshot
	if err := doc.DataTo(&data); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}

	// TTLポリシーによる削除はベストエフォートなので期限も確認する
	if time.Now().After(data.ExpireAt) {
		return nil, nil
	}

	entries := make([]model.RankEntry, len(data.Entries))
	for i, item := range data.Entries {
		entries[i] = model.RankEntry{AreaCode: item.AreaCode, Metric: model.Metric(data.Metric), Rank: item.Rank}
	}

	return &repository.RankSnapshot{
		Tier:    model.Tier(data.Tier),
		Metric:  model.Metric(data.Metric),
		Quarter: data.Quarter,
		Entries: entries,
	}, nil
}
