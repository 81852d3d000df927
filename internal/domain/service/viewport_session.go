package service

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"BizMap-App/internal/domain/model"
)

// sessionScope 累積セットのスコープ。ティア・メトリクスモード・業種フィルタの
// いずれかが変わると既存の累積セットは破棄される。
type sessionScope struct {
	Tier     model.Tier
	Metric   model.Metric
	Industry string
}

// ViewportSession 1つの地図セッションが所有する累積（既出）セット。
// グローバルなシングルトンではなく呼び出し側がIDで保持するため、
// 並行する独立した地図セッション同士が重複排除状態を共有することはない。
type ViewportSession struct {
	mu      sync.Mutex
	id      string
	scope   sessionScope
	visited map[string]struct{}
}

// ID セッションID
func (s *ViewportSession) ID() string {
	return s.id
}

// FilterNew スコープを同期した上で、未出のフィーチャーのみを返し、
// そのコードを既出セットに記録する。スコープが変わった場合はセットを
// リセットしてから処理する。
func (s *ViewportSession) FilterNew(scope sessionScope, features []model.AreaFeature) []model.AreaFeature {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scope != scope || s.visited == nil {
		s.scope = scope
		s.visited = make(map[string]struct{})
	}

	fresh := make([]model.AreaFeature, 0, len(features))
	for _, f := range features {
		if _, seen := s.visited[f.Code]; seen {
			continue
		}
		s.visited[f.Code] = struct{}{}
		fresh = append(fresh, f)
	}
	return fresh
}

// Reset 累積セットを明示的に破棄する
func (s *ViewportSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = make(map[string]struct{})
}

// VisitedCount 既出セットの件数（テスト・デバッグ用）
func (s *ViewportSession) VisitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// SessionRegistry ビューポートセッションのプロセス内レジストリ。
// パン操作中の並行リクエストからアクセスされるためミューテックスで保護する。
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*ViewportSession
}

// NewSessionRegistry 新しいSessionRegistryを作成
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*ViewportSession),
	}
}

// Acquire 指定IDのセッションを取得する。IDが空または未知の場合は
// 新しいセッションを割り当てて返す。
func (r *SessionRegistry) Acquire(id string) *ViewportSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id = strings.TrimSpace(id); id != "" {
		if s, ok := r.sessions[id]; ok {
			return s
		}
	}

	s := &ViewportSession{
		id:      uuid.New().String(),
		visited: make(map[string]struct{}),
	}
	r.sessions[s.id] = s
	return s
}

// Release セッションを破棄する
func (r *SessionRegistry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
