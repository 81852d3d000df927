package model

import (
	"fmt"
	"strings"
	"time"
)

// NoDataError 要求されたティア・エリアに対してどの四半期にも
// スナップショットが存在しない場合のエラー。UIでは「データなし」として
// 描画される状態であり、クラッシュではない。
type NoDataError struct {
	Tier  Tier
	Codes []string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("ティア %s のエリア [%s] にデータが存在しません", e.Tier, strings.Join(e.Codes, ","))
}

// StoreQueryError ストアへのクエリ自体が失敗した場合のエラー。
// ビューポートクエリは空リストへ縮退するが、集計クエリはこのエラーを
// そのまま伝播する（売上を黙って0にするとランキングを誤らせるため）。
type StoreQueryError struct {
	Op  string
	Err error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("ストアクエリ失敗 (%s): %v", e.Op, e.Err)
}

func (e *StoreQueryError) Unwrap() error {
	return e.Err
}

// StoreTimeoutError ストアクエリが設定されたタイムアウトを超過した場合のエラー
type StoreTimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *StoreTimeoutError) Error() string {
	return fmt.Sprintf("ストアクエリタイムアウト (%s): %v 超過", e.Op, e.Timeout)
}
