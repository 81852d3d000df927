package repository

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"BizMap-App/internal/domain/model"
)

// DefaultQueryTimeout ストアクエリのデフォルトタイムアウト
const DefaultQueryTimeout = 5 * time.Second

// QueryTimeoutFromEnv STORE_QUERY_TIMEOUT_MS 環境変数からタイムアウトを読む
func QueryTimeoutFromEnv() time.Duration {
	if v := os.Getenv("STORE_QUERY_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return DefaultQueryTimeout
}

// classifyStoreErr クエリエラーをドメインエラーに分類する。
// タイムアウト超過はStoreTimeoutError、それ以外はStoreQueryErrorになる。
func classifyStoreErr(op string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.StoreTimeoutError{Op: op, Timeout: timeout}
	}
	return &model.StoreQueryError{Op: op, Err: err}
}
