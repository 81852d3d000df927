package test

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"BizMap-App/internal/domain/repository"
	"BizMap-App/internal/infrastructure/database"
	repoimpl "BizMap-App/internal/repository"
)

// setupTestEnvironment は統一されたテスト環境のセットアップを行う
func setupTestEnvironment() error {
	if err := godotenv.Load("../.env"); err != nil {
		// CI環境等では.envが存在しない場合があるため警告のみ
	}

	// 必要な環境変数の確認
	requiredVars := []string{
		"SUPABASE_URL",
		"SUPABASE_DB_PASSWORD",
	}

	missingVars := []string{}
	for _, envVar := range requiredVars {
		if os.Getenv(envVar) == "" {
			missingVars = append(missingVars, envVar)
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("必要な環境変数が設定されていません: %v", missingVars)
	}
	return nil
}

// setupTestMetricsRepository は実DBに接続するMetricsRepositoryをセットアップする（リトライ付き）
func setupTestMetricsRepository() (repository.MetricsRepository, func(), error) {
	if err := setupTestEnvironment(); err != nil {
		return nil, nil, err
	}

	// 接続テストでは短いリトライ間隔を使用
	postgresClient, err := database.NewPostgreSQLClientWithRetry(5, 1*time.Second)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		postgresClient.Close()
	}

	metricsRepo := repoimpl.NewPostgresMetricsRepository(postgresClient, repoimpl.QueryTimeoutFromEnv())
	return metricsRepo, cleanup, nil
}

// setupTestAreaRepository は実DBに接続するAreaRepositoryをセットアップする
func setupTestAreaRepository() (repository.AreaRepository, func(), error) {
	if err := setupTestEnvironment(); err != nil {
		return nil, nil, err
	}

	postgresClient, err := database.NewPostgreSQLClientWithRetry(5, 1*time.Second)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		postgresClient.Close()
	}

	areaRepo := repoimpl.NewPostgresAreaRepository(postgresClient, repoimpl.QueryTimeoutFromEnv())
	return areaRepo, cleanup, nil
}
