package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	domainrepo "BizMap-App/internal/domain/repository"
	"BizMap-App/internal/domain/service"
	"BizMap-App/internal/handler"
	"BizMap-App/internal/infrastructure/database"
	fsinfra "BizMap-App/internal/infrastructure/firestore"
	repoimpl "BizMap-App/internal/repository"
	"BizMap-App/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabasePassword := os.Getenv("SUPABASE_DB_PASSWORD")

	if supabaseURL == "" || supabasePassword == "" {
		fmt.Println("⚠️  環境変数が設定されていません:")
		fmt.Println("必要な環境変数: SUPABASE_URL, SUPABASE_DB_PASSWORD")
		fmt.Println("\n.envファイルを作成するか、環境変数を設定してください")
		log.Fatal("Environment variables not set")
	}

	fmt.Println("Initializing PostgreSQL client...")
	pgClient, err := database.NewPostgreSQLClient()
	if err != nil {
		log.Fatalf("PostgreSQLクライアント初期化失敗: %v", err)
	}
	defer pgClient.Close()

	fmt.Println("Performing PostgreSQL health check...")
	if err := pgClient.HealthCheck(); err != nil {
		log.Fatalf("PostgreSQLヘルスチェック失敗: %v", err)
	}
	fmt.Println("✅ PostgreSQL connection successful!")

	timeout := repoimpl.QueryTimeoutFromEnv()
	areaRepo := repoimpl.NewPostgresAreaRepository(pgClient, timeout)
	metricsRepo := repoimpl.NewPostgresMetricsRepository(pgClient, timeout)
	gridRepo := repoimpl.NewPostgresPopulationGridRepository(pgClient, timeout)

	// DB直接接続が使えない場合はSupabase (PostgREST) 実装に切り替えられる
	var trendRepo domainrepo.TrendRepository = repoimpl.NewPostgresTrendRepository(pgClient, timeout)
	if os.Getenv("TREND_VIA_SUPABASE") == "true" {
		supabaseClient, err := database.NewSupabaseClient()
		if err != nil {
			log.Fatalf("Supabaseクライアント初期化失敗: %v", err)
		}
		trendRepo = repoimpl.NewSupabaseTrendRepository(supabaseClient)
		fmt.Println("✅ Trend repository: Supabase (PostgREST)")
	}

	// Firestoreはランクスナップショットのウォームスタート用（任意）
	var snapshotRepo domainrepo.RankSnapshotRepository
	if projectID := os.Getenv("GOOGLE_CLOUD_PROJECT"); projectID != "" {
		fsClient, err := fsinfra.NewFirestoreClient(context.Background(), projectID)
		if err != nil {
			log.Printf("⚠️ Firestoreクライアント初期化失敗、ウォームスタートなしで継続: %v", err)
		} else {
			defer fsClient.Close()
			snapshotRepo = repoimpl.NewFirestoreRankSnapshotRepository(fsClient.GetClient())
			fmt.Println("✅ Firestore rank snapshot repository enabled")
		}
	}

	registry := service.NewSessionRegistry()
	viewportService := service.NewViewportQueryService(areaRepo)
	aggregator := service.NewMetricsAggregatorService(metricsRepo)
	ranking := service.NewRankingService(metricsRepo, trendRepo, snapshotRepo, service.NewRankCache())

	viewportUseCase := usecase.NewViewportMetricsUseCase(registry, viewportService, aggregator, ranking)
	rankUseCase := usecase.NewRankUseCase(aggregator, ranking)
	gridUseCase := usecase.NewGridStatsUseCase(service.NewGridSegmentService(gridRepo))

	viewportHandler := handler.NewViewportHandler(viewportUseCase)
	metricsHandler := handler.NewMetricsHandler(aggregator)
	rankHandler := handler.NewRankHandler(rankUseCase)
	gridHandler := handler.NewGridHandler(gridUseCase)

	router := gin.Default()
	router.GET("/api/health", func(c *gin.Context) {
		if err := pgClient.HealthCheck(); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "message": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy", "service": "BizMap-App"})
	})
	router.GET("/api/viewport", viewportHandler.GetViewport)
	router.GET("/api/metrics", metricsHandler.GetMetrics)
	router.GET("/api/rank", rankHandler.GetRank)
	router.GET("/api/grid", gridHandler.GetGridStats)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("BizMap-App server starting on :%s...\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("サーバー起動失敗: %v", err)
	}
}
