package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/service"
)

// MetricsHandler 四半期メトリクス集計に関するHTTPハンドラー
type MetricsHandler struct {
	aggregator service.MetricsAggregatorService
}

// NewMetricsHandler MetricsHandlerの新しいインスタンスを作成
func NewMetricsHandler(aggregator service.MetricsAggregatorService) *MetricsHandler {
	return &MetricsHandler{
		aggregator: aggregator,
	}
}

// GetMetrics GET /api/metrics - 指定エリアの四半期メトリクスを取得
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	tierParam := c.Query("tier")
	if tierParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "tier parameter is required (gu, dong, commercial, building, city)",
		})
		return
	}
	tier, err := model.ParseTier(tierParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid tier value",
		})
		return
	}

	codesParam := c.Query("codes")
	if codesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "codes parameter is required (comma-separated area codes)",
		})
		return
	}
	var codes []string
	for _, code := range strings.Split(codesParam, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	snapshots, err := h.aggregator.AggregateMetrics(c.Request.Context(), tier, codes, c.Query("quarter"), c.Query("industry"))
	if err != nil {
		var noData *model.NoDataError
		if errors.As(err, &noData) {
			// 「データなし」は描画可能な状態として200で返す
			c.JSON(http.StatusOK, gin.H{
				"status":    "no_data",
				"snapshots": []model.MetricSnapshot{},
			})
			return
		}
		writeStoreError(c, err, "Failed to aggregate metrics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"snapshots": snapshots,
	})
}
