package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/usecase"
)

// ViewportHandler ビューポートクエリに関するHTTPハンドラー
type ViewportHandler struct {
	viewportUseCase usecase.ViewportMetricsUseCase
}

// NewViewportHandler ViewportHandlerの新しいインスタンスを作成
func NewViewportHandler(viewportUseCase usecase.ViewportMetricsUseCase) *ViewportHandler {
	return &ViewportHandler{
		viewportUseCase: viewportUseCase,
	}
}

// GetViewport GET /api/viewport - ビューポート内のエリアフィーチャーと指標を取得
func (h *ViewportHandler) GetViewport(c *gin.Context) {
	zoomParam := c.Query("zoom")
	if zoomParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "zoom parameter is required",
		})
		return
	}
	zoom, err := strconv.Atoi(zoomParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid zoom value",
		})
		return
	}

	bboxParam := c.Query("bbox")
	if bboxParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "bbox parameter is required (format: min_lng,min_lat,max_lng,max_lat)",
		})
		return
	}
	bbox, err := model.ParseBoundingBox(bboxParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": err.Error(),
		})
		return
	}

	metric := model.MetricRevenue // デフォルトは売上表示
	if metricParam := c.Query("metric"); metricParam != "" {
		metric, err = model.ParseMetric(metricParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_parameter",
				"message": "metric must be one of: revenue, population, opening, closing",
			})
			return
		}
	}

	req := &model.ViewportRequest{
		Zoom:         zoom,
		BBox:         bbox,
		Metric:       metric,
		Quarter:      c.Query("quarter"),
		IndustryCode: c.Query("industry"),
		SessionID:    c.Query("session"),
	}

	// ユースケース層で処理
	response, err := h.viewportUseCase.QueryViewport(c.Request.Context(), req)
	if err != nil {
		writeStoreError(c, err, "Failed to query viewport")
		return
	}

	c.JSON(http.StatusOK, response)
}

// writeStoreError ストア系エラーをHTTPレスポンスに変換する共通処理
func writeStoreError(c *gin.Context, err error, message string) {
	var timeout *model.StoreTimeoutError
	if errors.As(err, &timeout) {
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "store_timeout",
			"message": message + ": " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": message + ": " + err.Error(),
	})
}
