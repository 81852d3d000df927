package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/usecase"
)

// GridHandler グリッド時間帯統計に関するHTTPハンドラー
type GridHandler struct {
	gridUseCase usecase.GridStatsUseCase
}

// NewGridHandler GridHandlerの新しいインスタンスを作成
func NewGridHandler(gridUseCase usecase.GridStatsUseCase) *GridHandler {
	return &GridHandler{
		gridUseCase: gridUseCase,
	}
}

// GetGridStats GET /api/grid - 境界ボックス内のグリッド別時間帯統計を取得
func (h *GridHandler) GetGridStats(c *gin.Context) {
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

	response, err := h.gridUseCase.GridTimeSegments(c.Request.Context(), bbox)
	if err != nil {
		writeStoreError(c, err, "Failed to get grid stats")
		return
	}

	c.JSON(http.StatusOK, response)
}
