package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/usecase"
)

// RankHandler トップ3ランキングに関するHTTPハンドラー
type RankHandler struct {
	rankUseCase usecase.RankUseCase
}

// NewRankHandler RankHandlerの新しいインスタンスを作成
func NewRankHandler(rankUseCase usecase.RankUseCase) *RankHandler {
	return &RankHandler{
		rankUseCase: rankUseCase,
	}
}

// GetRank GET /api/rank - メトリクス別トップ3ランキングを取得
func (h *RankHandler) GetRank(c *gin.Context) {
	tier, err := model.ParseTier(c.Query("tier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid tier value",
		})
		return
	}

	metric, err := model.ParseMetric(c.Query("metric"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "metric must be one of: revenue, population, opening, closing",
		})
		return
	}

	// codesが "global" の場合は全域・最新四半期のキャッシュ済みランキング
	codesParam := c.Query("codes")
	if codesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "codes parameter is required (comma-separated area codes, or \"global\")",
		})
		return
	}

	global := codesParam == usecase.RankScopeGlobal
	var codes []string
	if !global {
		for _, code := range strings.Split(codesParam, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}

	entries, err := h.rankUseCase.Rank(c.Request.Context(), tier, codes, global, metric, c.Query("quarter"))
	if err != nil {
		var noData *model.NoDataError
		if errors.As(err, &noData) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "no_data",
				"entries": []model.RankEntry{},
			})
			return
		}
		writeStoreError(c, err, "Failed to compute ranking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"entries": entries,
	})
}
