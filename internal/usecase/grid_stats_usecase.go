package usecase

import (
	"context"
	"fmt"

	"BizMap-App/internal/domain/model"
	"BizMap-App/internal/domain/service"
)

// GridStatsUseCase グリッド時間帯統計の取得
type GridStatsUseCase interface {
	GridTimeSegments(ctx context.Context, bbox model.BoundingBox) (*model.GridStatsResponse, error)
}

type gridStatsUseCaseImpl struct {
	gridService service.GridSegmentService
}

// NewGridStatsUseCase 新しいGridStatsUseCaseインスタンスを作成
func NewGridStatsUseCase(gridService service.GridSegmentService) GridStatsUseCase {
	return &gridStatsUseCaseImpl{gridService: gridService}
}

func (u *gridStatsUseCaseImpl) GridTimeSegments(ctx context.Context, bbox model.BoundingBox) (*model.GridStatsResponse, error) {
	cells, err := u.gridService.GridTimeSegments(ctx, bbox)
	if err != nil {
		return nil, fmt.Errorf("グリッド時間帯統計の取得失敗: %w", err)
	}
	return &model.GridStatsResponse{Cells: cells}, nil
}
