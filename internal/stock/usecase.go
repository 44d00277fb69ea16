package stock

import (
	"context"

	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/stock/dto"
)

type UseCase interface {
	CreateStock(ctx context.Context, input *dto.CreateStockInput) (*model.Stock, error)
	GetStock(ctx context.Context, id string) (*model.Stock, error)
	GetQuantity(ctx context.Context, productID string) (int, error)
	ListStocks(ctx context.Context, filters *dto.StockFilters) ([]model.Stock, int, error)
	Adjust(ctx context.Context, input *dto.AdjustStockInput) (*model.Stock, error)
	SetQuantity(ctx context.Context, input *dto.SetStockInput) (*model.Stock, error)
	DeleteStock(ctx context.Context, id string) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
