package stock

import (
	"context"

	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/stock/dto"
)

type Repository interface {
	Create(ctx context.Context, stock *model.Stock, movement *model.StockMovement) error
	FindByID(ctx context.Context, id string) (*model.Stock, error)
	FindByProduct(ctx context.Context, productID string) (*model.Stock, error)
	FindAll(ctx context.Context, filters *dto.StockFilters) ([]model.Stock, int, error)
	Delete(ctx context.Context, id string) error

	// AdjustQuantity applies delta to the product's stock inside a
	// transaction holding a row lock, and logs a movement. The resulting
	// quantity is never allowed below zero.
	AdjustQuantity(ctx context.Context, productID string, delta int, movementType, notes string) (*model.Stock, error)

	// SetQuantity overwrites the quantity under the same locking scheme.
	SetQuantity(ctx context.Context, productID string, value int, notes string) (*model.Stock, error)

	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
