package order

import (
	"context"

	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, buyerID, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, buyerID string, filters *dto.OrderFilters) ([]model.Order, int, error)
	Reorder(ctx context.Context, buyerID, orderID string) (*model.Order, error)
}
