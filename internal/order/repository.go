package order

import (
	"context"

	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/order/dto"
)

type Repository interface {
	// CreateOrderTx persists the order with its items and decrements the
	// stock of every referenced product in a single transaction. All stock
	// rows are locked up front and every line is validated before any
	// mutation; on insufficient stock nothing is written.
	CreateOrderTx(ctx context.Context, order *model.Order, items []model.OrderItem) error

	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindAllByBuyer(ctx context.Context, buyerID string, filters *dto.OrderFilters) ([]model.Order, int, error)
	MarkEmailSent(ctx context.Context, orderID string) error
}

// UserReader is the slice of the account store the order engine needs.
type UserReader interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}
