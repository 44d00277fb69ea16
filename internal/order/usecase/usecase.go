package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/notification"
	"github.com/warestock/order-service/internal/order"
	"github.com/warestock/order-service/internal/order/dto"
	"github.com/warestock/order-service/internal/product"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo        order.Repository
	productRepo product.Repository
	userReader  order.UserReader
	dispatcher  notification.Dispatcher
	cache       *cache.RedisClient
	logger      logger.ZapLogger
}

func NewOrderUseCase(
	repo order.Repository,
	productRepo product.Repository,
	userReader order.UserReader,
	dispatcher notification.Dispatcher,
	c *cache.RedisClient,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:        repo,
		productRepo: productRepo,
		userReader:  userReader,
		dispatcher:  dispatcher,
		cache:       c,
		logger:      log,
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item: %w", apperrors.ErrInvalidInput)
	}

	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, apperrors.ErrInvalidQuantity)
		}
		if !item.PurchasePrice.IsPositive() {
			return nil, fmt.Errorf("product %s: purchase price must be positive: %w",
				item.ProductID, apperrors.ErrInvalidInput)
		}
	}

	products, err := uc.loadProducts(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		ID:        uuid.New().String(),
		BuyerID:   input.BuyerID,
		OrderDate: time.Now(),
	}

	items := make([]model.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, model.OrderItem{
			ID:            uuid.New().String(),
			OrderID:       o.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
		})
	}

	if err := uc.repo.CreateOrderTx(ctx, o, items); err != nil {
		var insufficient *apperrors.InsufficientStockError
		if errors.As(err, &insufficient) {
			if p, ok := products[insufficient.ProductID]; ok {
				insufficient.ProductName = p.Name
			}
			uc.logger.Error("insufficient stock for order",
				zap.String("product_id", insufficient.ProductID),
				zap.Int("available", insufficient.Available),
				zap.Int("requested", insufficient.Requested),
			)
		}
		return nil, err
	}
	o.Items = items

	// Stock changed; readers must not see the old quantities.
	if err := uc.cache.InvalidatePattern(ctx, "stocks:list:*"); err != nil {
		uc.logger.Error("failed to invalidate stock cache", zap.Error(err))
	}

	uc.sendConfirmation(ctx, o, products)

	return o, nil
}

func (uc *orderUseCase) loadProducts(ctx context.Context, items []dto.OrderItemInput) (map[string]model.Product, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	found, err := uc.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	products := make(map[string]model.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}
	for _, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, apperrors.ErrNotFound)
		}
	}
	return products, nil
}

// sendConfirmation dispatches the order confirmation email. The order is
// already committed; failure here is logged and swallowed.
func (uc *orderUseCase) sendConfirmation(ctx context.Context, o *model.Order, products map[string]model.Product) {
	buyer, err := uc.userReader.FindUserByID(ctx, o.BuyerID)
	if err != nil || buyer == nil {
		uc.logger.Warn("could not resolve buyer for order confirmation",
			zap.String("order_id", o.ID), zap.Error(err))
		return
	}

	var lines []string
	for _, item := range o.Items {
		name := item.ProductID
		if p, ok := products[item.ProductID]; ok {
			name = p.Name
		}
		lines = append(lines, fmt.Sprintf("%s x%d @ %s", name, item.Quantity, item.PurchasePrice.String()))
	}

	err = uc.dispatcher.Send(ctx, notification.TemplateOrderConfirmation, buyer.Email, map[string]string{
		"order_id":     o.ID,
		"line_summary": strings.Join(lines, "\n"),
	})
	if err != nil {
		uc.logger.Warn("failed to dispatch order confirmation",
			zap.String("order_id", o.ID), zap.Error(err))
		return
	}

	if err := uc.repo.MarkEmailSent(ctx, o.ID); err != nil {
		uc.logger.Warn("failed to mark order email sent",
			zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	o.EmailSent = true
}

func (uc *orderUseCase) GetOrder(ctx context.Context, buyerID, orderID string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Orders are scoped to their buyer; leaking existence is not ok.
	if o == nil || o.BuyerID != buyerID {
		return nil, apperrors.ErrNotFound
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, buyerID string, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAllByBuyer(ctx, buyerID, filters)
}

// Reorder creates a fresh order from an existing order's lines at their
// recorded purchase prices.
func (uc *orderUseCase) Reorder(ctx context.Context, buyerID, orderID string) (*model.Order, error) {
	original, err := uc.GetOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}

	input := &dto.CreateOrderInput{BuyerID: buyerID}
	for _, item := range original.Items {
		input.Items = append(input.Items, dto.OrderItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
		})
	}

	return uc.CreateOrder(ctx, input)
}
