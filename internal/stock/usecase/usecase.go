package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/product"
	"github.com/warestock/order-service/internal/stock"
	"github.com/warestock/order-service/internal/stock/dto"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type stockUseCase struct {
	repo        stock.Repository
	productRepo product.Repository
	cache       *cache.RedisClient
	logger      logger.ZapLogger
}

func NewStockUseCase(repo stock.Repository, productRepo product.Repository, c *cache.RedisClient, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		repo:        repo,
		productRepo: productRepo,
		cache:       c,
		logger:      log,
	}
}

func (uc *stockUseCase) CreateStock(ctx context.Context, input *dto.CreateStockInput) (*model.Stock, error) {
	if input.Quantity < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	p, err := uc.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %s: %w", input.ProductID, apperrors.ErrNotFound)
	}

	existing, err := uc.repo.FindByProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("stock for product %s already exists: %w", input.ProductID, apperrors.ErrInvalidInput)
	}

	now := time.Now()
	s := &model.Stock{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		UpdatedAt: now,
	}
	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		MovementType:   "initial",
		QuantityChange: input.Quantity,
		QuantityBefore: 0,
		QuantityAfter:  input.Quantity,
		Notes:          "stock record created",
		CreatedAt:      now,
	}

	if err := uc.repo.Create(ctx, s, movement); err != nil {
		return nil, err
	}

	uc.invalidateStockCache(ctx)
	return s, nil
}

func (uc *stockUseCase) GetStock(ctx context.Context, id string) (*model.Stock, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (uc *stockUseCase) GetQuantity(ctx context.Context, productID string) (int, error) {
	s, err := uc.repo.FindByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if s == nil {
		return 0, fmt.Errorf("stock for product %s: %w", productID, apperrors.ErrNotFound)
	}
	return s.Quantity, nil
}

func (uc *stockUseCase) ListStocks(ctx context.Context, filters *dto.StockFilters) ([]model.Stock, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var result struct {
				Stocks []model.Stock
				Count  int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				// Cache hit
				return result.Stocks, result.Count, nil
			}
		}
	}

	stocks, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		cacheData := struct {
			Stocks []model.Stock
			Count  int
		}{
			Stocks: stocks,
			Count:  count,
		}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return stocks, count, nil
}

func (uc *stockUseCase) Adjust(ctx context.Context, input *dto.AdjustStockInput) (*model.Stock, error) {
	if input.Delta == 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	// Best-effort outer guard; the row lock in the repository is what
	// actually serializes concurrent writers.
	lockKey := "lock:stock:" + input.ProductID
	lockValue := uuid.New().String()
	acquired := false
	for i := 0; i < 3; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
			break
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if acquired {
		defer uc.cache.ReleaseLock(ctx, lockKey, lockValue)
	}

	s, err := uc.repo.AdjustQuantity(ctx, input.ProductID, input.Delta, "adjustment", input.Reason)
	if err != nil {
		return nil, err
	}

	uc.invalidateStockCache(ctx)
	return s, nil
}

func (uc *stockUseCase) SetQuantity(ctx context.Context, input *dto.SetStockInput) (*model.Stock, error) {
	if input.Quantity < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	s, err := uc.repo.SetQuantity(ctx, input.ProductID, input.Quantity, input.Reason)
	if err != nil {
		return nil, err
	}

	uc.invalidateStockCache(ctx)
	return s, nil
}

func (uc *stockUseCase) DeleteStock(ctx context.Context, id string) error {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return apperrors.ErrNotFound
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.invalidateStockCache(ctx)
	return nil
}

func (uc *stockUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *stockUseCase) generateCacheKey(filters *dto.StockFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("stocks:list:%x", md5.Sum(data)), nil
}

// invalidateStockCache runs synchronously: a read immediately after a write
// must observe the new value.
func (uc *stockUseCase) invalidateStockCache(ctx context.Context) {
	if err := uc.cache.InvalidatePattern(ctx, "stocks:list:*"); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Error("failed to invalidate stock cache", zap.Error(err))
	}
}
