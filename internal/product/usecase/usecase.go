package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/category"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/product"
	"github.com/warestock/order-service/internal/product/dto"
	"github.com/warestock/order-service/internal/supplier"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo         product.Repository
	supplierRepo supplier.Repository
	categoryRepo category.Repository
	cache        *cache.RedisClient
	logger       logger.ZapLogger
}

func NewProductUseCase(
	repo product.Repository,
	supplierRepo supplier.Repository,
	categoryRepo category.Repository,
	c *cache.RedisClient,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:         repo,
		supplierRepo: supplierRepo,
		categoryRepo: categoryRepo,
		cache:        c,
		logger:       log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.Name == "" || !input.Price.IsPositive() {
		return nil, apperrors.ErrInvalidInput
	}

	if err := uc.checkReferences(ctx, input.SupplierID, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:       input.Name,
		SupplierID: input.SupplierID,
		CategoryID: input.CategoryID,
		Price:      input.Price,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx)

	return p, nil
}

func (uc *productUseCase) checkReferences(ctx context.Context, supplierID, categoryID string) error {
	s, err := uc.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("supplier %s: %w", supplierID, apperrors.ErrNotFound)
	}

	c, err := uc.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("category %s: %w", categoryID, apperrors.ErrNotFound)
	}
	return nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				// Cache hit
				return result.Products, result.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{
			Products: products,
			Count:    count,
		}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return products, count, nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

// invalidateProductCache runs synchronously: a read immediately after a write
// must observe the new value.
func (uc *productUseCase) invalidateProductCache(ctx context.Context) {
	if err := uc.cache.InvalidatePattern(ctx, "products:list:*"); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Error("failed to invalidate product cache", zap.Error(err))
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.ErrNotFound
	}

	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrInvalidInput
	}
	if err := uc.checkReferences(ctx, input.SupplierID, input.CategoryID); err != nil {
		return nil, err
	}

	p.Name = input.Name
	p.SupplierID = input.SupplierID
	p.CategoryID = input.CategoryID
	p.Price = input.Price
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return apperrors.ErrNotFound
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.invalidateProductCache(ctx)
	// The product's stock row is gone too
	if err := uc.cache.InvalidatePattern(ctx, "stocks:list:*"); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Error("failed to invalidate stock cache", zap.Error(err))
	}

	return nil
}
