package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/supplier"
	"github.com/warestock/order-service/internal/supplier/dto"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type supplierUseCase struct {
	repo   supplier.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewSupplierUseCase(repo supplier.Repository, c *cache.RedisClient, log logger.ZapLogger) supplier.UseCase {
	return &supplierUseCase{
		repo:   repo,
		cache:  c,
		logger: log,
	}
}

func (uc *supplierUseCase) CreateSupplier(ctx context.Context, input *dto.CreateSupplierInput) (*model.Supplier, error) {
	if input.Name == "" {
		return nil, apperrors.ErrInvalidInput
	}

	now := time.Now()
	s := &model.Supplier{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      input.Name,
		Country:   input.Country,
		City:      input.City,
		Street:    input.Street,
		Building:  input.Building,
	}

	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *supplierUseCase) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (uc *supplierUseCase) ListSuppliers(ctx context.Context, filters *dto.SupplierFilters) ([]model.Supplier, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *supplierUseCase) UpdateSupplier(ctx context.Context, input *dto.UpdateSupplierInput) (*model.Supplier, error) {
	s, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperrors.ErrNotFound
	}

	s.Name = input.Name
	s.Country = input.Country
	s.City = input.City
	s.Street = input.Street
	s.Building = input.Building
	s.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *supplierUseCase) DeleteSupplier(ctx context.Context, id string) error {
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

	// Deleting a supplier cascades to its products and stock rows. The
	// invalidation runs synchronously: a read immediately after the delete
	// must not see the cascaded rows.
	if err := uc.cache.InvalidatePattern(ctx, "products:list:*"); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Error("failed to invalidate product cache", zap.Error(err))
	}
	if err := uc.cache.InvalidatePattern(ctx, "stocks:list:*"); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Error("failed to invalidate stock cache", zap.Error(err))
	}

	return nil
}
