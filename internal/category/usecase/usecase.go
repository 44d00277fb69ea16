package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/category"
	"github.com/warestock/order-service/internal/category/dto"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/pkg/logger"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if input.Name == "" {
		return nil, apperrors.ErrInvalidInput
	}

	parentID := normalizeParent(input.ParentID)
	if parentID != nil {
		parent, err := uc.repo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("parent category %s: %w", *parentID, apperrors.ErrNotFound)
		}
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParentID: parentID,
		Name:     input.Name,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperrors.ErrNotFound
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperrors.ErrNotFound
	}

	parentID := normalizeParent(input.ParentID)
	if parentID != nil {
		if err := uc.checkCycle(ctx, input.ID, *parentID); err != nil {
			return nil, err
		}
	}

	cat.Name = input.Name
	cat.ParentID = parentID
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// normalizeParent treats an empty parent id as "make this a root"; the
// parent_id column only ever holds a real id or NULL.
func normalizeParent(parentID *string) *string {
	if parentID == nil || *parentID == "" {
		return nil
	}
	return parentID
}

// checkCycle rejects a parent assignment whose ancestor chain leads back to
// the category being updated.
func (uc *categoryUseCase) checkCycle(ctx context.Context, id, parentID string) error {
	current := parentID
	for current != "" {
		if current == id {
			return fmt.Errorf("category %s cannot be its own ancestor: %w", id, apperrors.ErrInvalidInput)
		}
		node, err := uc.repo.FindByID(ctx, current)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("parent category %s: %w", current, apperrors.ErrNotFound)
		}
		if node.ParentID == nil {
			break
		}
		current = *node.ParentID
	}
	return nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return apperrors.ErrNotFound
	}
	return uc.repo.Delete(ctx, id)
}
