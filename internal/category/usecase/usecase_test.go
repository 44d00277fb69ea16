package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/category/dto"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/pkg/logger"
)

type fakeCategoryRepo struct {
	categories map[string]*model.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*model.Category)}
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *model.Category) error {
	stored := *c
	r.categories[c.ID] = &stored
	return nil
}

func (r *fakeCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if c, ok := r.categories[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	var out []model.Category
	for _, c := range r.categories {
		if filters != nil && filters.ParentID != nil {
			if *filters.ParentID == "" && c.ParentID != nil {
				continue
			}
			if *filters.ParentID != "" && (c.ParentID == nil || *c.ParentID != *filters.ParentID) {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, c *model.Category) error {
	stored := *c
	r.categories[c.ID] = &stored
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id string) error {
	delete(r.categories, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateCategory(t *testing.T) {
	repo := newFakeCategoryRepo()
	uc := NewCategoryUseCase(repo, logger.NewNop())

	root, err := uc.CreateCategory(context.Background(), &dto.CreateCategoryInput{Name: "Tools"})
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)

	child, err := uc.CreateCategory(context.Background(), &dto.CreateCategoryInput{
		Name:     "Power Tools",
		ParentID: &root.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
}

func TestCreateCategory_MissingParent(t *testing.T) {
	uc := NewCategoryUseCase(newFakeCategoryRepo(), logger.NewNop())

	_, err := uc.CreateCategory(context.Background(), &dto.CreateCategoryInput{
		Name:     "Orphan",
		ParentID: strPtr("no-such-parent"),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateCategory_EmptyName(t *testing.T) {
	uc := NewCategoryUseCase(newFakeCategoryRepo(), logger.NewNop())

	_, err := uc.CreateCategory(context.Background(), &dto.CreateCategoryInput{Name: ""})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateCategory_RejectsCycle(t *testing.T) {
	repo := newFakeCategoryRepo()
	uc := NewCategoryUseCase(repo, logger.NewNop())
	ctx := context.Background()

	a, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	// Direct self-parent.
	_, err = uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: a.ID, Name: "A", ParentID: &a.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// A under C would close the chain A -> B -> C -> A.
	_, err = uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: a.ID, Name: "A", ParentID: &c.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Reparenting C under A directly is fine.
	updated, err := uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: c.ID, Name: "C", ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, *updated.ParentID)
}

func TestUpdateCategory_MakeRoot(t *testing.T) {
	repo := newFakeCategoryRepo()
	uc := NewCategoryUseCase(repo, logger.NewNop())
	ctx := context.Background()

	a, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)

	updated, err := uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: b.ID, Name: "B"})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

// A pointer to an empty string means "root"; the stored parent must be nil,
// never an empty string headed for a UUID column.
func TestCategory_EmptyParentNormalizedToNil(t *testing.T) {
	repo := newFakeCategoryRepo()
	uc := NewCategoryUseCase(repo, logger.NewNop())
	ctx := context.Background()

	created, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "A", ParentID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, created.ParentID)
	assert.Nil(t, repo.categories[created.ID].ParentID)

	b, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "B", ParentID: &created.ID})
	require.NoError(t, err)

	updated, err := uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: b.ID, Name: "B", ParentID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
	assert.Nil(t, repo.categories[b.ID].ParentID)
}

func TestUpdateCategory_NotFound(t *testing.T) {
	uc := NewCategoryUseCase(newFakeCategoryRepo(), logger.NewNop())

	_, err := uc.UpdateCategory(context.Background(), &dto.UpdateCategoryInput{ID: "no-such-id", Name: "X"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCategory(t *testing.T) {
	repo := newFakeCategoryRepo()
	uc := NewCategoryUseCase(repo, logger.NewNop())
	ctx := context.Background()

	a, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "A"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteCategory(ctx, a.ID))
	assert.ErrorIs(t, uc.DeleteCategory(ctx, a.ID), apperrors.ErrNotFound)
}

func TestListCategories_RootFilter(t *testing.T) {
	repo := newFakeCategoryRepo()
	uc := NewCategoryUseCase(repo, logger.NewNop())
	ctx := context.Background()

	a, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "A"})
	require.NoError(t, err)
	_, err = uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)

	roots, count, err := uc.ListCategories(ctx, &dto.CategoryFilters{ParentID: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "A", roots[0].Name)
}
