package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warestock/order-service/internal/apperrors"
	categorydto "github.com/warestock/order-service/internal/category/dto"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/product/dto"
	supplierdto "github.com/warestock/order-service/internal/supplier/dto"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
)

type fakeProductRepo struct {
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*model.Product)}
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	stored := *p
	r.products[p.ID] = &stored
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if p, ok := r.products[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *model.Product) error {
	stored := *p
	r.products[p.ID] = &stored
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id string) error {
	delete(r.products, id)
	return nil
}

type fakeSupplierRepo struct {
	suppliers map[string]*model.Supplier
}

func (r *fakeSupplierRepo) Create(ctx context.Context, s *model.Supplier) error { return nil }

func (r *fakeSupplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	if s, ok := r.suppliers[id]; ok {
		return s, nil
	}
	return nil, nil
}

func (r *fakeSupplierRepo) FindAll(ctx context.Context, filters *supplierdto.SupplierFilters) ([]model.Supplier, int, error) {
	return nil, 0, nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, s *model.Supplier) error { return nil }
func (r *fakeSupplierRepo) Delete(ctx context.Context, id string) error         { return nil }

type fakeCategoryRepo struct {
	categories map[string]*model.Category
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *model.Category) error { return nil }

func (r *fakeCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if c, ok := r.categories[id]; ok {
		return c, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) FindAll(ctx context.Context, filters *categorydto.CategoryFilters) ([]model.Category, int, error) {
	return nil, 0, nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, c *model.Category) error { return nil }
func (r *fakeCategoryRepo) Delete(ctx context.Context, id string) error         { return nil }

func newTestProductUseCase(t *testing.T) (*fakeProductRepo, *cache.RedisClient, *productUseCase) {
	t.Helper()
	repo := newFakeProductRepo()
	mr := miniredis.RunT(t)
	c := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	suppliers := &fakeSupplierRepo{suppliers: map[string]*model.Supplier{
		"sup-1": {BaseModel: model.BaseModel{ID: "sup-1"}, Name: "Acme"},
	}}
	categories := &fakeCategoryRepo{categories: map[string]*model.Category{
		"cat-1": {BaseModel: model.BaseModel{ID: "cat-1"}, Name: "Tools"},
	}}
	uc := NewProductUseCase(repo, suppliers, categories, c, logger.NewNop()).(*productUseCase)
	return repo, c, uc
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createInput() *dto.CreateProductInput {
	return &dto.CreateProductInput{
		Name:       "Pallet Jack",
		SupplierID: "sup-1",
		CategoryID: "cat-1",
		Price:      price("52000"),
	}
}

func TestCreateProduct(t *testing.T) {
	repo, _, uc := newTestProductUseCase(t)

	p, err := uc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "sup-1", p.SupplierID)
	assert.Len(t, repo.products, 1)
}

func TestCreateProduct_ReferenceChecks(t *testing.T) {
	repo, _, uc := newTestProductUseCase(t)
	ctx := context.Background()

	in := createInput()
	in.SupplierID = "no-such-supplier"
	_, err := uc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	in = createInput()
	in.CategoryID = "no-such-category"
	_, err = uc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Empty(t, repo.products)
}

func TestCreateProduct_InvalidInput(t *testing.T) {
	_, _, uc := newTestProductUseCase(t)
	ctx := context.Background()

	in := createInput()
	in.Name = ""
	_, err := uc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	in = createInput()
	in.Price = price("0")
	_, err = uc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateProduct_ReferenceChecks(t *testing.T) {
	_, _, uc := newTestProductUseCase(t)
	ctx := context.Background()

	p, err := uc.CreateProduct(ctx, createInput())
	require.NoError(t, err)

	_, err = uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:         p.ID,
		Name:       "Pallet Jack",
		SupplierID: "no-such-supplier",
		CategoryID: "cat-1",
		Price:      price("52000"),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:         "no-such-product",
		Name:       "Pallet Jack",
		SupplierID: "sup-1",
		CategoryID: "cat-1",
		Price:      price("52000"),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	updated, err := uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:         p.ID,
		Name:       "Pallet Jack XL",
		SupplierID: "sup-1",
		CategoryID: "cat-1",
		Price:      price("63000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pallet Jack XL", updated.Name)
	assert.True(t, updated.Price.Equal(price("63000")))
}

// Product writes must clear the product list cache before returning, and a
// delete clears the stock list cache too since the stock row cascades away.
func TestProductWrites_InvalidateCaches(t *testing.T) {
	_, c, uc := newTestProductUseCase(t)
	ctx := context.Background()

	require.NoError(t, c.Client.Set(ctx, "products:list:abc", "cached", time.Minute).Err())

	p, err := uc.CreateProduct(ctx, createInput())
	require.NoError(t, err)

	keys, err := c.Client.Keys(ctx, "products:list:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, c.Client.Set(ctx, "products:list:abc", "cached", time.Minute).Err())
	require.NoError(t, c.Client.Set(ctx, "stocks:list:abc", "cached", time.Minute).Err())

	require.NoError(t, uc.DeleteProduct(ctx, p.ID))

	keys, err = c.Client.Keys(ctx, "products:list:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = c.Client.Keys(ctx, "stocks:list:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListProducts_CacheRoundTrip(t *testing.T) {
	repo, _, uc := newTestProductUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, createInput())
	require.NoError(t, err)

	products, count, err := uc.ListProducts(ctx, &dto.ProductFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Cached copy is served even after the backing store changes.
	for id := range repo.products {
		delete(repo.products, id)
	}
	products, count, err = uc.ListProducts(ctx, &dto.ProductFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, products, 1)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	_, _, uc := newTestProductUseCase(t)

	err := uc.DeleteProduct(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
