package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/supplier/dto"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
)

type fakeSupplierRepo struct {
	suppliers map[string]*model.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: make(map[string]*model.Supplier)}
}

func (r *fakeSupplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	stored := *s
	r.suppliers[s.ID] = &stored
	return nil
}

func (r *fakeSupplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	if s, ok := r.suppliers[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, nil
}

func (r *fakeSupplierRepo) FindAll(ctx context.Context, filters *dto.SupplierFilters) ([]model.Supplier, int, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	stored := *s
	r.suppliers[s.ID] = &stored
	return nil
}

func (r *fakeSupplierRepo) Delete(ctx context.Context, id string) error {
	delete(r.suppliers, id)
	return nil
}

func newTestSupplierUseCase(t *testing.T) (*fakeSupplierRepo, *cache.RedisClient, *supplierUseCase) {
	t.Helper()
	repo := newFakeSupplierRepo()
	mr := miniredis.RunT(t)
	c := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	uc := NewSupplierUseCase(repo, c, logger.NewNop()).(*supplierUseCase)
	return repo, c, uc
}

func createInput() *dto.CreateSupplierInput {
	return &dto.CreateSupplierInput{
		Name:     "Acme Logistics",
		Country:  "NL",
		City:     "Rotterdam",
		Street:   "Havenstraat",
		Building: "12b",
	}
}

func TestCreateSupplier(t *testing.T) {
	_, _, uc := newTestSupplierUseCase(t)

	s, err := uc.CreateSupplier(context.Background(), createInput())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Acme Logistics", s.Name)
	assert.Equal(t, "Rotterdam", s.City)

	_, err = uc.CreateSupplier(context.Background(), &dto.CreateSupplierInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetSupplier_NotFound(t *testing.T) {
	_, _, uc := newTestSupplierUseCase(t)

	_, err := uc.GetSupplier(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateSupplier(t *testing.T) {
	_, _, uc := newTestSupplierUseCase(t)
	ctx := context.Background()

	s, err := uc.CreateSupplier(ctx, createInput())
	require.NoError(t, err)

	updated, err := uc.UpdateSupplier(ctx, &dto.UpdateSupplierInput{
		ID:       s.ID,
		Name:     "Acme Logistics BV",
		Country:  "NL",
		City:     "Amsterdam",
		Street:   "Kade",
		Building: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Logistics BV", updated.Name)
	assert.Equal(t, "Amsterdam", updated.City)

	_, err = uc.UpdateSupplier(ctx, &dto.UpdateSupplierInput{ID: "no-such-id", Name: "X"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// Deleting a supplier cascades to products and stocks, so both derived list
// caches must be gone by the time the call returns.
func TestDeleteSupplier_InvalidatesCaches(t *testing.T) {
	repo, c, uc := newTestSupplierUseCase(t)
	ctx := context.Background()

	s, err := uc.CreateSupplier(ctx, createInput())
	require.NoError(t, err)

	require.NoError(t, c.Client.Set(ctx, "products:list:abc", "cached", time.Minute).Err())
	require.NoError(t, c.Client.Set(ctx, "stocks:list:abc", "cached", time.Minute).Err())

	require.NoError(t, uc.DeleteSupplier(ctx, s.ID))
	assert.Empty(t, repo.suppliers)

	keys, err := c.Client.Keys(ctx, "products:list:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = c.Client.Keys(ctx, "stocks:list:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDeleteSupplier_NotFound(t *testing.T) {
	_, _, uc := newTestSupplierUseCase(t)

	err := uc.DeleteSupplier(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
