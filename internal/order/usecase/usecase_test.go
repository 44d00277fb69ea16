package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/order/dto"
	productdto "github.com/warestock/order-service/internal/product/dto"
	"github.com/warestock/order-service/pkg/cache"
	"github.com/warestock/order-service/pkg/logger"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	stock  map[string]int
	orders map[string]*model.Order

	emailSent   []string
	createErr   error
	markSentErr error
}

func newFakeOrderRepo(stock map[string]int) *fakeOrderRepo {
	return &fakeOrderRepo{
		stock:  stock,
		orders: make(map[string]*model.Order),
	}
}

func (r *fakeOrderRepo) CreateOrderTx(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate every line before any mutation, like the real transaction.
	for _, item := range items {
		available := r.stock[item.ProductID]
		if available < item.Quantity {
			return &apperrors.InsufficientStockError{
				ProductID: item.ProductID,
				Available: available,
				Requested: item.Quantity,
			}
		}
	}
	for _, item := range items {
		r.stock[item.ProductID] -= item.Quantity
	}

	stored := *order
	stored.Items = items
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id], nil
}

func (r *fakeOrderRepo) FindAllByBuyer(ctx context.Context, buyerID string, filters *dto.OrderFilters) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) MarkEmailSent(ctx context.Context, orderID string) error {
	if r.markSentErr != nil {
		return r.markSentErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emailSent = append(r.emailSent, orderID)
	return nil
}

type fakeProductRepo struct {
	products map[string]model.Product
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error { return nil }

func (r *fakeProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if p, ok := r.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context, filters *productdto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *model.Product) error { return nil }
func (r *fakeProductRepo) Delete(ctx context.Context, id string) error        { return nil }

type fakeUserReader struct {
	users map[string]*model.User
}

func (r *fakeUserReader) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	sent    []sentEmail
	sendErr error
}

type sentEmail struct {
	Template  string
	Recipient string
	Context   map[string]string
}

func (d *fakeDispatcher) Send(ctx context.Context, template, recipient string, templateCtx map[string]string) error {
	if d.sendErr != nil {
		return d.sendErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentEmail{Template: template, Recipient: recipient, Context: templateCtx})
	return nil
}

func newTestCache(t *testing.T) *cache.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return &cache.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProducts() map[string]model.Product {
	return map[string]model.Product{
		"prod-a": {BaseModel: model.BaseModel{ID: "prod-a"}, Name: "Pallet Jack", Price: price("52000")},
		"prod-b": {BaseModel: model.BaseModel{ID: "prod-b"}, Name: "Hand Truck", Price: price("25000")},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 5, "prod-b": 3})
	dispatcher := &fakeDispatcher{}
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{users: map[string]*model.User{
			"buyer-1": {ID: "buyer-1", Email: "buyer@example.com"},
		}},
		dispatcher,
		newTestCache(t),
		logger.NewNop(),
	)

	o, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items: []dto.OrderItemInput{
			{ProductID: "prod-a", Quantity: 2, PurchasePrice: price("52000")},
			{ProductID: "prod-b", Quantity: 1, PurchasePrice: price("25000")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, o)
	require.Len(t, o.Items, 2)

	assert.Equal(t, "buyer-1", o.BuyerID)
	assert.True(t, o.Items[0].PurchasePrice.Equal(price("52000")))
	assert.True(t, o.Items[1].PurchasePrice.Equal(price("25000")))

	assert.Equal(t, 3, repo.stock["prod-a"])
	assert.Equal(t, 2, repo.stock["prod-b"])

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "order_confirmation", dispatcher.sent[0].Template)
	assert.Equal(t, "buyer@example.com", dispatcher.sent[0].Recipient)
	assert.True(t, o.EmailSent)
	assert.Equal(t, []string{o.ID}, repo.emailSent)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 5, "prod-b": 0})
	dispatcher := &fakeDispatcher{}
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{},
		dispatcher,
		newTestCache(t),
		logger.NewNop(),
	)

	o, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items: []dto.OrderItemInput{
			{ProductID: "prod-a", Quantity: 2, PurchasePrice: price("52000")},
			{ProductID: "prod-b", Quantity: 1, PurchasePrice: price("25000")},
		},
	})
	require.Error(t, err)
	assert.Nil(t, o)

	var insufficient *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "prod-b", insufficient.ProductID)
	assert.Equal(t, 0, insufficient.Available)
	assert.Equal(t, 1, insufficient.Requested)
	assert.Equal(t, "Hand Truck", insufficient.ProductName)

	// No partial state: the other line was not decremented and no order stored.
	assert.Equal(t, 5, repo.stock["prod-a"])
	assert.Empty(t, repo.orders)
	assert.Empty(t, dispatcher.sent)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 5})
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{},
		&fakeDispatcher{},
		newTestCache(t),
		logger.NewNop(),
	)

	_, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items: []dto.OrderItemInput{
			{ProductID: "prod-missing", Quantity: 1, PurchasePrice: price("100")},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, repo.orders)
}

func TestCreateOrder_InvalidInput(t *testing.T) {
	uc := NewOrderUseCase(
		newFakeOrderRepo(map[string]int{"prod-a": 5}),
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{},
		&fakeDispatcher{},
		newTestCache(t),
		logger.NewNop(),
	)

	_, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{BuyerID: "buyer-1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items:   []dto.OrderItemInput{{ProductID: "prod-a", Quantity: 0, PurchasePrice: price("10")}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

	_, err = uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items:   []dto.OrderItemInput{{ProductID: "prod-a", Quantity: 1, PurchasePrice: price("-10")}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateOrder_DispatchFailureDoesNotFailOrder(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 5})
	dispatcher := &fakeDispatcher{sendErr: errors.New("broker down")}
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{users: map[string]*model.User{
			"buyer-1": {ID: "buyer-1", Email: "buyer@example.com"},
		}},
		dispatcher,
		newTestCache(t),
		logger.NewNop(),
	)

	o, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items:   []dto.OrderItemInput{{ProductID: "prod-a", Quantity: 1, PurchasePrice: price("52000")}},
	})
	require.NoError(t, err)
	assert.False(t, o.EmailSent)
	assert.Empty(t, repo.emailSent)
	assert.Equal(t, 4, repo.stock["prod-a"])
}

func TestCreateOrder_ConcurrentLastUnits(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 1})
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{users: map[string]*model.User{
			"buyer-1": {ID: "buyer-1", Email: "b1@example.com"},
			"buyer-2": {ID: "buyer-2", Email: "b2@example.com"},
		}},
		&fakeDispatcher{},
		newTestCache(t),
		logger.NewNop(),
	)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, buyer := range []string{"buyer-1", "buyer-2"} {
		wg.Add(1)
		go func(buyerID string) {
			defer wg.Done()
			_, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
				BuyerID: buyerID,
				Items:   []dto.OrderItemInput{{ProductID: "prod-a", Quantity: 1, PurchasePrice: price("52000")}},
			})
			results <- err
		}(buyer)
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else if apperrors.IsInsufficientStock(err) {
			failures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 0, repo.stock["prod-a"])
}

func TestGetOrder_ScopedToBuyer(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 5})
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{users: map[string]*model.User{
			"buyer-1": {ID: "buyer-1", Email: "buyer@example.com"},
		}},
		&fakeDispatcher{},
		newTestCache(t),
		logger.NewNop(),
	)

	o, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items:   []dto.OrderItemInput{{ProductID: "prod-a", Quantity: 1, PurchasePrice: price("52000")}},
	})
	require.NoError(t, err)

	got, err := uc.GetOrder(context.Background(), "buyer-1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = uc.GetOrder(context.Background(), "someone-else", o.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReorder(t *testing.T) {
	repo := newFakeOrderRepo(map[string]int{"prod-a": 5, "prod-b": 5})
	uc := NewOrderUseCase(
		repo,
		&fakeProductRepo{products: testProducts()},
		&fakeUserReader{users: map[string]*model.User{
			"buyer-1": {ID: "buyer-1", Email: "buyer@example.com"},
		}},
		&fakeDispatcher{},
		newTestCache(t),
		logger.NewNop(),
	)

	original, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		BuyerID: "buyer-1",
		Items: []dto.OrderItemInput{
			{ProductID: "prod-a", Quantity: 2, PurchasePrice: price("52000")},
			{ProductID: "prod-b", Quantity: 1, PurchasePrice: price("25000")},
		},
	})
	require.NoError(t, err)

	repeat, err := uc.Reorder(context.Background(), "buyer-1", original.ID)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, repeat.ID)
	require.Len(t, repeat.Items, 2)
	assert.True(t, repeat.Items[0].PurchasePrice.Equal(price("52000")))

	// Both orders drew down the same stock.
	assert.Equal(t, 1, repo.stock["prod-a"])
	assert.Equal(t, 3, repo.stock["prod-b"])

	_, err = uc.Reorder(context.Background(), "someone-else", original.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
