package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/order/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateOrderTx(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock stock rows in a stable order so concurrent orders over
	// overlapping products cannot deadlock.
	productIDs := make([]string, 0, len(items))
	requested := make(map[string]int, len(items))
	for _, item := range items {
		if _, seen := requested[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}
	sort.Strings(productIDs)

	query, args, err := sqlx.In(
		`SELECT * FROM stocks WHERE product_id IN (?) ORDER BY product_id FOR UPDATE`,
		productIDs,
	)
	if err != nil {
		return err
	}
	query = tx.Rebind(query)

	var stocks []model.Stock
	if err := tx.SelectContext(ctx, &stocks, query, args...); err != nil {
		return err
	}

	locked := make(map[string]*model.Stock, len(stocks))
	for i := range stocks {
		locked[stocks[i].ProductID] = &stocks[i]
	}

	// Validate every line before touching anything.
	for _, productID := range productIDs {
		stock, ok := locked[productID]
		available := 0
		if ok {
			available = stock.Quantity
		}
		if available < requested[productID] {
			return &apperrors.InsufficientStockError{
				ProductID: productID,
				Available: available,
				Requested: requested[productID],
			}
		}
	}

	insertOrder := `
        INSERT INTO orders (id, buyer_id, order_date, email_sent)
        VALUES (:id, :buyer_id, :order_date, :email_sent)
    `
	if _, err := tx.NamedExecContext(ctx, insertOrder, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	insertItem := `
        INSERT INTO order_items (id, order_id, product_id, quantity, purchase_price)
        VALUES (:id, :order_id, :product_id, :quantity, :purchase_price)
    `
	for i := range items {
		items[i].OrderID = order.ID
		if _, err := tx.NamedExecContext(ctx, insertItem, items[i]); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	now := time.Now()
	for _, productID := range productIDs {
		stock := locked[productID]
		before := stock.Quantity
		stock.Quantity -= requested[productID]

		if _, err := tx.ExecContext(ctx,
			`UPDATE stocks SET quantity = $1, updated_at = $2 WHERE id = $3`,
			stock.Quantity, now, stock.ID,
		); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		movement := &model.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      productID,
			MovementType:   "sale",
			QuantityChange: -requested[productID],
			QuantityBefore: before,
			QuantityAfter:  stock.Quantity,
			ReferenceID:    &order.ID,
			Notes:          "order sale",
			CreatedAt:      now,
		}
		insertMovement := `
            INSERT INTO stock_movements (
                id, product_id, movement_type, quantity_change,
                quantity_before, quantity_after, reference_id, notes, created_at
            )
            VALUES (
                :id, :product_id, :movement_type, :quantity_change,
                :quantity_before, :quantity_after, :reference_id, :notes, :created_at
            )
        `
		if _, err := tx.NamedExecContext(ctx, insertMovement, movement); err != nil {
			return fmt.Errorf("failed to log movement: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.DB.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGRepository) FindAllByBuyer(ctx context.Context, buyerID string, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	row := r.DB.QueryRowxContext(ctx, `SELECT count(*) FROM orders WHERE buyer_id = $1`, buyerID)
	if err := row.Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM orders WHERE buyer_id = $1 ORDER BY order_date DESC`
	if f.PageSize > 0 {
		offset := pageOffset(f.Page, f.PageSize)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	if err := r.DB.SelectContext(ctx, &orders, query, buyerID); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, count, nil
}

func (r *PGRepository) MarkEmailSent(ctx context.Context, orderID string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE orders SET email_sent = TRUE WHERE id = $1`, orderID)
	return err
}

func (r *PGRepository) loadItems(ctx context.Context, order *model.Order) error {
	return r.DB.SelectContext(ctx, &order.Items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY id`, order.ID)
}

// pageOffset converts 1-based page filters to a SQL offset, treating page
// values below 1 as the first page.
func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
