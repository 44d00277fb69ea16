package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/stock/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, s *model.Stock, movement *model.StockMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertStock := `
        INSERT INTO stocks (id, product_id, quantity, updated_at)
        VALUES (:id, :product_id, :quantity, :updated_at)
    `
	if _, err := tx.NamedExecContext(ctx, insertStock, s); err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}

	if err := insertMovement(ctx, tx, movement); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Stock, error) {
	var stock model.Stock
	query := `SELECT * FROM stocks WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &stock, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &stock, nil
}

func (r *PGRepository) FindByProduct(ctx context.Context, productID string) (*model.Stock, error) {
	var stock model.Stock
	query := `SELECT * FROM stocks WHERE product_id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &stock, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &stock, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.StockFilters) ([]model.Stock, int, error) {
	var stocks []model.Stock
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stocks" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stocks" + whereClause + " ORDER BY updated_at DESC"
	if f.PageSize > 0 {
		offset := pageOffset(f.Page, f.PageSize)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &stocks, args)
	return stocks, count, err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM stocks WHERE id = $1", id)
	return err
}

func (r *PGRepository) AdjustQuantity(ctx context.Context, productID string, delta int, movementType, notes string) (*model.Stock, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stock, err := lockStock(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	newQuantity := stock.Quantity + delta
	if newQuantity < 0 {
		return nil, &apperrors.InsufficientStockError{
			ProductID: productID,
			Available: stock.Quantity,
			Requested: -delta,
		}
	}

	now := time.Now()
	before := stock.Quantity
	stock.Quantity = newQuantity
	stock.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`UPDATE stocks SET quantity = $1, updated_at = $2 WHERE id = $3`,
		stock.Quantity, stock.UpdatedAt, stock.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      productID,
		MovementType:   movementType,
		QuantityChange: delta,
		QuantityBefore: before,
		QuantityAfter:  stock.Quantity,
		Notes:          notes,
		CreatedAt:      now,
	}
	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stock, nil
}

func (r *PGRepository) SetQuantity(ctx context.Context, productID string, value int, notes string) (*model.Stock, error) {
	if value < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stock, err := lockStock(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := stock.Quantity
	stock.Quantity = value
	stock.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`UPDATE stocks SET quantity = $1, updated_at = $2 WHERE id = $3`,
		stock.Quantity, stock.UpdatedAt, stock.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      productID,
		MovementType:   "admin_set",
		QuantityChange: value - before,
		QuantityBefore: before,
		QuantityAfter:  value,
		Notes:          notes,
		CreatedAt:      now,
	}
	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stock, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := pageOffset(f.Page, f.PageSize)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

// lockStock loads the product's stock row under FOR UPDATE so concurrent
// writers for the same product serialize.
func lockStock(ctx context.Context, tx *sqlx.Tx, productID string) (*model.Stock, error) {
	var stock model.Stock
	err := tx.GetContext(ctx, &stock,
		`SELECT * FROM stocks WHERE product_id = $1 FOR UPDATE`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stock for product %s: %w", productID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &stock, nil
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, product_id, movement_type, quantity_change,
            quantity_before, quantity_after, reference_id, notes, created_at
        )
        VALUES (
            :id, :product_id, :movement_type, :quantity_change,
            :quantity_before, :quantity_after, :reference_id, :notes, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

// pageOffset converts 1-based page filters to a SQL offset, treating page
// values below 1 as the first page.
func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
